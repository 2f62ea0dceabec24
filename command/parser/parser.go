/*
 * IST-66 - Console command parser.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package parser implements the octal-pointer console command
// language of spec.md §6: a running "pointer" address, set with
// "/oooo", examined with "?", dumped with ". n", deposited into with
// "= v1 v2 ...", plus the W/S/P/G[W|S]/X run-control letters. The
// scanning style (position-tracked cmdLine, skipSpace/getCurrent)
// follows the teacher's command/parser and config/configparser
// scanners; the command set itself is this machine's own, the
// teacher's S/370 channel-status and PSW-dump commands having no
// analog here.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"github.com/ist66sim/ist66/emu/core"
)

// state holds the console's running pointer across commands, as
// spec.md §6's "/oooo" / "." / "=" forms all read or advance it.
type state struct {
	pointer uint32
}

var console state

type cmdLine struct {
	line string
	pos  int
}

func (l *cmdLine) skipSpace() {
	for l.pos < len(l.line) && unicode.IsSpace(rune(l.line[l.pos])) {
		l.pos++
	}
}

func (l *cmdLine) isEOL() bool {
	return l.pos >= len(l.line)
}

func (l *cmdLine) getCurrent() byte {
	if l.isEOL() {
		return 0
	}
	b := l.line[l.pos]
	l.pos++
	return b
}

// getOctal parses an unsigned octal number, returning an error if
// none is present at the current position.
func (l *cmdLine) getOctal() (uint32, error) {
	l.skipSpace()
	start := l.pos
	value := uint32(0)
	for !l.isEOL() && l.line[l.pos] >= '0' && l.line[l.pos] <= '7' {
		value = value<<3 | uint32(l.line[l.pos]-'0')
		l.pos++
	}
	if l.pos == start {
		return 0, errors.New("expected an octal number")
	}
	return value, nil
}

// ProcessCommand executes one console command line against core,
// returning true if the console should exit (the "X" command).
func ProcessCommand(commandLine string, c *core.Core) (bool, error) {
	line := &cmdLine{line: commandLine}
	line.skipSpace()
	if line.isEOL() {
		return false, nil
	}

	switch b := line.getCurrent(); b {
	case '/':
		addr, err := line.getOctal()
		if err != nil {
			return false, err
		}
		console.pointer = addr
		return false, nil

	case '?':
		printOctal(console.pointer)
		return false, nil

	case '.':
		n, err := line.getOctal()
		if err != nil {
			n = 1
		}
		for i := uint32(0); i < n; i++ {
			printWord(console.pointer, c.Examine(console.pointer))
			console.pointer++
		}
		return false, nil

	case '=':
		for {
			line.skipSpace()
			if line.isEOL() {
				break
			}
			v, err := line.getOctal()
			if err != nil {
				return false, err
			}
			c.Deposit(console.pointer, uint64(v))
			console.pointer++
		}
		return false, nil

	case 'w', 'W':
		c.Resume()
		c.Wait()
		return false, nil

	case 's', 'S':
		c.Resume()
		return false, nil

	case 'p', 'P':
		c.Pause()
		console.pointer = c.CPU.PC()
		return false, nil

	case 'g', 'G':
		c.Go(console.pointer)
		if !line.isEOL() {
			switch line.getCurrent() {
			case 'w', 'W':
				c.Wait()
			case 's', 'S':
				// free-run: already resumed by Go.
			default:
				return false, errors.New("G must be followed by W or S")
			}
		}
		return false, nil

	case 'x', 'X':
		return true, nil

	default:
		return false, errors.New("unrecognized command: " + string(b))
	}
}

func printOctal(addr uint32) {
	fmt.Println("/" + strconv.FormatUint(uint64(addr), 8))
}

func printWord(addr uint32, data uint64) {
	fmt.Println(strconv.FormatUint(uint64(addr), 8) + ": " + strconv.FormatUint(data, 8))
}

// CompleteCmd offers tab completion over the single-letter run
// commands; the address/pointer syntax has nothing worth completing.
func CompleteCmd(line string) []string {
	candidates := []string{"W", "S", "P", "GW", "GS", "X"}
	var out []string
	for _, c := range candidates {
		if len(line) <= len(c) && c[:len(line)] == line {
			out = append(out, c)
		}
	}
	return out
}
