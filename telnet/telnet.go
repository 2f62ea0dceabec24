/*
 * IST-66 - telnet server
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

// Package telnet implements spec.md §6's TTY framing: a three-state
// IAC filter (NORMAL, COMMAND, SUBNEG), an initial
// "IAC WILL ECHO; IAC WILL SUPPRESS-GO-AHEAD" handshake, and a BUSY
// reply to a second concurrent connection on an already-attached
// device. Unlike the teacher's 3270 block-mode multiplexer, every
// IST-66 TTY is the same line-mode device, so there is no terminal
// type negotiation or model matching to perform.
package telnet

import (
	"fmt"
	"net"

	D "github.com/ist66sim/ist66/emu/device"
	"github.com/ist66sim/ist66/emu/master"
)

// Telnet protocol constants - negatives are for init'ing signed char data

const (
	tnIAC     byte = 255 // protocol delim
	tnDONT    byte = 254 // dont
	tnDO      byte = 253 // do
	tnWONT    byte = 252 // wont
	tnWILL    byte = 251 // will
	tnSB      byte = 250 // Sub negotiations begin
	tnGA      byte = 249 // Go ahead
	tnIP      byte = 244 // Interrupt process
	tnBRK     byte = 243 // break
	tnSE      byte = 240 // Sub negotiations end
	tnIS      byte = 0
	tnSend    byte = 1
	tnInfo    byte = 2
	tnVar     byte = 0
	tnValue   byte = 1
	tnEsc     byte = 2
	tnUserVar byte = 3

	// Filter state, per spec.md §6: NORMAL passes bytes through,
	// COMMAND/SUBNEG consume and discard IAC sequences. tnStateOption
	// is an internal refinement of COMMAND: the byte immediately after
	// WILL/WONT/DO/DONT names an option and is swallowed, never
	// treated as data or as the start of a new command.
	tnStateNormal = iota
	tnStateCommand
	tnStateOption
	tnStateSubneg

	tnOptionEcho byte = 1 // Echo data
	tnOptionSGA  byte = 3 // Send Go Ahead
)

// Telnet is the interface a TTY device implements to receive framed
// input from a connection.
type Telnet interface {
	Connect(conn net.Conn)
	ReceiveChar(data []byte)
	Disconnect()
}

// initString negotiates echo and suppress-go-ahead on connect, the
// handshake spec.md §6 requires of every new TTY connection.
var initString = []byte{
	tnIAC, tnWILL, tnOptionEcho,
	tnIAC, tnWILL, tnOptionSGA,
}

type tnState struct {
	filter int                // tnStateNormal/Command/Option/Subneg
	dev    Telnet             // Device to deliver framed data to
	devNum uint16             // Device address
	port   string             // Port this connection arrived on
	conn   net.Conn           // Client connection
	master chan master.Packet // Channel to send master.Packet on
}

// pushChar runs one input byte through the IAC filter, appending
// plain data bytes to out and discarding command/subnegotiation
// bytes. This is the three-state filter spec.md §6 names; per
// spec.md's non-goals, option negotiation is stripped, not answered.
func (state *tnState) pushChar(input byte, out []byte) []byte {
	switch state.filter {
	case tnStateNormal:
		if input == tnIAC {
			state.filter = tnStateCommand
		} else {
			out = append(out, input)
		}

	case tnStateCommand:
		switch input {
		case tnIAC:
			out = append(out, tnIAC)
			state.filter = tnStateNormal
		case tnWILL, tnWONT, tnDO, tnDONT:
			state.filter = tnStateOption
		case tnSB:
			state.filter = tnStateSubneg
		default:
			// IP, BRK, GA and anything else unrecognized: two-byte
			// command, nothing further to consume.
			state.filter = tnStateNormal
		}

	case tnStateOption:
		// The option byte following WILL/WONT/DO/DONT; swallow it.
		state.filter = tnStateNormal

	case tnStateSubneg:
		if input == tnSE {
			state.filter = tnStateNormal
		}
	}
	return out
}

// handleClient services one accepted connection until it closes or
// errors, framing telnet data and forwarding it as master.Packet
// messages to the owning TTY device.
func handleClient(conn net.Conn, port string, master chan master.Packet) {
	defer conn.Close()

	state := tnState{conn: conn, filter: tnStateNormal, devNum: D.NoDev, port: port}
	buffer := make([]byte, 1024)
	state.master = master

	if !state.attach() {
		fmt.Fprintf(conn, "BUSY\r\n")
		return
	}
	defer state.SendDisconnect()

	_, _ = state.conn.Write(initString)
	state.SendConnect()

	for {
		num, err := state.conn.Read(buffer)
		if err != nil {
			return
		}

		out := []byte{}
		for i := 0; i < num; i++ {
			out = state.pushChar(buffer[i], out)
		}
		if len(out) != 0 {
			state.SendReceiveChar(out)
		}
	}
}
