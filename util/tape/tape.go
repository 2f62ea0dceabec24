/*
 * IST-66 - Paper tape image formats.
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

// Package tape implements the two external tape image formats
// spec.md §6 names as out-of-scope collaborators: Nineball (9-bit
// symbols packed 8+1 bytes per group, in-band record/mark/gap/EOM
// markers) and AWS (variable-length records behind a seek/read/
// write/rewind surface). Only the interface ppt/pch consume is
// implemented, following the buffered-file, dirty-flag-flush style of
// the teacher's mag-tape TapeContext, not 9-track tape's variable
// density/read-backward machinery, which this simpler medium has no
// analog for.
package tape

import (
	"errors"
	"io"
	"os"
)

// Nineball in-band marker symbols (spec.md §6).
const (
	MarkEOR byte = 0x1E // end of record
	MarkTM  byte = 0x1C // tape mark
	MarkGap byte = 0x7F // erase gap
	MarkEOM byte = 0x00 // end of medium
)

var (
	ErrEOR = errors.New("nineball: end of record")
	ErrTM  = errors.New("nineball: tape mark")
	ErrGap = errors.New("nineball: erase gap")
	ErrEOM = errors.New("nineball: end of medium")
)

// symbolsPerGroup is the Nineball packing ratio: eight 9-bit symbols
// fit in eight data bytes plus one "extra bits" byte holding each
// symbol's 9th bit in turn.
const symbolsPerGroup = 8

// markErr maps an in-band marker byte to its sentinel, or nil if b is
// an ordinary data value.
func markErr(b byte) error {
	switch b {
	case MarkEOR:
		return ErrEOR
	case MarkTM:
		return ErrTM
	case MarkGap:
		return ErrGap
	case MarkEOM:
		return ErrEOM
	default:
		return nil
	}
}

// Nineball is a 9-bit paper tape image, read or written one symbol at
// a time through ReadSymbol/WriteSymbol.
type Nineball struct {
	file  *os.File
	ring  bool // Has write ring (punch-enabled)
	atBOT bool

	group  [symbolsPerGroup]uint16 // Buffered group, read or write side
	idx    int                     // Position within the current group
	loaded int                     // Valid symbols in group, read side
	dirty  bool                    // Write-side group has unflushed symbols
}

// Attach opens fileName for reading (ring=false) or writing
// (ring=true, truncating any existing contents).
func (nb *Nineball) Attach(fileName string, ring bool) error {
	var err error
	nb.ring = ring
	if ring {
		nb.file, err = os.Create(fileName)
	} else {
		nb.file, err = os.Open(fileName)
	}
	nb.atBOT = true
	nb.idx = 0
	nb.loaded = 0
	nb.dirty = false
	return err
}

// Detach flushes any pending write group and closes the file.
func (nb *Nineball) Detach() error {
	if nb.file == nil {
		return nil
	}
	var err error
	if nb.ring && nb.dirty {
		err = nb.flushGroup()
	}
	closeErr := nb.file.Close()
	nb.file = nil
	if err == nil {
		err = closeErr
	}
	return err
}

// Ready reports whether a tape image is attached.
func (nb *Nineball) Ready() bool {
	return nb.file != nil
}

// Rewind seeks the image back to its physical start, discarding any
// buffered group.
func (nb *Nineball) Rewind() error {
	if nb.file == nil {
		return errors.New("tape not attached")
	}
	if _, err := nb.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	nb.idx = 0
	nb.loaded = 0
	nb.dirty = false
	nb.atBOT = true
	return nil
}

// AtLoadPoint reports whether the tape has not yet moved past its
// physical start.
func (nb *Nineball) AtLoadPoint() bool {
	return nb.atBOT
}

// ReadSymbol returns the next 9-bit symbol, or one of ErrEOR/ErrTM/
// ErrGap/ErrEOM if the next group byte is an in-band marker.
func (nb *Nineball) ReadSymbol() (uint16, error) {
	if nb.file == nil {
		return 0, errors.New("tape not attached")
	}
	if nb.idx >= nb.loaded {
		if err := nb.fillGroup(); err != nil {
			return 0, err
		}
	}
	sym := nb.group[nb.idx]
	nb.idx++
	nb.atBOT = false
	if err := markErr(byte(sym & 0xff)); err != nil {
		return 0, err
	}
	return sym, nil
}

// fillGroup reads one 9-byte group (8 data bytes + 1 extra-bits byte)
// from the file into nb.group.
func (nb *Nineball) fillGroup() error {
	var data [symbolsPerGroup]byte
	n, err := io.ReadFull(nb.file, data[:])
	if err != nil {
		if n == 0 {
			return io.EOF
		}
		return err
	}
	var extra [1]byte
	if _, err := io.ReadFull(nb.file, extra[:]); err != nil {
		return err
	}
	for i, b := range data {
		bit9 := (extra[0] >> uint(i)) & 1
		nb.group[i] = uint16(b) | uint16(bit9)<<8
	}
	nb.loaded = symbolsPerGroup
	nb.idx = 0
	return nil
}

// WriteSymbol buffers sym for output, flushing a full 9-byte group to
// the file every eight symbols.
func (nb *Nineball) WriteSymbol(sym uint16) error {
	if nb.file == nil {
		return errors.New("tape not attached")
	}
	if !nb.ring {
		return errors.New("tape write protected")
	}
	nb.atBOT = false
	nb.group[nb.idx] = sym
	nb.dirty = true
	nb.idx++
	if nb.idx == symbolsPerGroup {
		return nb.flushGroup()
	}
	return nil
}

// flushGroup writes the buffered symbols (padding any short trailing
// group with erase-gap markers) as one 9-byte group.
func (nb *Nineball) flushGroup() error {
	var data [symbolsPerGroup]byte
	var extra byte
	for i := 0; i < symbolsPerGroup; i++ {
		sym := nb.group[i]
		if i >= nb.idx {
			sym = uint16(MarkGap)
		}
		data[i] = byte(sym & 0xff)
		extra |= byte((sym>>8)&1) << uint(i)
	}
	if _, err := nb.file.Write(data[:]); err != nil {
		return err
	}
	if _, err := nb.file.Write([]byte{extra}); err != nil {
		return err
	}
	nb.idx = 0
	nb.dirty = false
	return nil
}

// AWS is a variable-length-record tape image: each record is a
// 6-byte header (prev length, this length, control flags) followed
// by its data, per spec.md's glossary entry.
type AWS struct {
	file *os.File
	ring bool
}

// Attach opens fileName for reading (ring=false) or writing
// (ring=true, truncating any existing contents).
func (a *AWS) Attach(fileName string, ring bool) error {
	var err error
	a.ring = ring
	if ring {
		a.file, err = os.Create(fileName)
	} else {
		a.file, err = os.Open(fileName)
	}
	return err
}

// Detach closes the tape image.
func (a *AWS) Detach() error {
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Ready reports whether a tape image is attached.
func (a *AWS) Ready() bool {
	return a.file != nil
}

// Rewind seeks the image back to its first record.
func (a *AWS) Rewind() error {
	if a.file == nil {
		return errors.New("tape not attached")
	}
	_, err := a.file.Seek(0, io.SeekStart)
	return err
}

// ReadRecord reads the next record's header and data, or io.EOF at
// end of medium.
func (a *AWS) ReadRecord() ([]byte, error) {
	if a.file == nil {
		return nil, errors.New("tape not attached")
	}
	var hdr [6]byte
	if _, err := io.ReadFull(a.file, hdr[:]); err != nil {
		return nil, err
	}
	length := uint16(hdr[2]) | uint16(hdr[3])<<8
	data := make([]byte, length)
	if _, err := io.ReadFull(a.file, data); err != nil {
		return nil, err
	}
	if length%2 == 1 {
		var pad [1]byte
		_, _ = a.file.Read(pad[:])
	}
	return data, nil
}

// WriteRecord appends data as one AWS record.
func (a *AWS) WriteRecord(data []byte) error {
	if a.file == nil {
		return errors.New("tape not attached")
	}
	if !a.ring {
		return errors.New("tape write protected")
	}
	length := len(data)
	hdr := [6]byte{0, 0, byte(length & 0xff), byte((length >> 8) & 0xff), 0, 0}
	if _, err := a.file.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := a.file.Write(data); err != nil {
		return err
	}
	if length%2 == 1 {
		if _, err := a.file.Write([]byte{0}); err != nil {
			return err
		}
	}
	return nil
}
