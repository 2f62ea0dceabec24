/* IST-66 - Word-addressed memory with per-page protection keys.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

// Package memory implements the flat 27-bit word-addressed memory unit
// described in spec.md §4.5. Each 512-word page carries one 8-bit
// protection key, stored alongside the first word of the page. Access is
// not locked per-cell (spec.md §5): the CPU, the IOCPU (via the host's
// bus), and the boot loader are assumed never to race each other.
package memory

const (
	AddrMask   uint32 = 0x7FFFFFF // 27-bit address space
	pageShift         = 9
	pageSize   uint32 = 1 << pageShift // 512 words per page
	pageMask   uint32 = pageSize - 1
	dataMask   uint64 = 0xFFFFFFFFF // 36 data bits

	// Protection key bands (spec.md §3).
	KeySupervisor   uint8 = 0x00
	KeyPublicRO     uint8 = 0xFE
	KeyPublicRW     uint8 = 0xFF
)

// Fault enumerates the two sentinel outcomes of a memory access. A zero
// Fault means the access succeeded.
type Fault int

const (
	NoFault Fault = iota
	MemFault   // address >= size
	KeyFault   // protection key mismatch
)

// cell is one 64-bit memory container: 36 data bits plus an 8-bit key
// field that is only meaningful in the first word of each page.
type cell struct {
	data uint64
	key  uint8
}

// Memory is a flat word array with per-page protection keys.
type Memory struct {
	cells []cell
}

// New allocates a memory of size words (clamped to >= 0).
func New(size int) *Memory {
	if size < 0 {
		size = 0
	}
	return &Memory{cells: make([]cell, size)}
}

// Size returns the number of addressable words.
func (m *Memory) Size() uint32 {
	return uint32(len(m.cells))
}

func pageBase(addr uint32) uint32 {
	return addr &^ pageMask
}

// keyOf returns the protection key governing addr's page.
func (m *Memory) keyOf(addr uint32) uint8 {
	return m.cells[pageBase(addr)].key
}

// Read performs a protected read (spec.md §4.5). World-readable pages
// (0xFE, 0xFF) are always allowed; otherwise caller key 0 bypasses, else
// the caller key must match the page key exactly.
func (m *Memory) Read(key uint8, addr uint32) (uint64, Fault) {
	addr &= AddrMask
	if addr >= uint32(len(m.cells)) {
		return 0, MemFault
	}
	pk := m.keyOf(addr)
	if pk == KeyPublicRO || pk == KeyPublicRW {
		return m.cells[addr].data & dataMask, NoFault
	}
	if key != 0 && key != pk {
		return 0, KeyFault
	}
	return m.cells[addr].data & dataMask, NoFault
}

// Write performs a protected write. World-writable (0xFF) is always
// allowed; world-readable-only (0xFE) is read-only and rejects every
// write regardless of caller key; otherwise caller key 0 bypasses,
// else the caller key must match exactly.
func (m *Memory) Write(key uint8, addr uint32, data uint64) Fault {
	addr &= AddrMask
	if addr >= uint32(len(m.cells)) {
		return MemFault
	}
	pk := m.keyOf(addr)
	switch {
	case pk == KeyPublicRW:
		// fall through to the write below
	case pk == KeyPublicRO:
		return KeyFault
	case key != 0 && key != pk:
		return KeyFault
	}
	m.cells[addr].data = data & dataMask
	return NoFault
}

// CanRead reports whether a Read(key, addr) would succeed, without
// performing the read. See CanWrite.
func (m *Memory) CanRead(key uint8, addr uint32) bool {
	addr &= AddrMask
	if addr >= uint32(len(m.cells)) {
		return false
	}
	pk := m.keyOf(addr)
	if pk == KeyPublicRO || pk == KeyPublicRW {
		return true
	}
	return key == 0 || key == pk
}

// CanWrite reports whether a Write(key, addr, ...) would succeed,
// without mutating any state. Used by multi-word operations (e.g. the
// CPU's CLM/RTM) that must validate an entire sequence of addresses
// before committing any of them, per spec.md §8's all-or-nothing
// push/pop invariant.
func (m *Memory) CanWrite(key uint8, addr uint32) bool {
	addr &= AddrMask
	if addr >= uint32(len(m.cells)) {
		return false
	}
	pk := m.keyOf(addr)
	switch {
	case pk == KeyPublicRW:
		return true
	case pk == KeyPublicRO:
		return false
	case key != 0 && key != pk:
		return false
	}
	return true
}

// SetKey installs key as the protection key governing addr's containing
// page.
func (m *Memory) SetKey(addr uint32, key uint8) Fault {
	addr &= AddrMask
	if addr >= uint32(len(m.cells)) {
		return MemFault
	}
	m.cells[pageBase(addr)].key = key
	return NoFault
}

// Key returns the protection key governing addr's containing page, or 0
// if addr is out of range.
func (m *Memory) Key(addr uint32) uint8 {
	addr &= AddrMask
	if addr >= uint32(len(m.cells)) {
		return 0
	}
	return m.keyOf(addr)
}

// Deposit writes a word directly, bypassing protection checks. Used by
// the boot loader to seed initial memory contents (spec.md §4, row 9).
func (m *Memory) Deposit(addr uint32, data uint64) {
	addr &= AddrMask
	if addr >= uint32(len(m.cells)) {
		return
	}
	m.cells[addr].data = data & dataMask
}

// Examine reads a word directly, bypassing protection checks. Used by
// the console command language (spec.md §6, `.` and `?`).
func (m *Memory) Examine(addr uint32) uint64 {
	addr &= AddrMask
	if addr >= uint32(len(m.cells)) {
		return 0
	}
	return m.cells[addr].data & dataMask
}
