/* IST-66 - CPU effective-address computation and deferred indirect write.

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

package cpu

import "github.com/ist66sim/ist66/emu/memory"

// ext18 sign-extends an 18-bit displacement field.
func ext18(x uint64) int64 {
	if x&(1<<17) != 0 {
		return int64(x | ^uint64(0x3FFFF))
	}
	return int64(x)
}

// ext6 sign-extends a 6-bit auto-mod immediate.
func ext6(x uint64) int64 {
	if x&(1<<5) != 0 {
		return int64(x | ^uint64(0x3F))
	}
	return int64(x)
}

// mrTail decodes the shared 23-bit memory-reference tail (bits
// [22:0] of the instruction word) common to the MR and AM families:
// 1-bit indirect, 4-bit index, 18-bit signed displacement
// (original_source/cpu.c's comp_mr).
type mrTail struct {
	indirect bool
	index    int
	disp     int64
}

func decodeMRTail(inst uint64) mrTail {
	return mrTail{
		indirect: (inst>>22)&1 != 0,
		index:    int((inst >> 18) & 0xF),
		disp:     ext18(inst & 0x3FFFF),
	}
}

// effectiveAddr computes the final effective address for an MR/AM/MD
// instruction tail, per spec.md §4.2's "Effective address" paragraph.
// ok is false if a fault occurred (already raised as an exception).
func (c *CPU) effectiveAddr(t mrTail) (ea uint32, ok bool) {
	var base int64
	switch {
	case t.index == 0:
		base = t.disp
	case t.index == 1:
		base = int64(c.directBase()<<9) + t.disp
	case t.index == 2:
		base = int64(c.PC()) + t.disp
	case t.index == 14:
		base = int64(c.AC[13])
		c.AC[13] = uint64(int64(c.AC[13])+t.disp) & alu36Mask
	case t.index == 15:
		c.AC[13] = uint64(int64(c.AC[13])-t.disp) & alu36Mask
		base = int64(c.AC[13])
	default: // 3..13
		base = int64(c.AC[t.index]) + t.disp
	}

	addr := uint32(uint64(base) & alu36Mask)

	if !t.indirect {
		return addr & memory.AddrMask, true
	}
	return c.indirectAddr(addr)
}

// indirectAddr fetches the indirect slot at indAddr and resolves the
// final address, staging an auto-mod write-back when the slot's mode
// bits request one (spec.md §4.2, deferred indirect write).
func (c *CPU) indirectAddr(indAddr uint32) (uint32, bool) {
	word, ok := c.readMem(indAddr & memory.AddrMask)
	if !ok {
		return 0, false
	}

	if word&(1<<35) == 0 {
		return uint32(word) & memory.AddrMask, true
	}

	mode := (word >> 33) & 0x3
	imm := ext6((word >> 27) & 0x3F)
	field := word & uint64(memory.AddrMask)

	switch mode {
	case 0: // post-increment: return pre-mod address
		final := uint32(field)
		newAddr := uint64(int64(field)+imm) & uint64(memory.AddrMask)
		c.stageDefer(indAddr, (word&^uint64(memory.AddrMask))|newAddr)
		return final, true
	case 1: // pre-decrement: return post-mod address
		newAddr := uint64(int64(field)-imm) & uint64(memory.AddrMask)
		c.stageDefer(indAddr, (word&^uint64(memory.AddrMask))|newAddr)
		return uint32(newAddr), true
	default: // 2, 3: reserved
		c.except(CauseMemx)
		return 0, false
	}
}

// stageDefer arms the deferred-write pair, committed by commitDefer
// after the current instruction completes without fault.
func (c *CPU) stageDefer(addr uint32, data uint64) {
	c.deferPending = true
	c.deferKey = c.Key()
	c.deferAddr = addr
	c.deferData = data
}

const alu36Mask uint64 = 0xFFFFFFFFF
