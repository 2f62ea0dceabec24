/* IST-66 - CPU CLM/RTM (call/return with register-save mask) family.

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

// execCLM implements CLM (spec.md §4.2 "Call/return with mask"): read a
// 16-bit save mask from the effective address, push AC[15-n] for each
// set bit n (highest n pushed first), then the mask, then the return
// address, pre-decrementing AC13 as the stack pointer throughout. Every
// target address is validated with Mem.CanWrite before any word is
// written, so a faulting call leaves AC13, the other ACs and PC
// unchanged (spec.md §8).
func (c *CPU) execCLM(inst uint64) {
	ea, ok := c.effectiveAddr(decodeMRTail(inst))
	if !ok {
		return
	}
	maskWord, ok := c.readMem(ea)
	if !ok {
		return
	}
	mask := uint16(maskWord)

	var acs []uint64
	for n := 15; n >= 0; n-- {
		if mask&(1<<uint(n)) != 0 {
			acs = append(acs, uint64(15-n))
		}
	}

	key := c.Key()
	sp := c.AC[13]
	addrs := make([]uint32, len(acs))
	for i := range acs {
		sp = (sp - 1) & alu36Mask
		addrs[i] = uint32(sp) & memory.AddrMask
	}
	sp = (sp - 1) & alu36Mask
	maskAddr := uint32(sp) & memory.AddrMask
	sp = (sp - 1) & alu36Mask
	retAddr := uint32(sp) & memory.AddrMask

	for _, a := range addrs {
		if !c.Mem.CanWrite(key, a) {
			c.except(CausePpfw)
			return
		}
	}
	if !c.Mem.CanWrite(key, maskAddr) || !c.Mem.CanWrite(key, retAddr) {
		c.except(CausePpfw)
		return
	}

	for i, acIdx := range acs {
		_ = c.Mem.Write(key, addrs[i], c.AC[acIdx])
	}
	_ = c.Mem.Write(key, maskAddr, uint64(mask))
	_ = c.Mem.Write(key, retAddr, uint64(c.PC()+1)&memAddrMask)

	c.AC[13] = sp
	c.SetPC(ea + 1)
}

// execRTM implements RTM: pop the return address, the mask, then each
// AC named by the mask in the reverse of CLM's push order. AC13 is
// left at the address one past the last word popped unless the mask's
// own slot (the bit n for which 15-n==13) is set, in which case the
// generic AC-restore loop below overwrites it with the stacked value,
// per spec.md §8. All source addresses are checked with Mem.CanRead
// before any AC or PC is touched.
func (c *CPU) execRTM(inst uint64) {
	key := c.Key()
	sp := c.AC[13]

	retAddr := uint32(sp) & memory.AddrMask
	if !c.Mem.CanRead(key, retAddr) {
		c.except(CausePpfr)
		return
	}
	sp = (sp + 1) & alu36Mask
	maskAddr := uint32(sp) & memory.AddrMask
	if !c.Mem.CanRead(key, maskAddr) {
		c.except(CausePpfr)
		return
	}
	maskWord, _ := c.Mem.Read(key, maskAddr)
	mask := uint16(maskWord)
	sp = (sp + 1) & alu36Mask

	var acs []uint64
	var addrs []uint32
	cur := sp
	for n := 0; n <= 15; n++ {
		if mask&(1<<uint(n)) != 0 {
			acs = append(acs, uint64(15-n))
			addrs = append(addrs, uint32(cur)&memory.AddrMask)
			cur = (cur + 1) & alu36Mask
		}
	}
	for _, a := range addrs {
		if !c.Mem.CanRead(key, a) {
			c.except(CausePpfr)
			return
		}
	}

	retWord, _ := c.Mem.Read(key, retAddr)
	vals := make([]uint64, len(addrs))
	for i, a := range addrs {
		vals[i], _ = c.Mem.Read(key, a)
	}

	c.AC[13] = cur
	for i, acIdx := range acs {
		c.AC[acIdx] = vals[i]
	}
	c.SetPC(uint32(retWord) & uint32(memAddrMask))
}
