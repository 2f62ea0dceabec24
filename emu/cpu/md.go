/* IST-66 - CPU MD (multiply/divide) instruction family.

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

import "math/bits"

// ext16 sign-extends a 16-bit displacement field, used by the MD
// family's narrower memory-reference tail (spec.md §4.2 names the MD
// opcode but, unlike MR/AM, does not fix its field widths; original_
// source/cpu.c never implements MD at all. This tail borrows two bits
// from the MR/AM displacement to make room for MD's sub-op and AC
// selector within the same 36-bit word).
func ext16(x uint64) int64 {
	if x&(1<<15) != 0 {
		return int64(x | ^uint64(0xFFFF))
	}
	return int64(x)
}

func decodeMDTail(inst uint64) mrTail {
	return mrTail{
		indirect: (inst>>20)&1 != 0,
		index:    int((inst >> 16) & 0xF),
		disp:     ext16(inst & 0xFFFF),
	}
}

// execMD implements MPY, MPA, MNA, DIV (spec.md §4.2 family MD). The
// 72-bit product/accumulator pair is stored high word in acd, low
// word in acd+1 (mod 16).
func (c *CPU) execMD(inst uint64) {
	subop := (inst >> 25) & 0x3
	acd := (inst >> 21) & 0xF
	acd2 := (acd + 1) & 0xF

	ea, ok := c.effectiveAddr(decodeMDTail(inst))
	if !ok {
		return
	}
	data, ok := c.readMem(ea)
	if !ok {
		return
	}

	switch subop {
	case 0: // MPY
		hi, lo := mul72Signed(c.AC[acd], data)
		c.AC[acd], c.AC[acd2] = hi, lo
		c.advance()
	case 1: // MPA
		hi, lo := mul72Signed(c.AC[acd], data)
		sumHi, sumLo, carry := add72(hi, lo, c.AC[acd], c.AC[acd2])
		_ = carry
		c.AC[acd], c.AC[acd2] = sumHi, sumLo
		c.advance()
	case 2: // MNA
		hi, lo := mul72Signed(c.AC[acd], data)
		hi, lo = neg72(hi, lo)
		sumHi, sumLo, _ := add72(hi, lo, c.AC[acd], c.AC[acd2])
		c.AC[acd], c.AC[acd2] = sumHi, sumLo
		c.advance()
	case 3: // DIV
		if data&mask36 == 0 {
			c.except(CauseDivz)
			return
		}
		q, r := signedDivide(int64signed36(c.AC[acd]), int64signed36(data))
		c.AC[acd] = uint64(q) & mask36
		c.AC[acd2] = uint64(r) & mask36
		c.advance()
	}
}

const mask36 = uint64(0xFFFFFFFFF)

// int64signed36 sign-extends a 36-bit value held in a uint64.
func int64signed36(v uint64) int64 {
	v &= mask36
	if v&(1<<35) != 0 {
		return int64(v | ^mask36)
	}
	return int64(v)
}

func signedDivide(a, b int64) (q, r int64) {
	return a / b, a % b
}

// mul72Signed computes the signed 72-bit product of two 36-bit
// two's-complement operands, returned as (high36, low36).
func mul72Signed(a, b uint64) (hi, lo uint64) {
	sa, sb := int64signed36(a), int64signed36(b)
	neg := (sa < 0) != (sb < 0)
	ua, ub := uint64(abs64(sa)), uint64(abs64(sb))

	phi, plo := bits.Mul64(ua, ub)
	hi = ((phi << 28) | (plo >> 36)) & mask36
	lo = plo & mask36

	if neg {
		hi, lo = neg72(hi, lo)
	}
	return hi, lo
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// add72 adds two 72-bit values held as (hi,lo) 36-bit halves,
// returning the sum and the final carry-out.
func add72(ah, al, bh, bl uint64) (hi, lo uint64, carry bool) {
	lo = (al + bl) & mask36
	carryLo := (al + bl) > mask36
	hiSum := ah + bh
	if carryLo {
		hiSum++
	}
	carry = hiSum > mask36
	hi = hiSum & mask36
	return hi, lo, carry
}

// neg72 computes the two's-complement negation of a 72-bit value
// held as (hi,lo) 36-bit halves.
func neg72(hi, lo uint64) (uint64, uint64) {
	lo = (^lo + 1) & mask36
	hi = (^hi) & mask36
	if lo == 0 {
		hi = (hi + 1) & mask36
	}
	return hi, lo
}
