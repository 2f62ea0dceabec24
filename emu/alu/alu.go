/* IST-66 - 37-bit wide arithmetic/logic unit.

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

// Package alu implements the single pure compute() function that backs
// every arithmetic, logical, rotate, mask and skip decision in the
// IST-66 instruction set (spec.md §4.1). Evaluation order is fixed:
// carry-init -> op -> rotate -> mask -> skip.
package alu

const (
	Mask36 uint64 = 0xFFFFFFFFF       // 36 data bits
	Mask37 uint64 = 0x1FFFFFFFFF      // data + carry
	Mask38 uint64 = 0x3FFFFFFFFF      // data + carry + skip
	carryBit       = uint64(1) << 36
	skipBit        = uint64(1) << 37
)

// Op selects one of the sixteen ALU operations.
type Op int

const (
	OpCompA  Op = 0  // ^A
	OpNegA   Op = 1  // -A
	OpPassA  Op = 2  // A
	OpIncA   Op = 3  // A+1
	OpCompAB Op = 4  // ^A+B
	OpNegAB  Op = 5  // -A+B
	OpAdd    Op = 6  // A+B
	OpAnd    Op = 7  // A&B
	OpOr     Op = 10 // A|B
	OpXor    Op = 15 // A^B
)

// CarryInit selects the pre-op override of the input carry.
type CarryInit int

const (
	CarryPreserve CarryInit = 0
	CarryClear    CarryInit = 1
	CarrySet      CarryInit = 2
	CarryFlip     CarryInit = 3
)

// Cond selects the post-op skip predicate over (carry, result-zero).
type Cond int

const (
	CondNever       Cond = 0
	CondAlways      Cond = 1
	CondCarryClear  Cond = 2
	CondCarrySet    Cond = 3
	CondZero        Cond = 4
	CondNonZero     Cond = 5
	CondZeroOrNoCarry  Cond = 6 // OR of zero, !carry
	CondNonZeroAndCarry Cond = 7 // AND of nonzero, carry
)

// Params bundles the selectors threaded through Compute in fixed
// evaluation order.
type Params struct {
	Op   Op
	CI   CarryInit
	Cond Cond
	NL   bool // no-load: caller keeps only carry+skip annotations
	RC   bool // rotate width: false=36-bit, true=37-bit through carry
	MK   int8 // signed 7-bit mask width; >=0 left-mask, <0 right-mask
	RT   int8 // signed 7-bit rotate amount, applied after Op
}

// rotl36/rotr36 rotate the low 36 bits of a, leaving higher bits alone.
func rotl36(a uint64, b int) uint64 {
	if b > 35 {
		b -= 36
	}
	return ((a << uint(b)) | (a >> uint(36-b))) & Mask36
}

func rotr36(a uint64, b int) uint64 {
	if b > 35 {
		b -= 36
	}
	return ((a >> uint(b)) | (a << uint(36-b))) & Mask36
}

func rotl37(a uint64, b int) uint64 {
	if b > 36 {
		b -= 37
	}
	return ((a << uint(b)) | (a >> uint(37-b))) & Mask37
}

func rotr37(a uint64, b int) uint64 {
	if b > 36 {
		b -= 37
	}
	return ((a >> uint(b)) | (a << uint(37-b))) & Mask37
}

// rotate applies a rotate of b positions (negative = right) either over
// the full 37 bits including carry (rc) or over just the low 36 data
// bits, preserving the carry bit unrotated.
func rotate(a uint64, b int, rc bool) uint64 {
	if rc {
		if b >= 0 {
			return rotl37(a, b)
		}
		return rotr37(a, -b)
	}
	oldCarry := a & carryBit
	a &= Mask36
	var result uint64
	if b >= 0 {
		result = rotl36(a, b)
	} else {
		result = rotr36(a, -b)
	}
	return result | oldCarry
}

// maskl replaces the b most-significant bits of the 37-bit value with
// the current carry bit (sign-extension-style fill from the top).
func maskl(a uint64, b int) uint64 {
	mask := (^uint64(0xFFFFFFFFF)) >> uint(b)
	if a&carryBit != 0 {
		return (a | mask) & Mask37
	}
	return (a &^ mask) & Mask37
}

// maskr replaces the b least-significant bits with the carry bit.
func maskr(a uint64, b int) uint64 {
	shift := b
	if shift > 35 {
		shift = 36
	}
	mask := (uint64(1) << uint(shift)) - 1
	if a&carryBit != 0 {
		return (a | mask) & Mask37
	}
	return (a &^ mask) & Mask37
}

func maskOp(a uint64, b int) uint64 {
	if b >= 0 {
		return maskl(a, b)
	}
	return maskr(a, -b)
}

func rotmask(a uint64, rc bool, mk int, rt int) uint64 {
	return maskOp(rotate(a, rt, rc), mk)
}

func skip(a uint64, cond Cond) uint64 {
	var result uint64
	carrySet := a&carryBit != 0
	zero := a&Mask36 == 0
	switch cond {
	case CondNever:
		result = 0
	case CondAlways:
		result = 1
	case CondCarryClear:
		result = b2u(!carrySet)
	case CondCarrySet:
		result = b2u(carrySet)
	case CondZero:
		result = b2u(zero)
	case CondNonZero:
		result = b2u(!zero)
	case CondZeroOrNoCarry:
		result = b2u(zero || !carrySet)
	case CondNonZeroAndCarry:
		result = b2u(!zero && carrySet)
	}
	return a | (result << 37)
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// opr evaluates the op family over (a, b, c), returning a 37-bit value
// with the result in bits [35:0] and the updated carry in bit 36.
func opr(a, b uint64, c int, op Op) uint64 {
	var result uint64
	switch op {
	case OpCompA:
		result = (^a) & Mask36
	case OpNegA:
		result = (^a + 1) & Mask36
	case OpPassA:
		result = a & Mask36
	case OpIncA:
		result = (a + 1) & Mask36
		if a == Mask36 {
			c = flip(c)
		}
	case OpCompAB:
		result = (^a + b) & Mask36
		if a < b {
			c = flip(c)
		}
	case OpNegAB:
		result = ((^a + 1) + b) & Mask36
		if a <= b {
			c = flip(c)
		}
	case OpAdd:
		sum := a + b
		result = sum & Mask36
		if sum > Mask36 {
			c = flip(c)
		}
	case OpAnd:
		result = (a & b) & Mask36
	case OpOr:
		result = (a | b) & Mask36
	case OpXor:
		result = (a ^ b) & Mask36
	}
	result |= uint64(c) << 36
	return result & Mask37
}

func flip(c int) int {
	if c != 0 {
		return 0
	}
	return 1
}

// Compute evaluates the ALU for operands a, b with input carry c, per
// the fixed evaluation order ci -> op -> rotate -> mask -> cond. The
// return value packs bits [35:0] = result, bit 36 = carry, bit 37 =
// skip decision. If p.NL is set the low 36 bits of the return value are
// b's low 36 bits instead of the computed result (used by "no-load"
// probe forms like MOV#); callers must still discard them and rely only
// on the carry/skip annotations.
func Compute(a, b uint64, c int, p Params) uint64 {
	switch p.CI {
	case CarryClear:
		c = 0
	case CarrySet:
		c = 1
	case CarryFlip:
		c = flip(c)
	}

	result := skip(rotmask(opr(a, b, c, p.Op), p.RC, int(p.MK), int(p.RT)), p.Cond)

	if p.NL {
		return b | (result &^ Mask36)
	}
	return result
}

// Carry extracts the carry annotation (bit 36) from a Compute result.
func Carry(result uint64) bool {
	return result&carryBit != 0
}

// Skip extracts the skip decision (bit 37) from a Compute result.
func Skip(result uint64) bool {
	return result&skipBit != 0
}

// Data extracts the low 36 result bits from a Compute result.
func Data(result uint64) uint64 {
	return result & Mask36
}
