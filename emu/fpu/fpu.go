/* IST-66 - 80-bit extended-precision floating point unit.

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

// Package fpu implements the 80-bit extended-precision float surface of
// spec.md §4.6: a 1-sign/15-exponent/64-significand internal register
// with explicit leading one, conversions to and from the 36-bit and
// 72-bit external formats, and the add/multiply/divide arithmetic
// primitives the CPU's FPU instructions drive. Bias rearithmetic and
// rounding mirror original_source/fpu_helpers.c; the 128-bit multiply
// and shift helpers mirror original_source/fpu.c's xmul_u128/shl_u128.
package fpu

import "math/bits"

const (
	bias8  = 127
	bias15 = 16383

	// Result flag bits.
	OVRF    = 1 << 0 // overflow
	UNDF    = 1 << 1 // underflow
	ILGL    = 1 << 2 // illegal operand (denormal input)
	INSG    = 1 << 3 // operand became insignificant during conormalize
	INEXACT = 1 << 4 // rounding discarded nonzero bits

	frac27 uint64 = 0777777777 // 27-bit mask
	mask36 uint64 = 0xFFFFFFFFF
)

// Reg is an 80-bit extended-precision float accumulator: sign, a
// 15-bit excess-16383 exponent, and a 64-bit significand with an
// explicit leading one for normalized values.
type Reg struct {
	Sign bool
	Exp  uint16 // 0..0x7FFF
	Sig  uint64
}

func (r Reg) isZero() bool   { return r.Exp == 0 && r.Sig == 0 }
func (r Reg) isInf() bool    { return r.Exp == 0x7FFF && r.Sig == 0 }
func (r Reg) isNaN() bool    { return r.Exp == 0x7FFF && r.Sig != 0 }
func (r Reg) isDenorm() bool { return r.Exp == 0 && r.Sig != 0 }

// exp8ToI36/exp15ToI36/i36ToExp8/i36ToExp15 rebias an exponent between
// its external width and a signed 36-bit intermediate, exactly
// mirroring original_source/fpu_helpers.c.
func exp8ToI36(exp uint8) int64 { return int64(exp) - bias8 }
func exp15ToI36(exp uint16) int64 { return int64(exp) - bias15 }

func i36ToExp8(e int64) uint8 {
	switch {
	case e < -bias8:
		return 0
	case e > 128:
		return 0xFF
	default:
		return uint8(e + bias8)
	}
}

func i36ToExp15(e int64) uint16 {
	switch {
	case e < -bias15:
		return 0
	case e > 16384:
		return 0x7FFF
	default:
		return uint16(e+bias15) & 0x7FFF
	}
}

// FromFloat36 converts a 36-bit external float word to an 80-bit
// register (spec.md §4.6 float36 -> extended80). The 27-bit
// significand field is placed at the top of the 64-bit significand
// (field bit 26 lands on bit 63, so exponent 127 with bit 26 set is
// 1.0). The explicit leading one is restored whenever the exponent
// field is nonzero; exponent field 0 maps to exponent 0.
func FromFloat36(w uint64) Reg {
	sign := w&(1<<35) != 0
	exp8 := uint8((w >> 27) & 0xFF)
	frac := w & frac27

	exp15 := uint16(0)
	if exp8 != 0 {
		exp15 = i36ToExp15(exp8ToI36(exp8))
	}
	sig := frac << 37
	if exp15 != 0 {
		sig |= uint64(1) << 63
	}
	return Reg{Sign: sign, Exp: exp15, Sig: sig}
}

// FromFloat72 converts a two-word 72-bit external float to an 80-bit
// register: hi holds sign/exponent/high-27-bit fraction, lo the low
// 36 fraction bits.
func FromFloat72(hi, lo uint64) Reg {
	sign := hi&(1<<35) != 0
	exp8 := uint8((hi >> 27) & 0xFF)
	fracHi := hi & frac27

	exp15 := i36ToExp15(exp8ToI36(exp8))
	sig := (fracHi << 36) | (lo & mask36)
	if exp15 != 0 {
		sig |= uint64(1) << 63
	}
	return Reg{Sign: sign, Exp: exp15, Sig: sig}
}

// rndsig rounds a 64-bit significand down to its top 27 bits,
// round-to-nearest-even on the 37 bits being discarded, mirroring
// original_source/fpu_helpers.c's rndsig(). It reports whether the
// rounding carried into (and above) the explicit leading bit.
func rndsig(src uint64) (dst uint64, carried bool) {
	origLeading := src >> 63
	toTruncate := src & (1<<37 - 1)
	if (toTruncate == 1<<36 && src&(1<<37) != 0) || toTruncate > 1<<36 {
		src += 1 << 37
	}
	dst = (src >> 37) & frac27
	newLeading := src >> 63
	return dst, (origLeading ^ newLeading) != 0
}

// ToFloat36 converts an 80-bit register to the 36-bit external format
// (spec.md §4.6 extended80 -> float36). When round is false the low 37
// significand bits are truncated rather than rounded.
func ToFloat36(r Reg, round bool) (uint64, int) {
	if r.isNaN() || r.isInf() {
		w := (uint64(0xFF) << 27) | (r.Sig>>37)&frac27
		if r.Sign {
			w |= 1 << 35
		}
		return w, 0
	}

	newExp := i36ToExp8(exp15ToI36(r.Exp))
	switch {
	case newExp == 0 && r.Sig != 0:
		return 0, UNDF
	case newExp == 0xFF:
		w := uint64(0xFF) << 27
		if r.Sign {
			w |= 1 << 35
		}
		return w, OVRF
	}

	var frac uint64
	flags := 0
	if round {
		var carried bool
		frac, carried = rndsig(r.Sig)
		if frac != (r.Sig>>37)&frac27 {
			flags |= INEXACT
		}
		if carried {
			newExp++
			frac |= 1 << 26
		}
	} else {
		frac = (r.Sig >> 37) & frac27
		if r.Sig&(1<<37-1) != 0 {
			flags |= INEXACT
		}
	}

	if newExp == 0xFF {
		w := uint64(0xFF) << 27
		if r.Sign {
			w |= 1 << 35
		}
		return w, flags | OVRF
	}

	w := (uint64(newExp) << 27) | frac
	if r.Sign {
		w |= 1 << 35
	}
	return w, flags
}

// ToFloat72 converts an 80-bit register to the 72-bit external format
// (sign, exponent, high 27 significand bits in hi; low 36 bits in lo).
// The conversion is exact: no rounding, since 72 bits exactly spans
// the 64-bit significand plus its explicit leading one.
func ToFloat72(r Reg) (hi, lo uint64, flags int) {
	if r.isNaN() || r.isInf() {
		hi = (uint64(0xFF) << 27) | (r.Sig>>36)&frac27
		lo = r.Sig & mask36
		if r.Sign {
			hi |= 1 << 35
		}
		return hi, lo, 0
	}

	newExp := i36ToExp8(exp15ToI36(r.Exp))
	switch {
	case newExp == 0 && r.Sig != 0:
		return 0, 0, UNDF
	case newExp == 0xFF:
		hi = uint64(0xFF) << 27
		if r.Sign {
			hi |= 1 << 35
		}
		return hi, 0, OVRF
	}

	hi = (uint64(newExp) << 27) | (r.Sig>>36)&frac27
	lo = r.Sig & mask36
	if r.Sign {
		hi |= 1 << 35
	}
	return hi, lo, 0
}

// normalize shifts a nonzero, non-special significand left until its
// explicit leading bit reaches bit 63, decrementing the exponent for
// each shift. A significand that underflows to zero before
// normalizing completes returns a zero register.
func normalize(exp int64, sig uint64) (int64, uint64) {
	if sig == 0 {
		return 0, 0
	}
	for sig&(1<<63) == 0 {
		sig <<= 1
		exp--
	}
	return exp, sig
}

// conormalize aligns b's significand to a's exponent by shifting b
// right (a is assumed the larger-magnitude operand per spec.md §4.6).
// If the exponent difference exceeds 64, b is deemed insignificant,
// zeroed, and INSG is signaled.
func conormalize(expA int64, expB int64, sigB uint64) (shifted uint64, sticky bool, flags int) {
	diff := expA - expB
	if diff <= 0 {
		return sigB, false, 0
	}
	if diff > 64 {
		return 0, false, INSG
	}
	if diff >= 64 {
		return 0, sigB != 0, 0
	}
	shifted = sigB >> uint(diff)
	lost := sigB & ((uint64(1) << uint(diff)) - 1)
	return shifted, lost != 0, 0
}

// Add computes a+b over the 80-bit representation (spec.md §4.6).
func Add(a, b Reg) (Reg, int) {
	if a.isNaN() || b.isNaN() {
		return Reg{Exp: 0x7FFF, Sig: nanPayload(a, b)}, ILGL
	}
	if a.isInf() || b.isInf() {
		switch {
		case a.isInf() && b.isInf() && a.Sign != b.Sign:
			return Reg{Exp: 0x7FFF, Sig: 1 << 62}, ILGL
		case a.isInf():
			return Reg{Sign: a.Sign, Exp: 0x7FFF}, 0
		default:
			return Reg{Sign: b.Sign, Exp: 0x7FFF}, 0
		}
	}
	if a.isDenorm() || b.isDenorm() {
		return Reg{}, ILGL
	}
	if a.isZero() {
		return b, 0
	}
	if b.isZero() {
		return a, 0
	}

	// Ensure |a| >= |b| by exponent (ties broken on significand).
	if b.Exp > a.Exp || (b.Exp == a.Exp && b.Sig > a.Sig) {
		a, b = b, a
	}

	expA := exp15ToI36(a.Exp)
	expB := exp15ToI36(b.Exp)
	sigB, sticky, flags := conormalize(expA, expB, b.Sig)

	var sum uint64
	var sign bool
	carry := false
	if a.Sign == b.Sign {
		sum = a.Sig + sigB
		carry = sum < a.Sig
		sign = a.Sign
	} else {
		sum = a.Sig - sigB
		sign = a.Sign
	}

	exp := expA
	if carry {
		sum = (sum >> 1) | (1 << 63)
		if sum&1 != 0 {
			sticky = true
		}
		exp++
	}

	exp, sum = normalize(exp, sum)
	if sticky {
		flags |= INEXACT
	}
	if sum == 0 {
		return Reg{}, flags
	}

	newExp := i36ToExp15(exp)
	if newExp == 0x7FFF {
		return Reg{Sign: sign, Exp: 0x7FFF, Sig: 0}, flags | OVRF
	}
	return Reg{Sign: sign, Exp: newExp, Sig: sum}, flags
}

// Multiply computes a*b via a full 128-bit significand product,
// post-normalizing by 0 or 1 bits with sticky-bit rounding (spec.md
// §4.6), mirroring original_source/fpu.c's fmul.
func Multiply(a, b Reg) (Reg, int) {
	sign := a.Sign != b.Sign
	if a.isNaN() || b.isNaN() {
		return Reg{Exp: 0x7FFF, Sig: nanPayload(a, b)}, ILGL
	}
	if a.isInf() || b.isInf() {
		return Reg{Sign: sign, Exp: 0x7FFF}, 0
	}
	if a.isDenorm() || b.isDenorm() {
		return Reg{}, ILGL
	}
	if a.isZero() || b.isZero() {
		return Reg{}, 0
	}

	exp := exp15ToI36(a.Exp) + exp15ToI36(b.Exp)

	hi, lo := mul128(a.Sig, b.Sig)
	sticky := false
	if hi&(1<<63) != 0 {
		exp++
		if lo != 0 {
			sticky = true
		}
	} else {
		hi, lo = shl128(hi, lo, 1)
		if lo != 0 {
			sticky = true
		}
	}

	newExp := i36ToExp15(exp)
	flags := 0
	if sticky {
		flags |= INEXACT
	}
	if newExp == 0x7FFF {
		return Reg{Sign: sign, Exp: 0x7FFF}, flags | OVRF
	}
	if newExp == 0 && hi != 0 {
		return Reg{Sign: sign}, flags | UNDF
	}
	return Reg{Sign: sign, Exp: newExp, Sig: hi}, flags
}

// Divide computes a/b using a 128-bit dividend over a 64-bit divisor,
// normalizing the quotient and detecting overflow/underflow.
func Divide(a, b Reg) (Reg, int) {
	sign := a.Sign != b.Sign
	if a.isNaN() || b.isNaN() {
		return Reg{Exp: 0x7FFF, Sig: nanPayload(a, b)}, ILGL
	}
	if b.isZero() && !a.isZero() {
		return Reg{Sign: sign, Exp: 0x7FFF}, OVRF
	}
	if a.isZero() && b.isZero() {
		return Reg{Exp: 0x7FFF, Sig: 1 << 62}, ILGL
	}
	if a.isInf() {
		if b.isInf() {
			return Reg{Exp: 0x7FFF, Sig: 1 << 62}, ILGL
		}
		return Reg{Sign: sign, Exp: 0x7FFF}, 0
	}
	if b.isInf() {
		return Reg{Sign: sign}, 0
	}
	if a.isDenorm() || b.isDenorm() {
		return Reg{}, ILGL
	}
	if a.isZero() {
		return Reg{}, 0
	}

	exp := exp15ToI36(a.Exp) - exp15ToI36(b.Exp)

	// 128-bit dividend (a.Sig, scaled by 2^63) over the 64-bit divisor
	// b.Sig. Both significands carry an explicit leading one, so the
	// true quotient a.Sig/b.Sig lies in (0.5, 2) and hi=a.Sig>>1 is
	// always strictly less than b.Sig, satisfying bits.Div64's
	// no-overflow precondition.
	quo, rem := bits.Div64(a.Sig>>1, a.Sig<<63, b.Sig)
	sticky := rem != 0

	if quo&(1<<63) == 0 {
		exp--
		quo <<= 1
	}

	newExp := i36ToExp15(exp)
	flags := 0
	if sticky {
		flags |= INEXACT
	}
	if newExp == 0x7FFF {
		return Reg{Sign: sign, Exp: 0x7FFF}, flags | OVRF
	}
	if newExp == 0 && quo != 0 {
		return Reg{Sign: sign}, flags | UNDF
	}
	return Reg{Sign: sign, Exp: newExp, Sig: quo}, flags
}

func nanPayload(a, b Reg) uint64 {
	if a.isNaN() {
		return a.Sig
	}
	if b.isNaN() {
		return b.Sig
	}
	return 1 << 62
}

// mul128 computes the full 128-bit product of two 64-bit operands,
// mirroring original_source/fpu.c's xmul_u128.
func mul128(op1, op2 uint64) (hi, lo uint64) {
	u1 := op1 & 0xFFFFFFFF
	v1 := op2 & 0xFFFFFFFF
	t := u1 * v1
	w3 := t & 0xFFFFFFFF
	k := t >> 32

	op1 >>= 32
	t = op1*v1 + k
	k = t & 0xFFFFFFFF
	w1 := t >> 32

	op2 >>= 32
	t = u1*op2 + k
	k = t >> 32

	hi = op1*op2 + w1 + k
	lo = (t << 32) + w3
	return hi, lo
}

// shl128 shifts the 128-bit value (a:b) left by shamt bits, mirroring
// original_source/fpu.c's shl_u128.
func shl128(a, b uint64, shamt int) (hi, lo uint64) {
	lo = b << uint(shamt)
	hi = (a << uint(shamt)) | (b >> uint(64-shamt))
	return hi, lo
}
