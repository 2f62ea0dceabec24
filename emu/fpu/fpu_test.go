package fpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// spec.md §8 scenario 5: float36 (sign=0, exp=127, signif=1<<26)
// represents 1.0; squared and rounded to nearest, it yields the same
// float36.
func TestMultiplyOneSquaredRoundTrip(t *testing.T) {
	one36 := (uint64(127) << 27) | (uint64(1) << 26)
	r := FromFloat36(one36)

	product, flags := Multiply(r, r)
	assert.Equal(t, 0, flags)

	got, cflags := ToFloat36(product, true)
	assert.Equal(t, 0, cflags)
	assert.Equal(t, one36, got)
}

func TestFromFloat36RestoresExplicitLeadingOne(t *testing.T) {
	w := (uint64(127) << 27) | (uint64(1) << 26)
	r := FromFloat36(w)
	assert.False(t, r.Sign)
	assert.Equal(t, uint16(16383), r.Exp)
	assert.Equal(t, uint64(1)<<63, r.Sig)
}

func TestFromFloat36ZeroStaysZero(t *testing.T) {
	r := FromFloat36(0)
	assert.True(t, r.isZero())
}

func TestRoundTripFloat36ExponentAndSignIdempotent(t *testing.T) {
	// spec.md §8 invariant: extended80 -> float36 -> extended80 is
	// exponent-and-sign idempotent for exponents in [1,254].
	for _, exp8 := range []uint8{1, 64, 127, 200, 254} {
		w := (uint64(exp8) << 27) | uint64(0o234567)
		r := FromFloat36(w)
		back, flags := ToFloat36(r, false)
		assert.Equal(t, 0, flags&^INEXACT)
		assert.Equal(t, exp8, uint8((back>>27)&0xFF))
		assert.Equal(t, (w>>35)&1, (back>>35)&1)
	}
}

func TestAddZeroIsIdentity(t *testing.T) {
	one36 := (uint64(127) << 27) | (uint64(1) << 26)
	r := FromFloat36(one36)
	sum, flags := Add(r, Reg{})
	assert.Equal(t, 0, flags)
	assert.Equal(t, r, sum)
}

func TestAddOnePlusOneEqualsTwo(t *testing.T) {
	one36 := (uint64(127) << 27) | (uint64(1) << 26)
	one := FromFloat36(one36)
	two, flags := Add(one, one)
	assert.Equal(t, 0, flags)

	w, cflags := ToFloat36(two, true)
	assert.Equal(t, 0, cflags)
	assert.Equal(t, uint8(128), uint8((w>>27)&0xFF)) // 2.0 has exponent one higher
}

func TestAddOppositeSignsCancel(t *testing.T) {
	one36 := (uint64(127) << 27) | (uint64(1) << 26)
	pos := FromFloat36(one36)
	neg := pos
	neg.Sign = true
	sum, flags := Add(pos, neg)
	assert.Equal(t, 0, flags)
	assert.True(t, sum.isZero())
}

func TestMultiplyByZeroIsZero(t *testing.T) {
	one36 := (uint64(127) << 27) | (uint64(1) << 26)
	one := FromFloat36(one36)
	result, flags := Multiply(one, Reg{})
	assert.Equal(t, 0, flags)
	assert.True(t, result.isZero())
}

func TestDivideByZeroSignalsOverflow(t *testing.T) {
	one36 := (uint64(127) << 27) | (uint64(1) << 26)
	one := FromFloat36(one36)
	result, flags := Divide(one, Reg{})
	assert.Equal(t, OVRF, flags)
	assert.True(t, result.isInf())
}

func TestDivideIdentity(t *testing.T) {
	one36 := (uint64(127) << 27) | (uint64(1) << 26)
	one := FromFloat36(one36)
	two, _ := Add(one, one)
	quotient, flags := Divide(two, one)
	assert.Equal(t, 0, flags)

	w, _ := ToFloat36(quotient, true)
	assert.Equal(t, uint8(128), uint8((w>>27)&0xFF))
}

func TestToFloat72RoundTripsExactly(t *testing.T) {
	hiIn := (uint64(200) << 27) | uint64(0o123456)
	loIn := uint64(0o765432101234)
	r := FromFloat72(hiIn, loIn)
	hiOut, loOut, flags := ToFloat72(r)
	assert.Equal(t, 0, flags)
	assert.Equal(t, hiIn, hiOut)
	assert.Equal(t, loIn, loOut)
}

func TestAddNaNPropagatesIllegal(t *testing.T) {
	nan := Reg{Exp: 0x7FFF, Sig: 1}
	one36 := (uint64(127) << 27) | (uint64(1) << 26)
	one := FromFloat36(one36)
	result, flags := Add(nan, one)
	assert.Equal(t, ILGL, flags)
	assert.True(t, result.isNaN())
}

func TestAddOppositeInfinitiesIsIllegal(t *testing.T) {
	posInf := Reg{Exp: 0x7FFF}
	negInf := Reg{Sign: true, Exp: 0x7FFF}
	result, flags := Add(posInf, negInf)
	assert.Equal(t, ILGL, flags)
	assert.True(t, result.isNaN())
}

func TestConormalizeBeyond64BitsIsInsignificant(t *testing.T) {
	_, _, flags := conormalize(1000, 0, 1<<63)
	assert.Equal(t, INSG, flags)
}
