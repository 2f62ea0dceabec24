package alu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeAdd(t *testing.T) {
	for _, tc := range []struct {
		name       string
		a, b       uint64
		wantData   uint64
		wantCarry  bool
	}{
		{"zero", 0, 0, 0, false},
		{"no-carry", 1, 2, 3, false},
		{"exact-overflow", Mask36, 1, 0, true},
		{"carry", Mask36, Mask36, Mask36 - 1, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			result := Compute(tc.a, tc.b, 0, Params{Op: OpAdd})
			assert.Equal(t, tc.wantData, Data(result))
			assert.Equal(t, tc.wantCarry, Carry(result))
		})
	}
}

// AC0 = all ones, AC1 = 1: ADD 1,0 yields AC0=0, carry=1, skip on "carry
// set" fires. Mirrors spec.md §8 scenario 2.
func TestComputeCarrySkip(t *testing.T) {
	result := Compute(Mask36, 1, 0, Params{Op: OpAdd, Cond: CondCarrySet})
	assert.Equal(t, uint64(0), Data(result))
	assert.True(t, Carry(result))
	assert.True(t, Skip(result))
}

func TestRotateIdentityAt36(t *testing.T) {
	for _, rt := range []int8{36, -36, 0} {
		result := Compute(0o123456701234, 0, 0, Params{Op: OpPassA, RT: rt})
		assert.Equal(t, uint64(0o123456701234), Data(result))
	}
}

func TestRotateThroughCarry37(t *testing.T) {
	// Rotating a value with carry set by one bit through the 37-bit
	// path should move the carry bit into bit 0 of the result.
	result := Compute(0, 0, 1, Params{Op: OpPassA, RC: true, RT: 1})
	assert.Equal(t, uint64(1), Data(result))
	assert.False(t, Carry(result))
}

func TestMaskLeftFillsFromCarry(t *testing.T) {
	result := Compute(0, 0, 1, Params{Op: OpPassA, MK: 4})
	// Top 4 bits become 1 (carry), rest stay 0.
	assert.Equal(t, uint64(0xF)<<32, Data(result))
}

func TestMaskRightFillsFromCarry(t *testing.T) {
	result := Compute(0, 0, 1, Params{Op: OpPassA, MK: -4})
	assert.Equal(t, uint64(0xF), Data(result))
}

func TestCarryInit(t *testing.T) {
	assert.False(t, Carry(Compute(0, 0, 1, Params{Op: OpPassA, CI: CarryClear})))
	assert.True(t, Carry(Compute(0, 0, 0, Params{Op: OpPassA, CI: CarrySet})))
	assert.True(t, Carry(Compute(0, 0, 0, Params{Op: OpPassA, CI: CarryFlip})))
}

func TestNoLoadKeepsB(t *testing.T) {
	result := Compute(5, 9, 0, Params{Op: OpAdd, NL: true})
	assert.Equal(t, uint64(9), Data(result))
}

func TestMostNegativeSquareIsPositive(t *testing.T) {
	// 2's complement of the most negative 36-bit value, multiplied by
	// itself at the ALU level (single-word op=2 pass-through double
	// check is done at the cpu/ MPY level; here we just confirm the
	// identity op leaves the sign pattern alone for the FPU/MD tests to
	// build on).
	mostNeg := uint64(1) << 35
	result := Compute(mostNeg, 0, 0, Params{Op: OpPassA})
	assert.Equal(t, mostNeg, Data(result))
}
