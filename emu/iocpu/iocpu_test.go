package iocpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ist66sim/ist66/emu/device"
	"github.com/ist66sim/ist66/emu/irq"
	"github.com/ist66sim/ist66/emu/memory"
)

func newTestIOCPU(localWords int) *IOCPU {
	return New(localWords, memory.New(64), irq.New(), device.NewTable(8))
}

func TestAddAccumulator(t *testing.T) {
	io := newTestIOCPU(64)
	io.Local[10] = 5
	io.AC0 = 7
	// A instruction: top3=1, zero-page, disp=10.
	inst := uint64(1)<<15 | uint64(1)<<12 | 10
	io.IOPC = 0
	io.execAll(inst)
	assert.EqualValues(t, 12, io.AC0)
	assert.EqualValues(t, 1, io.IOPC)
}

func TestBranchLink(t *testing.T) {
	io := newTestIOCPU(64)
	io.IOPC = 100
	// BL: top3=4, zero-page, disp=10.
	inst := uint64(4)<<15 | uint64(1)<<12 | 10
	io.execAll(inst)
	assert.EqualValues(t, 101, io.Local[10])
	assert.EqualValues(t, 11, io.IOPC)
}

func TestIndirectSelfIncrementingSlot(t *testing.T) {
	io := newTestIOCPU(64)
	io.Local[9] = 20 // an indirect pointer slot
	io.Local[20] = 99

	// B instruction, indirect, zero-page, disp=9.
	inst := uint64(5)<<15 | uint64(1)<<14 | uint64(1)<<12 | 9
	io.execAll(inst)

	// The slot self-increments before the dereferenced address is used,
	// so B jumps to the bumped value, not the slot's original contents.
	assert.EqualValues(t, 21, io.IOPC)
	assert.EqualValues(t, 21, io.Local[9])
}

func TestITNSkipsOnOverflowToZero(t *testing.T) {
	io := newTestIOCPU(64)
	io.Local[10] = mask18 // incrementing wraps to 0
	inst := uint64(2)<<15 | uint64(1)<<12 | 10
	io.IOPC = 0
	io.execAll(inst)
	assert.EqualValues(t, 0, io.Local[10])
	assert.EqualValues(t, 2, io.IOPC) // skip fired
}

func TestIOInstructionInputTransferAndBump(t *testing.T) {
	io := newTestIOCPU(8)
	io.Dev.Attach(3, &stubDevice{result: 0x55})
	// IO instruction: top3=6, device=3, transfer=0 (input).
	inst := uint64(6)<<15 | 3
	io.IOPC = 0
	io.execAll(inst)
	assert.EqualValues(t, 0x55, io.AC0&mask18)
	assert.EqualValues(t, 1, io.IOPC)
}

func TestIOStatusSkipAddsExtraBump(t *testing.T) {
	io := newTestIOCPU(8)
	io.Dev.Attach(3, &stubDevice{result: device.StatusDone})
	// transfer=14 (status), ctl=2 (skip if done).
	inst := uint64(6)<<15 | uint64(2)<<13 | uint64(14)<<9 | 3
	io.IOPC = 0
	io.execAll(inst)
	assert.EqualValues(t, 2, io.IOPC)
}

func TestOpr0ByteSwap(t *testing.T) {
	io := newTestIOCPU(8)
	io.AC0 = 0x1C0 // bits set only in the low 9-bit half
	inst := uint64(7)<<15 | uint64(1)<<1 // BSW case
	io.execAll(inst)
	assert.EqualValues(t, uint64(0x1C0)<<9, io.AC0)
	assert.EqualValues(t, 1, io.IOPC)
}

func TestOpr1SkipsOnZero(t *testing.T) {
	io := newTestIOCPU(8)
	io.AC0 = 0
	inst := uint64(7)<<15 | uint64(1)<<8 | uint64(1)<<5 // TNZ
	io.execAll(inst)
	assert.EqualValues(t, 2, io.IOPC)
}

func TestOpr3APIAssertsHostIRQ(t *testing.T) {
	io := newTestIOCPU(8)
	io.SetIRQLevel(4)
	io.HostIRQ.SetMask(1 << 4)
	inst := uint64(7)<<15 | 1 | uint64(1)<<3 // API
	io.execAll(inst)
	assert.EqualValues(t, 4, io.HostIRQ.MinPending())
	assert.True(t, io.api)
}

func TestMaybeHaltParksWhenNotOnRequestLine(t *testing.T) {
	io := newTestIOCPU(8)
	io.ion = true
	io.IRQ.SetRunning(true)
	io.maybeHalt()
	assert.False(t, io.IRQ.Running())
}

func TestMaybeHaltStaysRunningOnLine1(t *testing.T) {
	io := newTestIOCPU(8)
	io.ion = true
	io.IRQ.SetMask(1 << 1)
	io.IRQ.Assert(1)
	io.maybeHalt()
	assert.True(t, io.IRQ.Running())
}

type stubDevice struct {
	result uint64
}

func (s *stubDevice) Op(uint64, device.Ctl, device.Transfer) uint64 { return s.result }
func (s *stubDevice) Destroy()                                      {}
