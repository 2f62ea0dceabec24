package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ist66sim/ist66/emu/device"
	"github.com/ist66sim/ist66/emu/irq"
	"github.com/ist66sim/ist66/emu/memory"
)

func newTestCPU(size int) *CPU {
	mem := memory.New(size)
	return New(mem, device.NewTable(16), irq.New())
}

// aaInst assembles a 36-bit AA instruction: family 07, op-hi bit 32.
func aaInst(acs, acd uint64, op int, ci, cond uint64, nl, rc bool, mk, rt int8) uint64 {
	inst := uint64(0x7) << 33
	inst |= acs << 27
	inst |= acd << 23
	inst |= uint64(op&0x7) << 20
	inst |= (uint64(op) >> 3 & 1) << 32
	inst |= ci << 18
	inst |= cond << 15
	if nl {
		inst |= 1 << 14
	}
	if rc {
		inst |= 1 << 31
	}
	inst |= uint64(uint8(mk)&0x3F) << 7
	inst |= uint64(uint8(rt) & 0x3F)
	return inst
}

func TestAddRegisterRegister(t *testing.T) {
	c := newTestCPU(64)
	c.Mem.Deposit(0, aaInst(1, 2, 6 /* OpAdd */, 0, 0, false, false, 0, 0))
	c.AC[1] = 5
	c.AC[2] = 7
	c.SetPC(0)
	c.IRQ.SetRunning(true)
	c.execAll(c.Mem.Examine(0))
	assert.EqualValues(t, 12, c.AC[2])
	assert.EqualValues(t, 1, c.PC())
}

func TestEffectiveAddressDirectIndex(t *testing.T) {
	c := newTestCPU(64)
	c.AC[5] = 10
	// MR family, index 5, disp 3.
	inst := uint64(0) | (uint64(5) << 18) | 3
	ea, ok := c.effectiveAddr(decodeMRTail(inst))
	assert.True(t, ok)
	assert.EqualValues(t, 13, ea)
}

func TestEffectiveAddressPostIncrement(t *testing.T) {
	c := newTestCPU(64)
	c.AC[13] = 100
	inst := uint64(0) | (uint64(14) << 18) | 5
	ea, ok := c.effectiveAddr(decodeMRTail(inst))
	assert.True(t, ok)
	assert.EqualValues(t, 100, ea)
	assert.EqualValues(t, 105, c.AC[13])
}

func TestEffectiveAddressPreDecrement(t *testing.T) {
	c := newTestCPU(64)
	c.AC[13] = 100
	inst := uint64(0) | (uint64(15) << 18) | 5
	ea, ok := c.effectiveAddr(decodeMRTail(inst))
	assert.True(t, ok)
	assert.EqualValues(t, 95, ea)
	assert.EqualValues(t, 95, c.AC[13])
}

func TestIndirectAutoModPostIncrement(t *testing.T) {
	c := newTestCPU(64)
	// Indirect slot at address 10: bit 35 set, mode 00, imm +2, field 20.
	slot := uint64(1)<<35 | uint64(2)<<27 | 20
	c.Mem.Deposit(10, slot)
	inst := uint64(1)<<22 | 10 // indirect, disp=10, index=no-base
	ea, ok := c.effectiveAddr(decodeMRTail(inst))
	assert.True(t, ok)
	assert.EqualValues(t, 20, ea) // pre-mod address returned
	assert.True(t, c.deferPending)
	c.commitDefer()
	got := c.Mem.Examine(10)
	assert.EqualValues(t, 22, got&uint64(memory.AddrMask))
}

func TestIndirectReservedModeFaults(t *testing.T) {
	c := newTestCPU(64)
	slot := uint64(1)<<35 | uint64(2)<<33 | 20 // mode 10: reserved
	c.Mem.Deposit(10, slot)
	inst := uint64(1)<<22 | 10
	c.SetPC(0)
	_, ok := c.effectiveAddr(decodeMRTail(inst))
	assert.False(t, ok)
	assert.EqualValues(t, CauseMemx, (c.C[cCW]>>cwCauseShift)&cwCauseMask)
}

func TestInterruptEntryAndRFI(t *testing.T) {
	c := newTestCPU(64)
	c.SetPC(0x100)
	c.SetCF(true)
	c.C[cCW] = 0x3FFFF // direct base bits, level 0

	c.enterIRQ(5)
	assert.EqualValues(t, 5, c.irql())
	// Saved PSW/CW for level 0 live at vector slots 32/33.
	savedPSW := c.readSupervisor(32)
	assert.EqualValues(t, 0x100, savedPSW&pcMask)

	c.rfi()
	assert.EqualValues(t, 0x100, c.PC())
	assert.True(t, c.CF())
}

func TestExceptionStampsCause(t *testing.T) {
	c := newTestCPU(64)
	c.SetPC(7)
	c.except(CauseDivz)
	cause := Cause((c.C[cCW] >> cwCauseShift) & cwCauseMask)
	assert.Equal(t, CauseDivz, cause)
}

func TestMemoryProtectionFaultsOnKeyMismatch(t *testing.T) {
	c := newTestCPU(1024)
	_ = c.Mem.SetKey(0, 3)
	c.SetKey(7)
	c.SetPC(0)
	_, ok := c.readMem(0)
	assert.False(t, ok)
	cause := Cause((c.C[cCW] >> cwCauseShift) & cwCauseMask)
	assert.Equal(t, CausePpfr, cause)
}

func TestCLMAndRTMRoundTrip(t *testing.T) {
	c := newTestCPU(1024)
	c.AC[13] = 512 // SP
	c.AC[1], c.AC[2], c.AC[12] = 0x111, 0x222, 0xCCC

	mask := uint16(1<<14 | 1<<13 | 1<<3) // -> AC1, AC2, AC12
	c.Mem.Deposit(20, uint64(mask))

	c.SetPC(100)
	inst := uint64(0100) << 27 // CLM, no index, disp=20
	inst |= 20
	c.execCLM(inst)

	assert.EqualValues(t, 21, c.PC()) // ea+1 = 20+1
	assert.EqualValues(t, 507, c.AC[13])

	// Clobber the ACs, then RTM should restore them and the PC.
	c.AC[1], c.AC[2], c.AC[12] = 0, 0, 0
	rtm := uint64(0101) << 27
	c.execRTM(rtm)

	assert.EqualValues(t, 0x111, c.AC[1])
	assert.EqualValues(t, 0x222, c.AC[2])
	assert.EqualValues(t, 0xCCC, c.AC[12])
	assert.EqualValues(t, 101, c.PC())
	assert.EqualValues(t, 512, c.AC[13])
}

func TestCLMFaultLeavesStateUnchanged(t *testing.T) {
	c := newTestCPU(64)
	c.AC[13] = 5
	_ = c.Mem.SetKey(0, 0xFE) // world-readable, read-only: every push write faults
	c.Mem.Deposit(20, uint64(1<<15))
	origSP := c.AC[13]
	origAC0 := c.AC[0]
	c.SetPC(100)

	inst := uint64(0100)<<27 | 20
	c.execCLM(inst)

	assert.EqualValues(t, origSP, c.AC[13])
	assert.EqualValues(t, origAC0, c.AC[0])
}

func TestHaltSetsStopCodeAndRunLoopExits(t *testing.T) {
	c := newTestCPU(64)
	// HLT: SMI family (top9 0600 octal), ac selects stop code source, ea=0.
	c.AC[4] = 42
	hlt := uint64(0600)<<27 | uint64(4)<<23
	c.Mem.Deposit(0, hlt)
	c.RequestExit()
	stop := c.Run(0)
	assert.EqualValues(t, 42, stop)
}
