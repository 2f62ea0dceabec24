/* IST-66 - CPU interpreter: registers, interrupt entry, execution loop.

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

// Package cpu implements the main 36-bit CPU interpreter of spec.md
// §4.2: instruction decode over the MR/AM/MD/CLM-RTM/SMI/IO1/AA
// families, deferred-indirect effective addressing, and the
// interrupt/exception entry and RFI sequence of §4.4, grounded on
// original_source/cpu.c and original_source/include/cpu.h.
package cpu

import (
	"github.com/ist66sim/ist66/emu/alu"
	"github.com/ist66sim/ist66/emu/device"
	"github.com/ist66sim/ist66/emu/fpu"
	"github.com/ist66sim/ist66/emu/irq"
	"github.com/ist66sim/ist66/emu/memory"
	"github.com/ist66sim/ist66/util/debug"
)

// CPU is one IST-66 main processor: sixteen accumulators, the PSW/CW
// control registers, an FPU register file, and the deferred-execute/
// deferred-indirect-write state carried between instructions.
type CPU struct {
	AC [16]uint64
	C  [8]uint64
	F  [16]fpu.Reg

	Mem *memory.Memory
	IO  *device.Table
	IRQ *irq.Controller

	StopCode uint64

	xeqInst uint64
	doEdit  bool
	doEdsk  bool

	deferPending bool
	deferKey     uint8
	deferAddr    uint32
	deferData    uint64
}

// New returns a freshly reset CPU wired to mem, io and irqc.
func New(mem *memory.Memory, io *device.Table, irqc *irq.Controller) *CPU {
	return &CPU{Mem: mem, IO: io, IRQ: irqc}
}

// PC returns the program counter held in PSW bits [26:0].
func (c *CPU) PC() uint32 {
	return uint32(c.C[cPSW] & pcMask)
}

// SetPC replaces the program counter, leaving carry and key untouched.
func (c *CPU) SetPC(pc uint32) {
	c.C[cPSW] = (c.C[cPSW] &^ pcMask) | (uint64(pc) & pcMask)
}

// CF returns the carry flag in PSW bit 27.
func (c *CPU) CF() bool {
	return c.C[cPSW]&carryBit != 0
}

// SetCF replaces the carry flag.
func (c *CPU) SetCF(set bool) {
	if set {
		c.C[cPSW] |= carryBit
	} else {
		c.C[cPSW] &^= carryBit
	}
}

// Key returns the execution protection key in PSW bits [35:28].
func (c *CPU) Key() uint8 {
	return uint8(c.C[cPSW] >> 28)
}

// SetKey replaces the execution protection key.
func (c *CPU) SetKey(key uint8) {
	c.C[cPSW] = (c.C[cPSW] &^ (uint64(0xFF) << 28)) | (uint64(key) << 28)
}

// irql returns the CW's current IRQ level (bits [35:32]).
func (c *CPU) irql() int {
	return int((c.C[cCW] >> cwLevelShift) & 0xF)
}

// directBase returns the 18-bit direct-page base held in CW bits [17:0].
func (c *CPU) directBase() uint64 {
	return c.C[cCW] & cwBaseMask
}

// readMem performs a protected read under the current execution key,
// converting a memory.Fault into the matching CPU exception.
func (c *CPU) readMem(addr uint32) (uint64, bool) {
	data, f := c.Mem.Read(c.Key(), addr)
	switch f {
	case memory.NoFault:
		return data, true
	case memory.MemFault:
		c.except(CauseMemx)
	case memory.KeyFault:
		c.except(CausePpfr)
	}
	return 0, false
}

// writeMem performs a protected write under the current execution key.
func (c *CPU) writeMem(addr uint32, data uint64) bool {
	switch c.Mem.Write(c.Key(), addr, data) {
	case memory.NoFault:
		return true
	case memory.MemFault:
		c.except(CauseMemx)
	case memory.KeyFault:
		c.except(CausePpfw)
	}
	return false
}

// readSupervisor reads bypassing the caller key (key 0), used by the
// SMI family's RMSK/LDMSK/STMSK and by vector-slot access during
// interrupt entry.
func (c *CPU) readSupervisor(addr uint32) uint64 {
	data, _ := c.Mem.Read(0, addr)
	return data
}

func (c *CPU) writeSupervisor(addr uint32, data uint64) {
	_ = c.Mem.Write(0, addr, data)
}

// enterIRQ performs interrupt entry for irqNum (spec.md §4.4): save
// {PSW, CW} to the current level's vector slot, load a new CW from
// irqNum's vector slot, load a new PSW, and discard all deferred
// execute/indirect-write state.
func (c *CPU) enterIRQ(irqNum int) {
	level := c.irql()
	c.writeSupervisor(uint32(32+2*level), c.C[cPSW])
	c.writeSupervisor(uint32(33+2*level), c.C[cCW])

	newCW := (uint64(irqNum) << cwLevelShift) | (uint64(level) << cwPriorShift)
	newCW |= c.readSupervisor(uint32(1+2*irqNum)) & cwBaseMask
	c.C[cCW] = newCW & cwMask
	c.C[cPSW] = c.readSupervisor(uint32(2*irqNum)) & 0xFF7FFFFFF

	c.doEdit = false
	c.doEdsk = false
	c.deferPending = false

	if debugMask&DebugIrq != 0 {
		debug.Debugf("CPU", debugMask, DebugIrq, "enter irq %d from level %d", irqNum, level)
	}
}

// except is the exception-entry convenience wrapper of spec.md §4.4:
// interrupt entry via IRQ 0, additionally stamping cause into CW bits
// [27:24].
func (c *CPU) except(cause Cause) {
	c.enterIRQ(0)
	c.C[cCW] |= (uint64(cause) & cwCauseMask) << cwCauseShift
	if debugMask&DebugFault != 0 {
		debug.Debugf("CPU", debugMask, DebugFault, "exception cause %d at pc %o", cause, c.PC())
	}
}

// rfi restores PSW and CW from the prior IRQ level's vector slot
// (spec.md §4.4's "Return from interrupt").
func (c *CPU) rfi() {
	prior := int((c.C[cCW] >> cwPriorShift) & 0xF)
	c.C[cPSW] = c.readSupervisor(uint32(32 + 2*prior))
	c.C[cCW] = c.readSupervisor(uint32(33 + 2*prior))
}

// Halted reports whether the CPU is not running (stopped by HLT or
// paused). The run loop may still be alive, waiting for an interrupt.
func (c *CPU) Halted() bool {
	return !c.IRQ.Running()
}

// RequestExit asks the run loop to return, used by console/Stop
// control. The loop honours it once the CPU is not running, and it
// wakes a loop waiting for an interrupt.
func (c *CPU) RequestExit() {
	c.IRQ.RequestExit()
}

// Run executes the §4.2 loop starting at initPC until exit is
// requested and the CPU is not runnable, returning the final stop
// code (the HLT instruction's operand).
func (c *CPU) Run(initPC uint32) uint64 {
	c.SetPC(initPC)
	c.IRQ.SetRunning(true)

	for {
		if c.doEdit {
			c.execAll(c.xeqInst)
			c.doEdit = false
			if c.doEdsk {
				c.SetPC(c.PC() + 1)
				c.doEdsk = false
			}
		}

		if min := c.IRQ.MinPending(); min < c.irql() {
			c.enterIRQ(min)
		}

		if c.IRQ.Running() {
			inst, ok := c.readMem(c.PC())
			if ok {
				if debugMask&DebugInst != 0 {
					debug.Debugf("CPU", debugMask, DebugInst, "pc %o inst %012o", c.PC(), inst)
				}
				c.execAll(inst & alu.Mask36)
			}
			c.commitDefer()
			continue
		}

		if c.IRQ.ExitRequested() || c.IRQ.MinPending() == irq.None {
			return c.StopCode
		}
		c.IRQ.Wait()
		if c.IRQ.ExitRequested() {
			return c.StopCode
		}
	}
}

// commitDefer writes back a staged auto-mod indirect slot once the
// instruction that staged it has completed without fault (spec.md
// §4.2's effective-address paragraph).
func (c *CPU) commitDefer() {
	if !c.deferPending {
		return
	}
	c.deferPending = false
	_ = c.Mem.Write(c.deferKey, c.deferAddr, c.deferData)
}
