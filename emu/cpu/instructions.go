/* IST-66 - CPU instruction family decode and execution.

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

import (
	"github.com/ist66sim/ist66/emu/alu"
	"github.com/ist66sim/ist66/emu/device"
)

// execAll dispatches a 36-bit instruction to its family, mirroring
// original_source/cpu.c's exec_all dispatch thresholds exactly: the
// IO1 opcode (0670 octal) is carved out of the SMI family's top-3-bit
// range before the generic SMI check, since IO1 lives inside it.
func (c *CPU) execAll(inst uint64) {
	top9 := inst >> 27
	switch {
	case inst>>33 == 0x7:
		c.execAA(inst)
	case top9 == 0:
		c.execMR(inst)
	case top9 <= 027:
		c.execAM(inst)
	case top9 == 030:
		c.execMD(inst)
	case top9 == 0100:
		c.execCLM(inst)
	case top9 == 0101:
		c.execRTM(inst)
	case top9 == 0670:
		c.execIO1(inst)
	case inst>>33 == 06:
		c.execSMI(inst)
	default:
		c.except(CauseInst)
	}
}

func (c *CPU) advance() {
	c.SetPC(c.PC() + 1)
}

// execMR implements the MR family: JMP, CALL(JSR), ISZ, DSZ
// (original_source/cpu.c's exec_mr).
func (c *CPU) execMR(inst uint64) {
	ea, ok := c.effectiveAddr(decodeMRTail(inst))
	if !ok {
		return
	}

	switch (inst >> 23) & 0xF {
	case 0: // JMP
		c.SetPC(ea)
	case 1: // JSR
		c.AC[12] = uint64(c.PC()+1) & memAddrMask
		c.SetPC(ea)
	case 2: // ISZ
		data, ok := c.readMem(ea)
		if !ok {
			return
		}
		result := alu.Compute(data, 1, 0, alu.Params{Op: alu.OpAdd, Cond: alu.CondZero})
		if !c.writeMem(ea, alu.Data(result)) {
			return
		}
		if alu.Skip(result) {
			c.SetPC(c.PC() + 2)
		} else {
			c.advance()
		}
	case 3: // DSZ
		data, ok := c.readMem(ea)
		if !ok {
			return
		}
		result := alu.Compute(1, data, 0, alu.Params{Op: alu.OpNegAB, Cond: alu.CondZero})
		if !c.writeMem(ea, alu.Data(result)) {
			return
		}
		if alu.Skip(result) {
			c.SetPC(c.PC() + 2)
		} else {
			c.advance()
		}
	default:
		c.except(CauseInst)
	}
}

// execAM implements the AM family (original_source/cpu.c's exec_am):
// EDT/ESK arm a deferred synthesized instruction; the rest are direct
// AC<->memory ALU ops.
func (c *CPU) execAM(inst uint64) {
	ea, ok := c.effectiveAddr(decodeMRTail(inst))
	if !ok {
		return
	}
	ac := (inst >> 23) & 0xF

	switch (inst >> 27) & 0x1FF {
	case 001, 002: // EDT, EDSK
		data, ok := c.readMem(ea)
		if !ok {
			return
		}
		result := alu.Compute(data, c.AC[ac], b2i(c.CF()), alu.Params{Op: alu.OpOr})
		c.doEdit = true
		c.xeqInst = alu.Data(result)
		if (inst>>27)&0x1FF == 002 {
			c.doEdsk = true
		}
	case 003: // MOVEA
		c.AC[ac] = uint64(ea)
		c.advance()
	case 004: // ADDEA
		c.aluStoreAC(ac, uint64(ea), alu.OpAdd)
	case 005: // ISE
		c.incSkipEq(ac, ea, alu.OpAdd)
	case 006: // DSE
		c.incSkipEq(ac, ea, alu.OpNegAB)
	case 007: // MOVEAS
		c.AC[ac] = (uint64(ea) << 17) & memAddrMask36
		c.advance()
	case 010: // LDCOM
		c.loadTransform(ac, ea, alu.OpCompA)
	case 011: // LDNEG
		c.loadTransform(ac, ea, alu.OpNegA)
	case 012: // LDA
		data, ok := c.readMem(ea)
		if !ok {
			return
		}
		c.AC[ac] = data
		c.advance()
	case 013: // STA
		if c.writeMem(ea, c.AC[ac]) {
			c.advance()
		}
	case 014: // ADCM
		c.memALU(ac, ea, alu.OpCompAB)
	case 015: // SUBM
		c.memALU(ac, ea, alu.OpNegAB)
	case 016: // ADDM
		c.memALU(ac, ea, alu.OpAdd)
	case 017: // ANDM
		c.memALU(ac, ea, alu.OpAnd)
	case 022: // ORM
		c.memALU(ac, ea, alu.OpOr)
	case 026: // XORM
		c.memALU(ac, ea, alu.OpXor)
	default:
		c.except(CauseInst)
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (c *CPU) aluStoreAC(ac uint64, b uint64, op alu.Op) {
	result := alu.Compute(b, c.AC[ac], b2i(c.CF()), alu.Params{Op: op})
	c.AC[ac] = alu.Data(result)
	c.SetCF(alu.Carry(result))
	c.advance()
}

// incSkipEq implements ISE/DSE: increment/decrement AC, then skip if
// the new AC value equals the memory operand.
func (c *CPU) incSkipEq(ac uint64, ea uint32, op alu.Op) {
	result := alu.Compute(1, c.AC[ac], b2i(c.CF()), alu.Params{Op: op})
	c.AC[ac] = alu.Data(result)
	c.SetCF(alu.Carry(result))

	data, ok := c.readMem(ea)
	if !ok {
		return
	}
	if data == c.AC[ac] {
		c.SetPC(c.PC() + 2)
	} else {
		c.advance()
	}
}

func (c *CPU) loadTransform(ac uint64, ea uint32, op alu.Op) {
	data, ok := c.readMem(ea)
	if !ok {
		return
	}
	result := alu.Compute(data, 0, 0, alu.Params{Op: op})
	c.AC[ac] = alu.Data(result)
	c.advance()
}

func (c *CPU) memALU(ac uint64, ea uint32, op alu.Op) {
	data, ok := c.readMem(ea)
	if !ok {
		return
	}
	result := alu.Compute(data, c.AC[ac], b2i(c.CF()), alu.Params{Op: op})
	c.AC[ac] = alu.Data(result)
	c.SetCF(alu.Carry(result))
	c.advance()
}

// execSMI implements the supervisor-mode-instruction family: HLT,
// INT, RFI/RMSK/LDMSK/STMSK, LDK, STK, STCTL, LCT. All require
// execution key 0 (original_source/cpu.c's exec_smi).
func (c *CPU) execSMI(inst uint64) {
	if c.Key() != 0 {
		c.except(CausePpfs)
		return
	}
	ea, ok := c.effectiveAddr(decodeMRTail(inst))
	if !ok {
		return
	}
	ac := (inst >> 23) & 0xF

	switch (inst >> 27) & 0x1FF {
	case 0600: // HLT
		c.IRQ.Halt(c.irql())
		c.StopCode = c.AC[ac]
		c.SetPC(ea)
	case 0601: // INT
		c.SetPC(ea)
		c.enterIRQ(int(ac))
	case 0602:
		switch ac {
		case 0: // RFI
			c.rfi()
		case 1: // RMSK
			data := c.readSupervisor(ea)
			c.IRQ.SetMask(uint16(data))
			c.rfi()
		case 2: // LDMSK
			data := c.readSupervisor(ea)
			c.IRQ.SetMask(uint16(data))
			c.advance()
		case 3: // STMSK
			c.writeSupervisor(ea, uint64(c.IRQ.Mask()))
			c.advance()
		default:
			c.except(CauseInst)
		}
	case 0603: // LDK
		c.AC[ac] = uint64(c.Mem.Key(ea))
		c.advance()
	case 0604: // STK
		_ = c.Mem.SetKey(ea, uint8(c.AC[ac]))
		c.advance()
	case 0605: // STCTL
		c.writeSupervisor(ea, c.C[ac&0x7])
		c.advance()
	case 0606: // LCT
		c.C[ac&0x7] = c.readSupervisor(ea)
		c.advance()
	default:
		c.except(CauseInst)
	}
}

// execIO1 implements the device IO instruction (original_source/
// cpu.c's exec_io1): requires key 0, dispatches through the device
// table, applies input/status transfer semantics.
func (c *CPU) execIO1(inst uint64) {
	if c.Key() != 0 {
		c.except(CausePpfs)
		return
	}

	dev := int(inst & 0xFFF)
	ctl := device.Ctl((inst >> 16) & 0x3)
	transfer := device.Transfer((inst >> 12) & 0xF)
	ac := (inst >> 23) & 0xF

	d := c.IO.Lookup(dev)
	if d == nil {
		c.except(CauseDevx)
		return
	}

	result := d.Op(c.AC[ac], ctl, transfer)

	if transfer.IsInput() {
		c.AC[ac] |= result
	} else if transfer == device.TransferStatus {
		if statusSkip(ctl, result) {
			c.advance()
		}
	}
	c.advance()
}

func statusSkip(ctl device.Ctl, result uint64) bool {
	busy := result&device.StatusBusy != 0
	done := result&device.StatusDone != 0
	switch ctl {
	case device.CtlSkipIfBusy:
		return busy
	case device.CtlSkipIfNotBusy:
		return !busy
	case device.CtlSkipIfDone:
		return done
	default: // CtlSkipIfNotDone
		return !done
	}
}

const (
	memAddrMask   = uint64(0x7FFFFFF)
	memAddrMask36 = uint64(0xFFFFFFFFF)
)
