/* IST-66 - IOCPU instruction decode and execution.

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

package iocpu

import "github.com/ist66sim/ist66/emu/device"

// execAll dispatches an 18-bit instruction (original_source/iocpu.c's
// io_exec_all): top 3 bits 6 selects the IO instruction, 7 selects one
// of three OPR groups keyed on bits 0 and 8, anything else is an MR
// instruction.
func (io *IOCPU) execAll(inst uint64) {
	switch inst >> 15 {
	case 6:
		io.execIO(inst)
	case 7:
		switch {
		case inst&1 != 0:
			io.execOpr3(inst)
		case inst&(1<<8) != 0:
			io.execOpr1(inst)
		default:
			io.execOpr0(inst)
		}
	default:
		io.execMR(inst)
	}
}

// compMR implements io_comp_mr: 1-bit indirect, 1-bit index, 1-bit
// zero-page, 12-bit signed displacement; AC1 is the base-page
// register, AC2 the post-indirection index register. Indirect slots
// at local addresses 8..15 self-increment on every indirection.
func (io *IOCPU) compMR(inst uint64) uint64 {
	indirect := (inst>>14)&1 != 0
	index := (inst>>13)&1 != 0
	zeroPage := (inst>>12)&1 != 0
	disp := ext12(inst & 0xFFF)

	ea := disp
	if !zeroPage {
		ea += io.IOPC
	}
	if !index {
		ea += io.AC1 << 10
	}
	ea &= ioAddrMask

	if !indirect {
		return ea
	}

	ia := io.readMem(ea)
	if slot := ea & mask18; slot >= 8 && slot < 16 {
		ia = (ia + 1) & mask18
		io.writeMem(ea, ia)
	}
	if index {
		ia += io.AC2 << 10
	}
	return ia & ioAddrMask
}

// execMR implements the AN/A/ITN/SC/BL/B family (io_exec_mr).
func (io *IOCPU) execMR(inst uint64) {
	ea := io.compMR(inst)

	switch inst >> 15 {
	case 0: // AN
		data := io.readMem(ea) & mask18
		io.AC0 &= (io.AC0 + data) | (1 << 18)
		io.advance(1)
	case 1: // A
		data := io.readMem(ea) & mask18
		io.AC0 = (io.AC0 + data) & mask19
		io.advance(1)
	case 2: // ITN
		data := (io.readMem(ea) + 1) & mask18
		io.writeMem(ea, data)
		if data != 0 {
			io.advance(1)
		} else {
			io.advance(2)
		}
	case 3: // SC
		io.writeMem(ea, io.AC0)
		io.AC0 &= 1 << 18
		io.advance(1)
	case 4: // BL
		io.writeMem(ea, io.IOPC+1)
		io.IOPC = (ea + 1) & mask18
	case 5: // B
		io.IOPC = ea & mask18
	}
}

// execIO implements the device IO instruction (io_exec_io): a single
// net PC increment per instruction, plus one more if the status-query
// skip predicate fires, matching spec.md's prescribed fix for the
// source's double-increment structure.
func (io *IOCPU) execIO(inst uint64) {
	id := int(inst & 0x7F)
	postSwap := (inst>>8)&1 != 0
	preClear := (inst>>7)&1 != 0
	ctl := device.Ctl((inst >> 13) & 0x3)
	transfer := device.Transfer((inst >> 9) & 0xF)
	data := io.AC0 & mask18

	if preClear {
		io.AC0 &= 1 << 18
	}

	if d := io.Dev.Lookup(id); d != nil {
		result := d.Op(data, ctl, transfer)

		bump := uint64(1)
		if transfer.IsInput() {
			io.AC0 |= result & mask18
		} else if transfer == device.TransferStatus {
			if statusSkip(ctl, result) {
				bump = 2
			}
		}
		io.advance(bump)
	}

	if postSwap {
		io.AC0 = (io.AC0 & (1 << 18)) | ((io.AC0 & 0x1FF) << 9) | ((io.AC0 >> 9) & 0x1FF)
	}
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

// byteSwap18 exchanges AC0's two 9-bit halves, preserving bit 18
// (io_exec_opr_0's BSW case and the IO instruction's post-swap option).
func byteSwap18(ac0 uint64) uint64 {
	return (ac0 & (1 << 18)) | ((ac0 & 0x1FF) << 9) | ((ac0 >> 9) & 0x1FF)
}

// execOpr0 implements the non-skip micro-op group (io_exec_opr_0):
// independent flag bits for clear/complement/increment, then one
// rotate/swap/move-to-index case from bits [3:1].
func (io *IOCPU) execOpr0(inst uint64) {
	if inst&(1<<7) != 0 { // CLA
		io.AC0 &= 1 << 18
	}
	if inst&(1<<6) != 0 { // CLF
		io.AC0 &= mask18
	}
	if inst&(1<<5) != 0 { // CMA
		io.AC0 ^= mask18
	}
	if inst&(1<<4) != 0 { // CMF
		io.AC0 ^= 1 << 18
	}
	if inst&1 != 0 { // INC
		io.AC0 = (io.AC0 + 1) & mask19
	}

	switch (inst >> 1) & 7 {
	case 1: // BSW
		io.AC0 = byteSwap18(io.AC0)
	case 2: // RAL
		io.AC0 = ((io.AC0 & mask18) << 1) | (io.AC0 >> 18)
	case 3: // RTL
		io.AC0 = ((io.AC0 & mask17) << 2) | (io.AC0 >> 17)
	case 4: // RAR
		io.AC0 = ((io.AC0 & 1) << 18) | (io.AC0 >> 1)
	case 5: // RTR
		io.AC0 = ((io.AC0 & 3) << 17) | (io.AC0 >> 2)
	case 6: // MSX
		io.AC1 = io.AC0 & mask18
	case 7: // MDX
		io.AC2 = io.AC0 & mask18
	}

	io.advance(1)
}

// execOpr1 implements the conditional-skip test group (io_exec_opr_1):
// an OR of up to three predicates over AC0 (inverted when the
// And-group bit is set), a CLA, a conditional halt, and a stop-code
// load.
func (io *IOCPU) execOpr1(inst uint64) {
	condition := false
	if inst&(1<<6) != 0 { // TGE
		condition = condition || io.AC0&(1<<17) != 0
	}
	if inst&(1<<5) != 0 { // TNZ
		condition = condition || io.AC0&mask18 == 0
	}
	if inst&(1<<4) != 0 { // TCZ
		condition = condition || io.AC0&(1<<18) == 0
	}
	if inst&(1<<3) != 0 { // And-group
		condition = !condition
	}

	extra := uint64(0)
	if condition {
		extra = 1
	}

	if inst&(1<<7) != 0 { // CLA
		io.AC0 &= 1 << 18
	}
	if inst&(1<<1) != 0 { // HLT
		io.maybeHalt()
	}
	if inst&(1<<2) != 0 { // LSC: load stop code into AC0
		io.AC0 |= io.StopCode & mask18
	}

	io.advance(1 + extra)
}

// execOpr3 implements the interrupt-control/halt group (io_exec_opr_3):
// CIE clears and CMI complements the enable flag, SSR stores the stop code, API
// signals the host, HLT conditionally parks, and TIE/TNP test ion and
// the device-request line.
func (io *IOCPU) execOpr3(inst uint64) {
	if inst&(1<<7) != 0 { // CIE
		io.ion = false
	}
	if inst&(1<<5) != 0 { // CMI
		io.ion = !io.ion
	}
	if inst&(1<<2) != 0 { // SSR
		io.StopCode = io.AC0
	}
	if inst&(1<<3) != 0 { // API
		io.HostIRQ.Assert(io.irqLevel)
		io.api = true
	}
	if inst&(1<<1) != 0 { // HLT
		io.maybeHalt()
	}

	condition := false
	if inst&(1<<4) != 0 { // TIE
		condition = condition || io.ion
	}
	if inst&(1<<6) != 0 { // TNP
		condition = condition || !io.IRQ.PendingRaw(1)
	}
	if inst&(1<<8) != 0 { // And-group
		condition = !condition
	}

	extra := uint64(0)
	if condition {
		extra = 1
	}
	io.advance(1 + extra)
}

// SetIRQLevel sets the host IRQ level the API instruction asserts.
func (io *IOCPU) SetIRQLevel(level int) {
	io.irqLevel = level
}
