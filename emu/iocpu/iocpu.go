/* IST-66 - IOCPU: auxiliary 18-bit processor sharing the host's bus.

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

// Package iocpu implements the auxiliary 18-bit I/O processor of
// spec.md §4.3: its own small accumulator set, a local word memory
// that shadows into the host's 36-bit memory above address 0x3FFFF,
// and an MR/IO/OPR0/OPR1/OPR3 instruction set, grounded on
// original_source/iocpu.c.
package iocpu

import (
	"github.com/ist66sim/ist66/emu/device"
	"github.com/ist66sim/ist66/emu/irq"
	"github.com/ist66sim/ist66/emu/memory"
	"github.com/ist66sim/ist66/util/debug"
)

// IOCPU is one auxiliary processor instance. AC0 carries an extra
// carry/overflow bit above its 18 data bits (original_source's
// MASK_19 accumulator); AC1 is the base-page register added into
// every non-indexed effective address, AC2 the post-indirection
// index register.
type IOCPU struct {
	AC0, AC1, AC2 uint64
	IOPC          uint64
	ion           bool
	api           bool
	irqLevel      int

	StopCode uint64

	Local []uint64 // local 18-bit-word memory, one word per address
	Host  *memory.Memory
	Dev   *device.Table

	// HostIRQ is the main CPU's interrupt controller, signaled by the
	// API instruction. IRQ is this IOCPU's own single-line device
	// request/halt controller (original_source's local pending/mask
	// pair, reusing emu/irq rather than re-deriving the same
	// mutex+condvar rendezvous a second time).
	HostIRQ *irq.Controller
	IRQ     *irq.Controller
}

// New returns a freshly reset IOCPU with localWords words of local
// memory, wired to the host's memory bus, its own device table and
// interrupt line, and the host's interrupt controller for API.
func New(localWords int, host *memory.Memory, hostIRQ *irq.Controller, devs *device.Table) *IOCPU {
	return &IOCPU{
		Local:   make([]uint64, localWords),
		Host:    host,
		HostIRQ: hostIRQ,
		Dev:     devs,
		IRQ:     irq.New(),
	}
}

// readMem implements io_read_mem: addresses at or below localLimit
// index Local directly; addresses above shadow into the host's
// 36-bit memory, with even addresses taking the upper 18 bits of the
// host word and odd addresses the lower 18 bits.
func (io *IOCPU) readMem(addr uint64) uint64 {
	addr &= ioAddrMask
	if addr <= localLimit {
		if int(addr) >= len(io.Local) {
			return 0
		}
		return io.Local[addr] & mask18
	}
	addr -= localLimit + 1
	word, f := io.Host.Read(0, uint32(addr>>1))
	if f != memory.NoFault {
		return 0
	}
	if addr&1 == 0 {
		word >>= 18
	}
	return word & mask18
}

// writeMem implements io_write_mem, preserving the half of the host
// word the address doesn't select.
func (io *IOCPU) writeMem(addr, data uint64) {
	addr &= ioAddrMask
	data &= mask18
	if addr <= localLimit {
		if int(addr) < len(io.Local) {
			io.Local[addr] = data
		}
		return
	}
	addr -= localLimit + 1
	dword := uint32(addr >> 1)
	word, f := io.Host.Read(0, dword)
	if f != memory.NoFault {
		return
	}
	if addr&1 == 0 {
		word = (word &^ (mask18 << 18)) | (data << 18)
	} else {
		word = (word &^ mask18) | data
	}
	_ = io.Host.Write(0, dword, word)
}

// advance bumps IOPC by n words, wrapping at 18 bits.
func (io *IOCPU) advance(n uint64) {
	io.IOPC = (io.IOPC + n) & mask18
}

// Run executes instructions from Local starting at IOPC until exit is
// requested and the processor has nothing to wait for, mirroring the
// main CPU's Run loop structure (spec.md §4.2, §4.3) at IOCPU scale:
// no interrupt-vector entry, just a wake-on-assert halt.
func (io *IOCPU) Run() uint64 {
	io.IRQ.SetRunning(true)
	for {
		if io.IRQ.Running() {
			inst := io.readMem(io.IOPC)
			if debugMask&DebugInst != 0 {
				debug.DebugIOCPUf(debugMask, DebugInst, "iopc %o inst %06o", io.IOPC, inst)
			}
			io.execAll(inst)
			continue
		}
		if io.IRQ.ExitRequested() {
			return io.StopCode
		}
		io.IRQ.Wait()
		if io.IRQ.ExitRequested() {
			return io.StopCode
		}
	}
}

// RequestExit asks the run loop to return. The loop honours it once the
// processor is not running, and it wakes a loop waiting for an interrupt.
func (io *IOCPU) RequestExit() {
	io.IRQ.RequestExit()
}

// maybeHalt implements the HLT micro-op shared by OPR1 and OPR3
// (original_source's repeated "if (min_pending > 1 || !ion) running = 0"
// block): it halts when IRQ line 1 is not the current lowest
// pending-and-enabled request, or when interrupts are off.
func (io *IOCPU) maybeHalt() {
	if io.IRQ.MinPending() > 1 || !io.ion {
		io.IRQ.SetRunning(false)
	}
}
