/*
   Core IST-66 emulator orchestrator.

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

// Package core is the boot/loader and run-control surface of spec.md's
// table row 9: deposit initial memory contents, seed the PC, and
// start/stop the CPU (and, if configured, IOCPU) threads. It also
// carries the master.Packet processing loop the console, TELNET
// listener and device workers use to reach run control without
// calling into the CPU goroutine directly.
package core

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ist66sim/ist66/emu/cpu"
	"github.com/ist66sim/ist66/emu/device"
	"github.com/ist66sim/ist66/emu/devices/panel"
	"github.com/ist66sim/ist66/emu/iocpu"
	"github.com/ist66sim/ist66/emu/irq"
	"github.com/ist66sim/ist66/emu/master"
	"github.com/ist66sim/ist66/emu/memory"
)

// Core wires one CPU, its memory and device table, and an optional
// IOCPU sharing the same bus, to the master.Packet channel the rest
// of the system uses to request run-control actions.
type Core struct {
	wg     sync.WaitGroup
	done   chan struct{}
	Master chan master.Packet

	Mem *memory.Memory
	IRQ *irq.Controller
	Dev *device.Table
	CPU *cpu.CPU

	// IO is the auxiliary IOCPU, nil if this configuration has none.
	IO *iocpu.IOCPU

	// Panel is the front panel snapshot provider, nil unless the
	// configuration file carried a PANEL directive.
	Panel *panel.Panel

	started  bool
	stopCode uint64
}

// AttachPanel wires a front panel snapshot provider, sampled on each
// TimeClock packet.
func (core *Core) AttachPanel(p *panel.Panel) {
	core.Panel = p
}

// New builds a Core around mem/devs, with a fresh CPU wired to the
// shared package-level irq.Default controller, reading and writing
// master.Packet over ch.
func New(mem *memory.Memory, devs *device.Table, ch chan master.Packet) *Core {
	irqc := irq.Default
	return &Core{
		Mem:    mem,
		IRQ:    irqc,
		Dev:    devs,
		CPU:    cpu.New(mem, devs, irqc),
		Master: ch,
		done:   make(chan struct{}),
	}
}

// AttachIOCPU wires an auxiliary IOCPU with localWords of private
// local memory, sharing the host's memory bus and interrupt
// controller for its API instruction (spec.md §4.3).
func (core *Core) AttachIOCPU(localWords int, ioDevs *device.Table) {
	core.IO = iocpu.New(localWords, core.Mem, core.IRQ, ioDevs)
}

// Deposit writes data directly into memory bypassing protection keys,
// for use before the CPU thread is started.
func (core *Core) Deposit(addr uint32, data uint64) {
	core.Mem.Deposit(addr, data)
}

// Examine reads memory bypassing protection keys, for the console's
// "." and "?" commands.
func (core *Core) Examine(addr uint32) uint64 {
	return core.Mem.Examine(addr)
}

// Start seeds the PC and launches the CPU thread, and the IOCPU
// thread if one is attached, each on its own goroutine per spec.md
// §5's one-thread-per-processor model. It is a no-op if a CPU thread
// is already running; use Go to reseed the PC of a running machine.
func (core *Core) Start(pc uint32) {
	if core.started {
		return
	}
	core.started = true

	core.wg.Add(1)
	go func() {
		defer core.wg.Done()
		core.stopCode = core.CPU.Run(pc)
	}()

	if core.IO != nil {
		core.wg.Add(1)
		go func() {
			defer core.wg.Done()
			core.IO.Run()
		}()
	}
}

// Go implements the console's "G" form: set PC to pc and resume,
// launching the CPU thread on first use or reseeding PC in place on a
// halted, already-launched one.
func (core *Core) Go(pc uint32) {
	if !core.started {
		core.Start(pc)
		return
	}
	core.Pause()
	core.CPU.SetPC(pc)
	core.Resume()
}

// Wait blocks the calling goroutine (the console) until the CPU
// halts, implementing the console's "W" (wait) form.
func (core *Core) Wait() {
	for !core.CPU.Halted() {
		time.Sleep(time.Millisecond)
	}
}

// Stop requests both threads exit and waits, with a one-second
// timeout, for them to unwind.
func (core *Core) Stop() {
	slog.Info("stopping CPU")
	core.CPU.RequestExit()
	if core.IO != nil {
		core.IO.RequestExit()
	}

	done := make(chan struct{})
	go func() {
		core.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		slog.Warn("timed out waiting for CPU to stop")
	}
}

// Pause halts the CPU in place (console "P"): the run loop parks at
// the next instruction boundary without tearing down devices.
func (core *Core) Pause() {
	core.IRQ.SetRunning(false)
}

// Resume re-arms the run loop after Pause, without reseeding the PC
// (console "W"/"S" without a preceding "G").
func (core *Core) Resume() {
	core.IRQ.SetRunning(true)
}

// StopCode returns the operand of the HLT instruction that last
// parked the CPU.
func (core *Core) StopCode() uint64 {
	return core.stopCode
}

// Serve processes master.Packet messages until Shutdown is called. It
// runs on its own goroutine, independent of the CPU thread, matching
// the teacher's channel-driven orchestration style. If a front panel
// is attached, it also drives the TimeClock tick the panel's refresh
// consumes, standing in for panel_thread's own render loop cadence.
func (core *Core) Serve() {
	if core.Panel != nil {
		go core.tickPanel()
	}
	for {
		select {
		case <-core.done:
			core.Dev.Shutdown()
			return
		case packet := <-core.Master:
			core.process(packet)
		}
	}
}

// Shutdown stops Serve and destroys every attached device.
func (core *Core) Shutdown() {
	close(core.done)
}

// panelPeriod is the refresh rate of the attached front panel's
// TimeClock tick.
const panelPeriod = 250 * time.Millisecond

func (core *Core) tickPanel() {
	ticker := time.NewTicker(panelPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-core.done:
			return
		case <-ticker.C:
			select {
			case core.Master <- master.Packet{Msg: master.TimeClock}:
			case <-core.done:
				return
			}
		}
	}
}

// SendStart requests the CPU run free (console "S").
func (core *Core) SendStart() {
	core.Master <- master.Packet{Msg: master.Start}
}

// SendStop requests the CPU halt (console "P").
func (core *Core) SendStop() {
	core.Master <- master.Packet{Msg: master.Stop}
}

func (core *Core) process(packet master.Packet) {
	switch packet.Msg {
	case master.Start:
		core.Resume()
	case master.Stop:
		core.Pause()
	case master.IPLDevice:
		slog.Info("ipl requested", "device", packet.DevNum)
	case master.DeviceEnd:
		// Device completion normally reaches the CPU directly through
		// emu/devworker asserting its IRQ line; this packet exists so a
		// front panel or console can log the event without tapping the
		// interrupt controller itself.
		slog.Debug("device end", "device", packet.DevNum)
	case master.TelConnect, master.TelDisconnect, master.TelReceive:
		// Routed to the owning TTY device's worker by the telnet
		// package, which holds the device table reference directly;
		// nothing for the core to do here.
	case master.TimeClock:
		if core.Panel != nil {
			snap := core.Panel.Snapshot()
			slog.Debug("panel", "pc", snap.PC, "selection", snap.Selection)
		}
	}
}
