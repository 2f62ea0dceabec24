/*
 * IST-66 - Front panel snapshot provider.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package panel is the contract-only front panel: a read-only register
// snapshot an external 2-D renderer can poll, standing in for
// original_source/panel.c's SDL render loop, which is out of scope for
// this project (spec.md treats the graphical panel as an external
// collaborator). Unlike ppt/pch/lpt, the original's panel has no
// cpu->io[id] entry at all (it is driven from a thread reading cpu
// fields directly, not addressed over the IO bus), so this package is
// wired straight onto an *cpu.CPU rather than through
// config.RegisterModel/emu/device.Table.
package panel

import (
	config "github.com/ist66sim/ist66/config/configparser"
	"github.com/ist66sim/ist66/emu/cpu"
)

// Snapshot is one read of the panel's indicator rows: accumulators,
// control registers, the program counter and the row-6 accumulator
// selector, matching panel_thread's panel_rows[0..6] sampling.
type Snapshot struct {
	AC        [16]uint64
	C         [8]uint64
	PC        uint32
	Selection int
}

// Panel samples a CPU's visible state for an external renderer.
type Panel struct {
	cpu       *cpu.CPU
	selection int
}

// New returns a Panel reading c's registers.
func New(c *cpu.CPU) *Panel {
	return &Panel{cpu: c}
}

// Snapshot returns the current indicator state.
func (p *Panel) Snapshot() Snapshot {
	return Snapshot{AC: p.cpu.AC, C: p.cpu.C, PC: p.cpu.PC(), Selection: p.selection}
}

// SetSelection changes which accumulator row 5 displays, matching the
// UP/DOWN scancode handling in panel_thread.
func (p *Panel) SetSelection(n int) {
	if n >= 0 && n < len(p.cpu.AC) {
		p.selection = n
	}
}

// Enabled reports whether the configuration file carried a PANEL
// directive. The original's init_panel takes no options beyond the
// cpu pointer, so this is a switch, not a TypeModel device.
var Enabled bool

func init() {
	config.RegisterSwitch("PANEL", enable)
}

func enable(_ uint16, _ string, _ []config.Option) error {
	Enabled = true
	return nil
}
