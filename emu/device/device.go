/* IST-66 - Generic I/O device contract.

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

package device

// Transfer selects what an IO instruction is asking a device to do.
// Even values <= 12 are input transfers (device -> accumulator, OR-merged
// into the caller's AC). Odd values <= 13 are output transfers
// (accumulator -> device, result ignored). 14 is a status query. 15 is
// reserved.
type Transfer int

const (
	TransferStatus   Transfer = 14
	TransferReserved Transfer = 15
)

// IsInput reports whether t is an input (device -> AC) transfer.
func (t Transfer) IsInput() bool {
	return t <= 12 && t%2 == 0
}

// IsOutput reports whether t is an output (AC -> device) transfer.
func (t Transfer) IsOutput() bool {
	return t <= 13 && t%2 == 1
}

// Ctl selects the control action that accompanies a transfer.
type Ctl int

const (
	CtlNone  Ctl = 0
	CtlStart Ctl = 1
	CtlStop  Ctl = 2

	// Status-query interpretations of Ctl.
	CtlSkipIfBusy    Ctl = 0
	CtlSkipIfNotBusy Ctl = 1
	CtlSkipIfDone    Ctl = 2
	CtlSkipIfNotDone Ctl = 3
)

// Status bits returned in the low two bits of a TransferStatus result.
const (
	StatusDone uint64 = 1 << 1
	StatusBusy uint64 = 1 << 0
)

// Device is the contract every IST-66 peripheral obeys (spec.md §4.7).
// Op is invoked under the issuing CPU or IOCPU's own serialization (the
// CPU thread calls it synchronously from the IO1/IO instruction); a device
// that does real work off-thread arranges that internally (see
// emu/devworker) and merely reads/writes its own local state here.
type Device interface {
	Op(accIn uint64, ctl Ctl, transfer Transfer) uint64
	Destroy()
}

// NoDev is the device id sentinel meaning "no device at this slot",
// used by the config parser's first-option address field.
const NoDev uint16 = 0xFFFF

// Table is a fixed-size, id-indexed table of device capability handles.
// Absent slots are nil. Table is not safe for concurrent Attach/Detach
// against concurrent Op/Lookup; devices are attached during boot before
// the CPU starts and detached only at shutdown (spec.md §4, Device
// record lifecycle).
type Table struct {
	devs []Device
}

// NewTable allocates a device table with room for n ids (4096 for the
// main CPU, 128 for the IOCPU per spec.md §3).
func NewTable(n int) *Table {
	return &Table{devs: make([]Device, n)}
}

// Default is the main CPU's device table. Config-time model creation
// functions (registered via config.RegisterModel, run from an init()
// in each device package) have no path back to main's locals, so they
// attach into this global the way the teacher's sys_channel package
// attaches into its own package-level channel table.
var Default = NewTable(4096)

// Len returns the number of device id slots in the table.
func (t *Table) Len() int {
	return len(t.devs)
}

// Attach installs a device at id, overwriting (and NOT destroying) any
// previous occupant. Callers that replace a live device are responsible
// for calling Destroy on the old one first.
func (t *Table) Attach(id int, d Device) {
	t.devs[id] = d
}

// Lookup returns the device at id, or nil if id is out of range or the
// slot is empty.
func (t *Table) Lookup(id int) Device {
	if id < 0 || id >= len(t.devs) {
		return nil
	}
	return t.devs[id]
}

// Shutdown destroys every attached device in ascending id order, per
// spec.md §4's device lifecycle, and clears the table.
func (t *Table) Shutdown() {
	for i, d := range t.devs {
		if d != nil {
			d.Destroy()
			t.devs[i] = nil
		}
	}
}
