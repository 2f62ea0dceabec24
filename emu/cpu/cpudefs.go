/* IST-66 - CPU register layout and opcode field constants.

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

import "fmt"

// Control registers, matching original_source/include/cpu.h's C_PSW/C_CW/C_FCW.
const (
	cPSW = 0 // program status word: PC, carry flag, execution key
	cCW  = 1 // control word: direct-page base, cause, prior/current IRQL
	cFCW = 2 // FPU control word, reserved
)

// PSW field layout (36-bit word): bits[26:0] PC, bit 27 carry flag,
// bits[35:28] execution key.
const (
	pcMask   uint64 = 0x7FFFFFF
	carryBit uint64 = pcMask + 1 // bit 27
)

// CW field layout: bits[17:0] direct-page base / vector low bits,
// bits[27:24] exception cause nibble, bits[31:28] prior IRQL,
// bits[35:32] current IRQL. Matches original_source/cpu.c's do_intr/
// do_except/leave_intr bit arithmetic.
const (
	cwBaseMask  uint64 = 0x3FFFF
	cwCauseMask uint64 = 0xF
	cwCauseShift       = 24
	cwPriorShift       = 28
	cwLevelShift       = 32
	cwMask      uint64 = 0xFFFFFFFFF // 36 data bits
)

// Cause enumerates the exception causes written into CW bits 24..27 by
// exception entry (spec.md §4.4, §7).
type Cause int

const (
	CauseUser Cause = 0  // unimplemented instruction
	CauseInst Cause = 1  // illegal instruction encoding
	CauseMemx Cause = 2  // address out of range
	CauseDevx Cause = 3  // no such device
	CausePpfr Cause = 4  // protection fault: read/execute
	CausePpfw Cause = 5  // protection fault: write
	CausePpfs Cause = 6  // protection fault: supervisor-only op
	CauseTime Cause = 7  // timer tick
	CauseDivz Cause = 8  // divide by zero
	CauseNfpu Cause = 9  // FPU not present
	CauseMchk Cause = 14 // machine check
	CausePwrf Cause = 15 // power fail
)

// Debug mask bits, set via the DEBUG CPU config directive (config/debugconfig).
const (
	DebugInst int = 1 << iota
	DebugIrq
	DebugMem
	DebugFault
)

var debugMask int

var debugNames = map[string]int{
	"INST":  DebugInst,
	"IRQ":   DebugIrq,
	"MEM":   DebugMem,
	"FAULT": DebugFault,
}

// Debug enables (or, prefixed with "-", disables) one named debug
// category for the CPU, invoked from config/debugconfig's DEBUG CPU
// directive.
func Debug(name string) error {
	disable := false
	if len(name) > 0 && name[0] == '-' {
		disable = true
		name = name[1:]
	}
	bit, ok := debugNames[name]
	if !ok {
		return fmt.Errorf("cpu: unknown debug option %q", name)
	}
	if disable {
		debugMask &^= bit
	} else {
		debugMask |= bit
	}
	return nil
}
