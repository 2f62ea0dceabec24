/* IST-66 - IOCPU register layout and field constants.

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

import "fmt"

// Field widths (original_source/iocpu.c's MASK_17/18/19 and MASK_IO_ADDR).
const (
	mask17     = uint64(0x1FFFF)
	mask18     = uint64(0x3FFFF)
	mask19     = uint64(0x7FFFF)
	ioAddrMask = uint64(0xFFFFFFF) // 28-bit local+host address space
	localLimit = uint64(0x3FFFF)   // addresses <= this target local memory
)

// ext12 sign-extends a 12-bit displacement field.
func ext12(x uint64) uint64 {
	if x&(1<<11) != 0 {
		return x | ^uint64(0xFFF)
	}
	return x
}

// Debug mask bits, set via the DEBUG IOCPU config directive
// (config/debugconfig).
const (
	DebugInst int = 1 << iota
	DebugMem
)

var debugMask int

var debugNames = map[string]int{
	"INST": DebugInst,
	"MEM":  DebugMem,
}

// Debug enables (or, prefixed with "-", disables) one named debug
// category for the IOCPU, invoked from config/debugconfig's DEBUG
// IOCPU directive.
func Debug(name string) error {
	disable := false
	if len(name) > 0 && name[0] == '-' {
		disable = true
		name = name[1:]
	}
	bit, ok := debugNames[name]
	if !ok {
		return fmt.Errorf("iocpu: unknown debug option %q", name)
	}
	if disable {
		debugMask &^= bit
	} else {
		debugMask |= bit
	}
	return nil
}
