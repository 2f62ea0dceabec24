/* IST-66 - Priority interrupt controller.

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

// Package irq implements the shared interrupt controller of spec.md
// §4.4: 16 pending counters (1..14 usable), a 16-bit enable mask, and a
// "lowest pending enabled IRQ" query (recomputed on each call) that the
// CPU consults between instructions. A single mutex plus condition variable serializes
// access and wakes a CPU thread blocked on an all-masked halt, matching
// the pthread_mutex_t/pthread_cond_t pairing in original_source/cpu.c.
package irq

import "sync"

// None is the "no IRQ pending" sentinel for MinPending.
const None = 15

// Controller is the shared interrupt controller. The zero value is not
// ready for use; call New.
type Controller struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending [16]int
	mask    uint16
	running bool
	exit    bool
}

// New returns a freshly reset Controller.
func New() *Controller {
	c := &Controller{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Default is the main CPU's interrupt controller. Device packages
// construct their devworker.Worker against this shared instance at
// config-file load time, before emu/core's CPU exists, the same way
// they reach emu/device.Default.
var Default = New()

// minPendingLocked recomputes the lowest pending+enabled IRQ in
// [1,15], 15 meaning none. Callers must hold c.mu.
func (c *Controller) minPendingLocked() int {
	for n := 1; n < None; n++ {
		if c.pending[n] > 0 && c.maskBit(n) {
			return n
		}
	}
	return None
}

func (c *Controller) maskBit(n int) bool {
	return c.mask&(1<<uint(n)) != 0
}

// Assert increments IRQ n's pending counter. If n becomes the new
// lowest pending enabled IRQ, the CPU is marked running and the
// condition variable is signaled so a halted CPU thread wakes.
func (c *Controller) Assert(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[n]++
	if c.pending[n] == 1 && c.maskBit(n) {
		if min := c.minPendingLocked(); min == n {
			c.running = true
			c.cond.Broadcast()
		}
	}
}

// Release decrements IRQ n's pending counter (clamped at zero); the
// next MinPending call reflects the change.
func (c *Controller) Release(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[n] > 0 {
		c.pending[n]--
	}
}

// SetMask replaces the enable mask.
func (c *Controller) SetMask(mask uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mask = mask
	if c.minPendingLocked() != None {
		c.running = true
		c.cond.Broadcast()
	}
}

// Mask returns the current enable mask.
func (c *Controller) Mask() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mask
}

// MinPending returns the lowest pending, enabled IRQ in [1,15] (15 = none).
func (c *Controller) MinPending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minPendingLocked()
}

// SetRunning marks the CPU runnable or halted, matching the halt()
// helper in original_source/cpu.h.
func (c *Controller) SetRunning(running bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = running
	if running {
		c.cond.Broadcast()
	}
}

// Running reports whether the CPU should be executing instructions.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Halt transitions to halted only if no maskable-unmasked IRQ remains
// below the current IRQ level, mirroring original_source/cpu.h's halt().
// It reports whether the CPU actually went idle.
func (c *Controller) Halt(currentIRQL int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.minPendingLocked() >= currentIRQL {
		c.running = false
		return true
	}
	return false
}

// PendingRaw reports whether IRQ n has a nonzero pending count,
// ignoring the enable mask. Used by the IOCPU's TNP poll instruction
// (original_source/iocpu.c's io_exec_opr_3), which tests its single
// device-request line directly rather than through MinPending's
// mask-filtered view.
func (c *Controller) PendingRaw(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[n] > 0
}

// RequestExit asks a blocked CPU thread to wake up and terminate.
func (c *Controller) RequestExit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exit = true
	c.cond.Broadcast()
}

// ExitRequested reports whether RequestExit was called.
func (c *Controller) ExitRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exit
}

// Wait blocks the calling (CPU) thread on the controller's condition
// variable until the CPU is runnable or exit has been requested. It
// must be called without holding c.mu.
func (c *Controller) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for !c.running && !c.exit {
		c.cond.Wait()
	}
}
