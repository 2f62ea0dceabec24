/* IST-66 - Generic per-device worker runtime.

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

// Package devworker implements the device runtime described in
// spec.md §4.7/§4.8: a background goroutine that performs a device's
// actual (simulated) work off the CPU thread, handshaking with the
// CPU-facing Op() call through a local lock+condition variable, and
// asserting an IRQ through the shared controller when a transfer
// completes.
package devworker

import (
	"sync"

	"github.com/ist66sim/ist66/emu/irq"
)

// Job is one unit of work a Worker hands to its run function: the
// transfer direction is implied by the caller (Start vs a read/write
// wrapper), Data carries bytes being transferred in either direction.
type Job struct {
	Data []byte
}

// Run performs one Job and returns the device's completion status,
// implemented by each concrete device (ppt/pch/lpt/tty).
type Run func(Job) (result []byte, err error)

// Worker runs Jobs on its own goroutine and asserts irqLine on the
// shared controller when each Job completes, matching the handshake
// original_source's device command/done loop performs under a
// pthread mutex+cond pair.
type Worker struct {
	mu   sync.Mutex
	cond *sync.Cond
	busy bool
	done bool
	last []byte
	err  error

	irq     *irq.Controller
	irqLine int
	run     Run

	jobs chan Job
	quit chan struct{}
}

// New starts a Worker's goroutine. irqLine is the IRQ number asserted
// on job completion.
func New(ctrl *irq.Controller, irqLine int, run Run) *Worker {
	w := &Worker{irq: ctrl, irqLine: irqLine, run: run, jobs: make(chan Job, 1), quit: make(chan struct{})}
	w.cond = sync.NewCond(&w.mu)
	go w.loop()
	return w
}

func (w *Worker) loop() {
	for {
		select {
		case job := <-w.jobs:
			result, err := w.run(job)

			w.mu.Lock()
			w.last = result
			w.err = err
			w.busy = false
			w.done = true
			w.cond.Broadcast()
			w.mu.Unlock()

			w.irq.Assert(w.irqLine)
		case <-w.quit:
			return
		}
	}
}

// Start submits job for background execution, clearing any previous
// Done flag and releasing its IRQ if one was pending. It is a no-op if
// the worker is already busy, matching the "device busy" semantics of
// a CtlStart against a running device. The release-on-restart mirrors
// the "if (ctx->done) { ctx->done = 0; intr_release(...); }" guard
// shared by original_source's ppt.c/pch.c/lpt.c device loops.
func (w *Worker) Start(job Job) bool {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return false
	}
	wasDone := w.done
	w.busy = true
	w.done = false
	w.mu.Unlock()
	if wasDone {
		w.irq.Release(w.irqLine)
	}

	w.jobs <- job
	return true
}

// Cancel clears a pending Done status and releases its IRQ, matching
// the ctl=2 "stop" control action's effect in original_source's device
// loops. It does not interrupt a job already running in the
// background.
func (w *Worker) Cancel() {
	w.mu.Lock()
	wasDone := w.done
	w.done = false
	w.mu.Unlock()
	if wasDone {
		w.irq.Release(w.irqLine)
	}
}

// Busy reports whether a job is currently running.
func (w *Worker) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Done reports whether the most recently started job has completed
// since the last call to Result.
func (w *Worker) Done() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

// Result returns the last completed job's output and clears Done.
func (w *Worker) Result() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done = false
	return w.last, w.err
}

// Wait blocks until the current job (if any) completes.
func (w *Worker) Wait() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.busy {
		w.cond.Wait()
	}
}

// Stop terminates the worker's goroutine. Any job currently running
// completes first.
func (w *Worker) Stop() {
	close(w.quit)
}
