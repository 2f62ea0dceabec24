/*
 * IST-66 - Paper tape reader device.
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

// Package ppt implements the paper tape reader of spec.md's device line
// disciplines: read-next-char and rewind, each a ctl/transfer pair over
// the shared emu/device contract, run on an emu/devworker.Worker the
// way original_source/ppt.c runs its read on a pthread worker.
package ppt

import (
	"errors"
	"strconv"
	"strings"

	config "github.com/ist66sim/ist66/config/configparser"
	D "github.com/ist66sim/ist66/emu/device"
	"github.com/ist66sim/ist66/emu/devworker"
	"github.com/ist66sim/ist66/emu/irq"
	"github.com/ist66sim/ist66/util/tape"
)

// transferRewind is the reader's second input code: ctl=CtlStart here
// rewinds instead of reading the next symbol. ppt.c only shows the
// read-next-char transfer (0); rewind has no C counterpart to match
// and is defined fresh here, the same way transfer 0/1 are split by
// direction elsewhere in the device contract.
const transferRewind D.Transfer = 2

// PPT is a paper tape reader reading Nineball symbols off a worker
// goroutine.
type PPT struct {
	devNum uint16
	tape   tape.Nineball
	worker *devworker.Worker
	last   byte
}

// New builds a PPT asserting irqLine on ctrl when a read or rewind
// completes.
func New(ctrl *irq.Controller, devNum uint16, irqLine int) *PPT {
	p := &PPT{devNum: devNum}
	p.worker = devworker.New(ctrl, irqLine, p.run)
	return p
}

func (p *PPT) run(job devworker.Job) ([]byte, error) {
	if len(job.Data) != 0 && job.Data[0] == 1 {
		return nil, p.tape.Rewind()
	}
	sym, err := p.tape.ReadSymbol()
	return []byte{byte(sym)}, err
}

// Op implements emu/device.Device. transfer 0 reads the next symbol;
// transferRewind reseeks to load point; TransferStatus reports
// busy/done exactly as ppt_io's status branch does.
func (p *PPT) Op(_ uint64, ctl D.Ctl, transfer D.Transfer) uint64 {
	if transfer != D.TransferStatus {
		switch ctl {
		case D.CtlStart:
			job := devworker.Job{}
			if transfer == transferRewind {
				job.Data = []byte{1}
			}
			p.worker.Start(job)
		case D.CtlStop:
			p.worker.Cancel()
		}
	}

	if transfer == D.TransferStatus {
		status := uint64(0)
		if p.worker.Done() {
			status |= D.StatusDone
		}
		if p.worker.Busy() {
			status |= D.StatusBusy
		}
		return status
	}

	if transfer.IsInput() {
		if result, err := p.worker.Result(); err == nil && len(result) != 0 {
			p.last = result[0]
		}
		return uint64(p.last)
	}
	return 0
}

// Destroy stops the worker and detaches the tape image.
func (p *PPT) Destroy() {
	p.worker.Stop()
	_ = p.tape.Detach()
}

func init() {
	config.RegisterModel("PPT", config.TypeModel, create)
}

func create(devNum uint16, _ string, options []config.Option) error {
	irqLine := 0
	file := ""
	for _, option := range options {
		switch strings.ToUpper(option.Name) {
		case "IRQ":
			n, err := strconv.Atoi(option.EqualOpt)
			if err != nil {
				return errors.New("ppt: invalid IRQ value: " + option.EqualOpt)
			}
			irqLine = n
		case "FILE":
			if option.EqualOpt == "" {
				return errors.New("ppt: FILE option missing filename")
			}
			file = option.EqualOpt
		default:
			return errors.New("ppt: invalid option: " + option.Name)
		}
	}
	if file == "" {
		return errors.New("ppt: FILE option required")
	}

	p := New(irq.Default, devNum, irqLine)
	if err := p.tape.Attach(file, false); err != nil {
		return err
	}
	D.Default.Attach(int(devNum), p)
	return nil
}
