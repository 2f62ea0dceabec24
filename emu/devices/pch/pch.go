/*
 * IST-66 - Paper tape punch device.
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

// Package pch implements the paper tape punch: write-char and feed,
// grounded on original_source/pch.c's command/done worker loop (the
// punch side of the same Nineball image ppt reads).
package pch

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

// transferFeed punches a blank erase-gap symbol rather than the
// buffered data byte; pch.c has no feed command of its own, this is
// an addition in the same spirit as ppt's rewind.
const transferFeed D.Transfer = 3

// PCH is a paper tape punch writing Nineball symbols off a worker
// goroutine.
type PCH struct {
	devNum uint16
	tape   tape.Nineball
	worker *devworker.Worker
	buf    byte
}

// New builds a PCH asserting irqLine on ctrl when a punch completes.
func New(ctrl *irq.Controller, devNum uint16, irqLine int) *PCH {
	p := &PCH{devNum: devNum}
	p.worker = devworker.New(ctrl, irqLine, p.run)
	return p
}

func (p *PCH) run(job devworker.Job) ([]byte, error) {
	sym := uint16(p.buf)
	if len(job.Data) != 0 && job.Data[0] == 1 {
		sym = uint16(tape.MarkGap)
	}
	return nil, p.tape.WriteSymbol(sym)
}

// Op implements emu/device.Device. transfer 1 loads the data register
// that CtlStart then punches; transferFeed punches a blank gap symbol
// instead. TransferStatus reports busy/done as pch_io's status branch
// does.
func (p *PCH) Op(accIn uint64, ctl D.Ctl, transfer D.Transfer) uint64 {
	if transfer == 1 {
		p.buf = byte(accIn)
	}

	if transfer != D.TransferStatus {
		switch ctl {
		case D.CtlStart:
			job := devworker.Job{}
			if transfer == transferFeed {
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
	return 0
}

// Destroy stops the worker and detaches the tape image.
func (p *PCH) Destroy() {
	p.worker.Stop()
	_ = p.tape.Detach()
}

func init() {
	config.RegisterModel("PCH", config.TypeModel, create)
}

func create(devNum uint16, _ string, options []config.Option) error {
	irqLine := 0
	file := ""
	for _, option := range options {
		switch strings.ToUpper(option.Name) {
		case "IRQ":
			n, err := strconv.Atoi(option.EqualOpt)
			if err != nil {
				return errors.New("pch: invalid IRQ value: " + option.EqualOpt)
			}
			irqLine = n
		case "FILE":
			if option.EqualOpt == "" {
				return errors.New("pch: FILE option missing filename")
			}
			file = option.EqualOpt
		default:
			return errors.New("pch: invalid option: " + option.Name)
		}
	}
	if file == "" {
		return errors.New("pch: FILE option required")
	}

	p := New(irq.Default, devNum, irqLine)
	if err := p.tape.Attach(file, true); err != nil {
		return err
	}
	D.Default.Attach(int(devNum), p)
	return nil
}
