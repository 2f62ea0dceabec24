/*
 * IST-66 - Line printer device.
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

// Package lpt implements the line printer: write-line, form-feed and
// skip-to-channel, grounded on original_source/lpt.c's 132-column
// line-buffering worker loop (auto-flush on CR/LF/FF or a full line).
package lpt

import (
	"errors"
	"os"
	"strconv"
	"strings"

	config "github.com/ist66sim/ist66/config/configparser"
	D "github.com/ist66sim/ist66/emu/device"
	"github.com/ist66sim/ist66/emu/devworker"
	"github.com/ist66sim/ist66/emu/irq"
)

const lineWidth = 132

const (
	chCR byte = 015
	chLF byte = 012
	chFF byte = 014
)

// Extra transfer codes beyond the single write-char transfer (1) the
// original exposes; lpt.c has no form-feed or skip-to-channel command
// of its own.
const (
	transferFormFeed D.Transfer = 3
	transferSkip     D.Transfer = 5
)

// LPT is a line printer buffering characters a line at a time, per
// lpt.c's zbuf, and flushing on a worker goroutine.
type LPT struct {
	devNum uint16
	file   *os.File
	worker *devworker.Worker
	buf    byte
	line   []byte
}

// New builds an LPT writing to file and asserting irqLine on ctrl
// when a write completes.
func New(ctrl *irq.Controller, devNum uint16, irqLine int, file *os.File) *LPT {
	l := &LPT{devNum: devNum, file: file}
	l.worker = devworker.New(ctrl, irqLine, l.run)
	return l
}

func (l *LPT) run(job devworker.Job) ([]byte, error) {
	switch {
	case len(job.Data) != 0 && job.Data[0] == 1:
		return nil, l.flush(true)
	case len(job.Data) != 0 && job.Data[0] == 2:
		n := int(job.Data[1])
		if err := l.flush(false); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			if _, err := l.file.Write([]byte{chLF}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	default:
		l.line = append(l.line, l.buf)
		if len(l.line) == lineWidth || l.buf == chCR || l.buf == chLF || l.buf == chFF {
			return nil, l.flush(false)
		}
		return nil, nil
	}
}

// flush writes the buffered line to the file, appending a form-feed
// byte when forceFF is set (the form-feed command, or a full 132-byte
// line per lpt.c).
func (l *LPT) flush(forceFF bool) error {
	full := len(l.line) == lineWidth
	if len(l.line) != 0 {
		if _, err := l.file.Write(l.line); err != nil {
			return err
		}
		l.line = l.line[:0]
	}
	if forceFF || full {
		if _, err := l.file.Write([]byte{chFF}); err != nil {
			return err
		}
	}
	return nil
}

// Op implements emu/device.Device. transfer 1 loads the data register
// a write-char CtlStart appends to the line buffer; transferFormFeed
// forces an immediate flush plus a form-feed byte; transferSkip flushes
// then advances accIn's low byte worth of lines. TransferStatus reports
// busy/done as lpt_io's status branch does.
func (l *LPT) Op(accIn uint64, ctl D.Ctl, transfer D.Transfer) uint64 {
	if transfer == 1 {
		l.buf = byte(accIn)
	}

	if transfer != D.TransferStatus {
		switch ctl {
		case D.CtlStart:
			job := devworker.Job{}
			switch transfer {
			case transferFormFeed:
				job.Data = []byte{1}
			case transferSkip:
				job.Data = []byte{2, byte(accIn)}
			}
			l.worker.Start(job)
		case D.CtlStop:
			l.worker.Cancel()
		}
	}

	if transfer == D.TransferStatus {
		status := uint64(0)
		if l.worker.Done() {
			status |= D.StatusDone
		}
		if l.worker.Busy() {
			status |= D.StatusBusy
		}
		return status
	}
	return 0
}

// Destroy stops the worker, flushing any partial line, and closes the file.
func (l *LPT) Destroy() {
	l.worker.Stop()
	_ = l.flush(false)
	_ = l.file.Close()
}

func init() {
	config.RegisterModel("LPT", config.TypeModel, create)
}

func create(devNum uint16, _ string, options []config.Option) error {
	irqLine := 0
	fileName := ""
	for _, option := range options {
		switch strings.ToUpper(option.Name) {
		case "IRQ":
			n, err := strconv.Atoi(option.EqualOpt)
			if err != nil {
				return errors.New("lpt: invalid IRQ value: " + option.EqualOpt)
			}
			irqLine = n
		case "FILE":
			if option.EqualOpt == "" {
				return errors.New("lpt: FILE option missing filename")
			}
			fileName = option.EqualOpt
		default:
			return errors.New("lpt: invalid option: " + option.Name)
		}
	}
	if fileName == "" {
		return errors.New("lpt: FILE option required")
	}

	file, err := os.Create(fileName)
	if err != nil {
		return err
	}

	l := New(irq.Default, devNum, irqLine, file)
	D.Default.Attach(int(devNum), l)
	return nil
}
