/*
 * IST-66 - Debug options configuration.
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

// Package debugconfig wires the "DEBUG" config directive to the CPU
// and IOCPU debug masks (spec.md ambient tooling); any other target,
// including a device number, is rejected with an error. Its
// structure follows the original config/debugconfig package's
// per-target dispatch; the channel-debug branch is replaced with an
// IOCPU branch since this machine has no S/370-style channel subsystem.
package debugconfig

import (
	"errors"
	"strconv"
	"strings"

	config "github.com/ist66sim/ist66/config/configparser"
	"github.com/ist66sim/ist66/emu/cpu"
	dev "github.com/ist66sim/ist66/emu/device"
	"github.com/ist66sim/ist66/emu/iocpu"
)

func init() {
	config.RegisterModel("DEBUG", config.TypeOptions, setDebug)
}

func setDebug(devNum uint16, target string, options []config.Option) error {
	switch strings.ToUpper(target) {
	case "CPU":
		return applyLevels(options, cpu.Debug)
	case "IOCPU":
		return applyLevels(options, iocpu.Debug)
	default:
		if devNum == dev.NoDev {
			return errors.New("debug option invalid: " + target)
		}
		return errors.New("per-device debug levels are not supported, device " +
			strconv.FormatUint(uint64(devNum), 16))
	}
}

func applyLevels(options []config.Option, set func(string) error) error {
	for _, opt := range options {
		if err := set(strings.ToUpper(opt.Name)); err != nil {
			return err
		}
		for _, value := range opt.Value {
			if err := set(strings.ToUpper(*value)); err != nil {
				return err
			}
		}
	}
	return nil
}
