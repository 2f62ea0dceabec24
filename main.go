/*
 * S370 - Main process.
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

package main

import (
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	reader "github.com/ist66sim/ist66/command/reader"
	config "github.com/ist66sim/ist66/config/configparser"
	core "github.com/ist66sim/ist66/emu/core"
	device "github.com/ist66sim/ist66/emu/device"
	"github.com/ist66sim/ist66/emu/devices/panel"
	master "github.com/ist66sim/ist66/emu/master"
	memory "github.com/ist66sim/ist66/emu/memory"
	telnet "github.com/ist66sim/ist66/telnet"
	logger "github.com/ist66sim/ist66/util/logger"

	_ "github.com/ist66sim/ist66/config/debugconfig"
	_ "github.com/ist66sim/ist66/emu/devices/lpt"
	_ "github.com/ist66sim/ist66/emu/devices/pch"
	_ "github.com/ist66sim/ist66/emu/devices/ppt"
)

// defaultMemWords is the word count of the memory unit. No
// configuration directive changes it.
const defaultMemWords = 1 << 16

func main() {
	optConfig := getopt.StringLong("config", 'c', "ist66.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Log debug to console")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if optLogFile != nil && *optLogFile != "" {
		file, _ = os.Create(*optLogFile)
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	log := slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, optDebug))
	slog.SetDefault(log)

	log.Info("IST-66 started")
	if optConfig == nil || *optConfig == "" {
		log.Error("please specify a configuration file")
		os.Exit(1)
	}

	if _, err := os.Stat(*optConfig); os.IsNotExist(err) {
		log.Error("configuration file not found", "file", *optConfig)
		os.Exit(1)
	}

	mem := memory.New(defaultMemWords)
	devs := device.Default

	if err := config.LoadConfigFile(*optConfig); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}

	masterChannel := make(chan master.Packet)
	sys := core.New(mem, devs, masterChannel)

	if panel.Enabled {
		sys.AttachPanel(panel.New(sys.CPU))
	}

	go sys.Serve()

	if err := telnet.Start(masterChannel); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}

	msg := make(chan struct{}, 1)
	go func() {
		reader.ConsoleReader(sys)
		msg <- struct{}{}
	}()

	<-msg

	telnet.Stop()
	sys.Stop()
	sys.Shutdown()
	log.Info("servers stopped")
}
