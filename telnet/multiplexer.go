/*
 * IST-66 - telnet server, handle connection and link to device.
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

package telnet

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	config "github.com/ist66sim/ist66/config/configparser"
	"github.com/ist66sim/ist66/emu/master"
)

// termMap binds one TTY device to the port it listens on. Every
// IST-66 TTY is the same line-mode device, so unlike the teacher's
// 3270 multiplexer there is no terminal model or group to match - a
// port has at most one device, and a second concurrent connection to
// it is simply rejected.
type termMap struct {
	dev    Telnet // Device to deliver data to
	devNum uint16 // Device address
	port   string // Port device listens on
	inUse  bool   // Device currently has a connection
}

var mapLock sync.Mutex

var terminals = map[uint16]*termMap{}

var ports = map[string]*termMap{}

var defaultPort string

// SendConnect notifies the core that a connection has attached to
// this device.
func (state *tnState) SendConnect() {
	packet := master.Packet{DevNum: state.devNum, Msg: master.TelConnect, Conn: state.conn}
	state.master <- packet
}

// SendDisconnect notifies the core of a disconnect and frees the
// device for the next connection.
func (state *tnState) SendDisconnect() {
	packet := master.Packet{DevNum: state.devNum, Msg: master.TelDisconnect}
	state.master <- packet
	fmt.Printf("Device: %03x disconnected\n", state.devNum)
	mapLock.Lock()
	if term, ok := terminals[state.devNum]; ok {
		term.inUse = false
	}
	mapLock.Unlock()
}

// SendReceiveChar forwards filtered input bytes to the device.
func (state *tnState) SendReceiveChar(data []byte) {
	packet := master.Packet{DevNum: state.devNum, Msg: master.TelReceive, Data: data}
	state.master <- packet
}

// RegisterTerminal attaches dev as the TTY listening on port (or the
// default port, if port is empty).
func RegisterTerminal(dev Telnet, devNum uint16, port string) error {
	if port == "" {
		port = defaultPort
	}
	if port == "" {
		return errors.New("no port specified and no default port")
	}
	mapLock.Lock()
	defer mapLock.Unlock()

	if _, exists := ports[port]; exists {
		return fmt.Errorf("port %s already has a device registered", port)
	}

	term := &termMap{dev: dev, devNum: devNum, port: port}
	terminals[devNum] = term
	ports[port] = term
	fmt.Printf("Registering %03x on port: %s\n", devNum, port)
	return nil
}

// attach claims the device listening on this connection's port,
// rejecting a second concurrent connection with BUSY per spec.md §6.
func (state *tnState) attach() bool {
	mapLock.Lock()
	defer mapLock.Unlock()

	term, ok := ports[state.port]
	if !ok {
		fmt.Println("Connection from unregistered port: " + state.port)
		return false
	}
	if term.inUse {
		return false
	}
	term.inUse = true
	state.dev = term.dev
	state.devNum = term.devNum
	return true
}

// register a device on initialize.
func init() {
	config.RegisterModel("PORT", config.TypeOptions, setPort)
}

// setPort processes the "PORT nnnn" configuration directive, marking
// the first PORT line seen as the default port for devices that omit
// one.
func setPort(_ uint16, port string, options []config.Option) error {
	if _, err := strconv.ParseUint(port, 10, 32); err != nil {
		return fmt.Errorf("port requires number: %s", port)
	}
	if len(options) != 0 {
		return errors.New("port takes no options")
	}
	if defaultPort == "" {
		defaultPort = port
	}
	return nil
}
