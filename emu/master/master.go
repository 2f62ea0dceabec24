/* IST-66 - Orchestration messages exchanged between the core, devices,
   the TELNET listener and the console.

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

// Package master defines the Packet protocol the core orchestrator
// (emu/core) exchanges with the TELNET listener, the console reader
// and the TTY device: connection lifecycle, received bytes, and
// run-control requests. Components that only react to these events
// (rather than drive the CPU directly) communicate exclusively
// through a channel of Packet, matching the teacher's channel/event
// orchestration style.
package master

import "net"

// Kind enumerates the message kinds routed through a Packet channel.
type Kind int

const (
	TelConnect    Kind = iota // a new TELNET client connected
	TelDisconnect             // a TELNET client disconnected
	TelReceive                // bytes received from a TELNET client
	TimeClock                 // periodic tick, drives front-panel refresh
	IPLDevice                 // request to IPL (boot) from DevNum
	DeviceEnd                 // a device worker finished a transfer
	Start                     // start (run) the CPU
	Stop                      // stop (halt) the CPU
)

// Packet is the single envelope type carried on master channels.
type Packet struct {
	Msg    Kind
	DevNum uint16
	Conn   net.Conn
	Data   []byte
}
