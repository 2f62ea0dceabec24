package telnet

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ist66sim/ist66/emu/master"
)

func resetTerminals() {
	mapLock.Lock()
	terminals = map[uint16]*termMap{}
	ports = map[string]*termMap{}
	defaultPort = ""
	mapLock.Unlock()
}

func TestRegisterTerminalUsesDefaultPort(t *testing.T) {
	resetTerminals()
	defaultPort = "2323"
	err := RegisterTerminal(nil, 1, "")
	assert.NoError(t, err)
	assert.Equal(t, "2323", ports["2323"].port)
}

func TestAttachRejectsSecondConcurrentConnection(t *testing.T) {
	resetTerminals()
	assert.NoError(t, RegisterTerminal(nil, 5, "2324"))

	first := &tnState{port: "2324", master: make(chan master.Packet, 1)}
	assert.True(t, first.attach())

	second := &tnState{port: "2324", master: make(chan master.Packet, 1)}
	assert.False(t, second.attach())
}

func TestAttachFreedAfterDisconnect(t *testing.T) {
	resetTerminals()
	assert.NoError(t, RegisterTerminal(nil, 9, "2325"))

	ch := make(chan master.Packet, 2)
	first := &tnState{port: "2325", devNum: 9, master: ch}
	assert.True(t, first.attach())
	first.SendDisconnect()
	<-ch

	second := &tnState{port: "2325", master: ch}
	assert.True(t, second.attach())
}
