package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ist66sim/ist66/emu/core"
	"github.com/ist66sim/ist66/emu/device"
	"github.com/ist66sim/ist66/emu/master"
	"github.com/ist66sim/ist66/emu/memory"
)

func newTestCore() *core.Core {
	return core.New(memory.New(64), device.NewTable(8), make(chan master.Packet, 1))
}

func TestSetPointerAndDeposit(t *testing.T) {
	console = state{}
	c := newTestCore()

	quit, err := ProcessCommand("/12", c)
	assert.NoError(t, err)
	assert.False(t, quit)
	assert.EqualValues(t, 012, console.pointer)

	_, err = ProcessCommand("= 5 6 7", c)
	assert.NoError(t, err)
	assert.EqualValues(t, 5, c.Examine(012))
	assert.EqualValues(t, 6, c.Examine(013))
	assert.EqualValues(t, 7, c.Examine(014))
	assert.EqualValues(t, 015, console.pointer)
}

func TestExamineAdvancesPointer(t *testing.T) {
	console = state{}
	c := newTestCore()
	c.Deposit(0, 42)
	c.Deposit(1, 43)

	_, err := ProcessCommand(". 2", c)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, console.pointer)
}

func TestExitCommand(t *testing.T) {
	console = state{}
	c := newTestCore()
	quit, err := ProcessCommand("X", c)
	assert.NoError(t, err)
	assert.True(t, quit)
}

func TestUnrecognizedCommand(t *testing.T) {
	console = state{}
	c := newTestCore()
	_, err := ProcessCommand("Q", c)
	assert.Error(t, err)
}
