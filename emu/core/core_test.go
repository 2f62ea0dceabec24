package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ist66sim/ist66/emu/device"
	"github.com/ist66sim/ist66/emu/master"
	"github.com/ist66sim/ist66/emu/memory"
)

func TestDepositAndExamineBypassProtectionKeys(t *testing.T) {
	mem := memory.New(64)
	c := New(mem, device.NewTable(8), make(chan master.Packet, 1))

	c.Deposit(10, 0123456)
	assert.EqualValues(t, 0123456, c.Examine(10))
}

func TestStartRunsUntilHaltAndStop(t *testing.T) {
	mem := memory.New(64)
	c := New(mem, device.NewTable(8), make(chan master.Packet, 1))

	// SMI HLT: sub-opcode 0600, ac=4 selects the stop-code accumulator.
	c.Deposit(0, uint64(0600)<<27|uint64(4)<<23)
	c.CPU.AC[4] = 5

	c.Start(0)

	deadline := time.After(time.Second)
	for c.CPU.Halted() == false {
		select {
		case <-deadline:
			t.Fatal("CPU never halted")
		case <-time.After(time.Millisecond):
		}
	}

	// Stop joins the run goroutine, so StopCode is safe to read after.
	c.Stop()
	assert.EqualValues(t, 5, c.StopCode())
}
