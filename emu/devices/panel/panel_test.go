package panel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ist66sim/ist66/emu/cpu"
	"github.com/ist66sim/ist66/emu/device"
	"github.com/ist66sim/ist66/emu/irq"
	"github.com/ist66sim/ist66/emu/memory"
)

func TestSnapshotReflectsCPURegisters(t *testing.T) {
	c := cpu.New(memory.New(1024), device.NewTable(16), irq.New())
	c.AC[3] = 0xABCD
	c.C[1] = 0x1234

	p := New(c)
	snap := p.Snapshot()

	assert.Equal(t, uint64(0xABCD), snap.AC[3])
	assert.Equal(t, uint64(0x1234), snap.C[1])
	assert.Equal(t, 0, snap.Selection)
}

func TestSetSelectionIgnoresOutOfRange(t *testing.T) {
	c := cpu.New(memory.New(1024), device.NewTable(16), irq.New())
	p := New(c)

	p.SetSelection(5)
	assert.Equal(t, 5, p.Snapshot().Selection)

	p.SetSelection(-1)
	assert.Equal(t, 5, p.Snapshot().Selection)

	p.SetSelection(99)
	assert.Equal(t, 5, p.Snapshot().Selection)
}
