package ppt

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	D "github.com/ist66sim/ist66/emu/device"
	"github.com/ist66sim/ist66/emu/irq"
)

func writeNineballGroup(t *testing.T, path string, data [8]byte, extra byte) {
	t.Helper()
	f, err := os.Create(path)
	assert.NoError(t, err)
	_, err = f.Write(data[:])
	assert.NoError(t, err)
	_, err = f.Write([]byte{extra})
	assert.NoError(t, err)
	assert.NoError(t, f.Close())
}

func waitDone(t *testing.T, p *PPT) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if p.worker.Done() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("worker never completed")
}

func TestReadNextCharReturnsSymbol(t *testing.T) {
	path := t.TempDir() + "/tape.nbt"
	writeNineballGroup(t, path, [8]byte{'H', 'I', 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f}, 0)

	ctrl := irq.New()
	p := New(ctrl, 0x10, 5)
	assert.NoError(t, p.tape.Attach(path, false))

	p.Op(0, D.CtlStart, 0)
	waitDone(t, p)

	assert.Equal(t, uint64('H'), p.Op(0, D.CtlNone, 0))
	assert.True(t, ctrl.PendingRaw(5))
}

func TestStatusReportsDoneAndBusy(t *testing.T) {
	path := t.TempDir() + "/tape.nbt"
	writeNineballGroup(t, path, [8]byte{'A', 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f}, 0)

	ctrl := irq.New()
	p := New(ctrl, 0x10, 3)
	assert.NoError(t, p.tape.Attach(path, false))

	assert.Equal(t, uint64(0), p.Op(0, D.CtlNone, D.TransferStatus))

	p.Op(0, D.CtlStart, 0)
	waitDone(t, p)
	assert.Equal(t, D.StatusDone, p.Op(0, D.CtlNone, D.TransferStatus))
}

func TestRewindReturnsToLoadPoint(t *testing.T) {
	path := t.TempDir() + "/tape.nbt"
	writeNineballGroup(t, path, [8]byte{'X', 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f}, 0)

	ctrl := irq.New()
	p := New(ctrl, 0x10, 2)
	assert.NoError(t, p.tape.Attach(path, false))

	p.Op(0, D.CtlStart, 0)
	waitDone(t, p)
	assert.Equal(t, uint64('X'), p.Op(0, D.CtlNone, 0))
	assert.False(t, p.tape.AtLoadPoint())

	p.Op(0, D.CtlStart, transferRewind)
	waitDone(t, p)
	assert.True(t, p.tape.AtLoadPoint())
}
