package lpt

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	D "github.com/ist66sim/ist66/emu/device"
	"github.com/ist66sim/ist66/emu/irq"
)

func waitDone(t *testing.T, l *LPT) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if l.worker.Done() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("worker never completed")
}

func writeChar(t *testing.T, l *LPT, ch byte) {
	t.Helper()
	l.Op(uint64(ch), D.CtlStart, 1)
	waitDone(t, l)
}

func TestWriteLineFlushesOnNewline(t *testing.T) {
	path := t.TempDir() + "/out.txt"
	f, err := os.Create(path)
	assert.NoError(t, err)
	ctrl := irq.New()
	l := New(ctrl, 0x30, 4, f)

	for _, ch := range []byte("HI") {
		writeChar(t, l, ch)
	}
	writeChar(t, l, chLF)

	l.Destroy()
	got, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, []byte("HI\n"), got)
}

func TestFormFeedForcesFlush(t *testing.T) {
	path := t.TempDir() + "/out.txt"
	f, err := os.Create(path)
	assert.NoError(t, err)
	ctrl := irq.New()
	l := New(ctrl, 0x30, 4, f)

	writeChar(t, l, 'Q')
	l.Op(0, D.CtlStart, transferFormFeed)
	waitDone(t, l)

	l.Destroy()
	got, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, []byte{'Q', chFF}, got)
}

func TestSkipToChannelAdvancesLines(t *testing.T) {
	path := t.TempDir() + "/out.txt"
	f, err := os.Create(path)
	assert.NoError(t, err)
	ctrl := irq.New()
	l := New(ctrl, 0x30, 4, f)

	writeChar(t, l, 'R')
	l.Op(3, D.CtlStart, transferSkip)
	waitDone(t, l)

	l.Destroy()
	got, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, []byte{'R', chLF, chLF, chLF}, got)
}

func TestFullLineAutoFlushesWithFormFeed(t *testing.T) {
	path := t.TempDir() + "/out.txt"
	f, err := os.Create(path)
	assert.NoError(t, err)
	ctrl := irq.New()
	l := New(ctrl, 0x30, 4, f)

	for i := 0; i < lineWidth; i++ {
		writeChar(t, l, 'A')
	}

	l.Destroy()
	got, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Len(t, got, lineWidth+1)
	assert.Equal(t, chFF, got[lineWidth])
}
