package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadWriteRoundTrip(t *testing.T) {
	m := New(1024)
	assert.Equal(t, Fault(NoFault), m.Write(0, 100, 0o123456))
	got, f := m.Read(0, 100)
	assert.Equal(t, NoFault, f)
	assert.Equal(t, uint64(0o123456), got)
}

func TestOutOfRangeIsMemFault(t *testing.T) {
	m := New(16)
	_, f := m.Read(0, 1000)
	assert.Equal(t, MemFault, f)
	assert.Equal(t, MemFault, m.Write(0, 1000, 1))
}

func TestSupervisorPageRejectsNonZeroKey(t *testing.T) {
	m := New(1024)
	// page key defaults to 0 (supervisor-reserved).
	_, f := m.Read(0x42, 0x200)
	assert.Equal(t, KeyFault, f)
	_, f = m.Read(0, 0x200)
	assert.Equal(t, NoFault, f)
}

// spec.md §8 scenario 3: page 0x200 has key 0x42; LDA with matching key
// succeeds, mismatched key faults PPFR.
func TestOrdinaryPageKeyMatch(t *testing.T) {
	m := New(1024)
	assert.Equal(t, NoFault, m.SetKey(0x200, 0x42))
	assert.Equal(t, NoFault, m.Write(0, 0x200, 7))

	_, f := m.Read(0x42, 0x200)
	assert.Equal(t, NoFault, f)

	_, f = m.Read(0x43, 0x200)
	assert.Equal(t, KeyFault, f)

	// Caller key 0 always bypasses an ordinary page.
	_, f = m.Read(0, 0x200)
	assert.Equal(t, NoFault, f)
}

func TestPublicReadOnlyPage(t *testing.T) {
	m := New(8192)
	assert.Equal(t, NoFault, m.SetKey(0x400, KeyPublicRO))

	_, f := m.Read(0x99, 0x400)
	assert.Equal(t, NoFault, f)

	// 0xFE is read-only: no caller key, not even supervisor key 0,
	// can write it (spec.md §4.5).
	assert.Equal(t, KeyFault, m.Write(0, 0x400, 9))
	assert.Equal(t, KeyFault, m.Write(0x99, 0x400, 9))
}

func TestPublicReadWritePage(t *testing.T) {
	m := New(8192)
	assert.Equal(t, NoFault, m.SetKey(0x600, KeyPublicRW))
	assert.Equal(t, NoFault, m.Write(0x99, 0x600, 9))
	got, f := m.Read(0x12, 0x600)
	assert.Equal(t, NoFault, f)
	assert.Equal(t, uint64(9), got)
}

// All words in a page share the key stored in the page's base word.
func TestKeyAppliesToWholePage(t *testing.T) {
	m := New(1024)
	assert.Equal(t, NoFault, m.SetKey(0x200, 0x42))
	assert.Equal(t, uint8(0x42), m.Key(0x201))
	assert.Equal(t, uint8(0x42), m.Key(0x3FF))
}

func TestSetKeyThenGetKeyRoundTrip(t *testing.T) {
	m := New(8192)
	assert.Equal(t, NoFault, m.SetKey(0x1000, 0x77))
	assert.Equal(t, uint8(0x77), m.Key(0x1000))
}

func TestKeyFieldDoesNotDisturbData(t *testing.T) {
	m := New(1024)
	assert.Equal(t, NoFault, m.Write(0, 0x200, 0o7777))
	assert.Equal(t, NoFault, m.SetKey(0x200, 0x42))
	got, _ := m.Read(0x42, 0x200)
	assert.Equal(t, uint64(0o7777), got)
}
