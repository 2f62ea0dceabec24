package irq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoPendingIsNone(t *testing.T) {
	c := New()
	assert.Equal(t, None, c.MinPending())
}

func TestAssertUnmaskedDoesNotWake(t *testing.T) {
	c := New()
	c.Assert(5)
	assert.Equal(t, None, c.MinPending())
	assert.False(t, c.Running())
}

func TestAssertMaskedWakes(t *testing.T) {
	c := New()
	c.SetMask(1 << 5)
	c.Assert(5)
	assert.Equal(t, 5, c.MinPending())
	assert.True(t, c.Running())
}

func TestLowestNumberedWins(t *testing.T) {
	c := New()
	c.SetMask(1<<3 | 1<<7)
	c.Assert(7)
	c.Assert(3)
	assert.Equal(t, 3, c.MinPending())
}

func TestReleaseDropsToNextLowest(t *testing.T) {
	c := New()
	c.SetMask(1<<3 | 1<<7)
	c.Assert(3)
	c.Assert(7)
	assert.Equal(t, 3, c.MinPending())
	c.Release(3)
	assert.Equal(t, 7, c.MinPending())
}

func TestReleaseNeverGoesNegative(t *testing.T) {
	c := New()
	c.Release(4)
	c.Assert(4)
	c.Release(4)
	c.Release(4)
	assert.Equal(t, 0, c.pending[4])
}

func TestSetMaskRevealsAlreadyPending(t *testing.T) {
	c := New()
	c.Assert(2)
	assert.Equal(t, None, c.MinPending())
	c.SetMask(1 << 2)
	assert.Equal(t, 2, c.MinPending())
	assert.True(t, c.Running())
}

func TestHaltRespectsCurrentLevel(t *testing.T) {
	c := New()
	c.SetMask(1 << 6)
	c.Assert(6)
	// A pending IRQ at level 6 does not block a halt issued at level 3
	// (spec.md semantics: halt only yields to a *lower-numbered*, i.e.
	// higher-priority, pending IRQ).
	assert.True(t, c.Halt(3))
	assert.False(t, c.Running())
}

func TestHaltBlockedByHigherPriorityPending(t *testing.T) {
	c := New()
	c.SetMask(1 << 2)
	c.Assert(2)
	assert.False(t, c.Halt(5))
}

func TestWaitReturnsOnAssert(t *testing.T) {
	c := New()
	c.SetMask(1 << 1)
	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()
	c.Assert(1)
	<-done
}

func TestWaitReturnsOnExit(t *testing.T) {
	c := New()
	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()
	c.RequestExit()
	<-done
	assert.True(t, c.ExitRequested())
}
