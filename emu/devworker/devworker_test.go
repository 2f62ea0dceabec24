package devworker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ist66sim/ist66/emu/irq"
)

func waitDone(t *testing.T, w *Worker) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if w.Done() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("worker never completed")
}

func TestStartRunsJobAndAssertsIRQ(t *testing.T) {
	ctrl := irq.New()
	w := New(ctrl, 4, func(j Job) ([]byte, error) {
		return []byte{j.Data[0] + 1}, nil
	})
	defer w.Stop()

	assert.True(t, w.Start(Job{Data: []byte{41}}))
	waitDone(t, w)

	result, err := w.Result()
	assert.NoError(t, err)
	assert.Equal(t, []byte{42}, result)
	assert.True(t, ctrl.PendingRaw(4))
}

func TestStartWhileBusyIsRejected(t *testing.T) {
	ctrl := irq.New()
	release := make(chan struct{})
	w := New(ctrl, 2, func(j Job) ([]byte, error) {
		<-release
		return nil, nil
	})
	defer w.Stop()

	assert.True(t, w.Start(Job{}))
	assert.False(t, w.Start(Job{}))
	close(release)
	waitDone(t, w)
}

func TestRestartReleasesPendingIRQ(t *testing.T) {
	ctrl := irq.New()
	w := New(ctrl, 6, func(j Job) ([]byte, error) {
		return nil, nil
	})
	defer w.Stop()

	w.Start(Job{})
	waitDone(t, w)
	assert.True(t, ctrl.PendingRaw(6))

	w.Start(Job{})
	assert.False(t, ctrl.PendingRaw(6))
	waitDone(t, w)
}

func TestCancelClearsDoneAndReleasesIRQ(t *testing.T) {
	ctrl := irq.New()
	w := New(ctrl, 8, func(j Job) ([]byte, error) {
		return nil, errors.New("boom")
	})
	defer w.Stop()

	w.Start(Job{})
	waitDone(t, w)
	assert.True(t, ctrl.PendingRaw(8))

	w.Cancel()
	assert.False(t, w.Done())
	assert.False(t, ctrl.PendingRaw(8))
}
