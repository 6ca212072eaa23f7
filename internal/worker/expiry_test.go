package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/logger"
)

type countingExpirer struct {
	sweeps int64
}

func (c *countingExpirer) ExpireDue(context.Context) (int, error) {
	atomic.AddInt64(&c.sweeps, 1)
	return 0, nil
}

func TestExpiryWorkerSweeps(t *testing.T) {
	expirer := &countingExpirer{}
	w := NewExpiryWorker(expirer, 10*time.Millisecond, logger.NewLogger(nil))

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx)

	time.Sleep(35 * time.Millisecond)
	cancel()

	// One sweep at startup plus at least two ticks.
	assert.GreaterOrEqual(t, atomic.LoadInt64(&expirer.sweeps), int64(3))
}

func TestExpiryWorkerStopsOnCancel(t *testing.T) {
	expirer := &countingExpirer{}
	w := NewExpiryWorker(expirer, 5*time.Millisecond, logger.NewLogger(nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
