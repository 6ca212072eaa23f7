package worker

import (
	"context"
	"time"

	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/logger"
)

const DefaultSweepInterval = time.Minute

// Expirer is the request-service slice the sweeper drives.
type Expirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// ExpiryWorker periodically flips overdue PENDING booking requests to
// EXPIRED. One sweep at startup, then one per interval.
type ExpiryWorker struct {
	requests Expirer
	interval time.Duration
	logger   *logger.Logger
}

func NewExpiryWorker(requests Expirer, interval time.Duration, logger *logger.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &ExpiryWorker{
		requests: requests,
		interval: interval,
		logger:   logger,
	}
}

func (w *ExpiryWorker) Start(ctx context.Context) {
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	count, err := w.requests.ExpireDue(ctx)
	if err != nil {
		w.logger.Error(err, "expiry sweep failed")
		return
	}
	if count > 0 {
		w.logger.Info("expiry sweep completed", "expired", count)
	}
}
