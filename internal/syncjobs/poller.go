package syncjobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firstindallas/backend/internal/cms"
	"github.com/firstindallas/backend/internal/models"
)

// ErrPollExhausted is returned when a task is still running after the attempt
// budget or the deadline ran out.
var ErrPollExhausted = errors.New("task did not finish within the polling limit")

// Poller re-reads a task at a fixed interval until it reaches a terminal status.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration // zero means no deadline beyond MaxAttempts
}

// DefaultPoller polls every 3 seconds for up to 10 minutes.
func DefaultPoller() Poller {
	return Poller{Interval: 3 * time.Second, MaxAttempts: 200}
}

// FetchFunc reads the current state of a task.
type FetchFunc func(ctx context.Context) (*models.SyncTask, error)

// Poll waits one interval, fetches, and repeats until the task is terminal, ctx is
// done, the attempts are used up or the deadline passes. Fetch errors are retried
// on the next tick, except a 404 which ends polling. onUpdate sees every fetched
// state and may be nil.
func (p Poller) Poll(ctx context.Context, fetch FetchFunc, onUpdate func(*models.SyncTask)) (*models.SyncTask, error) {
	if p.Interval <= 0 {
		p.Interval = 3 * time.Second
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 200
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	var last *models.SyncTask
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return last, fmt.Errorf("%w: deadline after %d attempts", ErrPollExhausted, attempt-1)
			}
			return last, ctx.Err()
		case <-ticker.C:
		}

		task, err := fetch(ctx)
		if err != nil {
			if errors.Is(err, cms.ErrNotFound) {
				return last, err
			}
			lastErr = err
			continue
		}
		last = task
		if onUpdate != nil {
			onUpdate(task)
		}
		if task.Status.Terminal() {
			return task, nil
		}
	}
	if lastErr != nil {
		return last, fmt.Errorf("%w after %d attempts: %v", ErrPollExhausted, p.MaxAttempts, lastErr)
	}
	return last, fmt.Errorf("%w after %d attempts", ErrPollExhausted, p.MaxAttempts)
}
