package scheduler

import (
	"context"
	"log/slog"
	"time"

	"NewsMarkets/internal/ports"
)

// IntervalScheduler runs the job on a fixed interval, starting immediately.
// A failed run is retried a bounded number of times with a fixed backoff;
// after that the scheduler waits for the next tick instead of restarting
// itself.
type IntervalScheduler struct {
	interval   time.Duration
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
	stop       chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a scheduler firing every interval.
func NewIntervalScheduler(interval time.Duration, maxRetries int, logger *slog.Logger) *IntervalScheduler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &IntervalScheduler{
		interval:   interval,
		maxRetries: maxRetries,
		backoff:    time.Minute,
		logger:     logger,
	}
}

// Start begins the tick loop in a background goroutine.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time) error) error {
	if job == nil {
		return nil
	}
	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runWithRetry(ctx, job, time.Now())
		for {
			select {
			case t := <-ticker.C:
				s.runWithRetry(ctx, job, t)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()

	return nil
}

// runWithRetry executes one scheduled run with a visible attempt counter.
// Exhausted retries surrender the slot to the next tick.
func (s *IntervalScheduler) runWithRetry(ctx context.Context, job func(time.Time) error, trigger time.Time) {
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			s.warn("retrying scheduled run", "attempt", attempt, "max", s.maxRetries)
			select {
			case <-time.After(s.backoff):
			case <-ctx.Done():
				return
			}
		}

		err := job(trigger)
		if err == nil {
			return
		}
		s.warn("scheduled run failed", "attempt", attempt, "error", err)
	}

	s.warn("scheduled run abandoned until next tick", "retries", s.maxRetries)
}

// Stop halts the tick loop.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}

func (s *IntervalScheduler) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
