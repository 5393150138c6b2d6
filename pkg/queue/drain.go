package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Drainer runs one bounded drain pass.
type Drainer interface {
	ProcessPendingJobs(ctx context.Context) (DrainReport, error)
}

// Ticker is the subset of time.Ticker the scheduler uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// DrainScheduler calls Drainer.ProcessPendingJobs on every tick. At most one
// drain runs at a time; ticks that arrive during a drain are skipped.
type DrainScheduler struct {
	drainer      Drainer
	interval     time.Duration
	newTicker    func(time.Duration) Ticker
	logger       *slog.Logger
	initialDrain bool

	draining sync.Mutex
}

// NewDrainScheduler creates a scheduler for d.
func NewDrainScheduler(d Drainer, opts ...DrainOption) (*DrainScheduler, error) {
	if d == nil {
		return nil, ErrDrainerNil
	}
	s := &DrainScheduler{
		drainer:      d,
		interval:     time.Minute,
		newTicker:    NewTimeTicker,
		logger:       slog.Default(),
		initialDrain: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Trigger runs one drain now. It returns ErrDrainInProgress without draining
// if another drain has not finished yet.
func (s *DrainScheduler) Trigger(ctx context.Context) (DrainReport, error) {
	if !s.draining.TryLock() {
		return DrainReport{}, ErrDrainInProgress
	}
	defer s.draining.Unlock()

	return s.drainer.ProcessPendingJobs(ctx)
}

// Start drains on every tick until ctx is done and then returns ctx.Err().
func (s *DrainScheduler) Start(ctx context.Context) error {
	ticker := s.newTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "drain scheduler started", slog.Duration("interval", s.interval))

	if s.initialDrain {
		s.tick(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "drain scheduler stopped")
			return ctx.Err()
		case <-ticker.C():
			s.tick(ctx)
		}
	}
}

// Run returns a function suitable for errgroup. Cancellation is a clean exit.
func (s *DrainScheduler) Run(ctx context.Context) func() error {
	return func() error {
		if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

func (s *DrainScheduler) tick(ctx context.Context) {
	report, err := s.Trigger(ctx)
	switch {
	case errors.Is(err, ErrDrainInProgress):
		s.logger.DebugContext(ctx, "drain skipped, previous drain still running")
	case err != nil:
		s.logger.ErrorContext(ctx, "drain failed",
			slog.Int("processed", report.Processed),
			slog.Int("errors", report.Errors),
			slog.String("error", err.Error()),
		)
	}
}
