package queue_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/queue"
)

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.stopped.Store(true) }

type drainerFunc func(ctx context.Context) (queue.DrainReport, error)

func (f drainerFunc) ProcessPendingJobs(ctx context.Context) (queue.DrainReport, error) {
	return f(ctx)
}

func TestDrainScheduler(t *testing.T) {
	t.Parallel()

	t.Run("nil drainer", func(t *testing.T) {
		t.Parallel()
		_, err := queue.NewDrainScheduler(nil)
		assert.ErrorIs(t, err, queue.ErrDrainerNil)
	})

	t.Run("drains on start and on every tick", func(t *testing.T) {
		t.Parallel()

		var drains atomic.Int32
		d := drainerFunc(func(context.Context) (queue.DrainReport, error) {
			drains.Add(1)
			return queue.DrainReport{}, nil
		})

		ticker := newManualTicker()
		var interval time.Duration
		s, err := queue.NewDrainScheduler(d,
			queue.WithDrainInterval(30*time.Second),
			queue.WithDrainLogger(discardLogger()),
			queue.WithTicker(func(d time.Duration) queue.Ticker {
				interval = d
				return ticker
			}),
		)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx)() }()

		ticker.ch <- time.Now()
		ticker.ch <- time.Now()
		require.Eventually(t, func() bool { return drains.Load() == 3 }, time.Second, 5*time.Millisecond)

		cancel()
		require.NoError(t, <-done)
		assert.Equal(t, 30*time.Second, interval)
		assert.True(t, ticker.stopped.Load())
	})

	t.Run("skip initial drain", func(t *testing.T) {
		t.Parallel()

		var drains atomic.Int32
		d := drainerFunc(func(context.Context) (queue.DrainReport, error) {
			drains.Add(1)
			return queue.DrainReport{}, nil
		})
		ticker := newManualTicker()
		s, err := queue.NewDrainScheduler(d,
			queue.WithSkipInitialDrain(),
			queue.WithDrainLogger(discardLogger()),
			queue.WithTicker(func(time.Duration) queue.Ticker { return ticker }),
		)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Start(ctx) }()

		ticker.ch <- time.Now()
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
		assert.EqualValues(t, 1, drains.Load())
	})

	t.Run("trigger refuses overlapping drains", func(t *testing.T) {
		t.Parallel()

		entered := make(chan struct{})
		release := make(chan struct{})
		d := drainerFunc(func(context.Context) (queue.DrainReport, error) {
			close(entered)
			<-release
			return queue.DrainReport{DrainCounts: queue.DrainCounts{Processed: 2}}, nil
		})
		s, err := queue.NewDrainScheduler(d, queue.WithDrainLogger(discardLogger()))
		require.NoError(t, err)

		first := make(chan queue.DrainReport, 1)
		go func() {
			r, _ := s.Trigger(context.Background())
			first <- r
		}()
		<-entered

		_, err = s.Trigger(context.Background())
		assert.ErrorIs(t, err, queue.ErrDrainInProgress)

		close(release)
		assert.Equal(t, 2, (<-first).Processed)
	})

	t.Run("drives a real worker", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := queue.NewMemoryStore()
		require.NoError(t, store.Push(ctx, bookingJob("1")))
		p := alwaysSucceed()
		w := newTestWorker(t, store, p)

		s, err := queue.NewDrainScheduler(w, queue.WithDrainLogger(discardLogger()))
		require.NoError(t, err)

		report, err := s.Trigger(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Processed)
		assert.EqualValues(t, 1, p.calls.Load())
	})
}
