package queue

import (
	"log/slog"
	"time"
)

// maxRetriesCeiling bounds per-job retry counts.
const maxRetriesCeiling = 10

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the client logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDefaultMaxRetries sets the ceiling applied to jobs that don't set one.
func WithDefaultMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n >= 0 && n <= maxRetriesCeiling {
			c.defaultMaxRetries = n
		}
	}
}

// WithClientClock overrides the time source used to stamp CreatedAt.
func WithClientClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator overrides job ID generation.
func WithIDGenerator(gen func() string) ClientOption {
	return func(c *Client) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// EnqueueOption configures a single job before it is stored.
type EnqueueOption func(*Job)

// WithMaxRetries sets the job's retry ceiling. Values outside [0, 10] are ignored.
func WithMaxRetries(n int) EnqueueOption {
	return func(j *Job) {
		if n >= 0 && n <= maxRetriesCeiling {
			j.MaxRetries = n
		}
	}
}

// WithScheduledFor delays processing until at.
func WithScheduledFor(at time.Time) EnqueueOption {
	return func(j *Job) {
		t := at
		j.ScheduledFor = &t
	}
}

// WithDelay delays processing by d from the moment the option is applied.
func WithDelay(d time.Duration) EnqueueOption {
	return func(j *Job) {
		if d > 0 {
			t := time.Now().Add(d)
			j.ScheduledFor = &t
		}
	}
}

// WithJobID sets an explicit job ID.
func WithJobID(id string) EnqueueOption {
	return func(j *Job) {
		if id != "" {
			j.ID = id
		}
	}
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the worker logger.
func WithWorkerLogger(l *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithPollInterval sets how long an idle lane sleeps before polling again.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithErrorBackoff sets how long a lane sleeps after a store error.
func WithErrorBackoff(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.errorBackoff = d
		}
	}
}

// WithBatchSize sets the per-queue limit for ProcessPendingJobs.
func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithQueues restricts the worker to the given job types.
func WithQueues(types ...Type) WorkerOption {
	return func(w *Worker) {
		valid := make([]Type, 0, len(types))
		for _, t := range types {
			if t.Valid() {
				valid = append(valid, t)
			}
		}
		if len(valid) > 0 {
			w.queues = valid
		}
	}
}

// WithWorkerClock overrides the time source used for due checks.
func WithWorkerClock(now func() time.Time) WorkerOption {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// WithWorkerID sets the identifier attached to worker log records.
func WithWorkerID(id string) WorkerOption {
	return func(w *Worker) {
		if id != "" {
			w.id = id
		}
	}
}

// DrainOption configures a DrainScheduler.
type DrainOption func(*DrainScheduler)

// WithDrainInterval sets the period between drains.
func WithDrainInterval(d time.Duration) DrainOption {
	return func(s *DrainScheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTicker injects the ticker factory. Tests use it to drive ticks by hand.
func WithTicker(newTicker func(time.Duration) Ticker) DrainOption {
	return func(s *DrainScheduler) {
		if newTicker != nil {
			s.newTicker = newTicker
		}
	}
}

// WithDrainLogger sets the scheduler logger.
func WithDrainLogger(l *slog.Logger) DrainOption {
	return func(s *DrainScheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSkipInitialDrain disables the drain that runs as soon as Start is called.
func WithSkipInitialDrain() DrainOption {
	return func(s *DrainScheduler) {
		s.initialDrain = false
	}
}
