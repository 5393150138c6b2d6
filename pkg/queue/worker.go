package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/jobkit/pkg/logger"
)

// Outcome is what the worker did with a popped job.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeRetried   Outcome = "retried"
	OutcomeDiscarded Outcome = "discarded"
	OutcomeDeferred  Outcome = "deferred"
)

// Worker consumes jobs from the store and hands them to a Processor.
//
// It runs in one of two modes. Start launches one long-running lane per job
// type; ProcessPendingJobs drains a bounded batch per type and returns. The
// two modes must not be used against the same queues at the same time.
type Worker struct {
	store     JobStore
	processor Processor
	queues    []Type
	id        string

	pollInterval time.Duration
	errorBackoff time.Duration
	batchSize    int
	logger       *slog.Logger
	now          func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a worker that pops from store and runs processor.
func NewWorker(store JobStore, processor Processor, opts ...WorkerOption) (*Worker, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if processor == nil {
		return nil, ErrProcessorNil
	}

	w := &Worker{
		store:        store,
		processor:    processor,
		queues:       Types,
		id:           uuid.NewString(),
		pollInterval: 5 * time.Second,
		errorBackoff: 10 * time.Second,
		batchSize:    10,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// ID returns the worker instance identifier.
func (w *Worker) ID() string { return w.id }

// Start launches one lane per queue in the background.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return ErrWorkerRunning
	}

	laneCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	for _, q := range w.queues {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.runLane(laneCtx, q)
		}()
	}

	w.logger.InfoContext(ctx, "worker started",
		logger.WorkerID(w.id),
		slog.Any("queues", w.queues),
		slog.Duration("poll_interval", w.pollInterval),
	)
	return nil
}

// Stop signals every lane to exit and waits for in-flight jobs to finish.
func (w *Worker) Stop() error {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return ErrWorkerNotRunning
	}

	w.logger.Info("worker stopping, waiting for in-flight jobs", logger.WorkerID(w.id))
	cancel()
	w.wg.Wait()
	w.logger.Info("worker stopped", logger.WorkerID(w.id))
	return nil
}

// Run starts the worker and returns a function suitable for errgroup.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

func (w *Worker) running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cancel != nil
}

// runLane pops and processes jobs of one type until ctx is cancelled.
// A job already popped is always finished before the lane exits.
func (w *Worker) runLane(ctx context.Context, q Type) {
	log := w.logger.With(logger.WorkerID(w.id), logger.Queue(q.String()))

	for ctx.Err() == nil {
		job, err := w.store.Pop(ctx, q)
		switch {
		case errors.Is(err, ErrQueueEmpty):
			sleep(ctx, w.pollInterval)
			continue
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			log.ErrorContext(ctx, "failed to pop job", logger.Error(err))
			sleep(ctx, w.errorBackoff)
			continue
		}

		if w.handle(ctx, job) == OutcomeDeferred {
			sleep(ctx, w.pollInterval)
		}
	}
}

// handle runs one popped job to an outcome. The job runs on a context that
// is detached from ctx's cancellation.
func (w *Worker) handle(ctx context.Context, job *Job) Outcome {
	ctx = context.WithoutCancel(ctx)
	ctx = logger.ContextWithAttrs(ctx, logger.JobID(job.ID), logger.Queue(job.Type().String()))

	if !job.Due(w.now()) {
		if err := w.store.Push(ctx, job); err != nil {
			w.logger.ErrorContext(ctx, "failed to requeue scheduled job, job lost", logger.Error(err))
			return OutcomeDiscarded
		}
		return OutcomeDeferred
	}

	start := time.Now()
	res := w.process(ctx, job)
	elapsed := time.Since(start)

	if res.Success {
		w.logger.InfoContext(ctx, "job completed",
			logger.WorkerID(w.id),
			logger.RetryCount(job.RetryCount),
			logger.Duration(elapsed),
		)
		return OutcomeSucceeded
	}

	if !res.Permanent && job.CanRetry() {
		job.RetryCount++
		w.logger.WarnContext(ctx, "job failed, retrying",
			logger.WorkerID(w.id),
			logger.RetryCount(job.RetryCount),
			logger.MaxRetries(job.MaxRetries),
			logger.Duration(elapsed),
			slog.String("error", res.Error),
		)
		if err := w.store.Push(ctx, job); err != nil {
			w.logger.ErrorContext(ctx, "failed to requeue job for retry, job lost", logger.Error(err))
			return OutcomeDiscarded
		}
		return OutcomeRetried
	}

	w.logger.ErrorContext(ctx, "job failed permanently",
		logger.WorkerID(w.id),
		logger.RetryCount(job.RetryCount),
		logger.MaxRetries(job.MaxRetries),
		logger.Duration(elapsed),
		slog.Bool("permanent", res.Permanent),
		slog.String("error", res.Error),
	)
	return OutcomeDiscarded
}

// process calls the processor, converting a panic into a failed Result.
func (w *Worker) process(ctx context.Context, job *Job) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.ErrorContext(ctx, "processor panicked", logger.WorkerID(w.id), slog.Any("panic", r))
			res = Failure(job, w.now(), fmt.Errorf("%w: %v", ErrPanicRecovered, r))
		}
	}()

	res = w.processor.Process(ctx, job)
	if res.JobID == "" {
		res.JobID = job.ID
	}
	if res.ProcessedAt.IsZero() {
		res.ProcessedAt = w.now()
	}
	return res
}

// DrainCounts tallies the outcomes of one drain pass.
type DrainCounts struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
	Retried   int `json:"retried"`
	Discarded int `json:"discarded"`
	Deferred  int `json:"deferred"`
}

func (c *DrainCounts) add(o Outcome) {
	switch o {
	case OutcomeSucceeded:
		c.Processed++
	case OutcomeRetried:
		c.Errors++
		c.Retried++
	case OutcomeDiscarded:
		c.Errors++
		c.Discarded++
	case OutcomeDeferred:
		c.Deferred++
	}
}

// DrainReport is the result of ProcessPendingJobs.
type DrainReport struct {
	DrainCounts
	Queues map[Type]DrainCounts `json:"queues"`
}

// ProcessPendingJobs takes up to the batch size of jobs from each queue,
// processes them sequentially and returns the tallies. It stops early on a
// queue once it is empty or a not-yet-due job comes around a second time.
// Store errors end the pass for that queue and are joined into the error.
func (w *Worker) ProcessPendingJobs(ctx context.Context) (DrainReport, error) {
	report := DrainReport{Queues: make(map[Type]DrainCounts, len(w.queues))}
	if w.running() {
		return report, ErrWorkerRunning
	}

	var errs []error
	for _, q := range w.queues {
		counts, err := w.drainQueue(ctx, q)
		report.Queues[q] = counts
		report.Processed += counts.Processed
		report.Errors += counts.Errors
		report.Retried += counts.Retried
		report.Discarded += counts.Discarded
		report.Deferred += counts.Deferred
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", q, err))
		}
	}

	w.logger.InfoContext(ctx, "drain finished",
		logger.WorkerID(w.id),
		slog.Int("processed", report.Processed),
		slog.Int("errors", report.Errors),
		slog.Int("deferred", report.Deferred),
	)
	return report, errors.Join(errs...)
}

func (w *Worker) drainQueue(ctx context.Context, q Type) (DrainCounts, error) {
	var counts DrainCounts
	deferred := make(map[string]struct{})

	for range w.batchSize {
		if err := ctx.Err(); err != nil {
			return counts, err
		}

		job, err := w.store.Pop(ctx, q)
		if errors.Is(err, ErrQueueEmpty) {
			return counts, nil
		}
		if err != nil {
			w.logger.ErrorContext(ctx, "failed to pop job", logger.Queue(q.String()), logger.Error(err))
			return counts, err
		}

		if _, seen := deferred[job.ID]; seen {
			if err := w.store.Push(ctx, job); err != nil {
				counts.add(OutcomeDiscarded)
				return counts, err
			}
			return counts, nil
		}

		outcome := w.handle(ctx, job)
		counts.add(outcome)
		if outcome == OutcomeDeferred {
			deferred[job.ID] = struct{}{}
		}
	}
	return counts, nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
