package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/jobkit/pkg/logger"
)

// Client is the producer side of the queue.
type Client struct {
	store             JobStore
	defaultMaxRetries int
	logger            *slog.Logger
	now               func() time.Time
	newID             func() string
}

// NewClient creates a producer that writes to store.
func NewClient(store JobStore, opts ...ClientOption) (*Client, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	c := &Client{
		store:             store,
		defaultMaxRetries: DefaultMaxRetries,
		logger:            slog.Default(),
		now:               time.Now,
		newID:             uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// EnqueueJob stores job on its type's queue and returns the assigned ID.
//
// An empty ID is generated, CreatedAt is stamped, and MaxRetries of zero
// falls back to the client default. Use Enqueue with WithMaxRetries(0) for a
// job that must never be retried. On failure the returned ID is empty and
// the error wraps ErrEnqueueFailed; producers may ignore it.
func (c *Client) EnqueueJob(ctx context.Context, job *Job) (string, error) {
	if job == nil {
		return "", fmt.Errorf("%w: %w", ErrEnqueueFailed, ErrJobNil)
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = c.defaultMaxRetries
	}
	return c.enqueue(ctx, job)
}

// Enqueue wraps payload into a new job and stores it.
func (c *Client) Enqueue(ctx context.Context, payload Payload, opts ...EnqueueOption) (string, error) {
	job := &Job{Payload: payload, MaxRetries: c.defaultMaxRetries}
	for _, opt := range opts {
		opt(job)
	}
	return c.enqueue(ctx, job)
}

// EnqueueNotification enqueues a notification job.
func (c *Client) EnqueueNotification(ctx context.Context, p NotificationPayload, opts ...EnqueueOption) (string, error) {
	return c.Enqueue(ctx, p, opts...)
}

// EnqueueBookingJob enqueues a booking-processing job.
func (c *Client) EnqueueBookingJob(ctx context.Context, p BookingPayload, opts ...EnqueueOption) (string, error) {
	return c.Enqueue(ctx, p, opts...)
}

// EnqueuePaymentJob enqueues a payment-processing job.
func (c *Client) EnqueuePaymentJob(ctx context.Context, p PaymentPayload, opts ...EnqueueOption) (string, error) {
	return c.Enqueue(ctx, p, opts...)
}

// ScheduleJob enqueues payload so that it is not processed before at.
func (c *Client) ScheduleJob(ctx context.Context, payload Payload, at time.Time, opts ...EnqueueOption) (string, error) {
	return c.Enqueue(ctx, payload, append(opts, WithScheduledFor(at))...)
}

// Stats returns the number of queued jobs per type.
func (c *Client) Stats(ctx context.Context) (map[Type]int64, error) {
	stats := make(map[Type]int64, len(Types))
	for _, t := range Types {
		n, err := c.store.Len(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s queue length: %w", t, err)
		}
		stats[t] = n
	}
	return stats, nil
}

func (c *Client) enqueue(ctx context.Context, job *Job) (string, error) {
	if job.Payload == nil || !job.Type().Valid() {
		return "", fmt.Errorf("%w: %w", ErrEnqueueFailed, ErrUnknownJobType)
	}
	if job.MaxRetries < 0 || job.RetryCount < 0 || job.RetryCount > job.MaxRetries {
		return "", fmt.Errorf("%w: %w", ErrEnqueueFailed, ErrInvalidRetryCount)
	}

	if job.ID == "" {
		job.ID = c.newID()
	}
	job.CreatedAt = c.now()

	if err := c.store.Push(ctx, job); err != nil {
		c.logger.ErrorContext(ctx, "failed to enqueue job",
			logger.JobID(job.ID),
			logger.Queue(job.Type().String()),
			logger.Error(err),
		)
		return "", fmt.Errorf("%w: %w", ErrEnqueueFailed, err)
	}

	c.logger.DebugContext(ctx, "job enqueued",
		logger.JobID(job.ID),
		logger.Queue(job.Type().String()),
		logger.MaxRetries(job.MaxRetries),
	)
	return job.ID, nil
}
