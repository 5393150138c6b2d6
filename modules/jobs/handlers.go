package jobs

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/jobkit/handler"
	"github.com/dmitrymomot/jobkit/pkg/logger"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

// EnqueueResponse is the data returned for an accepted job.
type EnqueueResponse struct {
	JobID        string     `json:"job_id"`
	Type         queue.Type `json:"type"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

type handlers struct {
	queue Enqueuer
	drain Trigger
	log   *slog.Logger
	now   func() time.Time
}

func (h *handlers) enqueueNotification(ctx handler.Context, req NotificationRequest) handler.Response {
	if err := req.validate(); err != nil {
		return handler.JSONError(err)
	}
	return h.enqueue(ctx, req.Job, req.Schedule)
}

func (h *handlers) enqueueBooking(ctx handler.Context, req BookingRequest) handler.Response {
	if err := req.validate(); err != nil {
		return handler.JSONError(err)
	}
	return h.enqueue(ctx, req.Job, req.Schedule)
}

func (h *handlers) enqueuePayment(ctx handler.Context, req PaymentRequest) handler.Response {
	if err := req.validate(); err != nil {
		return handler.JSONError(err)
	}
	return h.enqueue(ctx, req.Job, req.Schedule)
}

func (h *handlers) enqueue(ctx handler.Context, p queue.Payload, s Schedule) handler.Response {
	now := h.now()
	id, err := h.queue.Enqueue(ctx, p, s.options(now)...)
	if err != nil {
		h.log.ErrorContext(ctx, "enqueue failed", slog.String("type", p.JobType().String()), logger.Error(err))
		return handler.JSONError(fmt.Errorf("%w: job could not be queued", handler.ErrServiceUnavailable))
	}

	resp := EnqueueResponse{JobID: id, Type: p.JobType(), ScheduledFor: s.at(now)}
	h.log.InfoContext(ctx, "job accepted", logger.JobID(id), slog.String("type", p.JobType().String()))
	return handler.JSON(resp, handler.WithJSONStatus(http.StatusAccepted))
}

func (h *handlers) stats(ctx handler.Context, _ struct{}) handler.Response {
	stats, err := h.queue.Stats(ctx)
	if err != nil {
		h.log.ErrorContext(ctx, "queue stats failed", logger.Error(err))
		return handler.JSONError(fmt.Errorf("%w: queue store unreachable", handler.ErrServiceUnavailable))
	}

	var total int64
	for _, n := range stats {
		total += n
	}
	return handler.JSON(stats, handler.WithJSONMeta(map[string]any{"total": total}))
}

func (h *handlers) process(ctx handler.Context, _ struct{}) handler.Response {
	report, err := h.drain.Trigger(ctx)
	switch {
	case errors.Is(err, queue.ErrDrainInProgress), errors.Is(err, queue.ErrWorkerRunning):
		return handler.JSONError(fmt.Errorf("%w: %w", handler.ErrConflict, err))
	case err != nil:
		// Store errors still leave a partial report worth returning.
		h.log.ErrorContext(ctx, "on-demand drain finished with errors", logger.Error(err))
		return handler.JSON(report, handler.WithJSONMeta(map[string]any{"error": err.Error()}))
	}
	return handler.JSON(report)
}
