package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/jobkit/handler"
	"github.com/dmitrymomot/jobkit/pkg/logger"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

// Enqueuer stores jobs. *queue.Client satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload queue.Payload, opts ...queue.EnqueueOption) (string, error)
	Stats(ctx context.Context) (map[queue.Type]int64, error)
}

// Trigger runs one drain pass on demand. *queue.DrainScheduler satisfies it.
type Trigger interface {
	Trigger(ctx context.Context) (queue.DrainReport, error)
}

// RouterOptions configures the jobs module. Queue is required; the
// /process route is only mounted when Drain is set.
type RouterOptions struct {
	Queue  Enqueuer
	Drain  Trigger
	Logger *slog.Logger
	Now    func() time.Time
}

// Router returns the jobs HTTP API:
//
//	POST /notifications  enqueue a notification job
//	POST /bookings       enqueue a booking-processing job
//	POST /payments       enqueue a payment-processing job
//	GET  /stats          queued jobs per type
//	POST /process        run one drain pass now
//
// Mount it under a prefix:
//
//	r.Mount("/jobs", jobs.Router(jobs.RouterOptions{Queue: client, Drain: scheduler}))
func Router(opts RouterOptions) chi.Router {
	if opts.Queue == nil {
		panic("jobs.Router: Queue is required")
	}
	h := &handlers{
		queue: opts.Queue,
		drain: opts.Drain,
		log:   opts.Logger,
		now:   opts.Now,
	}
	if h.log == nil {
		h.log = logger.Discard()
	}
	h.log = h.log.With(logger.Component("jobs-api"))
	if h.now == nil {
		h.now = time.Now
	}

	r := chi.NewRouter()
	r.Post("/notifications", handler.Wrap[handler.Context, NotificationRequest](h.enqueueNotification,
		handler.WithBinders[handler.Context, NotificationRequest](handler.BindJSON()),
	))
	r.Post("/bookings", handler.Wrap[handler.Context, BookingRequest](h.enqueueBooking,
		handler.WithBinders[handler.Context, BookingRequest](handler.BindJSON()),
	))
	r.Post("/payments", handler.Wrap[handler.Context, PaymentRequest](h.enqueuePayment,
		handler.WithBinders[handler.Context, PaymentRequest](handler.BindJSON()),
	))
	r.Get("/stats", handler.Wrap[handler.Context, struct{}](h.stats))
	if h.drain != nil {
		r.Post("/process", handler.Wrap[handler.Context, struct{}](h.process))
	}
	return r
}
