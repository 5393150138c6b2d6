package queue

import (
	"context"
	"fmt"
	"time"
)

// Processor runs one attempt of a job and reports the outcome.
type Processor interface {
	Process(ctx context.Context, job *Job) Result
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job *Job) Result

func (f ProcessorFunc) Process(ctx context.Context, job *Job) Result { return f(ctx, job) }

// NotificationHandler handles notification jobs.
type NotificationHandler interface {
	HandleNotification(ctx context.Context, job *Job, p NotificationPayload) (any, error)
}

// BookingHandler handles booking-processing jobs.
type BookingHandler interface {
	HandleBooking(ctx context.Context, job *Job, p BookingPayload) (any, error)
}

// PaymentHandler handles payment-processing jobs.
type PaymentHandler interface {
	HandlePayment(ctx context.Context, job *Job, p PaymentPayload) (any, error)
}

// Router dispatches a job to the handler for its payload variant and turns
// the handler's return values into a Result.
type Router struct {
	notification NotificationHandler
	booking      BookingHandler
	payment      PaymentHandler
	now          func() time.Time
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithNotificationHandler registers the notification handler.
func WithNotificationHandler(h NotificationHandler) RouterOption {
	return func(r *Router) { r.notification = h }
}

// WithBookingHandler registers the booking handler.
func WithBookingHandler(h BookingHandler) RouterOption {
	return func(r *Router) { r.booking = h }
}

// WithPaymentHandler registers the payment handler.
func WithPaymentHandler(h PaymentHandler) RouterOption {
	return func(r *Router) { r.payment = h }
}

// WithRouterClock overrides the time source for Result.ProcessedAt.
func WithRouterClock(now func() time.Time) RouterOption {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRouter creates a Router. Jobs whose handler is missing fail permanently.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Process implements Processor.
func (r *Router) Process(ctx context.Context, job *Job) Result {
	var (
		value any
		err   error
	)

	switch p := job.Payload.(type) {
	case NotificationPayload:
		if r.notification == nil {
			err = Permanent(fmt.Errorf("%w: %s", ErrHandlerNotFound, p.JobType()))
			break
		}
		value, err = r.notification.HandleNotification(ctx, job, p)
	case BookingPayload:
		if r.booking == nil {
			err = Permanent(fmt.Errorf("%w: %s", ErrHandlerNotFound, p.JobType()))
			break
		}
		value, err = r.booking.HandleBooking(ctx, job, p)
	case PaymentPayload:
		if r.payment == nil {
			err = Permanent(fmt.Errorf("%w: %s", ErrHandlerNotFound, p.JobType()))
			break
		}
		value, err = r.payment.HandlePayment(ctx, job, p)
	default:
		err = Permanent(fmt.Errorf("%w: %T", ErrUnknownJobType, job.Payload))
	}

	if err != nil {
		return Failure(job, r.now(), err)
	}
	return Success(job, r.now(), value)
}

// Success builds a successful Result.
func Success(job *Job, at time.Time, value any) Result {
	return Result{
		Success:     true,
		JobID:       job.ID,
		ProcessedAt: at,
		Value:       value,
	}
}

// Failure builds a failed Result. Permanent errors mark the result as such.
func Failure(job *Job, at time.Time, err error) Result {
	return Result{
		Success:     false,
		JobID:       job.ID,
		ProcessedAt: at,
		Error:       err.Error(),
		Permanent:   IsPermanent(err),
	}
}
