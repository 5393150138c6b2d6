package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/jobkit/pkg/booking"
	"github.com/dmitrymomot/jobkit/pkg/idempotency"
	"github.com/dmitrymomot/jobkit/pkg/logger"
	"github.com/dmitrymomot/jobkit/pkg/notification"
	"github.com/dmitrymomot/jobkit/pkg/payment"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

// BookingResult is the value of a successful booking job.
type BookingResult struct {
	BookingID     string              `json:"booking_id"`
	Action        queue.BookingAction `json:"action"`
	Status        booking.Status      `json:"status"`
	Changed       bool                `json:"changed"`
	Notified      bool                `json:"notified,omitempty"`
	PaymentID     string              `json:"payment_id,omitempty"`
	PaymentStatus payment.Status      `json:"payment_status,omitempty"`
}

// BookingProcessor handles booking-processing jobs.
type BookingProcessor struct {
	base
	bookings booking.Repository
	payments payment.Repository
	notifier Notifier
}

// NewBookingProcessor creates the booking job handler.
func NewBookingProcessor(bookings booking.Repository, payments payment.Repository, n Notifier, opts ...Option) (*BookingProcessor, error) {
	if bookings == nil || payments == nil {
		return nil, ErrRepositoryNil
	}
	if n == nil {
		return nil, ErrNotifierNil
	}
	return &BookingProcessor{
		base:     newBase("booking-processor", opts),
		bookings: bookings,
		payments: payments,
		notifier: n,
	}, nil
}

// HandleBooking runs p.Action against the booking.
func (p *BookingProcessor) HandleBooking(ctx context.Context, job *queue.Job, bp queue.BookingPayload) (any, error) {
	if bp.BookingID == "" {
		return nil, classify(ErrMissingBookingID)
	}
	ctx = logger.ContextWithAttrs(ctx, logger.BookingID(bp.BookingID), logger.Action(string(bp.Action)))
	ctx = idempotency.WithOwner(ctx, job.ID)

	bk, err := p.bookings.Get(ctx, bp.BookingID)
	if err != nil {
		return nil, classify(err)
	}

	var res BookingResult
	switch bp.Action {
	case queue.BookingConfirm:
		res, err = p.confirm(ctx, bk, bp.Metadata)
	case queue.BookingCancel:
		res, err = p.cancel(ctx, bk, bp.Metadata)
	case queue.BookingReschedule:
		res, err = p.reschedule(ctx, bk, bp.Metadata)
	case queue.BookingReminder:
		res, err = p.remind(ctx, bk, notification.TypeAppointmentReminder)
	case queue.BookingFollowUp:
		res, err = p.remind(ctx, bk, notification.TypePostServiceFollowUp)
	case queue.BookingCheck:
		res, err = p.checkPayment(ctx, bk)
	default:
		return nil, classify(fmt.Errorf("%w: %q", ErrUnknownAction, bp.Action))
	}
	if err != nil {
		return nil, classify(err)
	}

	res.BookingID, res.Action = bk.ID, bp.Action
	p.logger.InfoContext(ctx, "booking job processed",
		logger.JobID(job.ID),
		logger.Attempt(job.RetryCount+1),
		logStatus(res.Status),
	)
	return res, nil
}

// confirm is idempotent: a confirmed booking only gets its CRM mirror
// completed.
func (p *BookingProcessor) confirm(ctx context.Context, bk *booking.Booking, md queue.BookingMetadata) (BookingResult, error) {
	res := BookingResult{Status: bk.Status}
	if bk.Status != booking.StatusConfirmed {
		if err := booking.Apply(ctx, bk, booking.EventConfirm, p.now()); err != nil {
			return res, err
		}
		if md.AssignedAgentID != "" {
			bk.AssignedAgentID = md.AssignedAgentID
		}
		if err := p.bookings.Update(ctx, bk); err != nil {
			return res, err
		}
		res.Status, res.Changed = bk.Status, true
		res.Notified = p.notifyAfterCommit(ctx, p.notifier,
			p.bookingMessage(notification.TypeBookingConfirmation, bk, nil))
	}
	return res, p.sync(ctx, booking.EventConfirm, bk)
}

// cancel moves an open booking to the cancelled state chosen by the actor.
// Cancelling a cancelled booking is a no-op.
func (p *BookingProcessor) cancel(ctx context.Context, bk *booking.Booking, md queue.BookingMetadata) (BookingResult, error) {
	event := booking.CancelEvent(md.CancelledByStaff || md.Actor == "staff")
	res := BookingResult{Status: bk.Status}
	if bk.Status.Cancelled() {
		return res, p.sync(ctx, event, bk)
	}

	now := p.now()
	if err := booking.Apply(ctx, bk, event, now); err != nil {
		return res, err
	}
	bk.AppendNote(booking.CancellationNote(md.Reason, now))
	if err := p.bookings.Update(ctx, bk); err != nil {
		return res, err
	}
	res.Status, res.Changed = bk.Status, true
	res.Notified = p.notifyAfterCommit(ctx, p.notifier,
		p.bookingMessage(notification.TypeBookingCancelled, bk, map[string]string{"Reason": md.Reason}))
	return res, p.sync(ctx, event, bk)
}

// reschedule moves the appointment and keeps the status. Repeating it with
// the same time is a no-op.
func (p *BookingProcessor) reschedule(ctx context.Context, bk *booking.Booking, md queue.BookingMetadata) (BookingResult, error) {
	res := BookingResult{Status: bk.Status}
	if md.NewDateTime == nil || md.NewDateTime.IsZero() {
		return res, ErrMissingDateTime
	}
	if bk.ScheduledDateTime.Equal(*md.NewDateTime) {
		return res, p.sync(ctx, booking.EventReschedule, bk)
	}

	now := p.now()
	if err := booking.Apply(ctx, bk, booking.EventReschedule, now); err != nil {
		return res, err
	}
	bk.ScheduledDateTime = md.NewDateTime.UTC()
	bk.AppendNote(booking.RescheduleNote(bk.ScheduledDateTime, now))
	if err := p.bookings.Update(ctx, bk); err != nil {
		return res, err
	}
	res.Changed = true
	res.Notified = p.notifyAfterCommit(ctx, p.notifier,
		p.bookingMessage(notification.TypeBookingRescheduled, bk, nil))
	return res, p.sync(ctx, booking.EventReschedule, bk)
}

// remind sends a reminder or follow-up. Delivery is the whole job here, so
// its failure is the job's failure. Cancelled bookings are skipped.
func (p *BookingProcessor) remind(ctx context.Context, bk *booking.Booking, t notification.Type) (BookingResult, error) {
	res := BookingResult{Status: bk.Status}
	if bk.Status.Cancelled() {
		p.logger.InfoContext(ctx, "skipping notification for cancelled booking", logStatus(bk.Status))
		return res, nil
	}
	if _, err := p.notifier.Send(ctx, p.bookingMessage(t, bk, nil)); err != nil {
		return res, err
	}
	res.Notified = true
	return res, nil
}

// checkPayment expires the booking's latest payment once it has been
// pending for longer than payment.PendingTTL.
func (p *BookingProcessor) checkPayment(ctx context.Context, bk *booking.Booking) (BookingResult, error) {
	res := BookingResult{Status: bk.Status}
	pay, err := p.payments.LatestForBooking(ctx, bk.ID)
	if errors.Is(err, payment.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return res, err
	}

	res.PaymentID = pay.ID
	expired, err := expirePayment(ctx, p.base, p.payments, p.bookings, p.notifier, pay, bk)
	res.Status, res.PaymentStatus, res.Changed = bk.Status, pay.Status, expired
	return res, err
}

func (p *BookingProcessor) sync(ctx context.Context, event booking.Event, bk *booking.Booking) error {
	changed, err := p.syncCRM(ctx, event, bk)
	if changed {
		if uerr := p.bookings.Update(ctx, bk); uerr != nil {
			return errors.Join(err, uerr)
		}
	}
	return err
}
