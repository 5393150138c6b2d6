package booking

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/jobkit/pkg/statemachine"
)

// Event triggers a booking status change.
type Event string

const (
	EventRequestPayment Event = "request_payment"
	EventConfirm        Event = "confirm"
	EventCancelByClient Event = "cancel_by_client"
	EventCancelByStaff  Event = "cancel_by_staff"
	EventReschedule     Event = "reschedule"
	EventComplete       Event = "complete"
)

var open = []Status{StatusPending, StatusPaymentPending, StatusConfirmed}

// Machine is the booking transition table.
//
//	PENDING ──request_payment──▶ PAYMENT_PENDING
//	PENDING | PAYMENT_PENDING ──confirm──▶ CONFIRMED
//	PENDING | PAYMENT_PENDING | CONFIRMED ──cancel_by_client──▶ CANCELLED_BY_CLIENT
//	PENDING | PAYMENT_PENDING | CONFIRMED ──cancel_by_staff──▶ CANCELLED_BY_STAFF
//	PENDING | PAYMENT_PENDING | CONFIRMED ──reschedule──▶ (unchanged)
//	CONFIRMED ──complete──▶ COMPLETED
var Machine = statemachine.MustNew(
	statemachine.WithTransition[Status, Event](StatusPending, StatusPaymentPending, EventRequestPayment),
	statemachine.FromAny[Status, Event]([]Status{StatusPending, StatusPaymentPending}, StatusConfirmed, EventConfirm),
	statemachine.FromAny[Status, Event](open, StatusCancelledByClient, EventCancelByClient),
	statemachine.FromAny[Status, Event](open, StatusCancelledByStaff, EventCancelByStaff),
	statemachine.WithTransition[Status, Event](StatusPending, StatusPending, EventReschedule),
	statemachine.WithTransition[Status, Event](StatusPaymentPending, StatusPaymentPending, EventReschedule),
	statemachine.WithTransition[Status, Event](StatusConfirmed, StatusConfirmed, EventReschedule),
	statemachine.WithTransition[Status, Event](StatusConfirmed, StatusCompleted, EventComplete),
)

// Apply fires e against b's status and stores the result on b.
// Illegal transitions wrap ErrIllegalTransition and leave b untouched.
func Apply(ctx context.Context, b *Booking, e Event, now time.Time) error {
	next, err := Machine.Fire(ctx, b.Status, e, b)
	if err != nil {
		if errors.Is(err, statemachine.ErrIllegalTransition) {
			return errors.Join(ErrIllegalTransition, err)
		}
		return err
	}
	b.Status = next
	b.UpdatedAt = now
	return nil
}

// CancelEvent picks the cancel event for the actor.
func CancelEvent(byStaff bool) Event {
	if byStaff {
		return EventCancelByStaff
	}
	return EventCancelByClient
}
