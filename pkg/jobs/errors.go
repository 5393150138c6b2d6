package jobs

import (
	"errors"

	"github.com/dmitrymomot/jobkit/pkg/booking"
	"github.com/dmitrymomot/jobkit/pkg/crm"
	"github.com/dmitrymomot/jobkit/pkg/notification"
	"github.com/dmitrymomot/jobkit/pkg/payment"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

var (
	ErrMissingBookingID  = errors.New("booking id is required")
	ErrMissingPaymentRef = errors.New("payment id or booking id is required")
	ErrMissingDateTime   = errors.New("new date time is required for reschedule")
	ErrUnknownAction     = errors.New("unknown action")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrBookingNotPayable = errors.New("booking does not accept payments in its current status")
	ErrRepositoryNil     = errors.New("repository is required")
	ErrNotifierNil       = errors.New("notifier is required")
	ErrGuardNil          = errors.New("idempotency guard is required")
)

// ErrRecipientNotFound is returned when neither the payload nor the booking
// has an address to deliver to.
var ErrRecipientNotFound = notification.ErrRecipientNotFound

var fatal = []error{
	ErrMissingBookingID,
	ErrMissingPaymentRef,
	ErrMissingDateTime,
	ErrUnknownAction,
	ErrInvalidAmount,
	ErrBookingNotPayable,
	booking.ErrNotFound,
	booking.ErrIllegalTransition,
	payment.ErrNotFound,
	payment.ErrIllegalTransition,
	payment.ErrRefundExceedsAmount,
	payment.ErrBookingNotFound,
	notification.ErrRecipientNotFound,
	notification.ErrUnknownTemplate,
}

// classify marks failures that a retry cannot fix as permanent so the worker
// discards the job at once. CRM failures follow crm.IsRetryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range fatal {
		if errors.Is(err, target) {
			return queue.Permanent(err)
		}
	}
	if !crm.IsRetryable(err) {
		return queue.Permanent(err)
	}
	return err
}
