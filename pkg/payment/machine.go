package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/jobkit/pkg/statemachine"
)

// Event triggers a payment status change.
type Event string

const (
	EventCapture Event = "capture"
	EventFail    Event = "fail"
	EventRefund  Event = "refund"
)

type refundRequest struct {
	payment *Payment
	amount  int64
}

func fullRefund(_ context.Context, _ Status, _ Event, data any) bool {
	r, ok := data.(refundRequest)
	return ok && r.amount == r.payment.Refundable()
}

func partialRefund(_ context.Context, _ Status, _ Event, data any) bool {
	r, ok := data.(refundRequest)
	return ok && r.amount < r.payment.Refundable()
}

// Machine is the payment transition table. Refund is accepted only from
// COMPLETED and lands on REFUNDED or PARTIALLY_REFUNDED depending on the
// amount.
var Machine = statemachine.MustNew(
	statemachine.WithTransition[Status, Event](StatusPending, StatusCompleted, EventCapture),
	statemachine.WithTransition[Status, Event](StatusPending, StatusFailed, EventFail),
	statemachine.WithTransition(StatusCompleted, StatusRefunded, EventRefund,
		statemachine.WithGuard[Status, Event](fullRefund)),
	statemachine.WithTransition(StatusCompleted, StatusPartiallyRefunded, EventRefund,
		statemachine.WithGuard[Status, Event](partialRefund)),
)

func fire(ctx context.Context, p *Payment, e Event, data any, now time.Time) error {
	next, err := Machine.Fire(ctx, p.Status, e, data)
	if err != nil {
		if errors.Is(err, statemachine.ErrIllegalTransition) {
			return errors.Join(ErrIllegalTransition, err)
		}
		return err
	}
	p.Status = next
	p.UpdatedAt = now
	return nil
}

// Capture marks a PENDING payment COMPLETED.
func Capture(ctx context.Context, p *Payment, now time.Time) error {
	return fire(ctx, p, EventCapture, nil, now)
}

// Expire marks a PENDING payment FAILED with an audit note.
func Expire(ctx context.Context, p *Payment, now time.Time) error {
	if err := fire(ctx, p, EventFail, nil, now); err != nil {
		return err
	}
	p.AppendNote(fmt.Sprintf("Expired: pending for more than %s - %s", PendingTTL, now.UTC().Format(time.RFC3339)))
	return nil
}

// Refund refunds amount of a COMPLETED payment. A non-positive amount
// refunds everything still refundable. It returns the amount refunded.
func Refund(ctx context.Context, p *Payment, amount int64, reason string, now time.Time) (int64, error) {
	if amount <= 0 {
		amount = p.Refundable()
	}
	if amount > p.Refundable() {
		return 0, fmt.Errorf("%w: requested %d, refundable %d", ErrRefundExceedsAmount, amount, p.Refundable())
	}
	if err := fire(ctx, p, EventRefund, refundRequest{payment: p, amount: amount}, now); err != nil {
		return 0, err
	}
	p.RefundedAmount += amount
	if reason == "" {
		reason = "no reason given"
	}
	p.AppendNote(fmt.Sprintf("Refund %s: %s - %s", FormatAmount(amount, p.Currency), reason, now.UTC().Format(time.RFC3339)))
	return amount, nil
}
