package jobs

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrymomot/jobkit/pkg/booking"
	"github.com/dmitrymomot/jobkit/pkg/idempotency"
	"github.com/dmitrymomot/jobkit/pkg/logger"
	"github.com/dmitrymomot/jobkit/pkg/notification"
	"github.com/dmitrymomot/jobkit/pkg/payment"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

// PaymentResult is the value of a successful payment job.
type PaymentResult struct {
	PaymentID      string              `json:"payment_id"`
	BookingID      string              `json:"booking_id"`
	Action         queue.PaymentAction `json:"action"`
	Status         payment.Status      `json:"status"`
	BookingStatus  booking.Status      `json:"booking_status,omitempty"`
	Amount         int64               `json:"amount,omitempty"`
	RefundedAmount int64               `json:"refunded_amount,omitempty"`
	Changed        bool                `json:"changed"`
}

// PaymentProcessor handles payment-processing jobs.
type PaymentProcessor struct {
	base
	payments payment.Repository
	bookings booking.Repository
	notifier Notifier
	guard    *idempotency.Guard
}

// NewPaymentProcessor creates the payment job handler. guard suppresses
// duplicate payment creation.
func NewPaymentProcessor(payments payment.Repository, bookings booking.Repository, n Notifier, guard *idempotency.Guard, opts ...Option) (*PaymentProcessor, error) {
	if payments == nil || bookings == nil {
		return nil, ErrRepositoryNil
	}
	if n == nil {
		return nil, ErrNotifierNil
	}
	if guard == nil {
		return nil, ErrGuardNil
	}
	return &PaymentProcessor{
		base:     newBase("payment-processor", opts),
		payments: payments,
		bookings: bookings,
		notifier: n,
		guard:    guard,
	}, nil
}

// HandlePayment runs pp.Action.
func (p *PaymentProcessor) HandlePayment(ctx context.Context, job *queue.Job, pp queue.PaymentPayload) (any, error) {
	ctx = logger.ContextWithAttrs(ctx, logger.Action(string(pp.Action)))
	ctx = idempotency.WithOwner(ctx, job.ID)

	var (
		res PaymentResult
		err error
	)
	switch pp.Action {
	case queue.PaymentCreate:
		res, err = p.create(ctx, pp)
	case queue.PaymentCapture:
		res, err = p.capture(ctx, pp)
	case queue.PaymentRefund:
		res, err = p.refund(ctx, pp)
	case queue.PaymentCheckStatus:
		res, err = p.checkStatus(ctx, pp)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, pp.Action)
	}
	if err != nil {
		return nil, classify(err)
	}

	res.Action = pp.Action
	p.logger.InfoContext(ctx, "payment job processed",
		logger.JobID(job.ID),
		logger.PaymentID(res.PaymentID),
		logger.BookingID(res.BookingID),
		logStatus(res.Status),
	)
	return res, nil
}

func resultOf(pay *payment.Payment, bk *booking.Booking, changed bool) PaymentResult {
	r := PaymentResult{
		PaymentID:      pay.ID,
		BookingID:      pay.BookingID,
		Status:         pay.Status,
		Amount:         pay.Amount,
		RefundedAmount: pay.RefundedAmount,
		Changed:        changed,
	}
	if bk != nil {
		r.BookingStatus = bk.Status
	}
	return r
}

// PaymentKey is the idempotency key of a payment creation request.
func PaymentKey(bookingID string, amount int64) string {
	return idempotency.Key("payment", bookingID, strconv.FormatInt(amount, 10))
}

// create records a PENDING payment and moves the booking to PAYMENT_PENDING.
// A second request for the same booking and amount within the guard's TTL
// fails with idempotency.ErrDuplicateRequest.
func (p *PaymentProcessor) create(ctx context.Context, pp queue.PaymentPayload) (PaymentResult, error) {
	if pp.BookingID == "" {
		return PaymentResult{}, ErrMissingBookingID
	}
	if pp.Amount <= 0 {
		return PaymentResult{}, ErrInvalidAmount
	}

	bk, err := p.bookings.Get(ctx, pp.BookingID)
	if err != nil {
		return PaymentResult{}, err
	}
	if bk.Status != booking.StatusPaymentPending && !booking.Machine.Can(ctx, bk.Status, booking.EventRequestPayment, bk) {
		return PaymentResult{}, fmt.Errorf("%w: %s", ErrBookingNotPayable, bk.Status)
	}

	if err := p.guard.Acquire(ctx, PaymentKey(pp.BookingID, pp.Amount)); err != nil {
		return PaymentResult{}, err
	}

	now := p.now()
	pay, err := p.pendingPayment(ctx, bk.ID, pp.Amount)
	if err != nil {
		return PaymentResult{}, err
	}
	if pay == nil {
		currency := pp.Currency
		if currency == "" {
			currency = payment.DefaultCurrency
		}
		pay = &payment.Payment{
			ID:        p.newID(),
			BookingID: bk.ID,
			Amount:    pp.Amount,
			Currency:  currency,
			Status:    payment.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if pp.PaymentID != "" {
			pay.ID = pp.PaymentID
		}
		if err := p.payments.Create(ctx, pay); err != nil {
			return PaymentResult{}, err
		}
	}

	if bk.Status == booking.StatusPending {
		if err := booking.Apply(ctx, bk, booking.EventRequestPayment, now); err != nil {
			return PaymentResult{}, err
		}
		if err := p.bookings.Update(ctx, bk); err != nil {
			return PaymentResult{}, err
		}
	}

	p.notifyAfterCommit(ctx, p.notifier,
		p.bookingMessage(notification.TypePaymentRequest, bk, amountData(pay, pay.Amount)))
	return resultOf(pay, bk, true), nil
}

// pendingPayment returns the booking's latest payment when it is still
// PENDING for amount. A retried create job that committed the payment but
// failed afterwards picks it up instead of recording a second one.
func (p *PaymentProcessor) pendingPayment(ctx context.Context, bookingID string, amount int64) (*payment.Payment, error) {
	pay, err := p.payments.LatestForBooking(ctx, bookingID)
	switch {
	case errors.Is(err, payment.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	case pay.Status == payment.StatusPending && pay.Amount == amount:
		return pay, nil
	default:
		return nil, nil
	}
}

// capture completes a PENDING payment and confirms its booking.
func (p *PaymentProcessor) capture(ctx context.Context, pp queue.PaymentPayload) (PaymentResult, error) {
	pay, err := p.resolve(ctx, pp)
	if err != nil {
		return PaymentResult{}, err
	}

	now := p.now()
	if err := payment.Capture(ctx, pay, now); err != nil {
		return PaymentResult{}, err
	}
	if err := p.payments.Update(ctx, pay); err != nil {
		return PaymentResult{}, err
	}

	bk, err := p.bookings.Get(ctx, pay.BookingID)
	if err != nil {
		return PaymentResult{}, err
	}
	switch {
	case booking.Machine.Can(ctx, bk.Status, booking.EventConfirm, bk):
		if err := booking.Apply(ctx, bk, booking.EventConfirm, now); err != nil {
			return PaymentResult{}, err
		}
		if err := p.bookings.Update(ctx, bk); err != nil {
			return PaymentResult{}, err
		}
	case bk.Status != booking.StatusConfirmed:
		p.logger.WarnContext(ctx, "payment captured for booking that cannot be confirmed",
			logger.PaymentID(pay.ID),
			logger.BookingID(bk.ID),
			logStatus(bk.Status),
		)
	}

	p.notifyAfterCommit(ctx, p.notifier,
		p.bookingMessage(notification.TypePaymentConfirmation, bk, amountData(pay, pay.Amount)))
	return resultOf(pay, bk, true), nil
}

// refund returns part or all of a COMPLETED payment. Amount 0 refunds in full.
func (p *PaymentProcessor) refund(ctx context.Context, pp queue.PaymentPayload) (PaymentResult, error) {
	if pp.Amount < 0 {
		return PaymentResult{}, ErrInvalidAmount
	}
	pay, err := p.resolve(ctx, pp)
	if err != nil {
		return PaymentResult{}, err
	}

	refunded, err := payment.Refund(ctx, pay, pp.Amount, pp.Reason, p.now())
	if err != nil {
		return PaymentResult{}, err
	}
	if err := p.payments.Update(ctx, pay); err != nil {
		return PaymentResult{}, err
	}

	bk, err := p.bookings.Get(ctx, pay.BookingID)
	if err != nil {
		p.logger.WarnContext(ctx, "refund issued but booking could not be loaded for notification",
			logger.PaymentID(pay.ID),
			logger.Error(err),
		)
		return resultOf(pay, nil, true), nil
	}
	extra := amountData(pay, refunded)
	extra["Reason"] = pp.Reason
	p.notifyAfterCommit(ctx, p.notifier, p.bookingMessage(notification.TypeRefundIssued, bk, extra))
	return resultOf(pay, bk, true), nil
}

// checkStatus reports the payment and expires it when overdue.
func (p *PaymentProcessor) checkStatus(ctx context.Context, pp queue.PaymentPayload) (PaymentResult, error) {
	pay, err := p.resolve(ctx, pp)
	if err != nil {
		return PaymentResult{}, err
	}

	bk, err := p.bookings.Get(ctx, pay.BookingID)
	if err != nil && !errors.Is(err, booking.ErrNotFound) {
		return PaymentResult{}, err
	}
	changed, err := expirePayment(ctx, p.base, p.payments, p.bookings, p.notifier, pay, bk)
	if err != nil {
		return PaymentResult{}, err
	}
	return resultOf(pay, bk, changed), nil
}

// resolve loads the payment by id, or the latest payment of the booking.
func (p *PaymentProcessor) resolve(ctx context.Context, pp queue.PaymentPayload) (*payment.Payment, error) {
	switch {
	case pp.PaymentID != "":
		return p.payments.Get(ctx, pp.PaymentID)
	case pp.BookingID != "":
		return p.payments.LatestForBooking(ctx, pp.BookingID)
	default:
		return nil, ErrMissingPaymentRef
	}
}
