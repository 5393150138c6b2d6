package jobs

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/jobkit/pkg/booking"
	"github.com/dmitrymomot/jobkit/pkg/logger"
	"github.com/dmitrymomot/jobkit/pkg/notification"
	"github.com/dmitrymomot/jobkit/pkg/payment"
)

// expirePayment fails pay when it has been pending for longer than
// payment.PendingTTL, cancels the booking on the client's behalf and tells
// the customer. It reports whether anything changed.
func expirePayment(
	ctx context.Context,
	b base,
	payments payment.Repository,
	bookings booking.Repository,
	n Notifier,
	pay *payment.Payment,
	bk *booking.Booking,
) (bool, error) {
	now := b.now()
	if !pay.Expired(now) {
		return false, nil
	}

	if err := payment.Expire(ctx, pay, now); err != nil {
		return false, err
	}
	if err := payments.Update(ctx, pay); err != nil {
		return false, err
	}

	if bk != nil && !bk.Status.Terminal() {
		if err := booking.Apply(ctx, bk, booking.EventCancelByClient, now); err != nil {
			return true, err
		}
		bk.AppendNote(booking.CancellationNote("payment expired", now))
		if err := bookings.Update(ctx, bk); err != nil {
			return true, err
		}
	}

	b.logger.InfoContext(ctx, "pending payment expired",
		logger.PaymentID(pay.ID),
		logger.BookingID(pay.BookingID),
	)
	if bk != nil {
		b.notifyAfterCommit(ctx, n, b.bookingMessage(notification.TypePaymentExpired, bk, amountData(pay, pay.Amount)))
	}
	return true, nil
}

func logStatus[S ~string](s S) slog.Attr {
	return slog.String("status", string(s))
}
