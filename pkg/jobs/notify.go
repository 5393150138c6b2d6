package jobs

import (
	"context"

	"github.com/dmitrymomot/jobkit/pkg/booking"
	"github.com/dmitrymomot/jobkit/pkg/logger"
	"github.com/dmitrymomot/jobkit/pkg/notification"
	"github.com/dmitrymomot/jobkit/pkg/payment"
)

// bookingData is the template data every booking notification carries.
func (b base) bookingData(bk *booking.Booking) map[string]string {
	return map[string]string{
		"BookingID":   bk.ID,
		"FirstName":   bk.FirstName(),
		"ServiceName": bk.ServiceName,
		"DateTime":    b.formatTime(bk.ScheduledDateTime),
	}
}

func (b base) bookingMessage(t notification.Type, bk *booking.Booking, extra map[string]string) notification.Message {
	data := b.bookingData(bk)
	for k, v := range extra {
		data[k] = v
	}
	channels := []notification.Channel{notification.ChannelEmail}
	if bk.CustomerPhone != "" {
		channels = append(channels, notification.ChannelSMS)
	}
	return notification.Message{
		Type:      t,
		BookingID: bk.ID,
		Email:     bk.CustomerEmail,
		Phone:     bk.CustomerPhone,
		FirstName: bk.FirstName(),
		Channels:  channels,
		Data:      data,
	}
}

func amountData(p *payment.Payment, amount int64) map[string]string {
	return map[string]string{
		"PaymentID": p.ID,
		"Amount":    payment.FormatAmount(amount, p.Currency),
	}
}

// notifyAfterCommit sends m once the state change it reports is stored.
// Failures are logged: the job already did its work and must not repeat it.
func (b base) notifyAfterCommit(ctx context.Context, n Notifier, m notification.Message) bool {
	if _, err := n.Send(ctx, m); err != nil {
		b.logger.WarnContext(ctx, "notification after state change failed",
			logger.BookingID(m.BookingID),
			logger.Action(string(m.Type)),
			logger.Error(err),
		)
		return false
	}
	return true
}
