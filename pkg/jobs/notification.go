package jobs

import (
	"context"
	"errors"

	"github.com/dmitrymomot/jobkit/pkg/booking"
	"github.com/dmitrymomot/jobkit/pkg/logger"
	"github.com/dmitrymomot/jobkit/pkg/notification"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

// NotificationProcessor handles notification jobs.
type NotificationProcessor struct {
	base
	bookings booking.Repository
	notifier Notifier
}

// NewNotificationProcessor creates the notification job handler.
func NewNotificationProcessor(bookings booking.Repository, n Notifier, opts ...Option) (*NotificationProcessor, error) {
	if bookings == nil {
		return nil, ErrRepositoryNil
	}
	if n == nil {
		return nil, ErrNotifierNil
	}
	return &NotificationProcessor{
		base:     newBase("notification-processor", opts),
		bookings: bookings,
		notifier: n,
	}, nil
}

// HandleNotification delivers the payload. An explicit recipient wins over
// the booking's customer contact. Transport failures are retried; a missing
// recipient is not.
func (p *NotificationProcessor) HandleNotification(ctx context.Context, job *queue.Job, np queue.NotificationPayload) (any, error) {
	m := notification.Message{
		Type:      notification.Type(np.NotificationType),
		BookingID: np.BookingID,
		Email:     np.RecipientEmail,
		Phone:     np.RecipientPhone,
		Subject:   np.Subject,
		Body:      np.Message,
		Data:      map[string]string{},
	}
	for _, ch := range np.Channels {
		m.Channels = append(m.Channels, notification.Channel(ch))
	}

	if np.BookingID != "" {
		bk, err := p.bookings.Get(ctx, np.BookingID)
		switch {
		case errors.Is(err, booking.ErrNotFound):
			if !m.HasRecipient() {
				return nil, classify(errors.Join(ErrRecipientNotFound, err))
			}
		case err != nil:
			return nil, err
		default:
			m.Data = p.bookingData(bk)
			m.FirstName = bk.FirstName()
			if !m.HasRecipient() {
				m.Email, m.Phone = bk.CustomerEmail, bk.CustomerPhone
			}
		}
	}
	for k, v := range np.TemplateData {
		m.Data[k] = v
	}

	delivery, err := p.notifier.Send(ctx, m)
	if err != nil {
		p.logger.WarnContext(ctx, "notification failed",
			logger.JobID(job.ID),
			logger.BookingID(np.BookingID),
			logger.Error(err),
		)
		return delivery, classify(err)
	}
	return delivery, nil
}
