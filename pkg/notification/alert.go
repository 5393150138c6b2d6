package notification

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dmitrymomot/jobkit/pkg/crm"
	"github.com/dmitrymomot/jobkit/pkg/logger"
)

// AlertMailer emails CRM failures that need operator attention.
// It implements crm.Alerter.
type AlertMailer struct {
	dispatcher *Dispatcher
	to         string
	logger     *slog.Logger
}

// NewAlertMailer sends alerts to the address to.
func NewAlertMailer(d *Dispatcher, to string, l *slog.Logger) *AlertMailer {
	if l == nil {
		l = slog.Default()
	}
	return &AlertMailer{dispatcher: d, to: to, logger: l}
}

// Alert sends one email per failure. Delivery errors are logged.
func (a *AlertMailer) Alert(ctx context.Context, apiErr *crm.APIError) {
	if a.to == "" || apiErr == nil {
		return
	}
	c := apiErr.Classification
	_, err := a.dispatcher.Send(ctx, Message{
		Type:     TypeOperatorAlert,
		Email:    a.to,
		Channels: []Channel{ChannelEmail},
		Data: map[string]string{
			"Method":     apiErr.Method,
			"Path":       apiErr.Path,
			"StatusCode": strconv.Itoa(c.StatusCode),
			"Category":   string(c.Category),
			"Attempts":   strconv.Itoa(apiErr.Attempts),
			"Message":    c.Message,
		},
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to email crm alert", logger.Error(err))
	}
}
