package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/jobkit/pkg/email"
	"github.com/dmitrymomot/jobkit/pkg/logger"
)

// SMSSender delivers a text message to the recipient of m.
type SMSSender interface {
	SendSMS(ctx context.Context, m Message, body string) error
}

// Dispatcher renders messages and sends them over the requested channels.
type Dispatcher struct {
	email    email.EmailSender
	sms      SMSSender
	renderer *Renderer
	logger   *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSMSSender enables the SMS channel.
func WithSMSSender(s SMSSender) DispatcherOption {
	return func(d *Dispatcher) { d.sms = s }
}

// WithRenderer replaces the default renderer.
func WithRenderer(r *Renderer) DispatcherOption {
	return func(d *Dispatcher) {
		if r != nil {
			d.renderer = r
		}
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a dispatcher. Without an SMS sender the SMS channel
// is skipped.
func NewDispatcher(sender email.EmailSender, opts ...DispatcherOption) (*Dispatcher, error) {
	if sender == nil {
		return nil, ErrEmailSenderNil
	}
	d := &Dispatcher{email: sender, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	if d.renderer == nil {
		r, err := NewRenderer("")
		if err != nil {
			return nil, err
		}
		d.renderer = r
	}
	d.logger = d.logger.With(logger.Component("notification"))
	return d, nil
}

// Send delivers m on each of its channels (email when none are set).
// A channel whose address is missing is skipped. Send fails with
// ErrRecipientNotFound when m has no address at all, and with
// ErrDeliveryFailed when no channel could be delivered. Failures on some
// channels while others succeed are reported in Delivery only.
func (d *Dispatcher) Send(ctx context.Context, m Message) (Delivery, error) {
	if !m.HasRecipient() {
		return Delivery{}, ErrRecipientNotFound
	}

	content, err := d.render(m)
	if err != nil {
		return Delivery{}, err
	}

	var (
		res    Delivery
		failed map[Channel]error
	)
	for _, ch := range m.channels() {
		err := d.deliver(ctx, ch, m, content)
		switch {
		case errors.Is(err, errSkipped):
			res.Skipped = append(res.Skipped, ch)
		case err != nil:
			if res.Failed == nil {
				res.Failed = make(map[Channel]string)
			}
			res.Failed[ch] = err.Error()
			if failed == nil {
				failed = make(map[Channel]error)
			}
			failed[ch] = err
			d.logger.WarnContext(ctx, "notification channel failed",
				slog.String("type", string(m.Type)),
				slog.String("channel", string(ch)),
				logger.BookingID(m.BookingID),
				logger.Error(err),
			)
		default:
			res.Sent = append(res.Sent, ch)
		}
	}

	if len(res.Sent) == 0 {
		if len(failed) == 0 {
			return res, ErrRecipientNotFound
		}
		return res, &DeliveryError{Channels: failed}
	}

	d.logger.InfoContext(ctx, "notification sent",
		slog.String("type", string(m.Type)),
		slog.Any("channels", res.Sent),
		logger.BookingID(m.BookingID),
	)
	return res, nil
}

var errSkipped = errors.New("skipped")

func (d *Dispatcher) deliver(ctx context.Context, ch Channel, m Message, content Rendered) error {
	switch ch {
	case ChannelEmail:
		if m.Email == "" {
			return errSkipped
		}
		return d.email.SendEmail(ctx, email.SendEmailParams{
			SendTo:   m.Email,
			Subject:  content.Subject,
			BodyHTML: content.HTML,
			BodyText: content.Text,
			Tag:      string(m.Type),
		})
	case ChannelSMS:
		if m.Phone == "" || d.sms == nil {
			return errSkipped
		}
		return d.sms.SendSMS(ctx, m, content.Text)
	default:
		return errSkipped
	}
}

// render picks the type's templates unless the message carries its own
// subject and body.
func (d *Dispatcher) render(m Message) (Rendered, error) {
	data := make(map[string]string, len(m.Data)+4)
	for k, v := range m.Data {
		data[k] = v
	}
	if m.FirstName != "" {
		data["FirstName"] = m.FirstName
	}
	if data["FirstName"] == "" {
		data["FirstName"] = "there"
	}
	if m.BookingID != "" {
		data["BookingID"] = m.BookingID
	}

	if m.Body != "" || !d.renderer.Has(m.Type) {
		if m.Body == "" {
			return Rendered{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, m.Type)
		}
		data["Subject"] = m.Subject
		data["Message"] = m.Body
		out, err := d.renderer.Render(TypeCustom, data)
		if err != nil {
			return Rendered{}, err
		}
		if out.Subject == "" {
			out.Subject = string(m.Type)
		}
		return out, nil
	}

	out, err := d.renderer.Render(m.Type, data)
	if err != nil {
		return Rendered{}, err
	}
	if m.Subject != "" {
		out.Subject = m.Subject
	}
	return out, nil
}
