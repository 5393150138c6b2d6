package jobs

import (
	"time"

	"github.com/dmitrymomot/jobkit/pkg/queue"
	"github.com/dmitrymomot/jobkit/pkg/validator"
)

// MaxDelay is the longest delay_seconds a request may ask for.
const MaxDelay = 365 * 24 * time.Hour

// Schedule holds the optional enqueue controls shared by every request.
type Schedule struct {
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	DelaySeconds int64      `json:"delay_seconds,omitempty"`
	MaxRetries   *int64     `json:"max_retries,omitempty"`
}

func (s Schedule) rules() []validator.Rule {
	rules := []validator.Rule{
		validator.NonNegative("delay_seconds", s.DelaySeconds),
		maxDelay(s.DelaySeconds),
	}
	if s.MaxRetries != nil {
		rules = append(rules, validator.NonNegative("max_retries", *s.MaxRetries), maxRetries(*s.MaxRetries))
	}
	if s.ScheduledFor != nil && s.DelaySeconds > 0 {
		rules = append(rules, validator.Rule{
			Check: func() bool { return false },
			Error: validator.ValidationError{Field: "scheduled_for", Message: "cannot be combined with delay_seconds"},
		})
	}
	return rules
}

// at resolves the requested processing time against now, or nil for
// immediate processing.
func (s Schedule) at(now time.Time) *time.Time {
	switch {
	case s.ScheduledFor != nil:
		return s.ScheduledFor
	case s.DelaySeconds > 0:
		t := now.Add(time.Duration(s.DelaySeconds) * time.Second)
		return &t
	}
	return nil
}

func (s Schedule) options(now time.Time) []queue.EnqueueOption {
	var opts []queue.EnqueueOption
	if at := s.at(now); at != nil {
		opts = append(opts, queue.WithScheduledFor(*at))
	}
	if s.MaxRetries != nil {
		opts = append(opts, queue.WithMaxRetries(int(*s.MaxRetries)))
	}
	return opts
}

func maxDelay(seconds int64) validator.Rule {
	return validator.Rule{
		Check: func() bool { return seconds <= int64(MaxDelay/time.Second) },
		Error: validator.ValidationError{Field: "delay_seconds", Message: "must be at most one year"},
	}
}

func maxRetries(n int64) validator.Rule {
	return validator.Rule{
		Check: func() bool { return n <= 10 },
		Error: validator.ValidationError{Field: "max_retries", Message: "must be at most 10"},
	}
}

func anyOf(field string, values ...string) validator.Rule {
	return validator.Rule{
		Check: func() bool {
			for _, v := range values {
				if v != "" {
					return true
				}
			}
			return false
		},
		Error: validator.ValidationError{Field: field, Message: "at least one recipient is required"},
	}
}

// NotificationRequest is the body of POST /notifications.
type NotificationRequest struct {
	Job queue.NotificationPayload `json:"job"`
	Schedule
}

func (r NotificationRequest) validate() error {
	j := r.Job
	rules := []validator.Rule{
		validator.Required("job.notification_type", j.NotificationType),
		validator.MaxLen("job.notification_type", j.NotificationType, 64),
		anyOf("job.recipient", j.BookingID, j.RecipientEmail, j.RecipientPhone),
		validator.Email("job.recipient_email", j.RecipientEmail),
		validator.Phone("job.recipient_phone", j.RecipientPhone),
		validator.MaxLen("job.subject", j.Subject, 200),
		validator.EachOneOf("job.channels", j.Channels, queue.ChannelEmail, queue.ChannelSMS),
	}
	return validator.Apply(append(rules, r.rules()...)...)
}

// BookingRequest is the body of POST /bookings.
type BookingRequest struct {
	Job queue.BookingPayload `json:"job"`
	Schedule
}

func (r BookingRequest) validate() error {
	j := r.Job
	rules := []validator.Rule{
		validator.Required("job.booking_id", j.BookingID),
		validator.OneOf("job.action", j.Action,
			queue.BookingConfirm, queue.BookingCancel, queue.BookingReschedule,
			queue.BookingReminder, queue.BookingFollowUp, queue.BookingCheck,
		),
	}
	rules = append(rules, validator.When(j.Action == queue.BookingReschedule,
		validator.RequiredTime("job.metadata.new_date_time", j.Metadata.NewDateTime),
	)...)
	return validator.Apply(append(rules, r.rules()...)...)
}

// PaymentRequest is the body of POST /payments.
type PaymentRequest struct {
	Job queue.PaymentPayload `json:"job"`
	Schedule
}

func (r PaymentRequest) validate() error {
	j := r.Job
	rules := []validator.Rule{
		validator.OneOf("job.action", j.Action,
			queue.PaymentCreate, queue.PaymentCapture, queue.PaymentRefund, queue.PaymentCheckStatus,
		),
	}
	switch j.Action {
	case queue.PaymentCreate:
		rules = append(rules,
			validator.Required("job.booking_id", j.BookingID),
			validator.Positive("job.amount", j.Amount),
		)
	case queue.PaymentCapture:
		rules = append(rules, validator.Required("job.payment_id", j.PaymentID))
	case queue.PaymentRefund:
		rules = append(rules,
			validator.Required("job.payment_id", j.PaymentID),
			validator.NonNegative("job.amount", j.Amount),
		)
	case queue.PaymentCheckStatus:
		rules = append(rules, validator.Rule{
			Check: func() bool { return j.PaymentID != "" || j.BookingID != "" },
			Error: validator.ValidationError{Field: "job.payment_id", Message: "payment_id or booking_id is required"},
		})
	}
	return validator.Apply(append(rules, r.rules()...)...)
}
