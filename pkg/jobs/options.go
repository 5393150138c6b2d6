package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/jobkit/pkg/crm"
	"github.com/dmitrymomot/jobkit/pkg/logger"
	"github.com/dmitrymomot/jobkit/pkg/notification"
)

// Notifier delivers notifications. *notification.Dispatcher implements it.
type Notifier interface {
	Send(ctx context.Context, m notification.Message) (notification.Delivery, error)
}

// CRM is the part of the CRM client used to mirror bookings.
// *crm.Client implements it.
type CRM interface {
	UpsertContact(ctx context.Context, c crm.Contact) (string, error)
	AddContactTags(ctx context.Context, contactID string, tags ...string) error
	CreateAppointment(ctx context.Context, a crm.Appointment) (string, error)
}

// Option configures a processor.
type Option func(*base)

// WithLogger sets the processor logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIDGenerator overrides uuid generation for new records.
func WithIDGenerator(fn func() string) Option {
	return func(b *base) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// WithCRM enables CRM sync. A nil client leaves it disabled.
func WithCRM(c CRM) Option {
	return func(b *base) { b.crm = c }
}

// WithLocation sets the zone used to format dates in notifications.
func WithLocation(loc *time.Location) Option {
	return func(b *base) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// WithAppointmentDuration sets the CRM appointment length.
func WithAppointmentDuration(d time.Duration) Option {
	return func(b *base) {
		if d > 0 {
			b.appointmentDuration = d
		}
	}
}

// DefaultAppointmentDuration is used for CRM appointments.
const DefaultAppointmentDuration = time.Hour

const dateTimeLayout = "Monday, January 2 at 3:04 PM MST"

type base struct {
	logger              *slog.Logger
	now                 func() time.Time
	newID               func() string
	crm                 CRM
	loc                 *time.Location
	appointmentDuration time.Duration
}

func newBase(component string, opts []Option) base {
	b := base{
		logger:              slog.Default(),
		now:                 time.Now,
		newID:               uuid.NewString,
		loc:                 time.UTC,
		appointmentDuration: DefaultAppointmentDuration,
	}
	for _, opt := range opts {
		opt(&b)
	}
	b.logger = b.logger.With(logger.Component(component))
	return b
}

func (b base) formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(b.loc).Format(dateTimeLayout)
}
