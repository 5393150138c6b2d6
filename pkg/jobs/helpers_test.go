package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/booking"
	"github.com/dmitrymomot/jobkit/pkg/crm"
	"github.com/dmitrymomot/jobkit/pkg/idempotency"
	"github.com/dmitrymomot/jobkit/pkg/jobs"
	"github.com/dmitrymomot/jobkit/pkg/logger"
	"github.com/dmitrymomot/jobkit/pkg/notification"
	"github.com/dmitrymomot/jobkit/pkg/payment"
	"github.com/dmitrymomot/jobkit/pkg/queue"
)

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (r *recordingNotifier) Send(_ context.Context, m notification.Message) (notification.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return notification.Delivery{}, r.err
	}
	if !m.HasRecipient() {
		return notification.Delivery{}, notification.ErrRecipientNotFound
	}
	r.sent = append(r.sent, m)
	return notification.Delivery{Sent: []notification.Channel{notification.ChannelEmail}}, nil
}

func (r *recordingNotifier) types() []notification.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.Type, 0, len(r.sent))
	for _, m := range r.sent {
		out = append(out, m.Type)
	}
	return out
}

func (r *recordingNotifier) last() notification.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return notification.Message{}
	}
	return r.sent[len(r.sent)-1]
}

type MockCRM struct {
	mock.Mock
}

func (m *MockCRM) UpsertContact(ctx context.Context, c crm.Contact) (string, error) {
	args := m.Called(ctx, c)
	return args.String(0), args.Error(1)
}

func (m *MockCRM) AddContactTags(ctx context.Context, contactID string, tags ...string) error {
	args := m.Called(ctx, contactID, tags)
	return args.Error(0)
}

func (m *MockCRM) CreateAppointment(ctx context.Context, a crm.Appointment) (string, error) {
	args := m.Called(ctx, a)
	return args.String(0), args.Error(1)
}

type fixture struct {
	bookings *booking.MemoryRepository
	payments *payment.MemoryRepository
	notifier *recordingNotifier
	guard    *idempotency.Guard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	guard, err := idempotency.NewGuard(idempotency.NewMemoryStore(clock), idempotency.WithLogger(logger.Discard()))
	require.NoError(t, err)
	return &fixture{
		bookings: booking.NewMemoryRepository(),
		payments: payment.NewMemoryRepository(),
		notifier: &recordingNotifier{},
		guard:    guard,
	}
}

func (f *fixture) seedBooking(t *testing.T, id string, status booking.Status) *booking.Booking {
	t.Helper()
	b := &booking.Booking{
		ID:                id,
		Status:            status,
		ScheduledDateTime: now.Add(72 * time.Hour),
		CustomerName:      "Ada Lovelace",
		CustomerEmail:     "ada@example.com",
		ServiceName:       "Loan signing",
		CreatedAt:         now.Add(-time.Hour),
		UpdatedAt:         now.Add(-time.Hour),
	}
	require.NoError(t, f.bookings.Create(context.Background(), b))
	return b
}

func (f *fixture) seedPayment(t *testing.T, id, bookingID string, status payment.Status, amount int64, created time.Time) {
	t.Helper()
	require.NoError(t, f.payments.Create(context.Background(), &payment.Payment{
		ID:        id,
		BookingID: bookingID,
		Amount:    amount,
		Currency:  "USD",
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	}))
}

func (f *fixture) booking(t *testing.T, id string) *booking.Booking {
	t.Helper()
	b, err := f.bookings.Get(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) payment(t *testing.T, id string) *payment.Payment {
	t.Helper()
	p, err := f.payments.Get(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (f *fixture) bookingProcessor(t *testing.T, opts ...jobs.Option) *jobs.BookingProcessor {
	t.Helper()
	opts = append([]jobs.Option{jobs.WithClock(clock), jobs.WithLogger(logger.Discard())}, opts...)
	p, err := jobs.NewBookingProcessor(f.bookings, f.payments, f.notifier, opts...)
	require.NoError(t, err)
	return p
}

func (f *fixture) paymentProcessor(t *testing.T, opts ...jobs.Option) *jobs.PaymentProcessor {
	t.Helper()
	opts = append([]jobs.Option{jobs.WithClock(clock), jobs.WithLogger(logger.Discard())}, opts...)
	p, err := jobs.NewPaymentProcessor(f.payments, f.bookings, f.notifier, f.guard, opts...)
	require.NoError(t, err)
	return p
}

func job(id string) *queue.Job {
	return &queue.Job{ID: id, MaxRetries: queue.DefaultMaxRetries}
}

var errTransient = errors.New("connection reset")

// flakyPayments fails the first failCreates Create calls.
type flakyPayments struct {
	*payment.MemoryRepository
	mu          sync.Mutex
	failCreates int
}

func (r *flakyPayments) Create(ctx context.Context, p *payment.Payment) error {
	r.mu.Lock()
	if r.failCreates > 0 {
		r.failCreates--
		r.mu.Unlock()
		return errTransient
	}
	r.mu.Unlock()
	return r.MemoryRepository.Create(ctx, p)
}

// flakyBookings fails the first failUpdates Update calls.
type flakyBookings struct {
	*booking.MemoryRepository
	mu          sync.Mutex
	failUpdates int
}

func (r *flakyBookings) Update(ctx context.Context, b *booking.Booking) error {
	r.mu.Lock()
	if r.failUpdates > 0 {
		r.failUpdates--
		r.mu.Unlock()
		return errTransient
	}
	r.mu.Unlock()
	return r.MemoryRepository.Update(ctx, b)
}
