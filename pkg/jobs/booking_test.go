package jobs_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
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

func TestNewBookingProcessor(t *testing.T) {
	t.Parallel()

	_, err := jobs.NewBookingProcessor(nil, payment.NewMemoryRepository(), &recordingNotifier{})
	assert.ErrorIs(t, err, jobs.ErrRepositoryNil)

	_, err = jobs.NewBookingProcessor(booking.NewMemoryRepository(), payment.NewMemoryRepository(), nil)
	assert.ErrorIs(t, err, jobs.ErrNotifierNil)
}

func TestBookingProcessor_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	f.seedBooking(t, "b-1", booking.StatusPending)
	p := f.bookingProcessor(t)

	tests := []struct {
		name    string
		payload queue.BookingPayload
		target  error
	}{
		{"missing id", queue.BookingPayload{Action: queue.BookingConfirm}, jobs.ErrMissingBookingID},
		{"unknown booking", queue.BookingPayload{BookingID: "nope", Action: queue.BookingConfirm}, booking.ErrNotFound},
		{"unknown action", queue.BookingPayload{BookingID: "b-1", Action: "archive"}, jobs.ErrUnknownAction},
		{"reschedule without time", queue.BookingPayload{BookingID: "b-1", Action: queue.BookingReschedule}, jobs.ErrMissingDateTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.HandleBooking(ctx, job("j"), tt.payload)
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, queue.IsPermanent(err))
		})
	}
}

func TestBookingProcessor_Confirm(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("pending to confirmed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.seedBooking(t, "b-1", booking.StatusPaymentPending)
		p := f.bookingProcessor(t)

		v, err := p.HandleBooking(ctx, job("j"), queue.BookingPayload{
			BookingID: "b-1",
			Action:    queue.BookingConfirm,
			Metadata:  queue.BookingMetadata{AssignedAgentID: "agent-7"},
		})
		require.NoError(t, err)

		res := v.(jobs.BookingResult)
		assert.True(t, res.Changed)
		assert.True(t, res.Notified)
		assert.Equal(t, booking.StatusConfirmed, res.Status)

		b := f.booking(t, "b-1")
		assert.Equal(t, booking.StatusConfirmed, b.Status)
		assert.Equal(t, "agent-7", b.AssignedAgentID)
		assert.Equal(t, now, b.UpdatedAt)
		assert.Equal(t, []notification.Type{notification.TypeBookingConfirmation}, f.notifier.types())
		assert.Equal(t, "Ada", f.notifier.last().FirstName)
	})

	t.Run("already confirmed is a no-op", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.seedBooking(t, "b-1", booking.StatusConfirmed)

		v, err := f.bookingProcessor(t).HandleBooking(ctx, job("j"), queue.BookingPayload{BookingID: "b-1", Action: queue.BookingConfirm})
		require.NoError(t, err)
		assert.False(t, v.(jobs.BookingResult).Changed)
		assert.Empty(t, f.notifier.types())
	})

	t.Run("cancelled booking cannot be confirmed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.seedBooking(t, "b-1", booking.StatusCancelledByClient)

		_, err := f.bookingProcessor(t).HandleBooking(ctx, job("j"), queue.BookingPayload{BookingID: "b-1", Action: queue.BookingConfirm})
		assert.ErrorIs(t, err, booking.ErrIllegalTransition)
		assert.True(t, queue.IsPermanent(err))
		assert.Equal(t, booking.StatusCancelledByClient, f.booking(t, "b-1").Status)
	})

	t.Run("notification failure does not fail the job", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.notifier.err = errors.New("smtp down")
		f.seedBooking(t, "b-1", booking.StatusPending)

		v, err := f.bookingProcessor(t).HandleBooking(ctx, job("j"), queue.BookingPayload{BookingID: "b-1", Action: queue.BookingConfirm})
		require.NoError(t, err)
		assert.False(t, v.(jobs.BookingResult).Notified)
		assert.Equal(t, booking.StatusConfirmed, f.booking(t, "b-1").Status)
	})
}

func TestBookingProcessor_Cancel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name     string
		metadata queue.BookingMetadata
		want     booking.Status
	}{
		{"by client", queue.BookingMetadata{Reason: "changed plans"}, booking.StatusCancelledByClient},
		{"by staff flag", queue.BookingMetadata{Reason: "agent sick", CancelledByStaff: true}, booking.StatusCancelledByStaff},
		{"by staff actor", queue.BookingMetadata{Actor: "staff"}, booking.StatusCancelledByStaff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.seedBooking(t, "b-1", booking.StatusConfirmed)

			_, err := f.bookingProcessor(t).HandleBooking(ctx, job("j"), queue.BookingPayload{
				BookingID: "b-1",
				Action:    queue.BookingCancel,
				Metadata:  tt.metadata,
			})
			require.NoError(t, err)

			b := f.booking(t, "b-1")
			assert.Equal(t, tt.want, b.Status)
			assert.Contains(t, b.Notes, "Cancellation: ")
			assert.Contains(t, b.Notes, " - 2025-06-01T09:00:00Z")
			assert.Equal(t, []notification.Type{notification.TypeBookingCancelled}, f.notifier.types())
		})
	}

	t.Run("already cancelled is a no-op", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.seedBooking(t, "b-1", booking.StatusCancelledByClient)

		v, err := f.bookingProcessor(t).HandleBooking(ctx, job("j"), queue.BookingPayload{
			BookingID: "b-1",
			Action:    queue.BookingCancel,
			Metadata:  queue.BookingMetadata{CancelledByStaff: true},
		})
		require.NoError(t, err)
		assert.False(t, v.(jobs.BookingResult).Changed)
		assert.Equal(t, booking.StatusCancelledByClient, f.booking(t, "b-1").Status)
		assert.Empty(t, f.booking(t, "b-1").Notes)
	})

	t.Run("completed booking", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.seedBooking(t, "b-1", booking.StatusCompleted)

		_, err := f.bookingProcessor(t).HandleBooking(ctx, job("j"), queue.BookingPayload{BookingID: "b-1", Action: queue.BookingCancel})
		assert.ErrorIs(t, err, booking.ErrIllegalTransition)
		assert.True(t, queue.IsPermanent(err))
	})
}

func TestBookingProcessor_Reschedule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t)
	f.seedBooking(t, "b-1", booking.StatusConfirmed)
	p := f.bookingProcessor(t)

	to := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	payload := queue.BookingPayload{
		BookingID: "b-1",
		Action:    queue.BookingReschedule,
		Metadata:  queue.BookingMetadata{NewDateTime: &to},
	}

	v, err := p.HandleBooking(ctx, job("j"), payload)
	require.NoError(t, err)
	assert.True(t, v.(jobs.BookingResult).Changed)

	b := f.booking(t, "b-1")
	assert.Equal(t, booking.StatusConfirmed, b.Status)
	assert.True(t, to.Equal(b.ScheduledDateTime))
	assert.Equal(t, "Rescheduled to 2025-06-10T15:00:00Z - 2025-06-01T09:00:00Z", b.Notes)

	// Running the same job again changes nothing.
	v, err = p.HandleBooking(ctx, job("j"), payload)
	require.NoError(t, err)
	assert.False(t, v.(jobs.BookingResult).Changed)
	assert.Equal(t, "Rescheduled to 2025-06-10T15:00:00Z - 2025-06-01T09:00:00Z", f.booking(t, "b-1").Notes)
	assert.Equal(t, []notification.Type{notification.TypeBookingRescheduled}, f.notifier.types())
}

func TestBookingProcessor_Reminders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("reminder and follow-up", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.seedBooking(t, "b-1", booking.StatusConfirmed)
		p := f.bookingProcessor(t)

		_, err := p.HandleBooking(ctx, job("j1"), queue.BookingPayload{BookingID: "b-1", Action: queue.BookingReminder})
		require.NoError(t, err)
		_, err = p.HandleBooking(ctx, job("j2"), queue.BookingPayload{BookingID: "b-1", Action: queue.BookingFollowUp})
		require.NoError(t, err)

		assert.Equal(t, []notification.Type{
			notification.TypeAppointmentReminder,
			notification.TypePostServiceFollowUp,
		}, f.notifier.types())
		assert.Equal(t, "Loan signing", f.notifier.last().Data["ServiceName"])
		assert.Equal(t, "Wednesday, June 4 at 9:00 AM UTC", f.notifier.last().Data["DateTime"])
	})

	t.Run("delivery failure is retryable", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.notifier.err = errors.New("smtp down")
		f.seedBooking(t, "b-1", booking.StatusConfirmed)

		_, err := f.bookingProcessor(t).HandleBooking(ctx, job("j"), queue.BookingPayload{BookingID: "b-1", Action: queue.BookingReminder})
		require.Error(t, err)
		assert.False(t, queue.IsPermanent(err))
	})

	t.Run("cancelled booking is skipped", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.seedBooking(t, "b-1", booking.StatusCancelledByStaff)

		_, err := f.bookingProcessor(t).HandleBooking(ctx, job("j"), queue.BookingPayload{BookingID: "b-1", Action: queue.BookingReminder})
		require.NoError(t, err)
		assert.Empty(t, f.notifier.types())
	})
}

func TestBookingProcessor_PaymentCheck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("expires stale pending payment", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.seedBooking(t, "b-1", booking.StatusPaymentPending)
		f.seedPayment(t, "p-old", "b-1", payment.StatusPending, 5000, now.Add(-25*time.Hour))

		v, err := f.bookingProcessor(t).HandleBooking(ctx, job("j"), queue.BookingPayload{BookingID: "b-1", Action: queue.BookingCheck})
		require.NoError(t, err)

		res := v.(jobs.BookingResult)
		assert.True(t, res.Changed)
		assert.Equal(t, payment.StatusFailed, res.PaymentStatus)
		assert.Equal(t, booking.StatusCancelledByClient, res.Status)

		assert.Equal(t, payment.StatusFailed, f.payment(t, "p-old").Status)
		b := f.booking(t, "b-1")
		assert.Equal(t, booking.StatusCancelledByClient, b.Status)
		assert.Contains(t, b.Notes, "Cancellation: payment expired")
		assert.Equal(t, []notification.Type{notification.TypePaymentExpired}, f.notifier.types())
		assert.Equal(t, "50.00 USD", f.notifier.last().Data["Amount"])
	})

	t.Run("recent payment is left alone", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.seedBooking(t, "b-1", booking.StatusPaymentPending)
		f.seedPayment(t, "p-1", "b-1", payment.StatusPending, 5000, now.Add(-2*time.Hour))

		v, err := f.bookingProcessor(t).HandleBooking(ctx, job("j"), queue.BookingPayload{BookingID: "b-1", Action: queue.BookingCheck})
		require.NoError(t, err)
		res := v.(jobs.BookingResult)
		assert.False(t, res.Changed)
		assert.Equal(t, payment.StatusPending, res.PaymentStatus)
		assert.Equal(t, booking.StatusPaymentPending, f.booking(t, "b-1").Status)
	})

	t.Run("no payment", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.seedBooking(t, "b-1", booking.StatusPending)

		v, err := f.bookingProcessor(t).HandleBooking(ctx, job("j"), queue.BookingPayload{BookingID: "b-1", Action: queue.BookingCheck})
		require.NoError(t, err)
		assert.Empty(t, v.(jobs.BookingResult).PaymentID)
	})
}

func TestBookingProcessor_CRMSync(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("confirm upserts, tags and books appointment", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		seeded := f.seedBooking(t, "b-1", booking.StatusPending)

		c := new(MockCRM)
		defer c.AssertExpectations(t)
		c.On("UpsertContact", mock.Anything, mock.MatchedBy(func(ct crm.Contact) bool {
			return ct.Email == "ada@example.com" && ct.Name == "Ada Lovelace"
		})).Return("c-1", nil).Once()
		c.On("AddContactTags", mock.Anything, "c-1",
			[]string{"Booking:Confirmed", "Status:Booking_Confirmed", "Service:Loan signing"}).Return(nil).Once()
		c.On("CreateAppointment", mock.Anything, mock.MatchedBy(func(a crm.Appointment) bool {
			return a.ContactID == "c-1" && a.Start.Equal(seeded.ScheduledDateTime) && a.End.Sub(a.Start) == time.Hour
		})).Return("appt-1", nil).Once()

		_, err := f.bookingProcessor(t, jobs.WithCRM(c)).HandleBooking(ctx, job("j"),
			queue.BookingPayload{BookingID: "b-1", Action: queue.BookingConfirm})
		require.NoError(t, err)

		b := f.booking(t, "b-1")
		assert.Equal(t, "c-1", b.CRMContactID)
		assert.Equal(t, "appt-1", b.CRMAppointmentID)
	})

	t.Run("retry completes the mirror through the guarded client", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.seedBooking(t, "b-1", booking.StatusPending)

		var apptCalls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch {
			case r.URL.Path == "/contacts/upsert":
				_, _ = w.Write([]byte(`{"contact":{"id":"c-1"}}`))
			case strings.HasSuffix(r.URL.Path, "/tags"):
				_, _ = w.Write([]byte(`{}`))
			case r.URL.Path == "/calendars/events/appointments":
				if apptCalls.Add(1) <= 4 {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				_, _ = w.Write([]byte(`{"id":"appt-1"}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		t.Cleanup(srv.Close)

		client, err := crm.New(crm.Config{
			BaseURL:    srv.URL,
			Token:      "pit-test",
			LocationID: "loc-1",
			CalendarID: "cal-1",
		},
			crm.WithGuard(f.guard),
			crm.WithSleeper(func(context.Context, time.Duration) error { return nil }),
			crm.WithLogger(logger.Discard()),
		)
		require.NoError(t, err)

		p := f.bookingProcessor(t, jobs.WithCRM(client))
		payload := queue.BookingPayload{BookingID: "b-1", Action: queue.BookingConfirm}

		_, err = p.HandleBooking(ctx, job("j"), payload)
		require.Error(t, err)
		assert.False(t, queue.IsPermanent(err))
		assert.EqualValues(t, 4, apptCalls.Load())
		assert.Equal(t, booking.StatusConfirmed, f.booking(t, "b-1").Status)

		_, err = p.HandleBooking(ctx, job("j"), payload)
		require.NoError(t, err)
		assert.EqualValues(t, 5, apptCalls.Load())
		assert.Equal(t, "appt-1", f.booking(t, "b-1").CRMAppointmentID)
		assert.Equal(t, []notification.Type{notification.TypeBookingConfirmation}, f.notifier.types())

		// Another job for the same contact and slot is still a duplicate.
		f.seedBooking(t, "b-2", booking.StatusPending)
		_, err = p.HandleBooking(ctx, job("j2"), queue.BookingPayload{BookingID: "b-2", Action: queue.BookingConfirm})
		assert.ErrorIs(t, err, idempotency.ErrDuplicateRequest)
		assert.True(t, queue.IsPermanent(err))
		assert.EqualValues(t, 5, apptCalls.Load())
	})

	t.Run("duplicate appointment is permanent", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.seedBooking(t, "b-1", booking.StatusPending)

		c := new(MockCRM)
		c.On("UpsertContact", mock.Anything, mock.Anything).Return("c-1", nil)
		c.On("AddContactTags", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		c.On("CreateAppointment", mock.Anything, mock.Anything).Return("", idempotency.ErrDuplicateRequest)

		_, err := f.bookingProcessor(t, jobs.WithCRM(c)).HandleBooking(ctx, job("j"),
			queue.BookingPayload{BookingID: "b-1", Action: queue.BookingConfirm})
		assert.ErrorIs(t, err, idempotency.ErrDuplicateRequest)
		assert.True(t, queue.IsPermanent(err))
	})

	t.Run("cancel tags only", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		b := f.seedBooking(t, "b-1", booking.StatusConfirmed)
		b.CRMContactID = "c-9"
		require.NoError(t, f.bookings.Update(ctx, b))

		c := new(MockCRM)
		defer c.AssertExpectations(t)
		c.On("AddContactTags", mock.Anything, "c-9",
			[]string{"Booking:Cancelled", "Status:Booking_Cancelled", "Service:Loan signing"}).Return(nil).Once()

		_, err := f.bookingProcessor(t, jobs.WithCRM(c)).HandleBooking(ctx, job("j"),
			queue.BookingPayload{BookingID: "b-1", Action: queue.BookingCancel})
		require.NoError(t, err)
	})
}
