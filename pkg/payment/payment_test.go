package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/payment"
)

var now = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func completed(amount int64) *payment.Payment {
	return &payment.Payment{ID: "p-1", BookingID: "b-1", Amount: amount, Currency: "USD", Status: payment.StatusCompleted}
}

func TestCaptureAndExpire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p := &payment.Payment{Status: payment.StatusPending}
	require.NoError(t, payment.Capture(ctx, p, now))
	assert.Equal(t, payment.StatusCompleted, p.Status)
	assert.ErrorIs(t, payment.Capture(ctx, p, now), payment.ErrIllegalTransition)

	p = &payment.Payment{Status: payment.StatusPending, CreatedAt: now.Add(-25 * time.Hour)}
	assert.True(t, p.Expired(now))
	require.NoError(t, payment.Expire(ctx, p, now))
	assert.Equal(t, payment.StatusFailed, p.Status)
	assert.Contains(t, p.Notes, "Expired")
	assert.False(t, p.Expired(now))

	fresh := &payment.Payment{Status: payment.StatusPending, CreatedAt: now.Add(-time.Hour)}
	assert.False(t, fresh.Expired(now))
}

func TestRefund(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("partial then full", func(t *testing.T) {
		t.Parallel()
		p := completed(100)

		n, err := payment.Refund(ctx, p, 40, "changed plans", now)
		require.NoError(t, err)
		assert.EqualValues(t, 40, n)
		assert.Equal(t, payment.StatusPartiallyRefunded, p.Status)
		assert.EqualValues(t, 40, p.RefundedAmount)
		assert.Equal(t, "Refund 0.40 USD: changed plans - 2025-06-01T09:30:00Z", p.Notes)

		_, err = payment.Refund(ctx, p, 60, "", now)
		assert.ErrorIs(t, err, payment.ErrIllegalTransition, "refund only from COMPLETED")
		assert.EqualValues(t, 40, p.RefundedAmount)
	})

	t.Run("zero amount refunds everything", func(t *testing.T) {
		t.Parallel()
		p := completed(2500)
		n, err := payment.Refund(ctx, p, 0, "", now)
		require.NoError(t, err)
		assert.EqualValues(t, 2500, n)
		assert.Equal(t, payment.StatusRefunded, p.Status)
		assert.Zero(t, p.Refundable())
	})

	t.Run("over refund", func(t *testing.T) {
		t.Parallel()
		p := completed(100)
		_, err := payment.Refund(ctx, p, 101, "", now)
		assert.ErrorIs(t, err, payment.ErrRefundExceedsAmount)
		assert.Equal(t, payment.StatusCompleted, p.Status)
	})

	t.Run("pending payment", func(t *testing.T) {
		t.Parallel()
		p := completed(100)
		p.Status = payment.StatusPending
		_, err := payment.Refund(ctx, p, 10, "", now)
		assert.ErrorIs(t, err, payment.ErrIllegalTransition)
	})
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "12.05 EUR", payment.FormatAmount(1205, "EUR"))
	assert.Equal(t, "-0.40 USD", payment.FormatAmount(-40, "USD"))
}

func TestMemoryRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := payment.NewMemoryRepository()

	_, err := repo.LatestForBooking(ctx, "b-1")
	assert.ErrorIs(t, err, payment.ErrNotFound)

	require.NoError(t, repo.Create(ctx, &payment.Payment{ID: "p-1", BookingID: "b-1", CreatedAt: now}))
	require.NoError(t, repo.Create(ctx, &payment.Payment{ID: "p-2", BookingID: "b-1", CreatedAt: now.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &payment.Payment{ID: "p-3", BookingID: "b-2", CreatedAt: now.Add(time.Hour)}))
	assert.ErrorIs(t, repo.Create(ctx, &payment.Payment{ID: "p-1"}), payment.ErrAlreadyExists)

	latest, err := repo.LatestForBooking(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, "p-2", latest.ID)

	latest.Status = payment.StatusCompleted
	require.NoError(t, repo.Update(ctx, latest))
	got, err := repo.Get(ctx, "p-2")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, got.Status)

	assert.ErrorIs(t, repo.Update(ctx, &payment.Payment{ID: "x"}), payment.ErrNotFound)
}

type fakeRow struct{ err error }

func (r fakeRow) Scan(...any) error { return r.err }

type fakeDB struct {
	rowErr  error
	execTag string
	execErr error
}

func (f *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(f.execTag), f.execErr
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return fakeRow{err: f.rowErr}
}

func TestPostgresRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := payment.NewPostgresRepository(&fakeDB{rowErr: pgx.ErrNoRows}).LatestForBooking(ctx, "b-1")
	assert.ErrorIs(t, err, payment.ErrNotFound)

	err = payment.NewPostgresRepository(&fakeDB{execErr: &pgconn.PgError{Code: "23503"}}).
		Create(ctx, &payment.Payment{ID: "p-1", BookingID: "ghost"})
	assert.ErrorIs(t, err, payment.ErrBookingNotFound)

	err = payment.NewPostgresRepository(&fakeDB{execTag: "UPDATE 0"}).Update(ctx, &payment.Payment{ID: "p-1"})
	assert.ErrorIs(t, err, payment.ErrNotFound)
}
