package payment

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/jobkit/pkg/pg"
)

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores payments in the payments table.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a repository over db.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const paymentColumns = `id, booking_id, amount, refunded_amount, currency, status, provider, notes, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.BookingID, &p.Amount, &p.RefundedAmount, &p.Currency,
		&p.Status, &p.Provider, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if pg.IsNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment %s: %w", id, err)
	}
	return p, nil
}

func (r *PostgresRepository) LatestForBooking(ctx context.Context, bookingID string) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 ORDER BY created_at DESC LIMIT 1`, bookingID))
	if pg.IsNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest payment for booking %s: %w", bookingID, err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *Payment) error {
	if p.ID == "" {
		return ErrMissingID
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO payments (`+paymentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.BookingID, p.Amount, p.RefundedAmount, p.Currency,
		p.Status, p.Provider, p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	switch {
	case pg.IsDuplicateKeyError(err):
		return ErrAlreadyExists
	case pg.IsForeignKeyViolationError(err):
		return ErrBookingNotFound
	case err != nil:
		return fmt.Errorf("create payment %s: %w", p.ID, err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *Payment) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE payments SET refunded_amount = $2, status = $3, notes = $4, updated_at = $5 WHERE id = $1`,
		p.ID, p.RefundedAmount, p.Status, p.Notes, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update payment %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
