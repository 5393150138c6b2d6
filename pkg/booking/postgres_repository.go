package booking

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

// PostgresRepository stores bookings in the bookings table.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a repository over db.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectBooking = `
SELECT id, status, scheduled_date_time, customer_name, customer_email, customer_phone,
       service_name, notes, assigned_agent_id, crm_contact_id, crm_appointment_id,
       created_at, updated_at
FROM bookings
WHERE id = $1`

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Booking, error) {
	var b Booking
	err := r.db.QueryRow(ctx, selectBooking, id).Scan(
		&b.ID, &b.Status, &b.ScheduledDateTime, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone,
		&b.ServiceName, &b.Notes, &b.AssignedAgentID, &b.CRMContactID, &b.CRMAppointmentID,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}
	return &b, nil
}

const insertBooking = `
INSERT INTO bookings (id, status, scheduled_date_time, customer_name, customer_email, customer_phone,
                      service_name, notes, assigned_agent_id, crm_contact_id, crm_appointment_id,
                      created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

func (r *PostgresRepository) Create(ctx context.Context, b *Booking) error {
	if b.ID == "" {
		return ErrMissingID
	}
	_, err := r.db.Exec(ctx, insertBooking,
		b.ID, b.Status, b.ScheduledDateTime, b.CustomerName, b.CustomerEmail, b.CustomerPhone,
		b.ServiceName, b.Notes, b.AssignedAgentID, b.CRMContactID, b.CRMAppointmentID,
		b.CreatedAt, b.UpdatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create booking %s: %w", b.ID, err)
	}
	return nil
}

const updateBooking = `
UPDATE bookings
SET status = $2, scheduled_date_time = $3, notes = $4, assigned_agent_id = $5,
    crm_contact_id = $6, crm_appointment_id = $7, updated_at = $8
WHERE id = $1`

func (r *PostgresRepository) Update(ctx context.Context, b *Booking) error {
	tag, err := r.db.Exec(ctx, updateBooking,
		b.ID, b.Status, b.ScheduledDateTime, b.Notes, b.AssignedAgentID,
		b.CRMContactID, b.CRMAppointmentID, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update booking %s: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
