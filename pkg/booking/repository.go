package booking

import "context"

// Repository persists bookings. Get returns ErrNotFound for unknown IDs.
type Repository interface {
	Get(ctx context.Context, id string) (*Booking, error)
	Create(ctx context.Context, b *Booking) error
	Update(ctx context.Context, b *Booking) error
}
