package payment

import "context"

// Repository persists payments. Get and LatestForBooking return ErrNotFound
// when nothing matches.
type Repository interface {
	Get(ctx context.Context, id string) (*Payment, error)
	LatestForBooking(ctx context.Context, bookingID string) (*Payment, error)
	Create(ctx context.Context, p *Payment) error
	Update(ctx context.Context, p *Payment) error
}
