package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Store is a set-once-with-TTL primitive. SetIfAbsent must be atomic across
// processes. It reports whether this call created the record and, when it
// did not, the value stored by the call that did.
type Store interface {
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (created bool, existing string, err error)
}

// anonymousValue is recorded for acquisitions without an owner. Owned
// records carry ownerPrefix, so it never matches a real owner.
const (
	anonymousValue = "1"
	ownerPrefix    = "owner:"
)

// Guard suppresses repeated side-effecting calls within the TTL window.
// Keys are never deleted explicitly; they expire.
type Guard struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithTTL sets how long an acquired key blocks duplicates.
func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithLogger sets the guard logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGuard creates a guard over store.
func NewGuard(store Store, opts ...Option) (*Guard, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	g := &Guard{store: store, ttl: DefaultTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// TTL returns the configured window.
func (g *Guard) TTL() time.Duration { return g.ttl }

// Acquire records key. It returns ErrDuplicateRequest if key was already
// recorded within the TTL window by someone else. When ctx carries an owner
// (see WithOwner) and that owner recorded key, Acquire succeeds again.
func (g *Guard) Acquire(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	owner := OwnerFromContext(ctx)
	value := anonymousValue
	if owner != "" {
		value = ownerPrefix + owner
	}
	created, existing, err := g.store.SetIfAbsent(ctx, key, value, g.ttl)
	if err != nil {
		return fmt.Errorf("failed to record idempotency key: %w", err)
	}
	if !created && owner != "" && existing == value {
		g.logger.DebugContext(ctx, "idempotency key reacquired by its owner",
			slog.String("idempotency_key", key),
			slog.String("owner", owner),
		)
		return nil
	}
	if !created {
		g.logger.WarnContext(ctx, "duplicate request rejected",
			slog.String("idempotency_key", key),
			slog.String("code", Code),
		)
		return fmt.Errorf("%w: key %s", ErrDuplicateRequest, key)
	}
	return nil
}

// Do acquires key and then runs fn. fn is not called for duplicates.
// The key stays recorded even if fn fails.
func (g *Guard) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := g.Acquire(ctx, key); err != nil {
		return err
	}
	return fn(ctx)
}
