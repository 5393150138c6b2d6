package idempotency

import "context"

type ownerKey struct{}

// WithOwner returns ctx carrying the identity of the unit of work acquiring
// keys, typically a job ID. A key recorded by an owner can be acquired again
// by the same owner, so a retried job gets past its own earlier attempt.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the owner stored in ctx, or "".
func OwnerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
