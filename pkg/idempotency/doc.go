// Package idempotency guards side-effecting calls against duplicate
// execution within a short window.
//
// A caller derives a deterministic key from the operation's natural identity
// (for appointments: calendar, start time and contact) and acquires it before
// the call. The first acquisition wins; any further attempt with the same key
// before the TTL (15 minutes by default) elapses fails with
// ErrDuplicateRequest and the downstream call is not made.
//
//	guard, _ := idempotency.NewGuard(idempotency.NewMemoryStore(nil))
//	key := idempotency.AppointmentKey(calendarID, start, contactID)
//	err := guard.Do(ctx, key, func(ctx context.Context) error {
//		return createAppointment(ctx)
//	})
//	if errors.Is(err, idempotency.ErrDuplicateRequest) {
//		// already created within the window
//	}
//
// A retried job must not be blocked by its own earlier attempt. Callers put
// the job ID on the context with WithOwner; the guard records it as the key's
// owner and lets the same owner acquire the key again:
//
//	ctx = idempotency.WithOwner(ctx, job.ID)
//
// The job queue delivers at least once; this package is the only
// de-duplication mechanism.
package idempotency
