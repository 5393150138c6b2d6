// Package statemachine provides typed transition tables for records that
// carry their own status.
//
// A Machine maps (state, event) pairs to target states with optional guards
// and actions. It holds no current state, so one package-level Machine can
// serve every booking or payment:
//
//	type Status string
//	type Event string
//
//	var machine = statemachine.MustNew(
//		statemachine.WithTransition[Status, Event]("PENDING", "COMPLETED", "capture"),
//		statemachine.WithTransition[Status, Event]("COMPLETED", "REFUNDED", "refund"),
//	)
//
//	next, err := machine.Fire(ctx, p.Status, "capture", nil)
//	if errors.Is(err, statemachine.ErrIllegalTransition) {
//		// not allowed from the current status
//	}
//
// When several transitions share a source state and event, the first whose
// guards all pass is taken. If none pass, Fire returns ErrTransitionRejected;
// if none exist, ErrNoTransitionAvailable.
package statemachine
