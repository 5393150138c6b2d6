package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition: from, to and event are required")
	ErrInvalidEvent      = errors.New("invalid event: event cannot be empty")

	// ErrIllegalTransition matches both ErrNoTransitionAvailable and
	// ErrTransitionRejected with errors.Is.
	ErrIllegalTransition = errors.New("illegal state transition")
)

// ErrNoTransitionAvailable indicates no transition exists for the state/event pair.
type ErrNoTransitionAvailable struct {
	StateName string
	EventName string
}

func (e *ErrNoTransitionAvailable) Error() string {
	return fmt.Sprintf("no transition available from state '%s' for event '%s'", e.StateName, e.EventName)
}

func (e *ErrNoTransitionAvailable) Is(target error) bool { return target == ErrIllegalTransition }

// ErrTransitionRejected indicates every candidate transition was blocked by a guard.
type ErrTransitionRejected struct {
	StateName string
	EventName string
}

func (e *ErrTransitionRejected) Error() string {
	return fmt.Sprintf("transition from state '%s' for event '%s' was rejected by guards", e.StateName, e.EventName)
}

func (e *ErrTransitionRejected) Is(target error) bool { return target == ErrIllegalTransition }

func IsNoTransitionAvailableError(err error) bool {
	var e *ErrNoTransitionAvailable
	return errors.As(err, &e)
}

func IsTransitionRejectedError(err error) bool {
	var e *ErrTransitionRejected
	return errors.As(err, &e)
}
