package statemachine

import (
	"context"
	"fmt"
	"slices"
)

// Guard decides at runtime whether a transition may proceed.
type Guard[S, E ~string] func(ctx context.Context, from S, event E, data any) bool

// Action runs while a transition is applied. An error aborts the transition.
type Action[S, E ~string] func(ctx context.Context, from, to S, event E, data any) error

// Transition is a state change triggered by an event.
type Transition[S, E ~string] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // all must pass
	Actions []Action[S, E] // run in order
}

// Machine is an immutable transition table. It does not hold a current state:
// records carry their own status and callers ask the machine where an event
// leads from it. A Machine is safe for concurrent use once built.
type Machine[S, E ~string] struct {
	transitions map[S]map[E][]Transition[S, E]
}

// New builds a machine from opts.
func New[S, E ~string](opts ...Option[S, E]) (*Machine[S, E], error) {
	m := &Machine[S, E]{transitions: make(map[S]map[E][]Transition[S, E])}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New that panics on error. Intended for package-level tables.
func MustNew[S, E ~string](opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

func (m *Machine[S, E]) add(t Transition[S, E]) error {
	if t.From == "" || t.To == "" || t.Event == "" {
		return ErrInvalidTransition
	}
	if _, ok := m.transitions[t.From]; !ok {
		m.transitions[t.From] = make(map[E][]Transition[S, E])
	}
	// Several transitions per from/event are allowed; the first whose guards
	// pass wins.
	m.transitions[t.From][t.Event] = append(m.transitions[t.From][t.Event], t)
	return nil
}

// Fire resolves event from state from, runs the chosen transition's actions
// and returns the target state. On error the returned state is from.
func (m *Machine[S, E]) Fire(ctx context.Context, from S, event E, data any) (S, error) {
	t, err := m.resolve(ctx, from, event, data)
	if err != nil {
		return from, err
	}
	for _, action := range t.Actions {
		if err := action(ctx, from, t.To, event, data); err != nil {
			return from, fmt.Errorf("action failed: %w", err)
		}
	}
	return t.To, nil
}

// Can reports whether event is currently allowed from state from.
func (m *Machine[S, E]) Can(ctx context.Context, from S, event E, data any) bool {
	_, err := m.resolve(ctx, from, event, data)
	return err == nil
}

// Events lists the events that have at least one transition out of from,
// sorted for stable output.
func (m *Machine[S, E]) Events(from S) []E {
	events := make([]E, 0, len(m.transitions[from]))
	for e := range m.transitions[from] {
		events = append(events, e)
	}
	slices.Sort(events)
	return events
}

func (m *Machine[S, E]) resolve(ctx context.Context, from S, event E, data any) (Transition[S, E], error) {
	if event == "" {
		return Transition[S, E]{}, ErrInvalidEvent
	}

	candidates := m.transitions[from][event]
	if len(candidates) == 0 {
		return Transition[S, E]{}, &ErrNoTransitionAvailable{StateName: string(from), EventName: string(event)}
	}

	for _, t := range candidates {
		if passes(ctx, t, data) {
			return t, nil
		}
	}
	return Transition[S, E]{}, &ErrTransitionRejected{StateName: string(from), EventName: string(event)}
}

func passes[S, E ~string](ctx context.Context, t Transition[S, E], data any) bool {
	for _, g := range t.Guards {
		if g != nil && !g(ctx, t.From, t.Event, data) {
			return false
		}
	}
	return true
}
