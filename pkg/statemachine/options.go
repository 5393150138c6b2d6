package statemachine

import "fmt"

// Option configures a Machine during construction.
type Option[S, E ~string] func(*Machine[S, E]) error

// TransitionOption configures guards and actions of a single transition.
type TransitionOption[S, E ~string] func(*Transition[S, E])

// WithTransition adds one transition.
func WithTransition[S, E ~string](from, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		t := Transition[S, E]{From: from, To: to, Event: event}
		for _, opt := range opts {
			opt(&t)
		}
		if err := m.add(t); err != nil {
			return fmt.Errorf("%s -> %s on %s: %w", from, to, event, err)
		}
		return nil
	}
}

// WithTransitions adds every transition in ts.
func WithTransitions[S, E ~string](ts ...Transition[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		for i, t := range ts {
			if err := m.add(t); err != nil {
				return fmt.Errorf("transition[%d] %s -> %s on %s: %w", i, t.From, t.To, t.Event, err)
			}
		}
		return nil
	}
}

// FromAny adds the same event and target for several source states.
func FromAny[S, E ~string](froms []S, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		for _, from := range froms {
			if err := WithTransition(from, to, event, opts...)(m); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithGuard adds a guard to a transition.
func WithGuard[S, E ~string](g Guard[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		if g != nil {
			t.Guards = append(t.Guards, g)
		}
	}
}

// WithAction adds an action to a transition.
func WithAction[S, E ~string](a Action[S, E]) TransitionOption[S, E] {
	return func(t *Transition[S, E]) {
		if a != nil {
			t.Actions = append(t.Actions, a)
		}
	}
}
