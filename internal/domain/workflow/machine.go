package workflow

import "context"

// StateMachine tracks the current closing state and validates transitions.
// Implementations are not safe for concurrent use; callers serialize access.
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire reports whether any transition is configured for trigger.
	// Guards are not evaluated.
	CanFire(trigger Trigger) bool

	// Fire runs the first transition whose guard passes
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers lists the configured triggers in a stable order
	PermittedTriggers() []Trigger
}
