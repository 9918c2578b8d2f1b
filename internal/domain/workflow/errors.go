package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when no transition exists for a trigger
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned for an unknown state
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when every guard for a trigger refused
	ErrGuardFailed = errors.New("guard condition failed")
)
