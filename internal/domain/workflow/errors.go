package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when no edge exists for the trigger in the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when every guard for the trigger denied the transition
	ErrGuardFailed = errors.New("guard condition failed")
)
