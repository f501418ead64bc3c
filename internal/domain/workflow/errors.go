package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted from the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not part of the claim workflow
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when every guard for a permitted trigger refuses the transition
	ErrGuardFailed = errors.New("guard condition failed")
)
