package workflow

import "github.com/claimsuite/claimflow/internal/domain/claim"

// State mirrors the claim stage inside the state machine
type State string

const (
	StateCoordinatorReview = State(claim.StageCoordinatorReview)
	StateManagerReview     = State(claim.StageManagerReview)
	StateCompleted         = State(claim.StageCompleted)
)

var validStates = map[State]bool{
	StateCoordinatorReview: true,
	StateManagerReview:     true,
	StateCompleted:         true,
}

// IsTerminal returns true if the state permits no outgoing transitions
func (s State) IsTerminal() bool {
	return s == StateCompleted
}

// IsValid returns true if the state is a known workflow state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// Trigger represents a decision event that can cause a stage transition
type Trigger string

const (
	TriggerAutoApprove       Trigger = "AUTO_APPROVE"
	TriggerAutoReject        Trigger = "AUTO_REJECT"
	TriggerRecommend         Trigger = "RECOMMEND"
	TriggerCoordinatorReject Trigger = "COORDINATOR_REJECT"
	TriggerFinalApprove      Trigger = "FINAL_APPROVE"
	TriggerFinalReject       Trigger = "FINAL_REJECT"
	TriggerOverride          Trigger = "OVERRIDE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
