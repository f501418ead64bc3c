package verify

import "time"

// Action is the reviewer action the verification rules recommend
type Action string

const (
	ActionApprove Action = "Approve"
	ActionReview  Action = "Review"
	ActionReject  Action = "Reject"
)

// String returns the string representation of the action
func (a Action) String() string {
	return string(a)
}

// severity ordering for recommendation escalation
var actionRank = map[Action]int{
	ActionApprove: 0,
	ActionReview:  1,
	ActionReject:  2,
}

// Verdict is the structured output of one verification call. It is
// ephemeral: owned by the caller, never persisted as its own entity.
type Verdict struct {
	Errors             []string  `json:"errors"`
	Warnings           []string  `json:"warnings"`
	Info               []string  `json:"info"`
	IsValid            bool      `json:"is_valid"`
	RecommendedAction  Action    `json:"recommended_action"`
	CanAutoApprove     bool      `json:"can_auto_approve"`
	AutoApprovalReason string    `json:"auto_approval_reason,omitempty"`
	VerifiedAt         time.Time `json:"verified_at"`
}

func (v *Verdict) addError(msg string) {
	v.Errors = append(v.Errors, msg)
}

func (v *Verdict) addWarning(msg string) {
	v.Warnings = append(v.Warnings, msg)
}

func (v *Verdict) addInfo(msg string) {
	v.Info = append(v.Info, msg)
}

// escalate raises the recommended action to at least the given severity;
// rules never downgrade a recommendation set by an earlier rule
func (v *Verdict) escalate(a Action) {
	if actionRank[a] > actionRank[v.RecommendedAction] {
		v.RecommendedAction = a
	}
}
