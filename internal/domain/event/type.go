package event

// Type identifies the type of domain event
type Type string

const (
	TypeClaimSubmitted    Type = "claim.submitted"
	TypeClaimAutoApproved Type = "claim.auto_approved"
	TypeClaimAutoRejected Type = "claim.auto_rejected"
	TypeClaimRecommended  Type = "claim.recommended"
	TypeClaimApproved     Type = "claim.approved"
	TypeClaimRejected     Type = "claim.rejected"
	TypeClaimOverridden   Type = "claim.overridden"
	TypeStatusChanged     Type = "claim.status_changed"
	TypeBatchCompleted    Type = "batch.completed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeClaimSubmitted,
		TypeClaimAutoApproved,
		TypeClaimAutoRejected,
		TypeClaimRecommended,
		TypeClaimApproved,
		TypeClaimRejected,
		TypeClaimOverridden,
		TypeStatusChanged,
		TypeBatchCompleted:
		return true
	default:
		return false
	}
}
