package claim

// Stage represents the claim's position in the reviewer chain
type Stage string

const (
	StageCoordinatorReview Stage = "CoordinatorReview"
	StageManagerReview     Stage = "ManagerReview"
	StageCompleted         Stage = "Completed"
)

var validStages = map[Stage]bool{
	StageCoordinatorReview: true,
	StageManagerReview:     true,
	StageCompleted:         true,
}

// IsValid returns true if the stage is a known workflow stage
func (s Stage) IsValid() bool {
	return validStages[s]
}

// IsTerminal returns true if the stage accepts no further workflow action
func (s Stage) IsTerminal() bool {
	return s == StageCompleted
}

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}

// Status represents the human-visible claim state, loosely coupled to Stage
type Status string

const (
	StatusSubmitted              Status = "Submitted"
	StatusUnderReview            Status = "UnderReview"
	StatusPendingManagerReview   Status = "PendingManagerReview"
	StatusCoordinatorRecommended Status = "CoordinatorRecommended"
	StatusApproved               Status = "Approved"
	StatusRejected               Status = "Rejected"
)

var validStatuses = map[Status]bool{
	StatusSubmitted:              true,
	StatusUnderReview:            true,
	StatusPendingManagerReview:   true,
	StatusCoordinatorRecommended: true,
	StatusApproved:               true,
	StatusRejected:               true,
}

var terminalStatuses = map[Status]bool{
	StatusApproved: true,
	StatusRejected: true,
}

// IsValid returns true if the status is a known claim status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal returns true once the claim is immutable to further workflow action
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}
