package claim

import (
	"time"

	"github.com/shopspring/decimal"
)

// SystemReviewerID is the reserved, non-human reviewer identity stamped on
// automated decisions. Audit queries rely on it to distinguish system
// approvals from human ones, so it must never collide with a real user id.
const SystemReviewerID = "system"

// Role identifies the authority required for a manual decision
type Role string

const (
	RoleCoordinator Role = "Coordinator"
	RoleManager     Role = "Manager"
)

// Claim is a lecturer's hour-based pay claim for a single period.
// TotalAmount is always derived via TotalAmount(), never stored.
type Claim struct {
	ID                    int64           `json:"id"`
	OwnerID               string          `json:"owner_id"`
	Period                string          `json:"period"`
	HoursWorked           decimal.Decimal `json:"hours_worked"`
	HourlyRate            decimal.Decimal `json:"hourly_rate"`
	HasSupportingDocument bool            `json:"has_supporting_document"`
	Stage                 Stage           `json:"stage"`
	Status                Status          `json:"status"`
	IsCoordinatorApproved bool            `json:"is_coordinator_approved"`
	IsManagerApproved     bool            `json:"is_manager_approved"`
	CoordinatorApprover   string          `json:"coordinator_approver,omitempty"`
	ManagerApprover       string          `json:"manager_approver,omitempty"`
	CoordinatorReviewDate *time.Time      `json:"coordinator_review_date,omitempty"`
	ManagerReviewDate     *time.Time      `json:"manager_review_date,omitempty"`
	RejectionReason       string          `json:"rejection_reason,omitempty"`
	DecisionReason        string          `json:"decision_reason,omitempty"`
	SubmittedDate         time.Time       `json:"submitted_date"`
	Version               int64           `json:"version"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// TotalAmount recomputes the claim value from hours and rate
func (c *Claim) TotalAmount() decimal.Decimal {
	return c.HoursWorked.Mul(c.HourlyRate)
}

// IsFinalized returns true once the claim reached a terminal state
func (c *Claim) IsFinalized() bool {
	return c.Stage.IsTerminal() || c.Status.IsTerminal()
}

// HasCoordinatorDecision reports whether a coordinator-class action was
// already recorded, via the stamped approver field
func (c *Claim) HasCoordinatorDecision() bool {
	return c.CoordinatorApprover != ""
}

// HasManagerDecision reports whether a manager-class action was already recorded
func (c *Claim) HasManagerDecision() bool {
	return c.ManagerApprover != ""
}

// New creates a claim in its initial workflow position
func New(ownerID, period string, hours, rate decimal.Decimal, hasDocument bool) *Claim {
	now := time.Now()
	return &Claim{
		OwnerID:               ownerID,
		Period:                period,
		HoursWorked:           hours,
		HourlyRate:            rate,
		HasSupportingDocument: hasDocument,
		Stage:                 StageCoordinatorReview,
		Status:                StatusSubmitted,
		SubmittedDate:         now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}
