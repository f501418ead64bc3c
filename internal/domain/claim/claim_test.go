package claim

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	c := New("lecturer-1", "2026-01", decimal.NewFromInt(40), decimal.NewFromInt(250), true)

	assert.Equal(t, StageCoordinatorReview, c.Stage)
	assert.Equal(t, StatusSubmitted, c.Status)
	assert.False(t, c.IsFinalized())
	assert.False(t, c.HasCoordinatorDecision())
	assert.False(t, c.HasManagerDecision())
	assert.False(t, c.SubmittedDate.IsZero())
}

func TestClaim_TotalAmount(t *testing.T) {
	tests := []struct {
		name  string
		hours string
		rate  string
		want  string
	}{
		{"whole numbers", "40", "250", "10000"},
		{"fractional hours", "37.5", "210.4", "7890"},
		{"half hour minimum", "0.5", "199.99", "99.995"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("l", "p",
				decimal.RequireFromString(tt.hours),
				decimal.RequireFromString(tt.rate), false)
			assert.True(t, c.TotalAmount().Equal(decimal.RequireFromString(tt.want)),
				"got %s", c.TotalAmount())
		})
	}
}

func TestClaim_IsFinalized(t *testing.T) {
	c := New("l", "p", decimal.NewFromInt(10), decimal.NewFromInt(100), false)
	assert.False(t, c.IsFinalized())

	c.Status = StatusApproved
	assert.True(t, c.IsFinalized())

	c.Status = StatusUnderReview
	c.Stage = StageCompleted
	assert.True(t, c.IsFinalized())
}

func TestClaim_DecisionStamps(t *testing.T) {
	c := New("l", "p", decimal.NewFromInt(10), decimal.NewFromInt(100), false)
	now := time.Now()

	c.CoordinatorApprover = "coordinator-1"
	c.CoordinatorReviewDate = &now
	assert.True(t, c.HasCoordinatorDecision())
	assert.False(t, c.HasManagerDecision())

	c.ManagerApprover = SystemReviewerID
	assert.True(t, c.HasManagerDecision())
}

func TestStage(t *testing.T) {
	assert.True(t, StageCoordinatorReview.IsValid())
	assert.True(t, StageCompleted.IsValid())
	assert.False(t, Stage("Archived").IsValid())

	assert.False(t, StageManagerReview.IsTerminal())
	assert.True(t, StageCompleted.IsTerminal())
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusCoordinatorRecommended.IsValid())
	assert.False(t, Status("Escalated").IsValid())

	assert.False(t, StatusPendingManagerReview.IsTerminal())
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
}
