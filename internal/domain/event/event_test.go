package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEvent(t *testing.T) {
	e := NewEvent(TypeClaimSubmitted, 42, map[string]interface{}{
		"owner_id": "lecturer-1",
		"attempt":  3,
	})

	assert.NotEmpty(t, e.ID)
	assert.NotEmpty(t, e.CorrelationID)
	assert.Equal(t, TypeClaimSubmitted, e.Type)
	assert.Equal(t, int64(42), e.ClaimID)
	assert.False(t, e.Timestamp.IsZero())

	assert.Equal(t, "lecturer-1", e.GetPayloadString("owner_id"))
	assert.Equal(t, int64(3), e.GetPayloadInt("attempt"))
	assert.Equal(t, "", e.GetPayloadString("missing"))
	assert.Equal(t, int64(0), e.GetPayloadInt("owner_id"))
}

func TestNewEventWithCorrelation(t *testing.T) {
	parent := NewEvent(TypeClaimSubmitted, 1, nil)
	child := NewEventWithCorrelation(TypeClaimAutoApproved, 1, nil, parent.CorrelationID)

	assert.Equal(t, parent.CorrelationID, child.CorrelationID)
	assert.NotEqual(t, parent.ID, child.ID)
}

func TestType_IsValid(t *testing.T) {
	assert.True(t, TypeClaimOverridden.IsValid())
	assert.True(t, TypeBatchCompleted.IsValid())
	assert.False(t, Type("claim.archived").IsValid())
}
