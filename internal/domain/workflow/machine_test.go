package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimStateMachine_TransitionTable(t *testing.T) {
	tests := []struct {
		name      string
		initial   State
		trigger   Trigger
		wantState State
		wantErr   bool
	}{
		{"auto-approve advances to manager review", StateCoordinatorReview, TriggerAutoApprove, StateManagerReview, false},
		{"auto-reject completes", StateCoordinatorReview, TriggerAutoReject, StateCompleted, false},
		{"recommend keeps coordinator review", StateCoordinatorReview, TriggerRecommend, StateCoordinatorReview, false},
		{"coordinator reject completes", StateCoordinatorReview, TriggerCoordinatorReject, StateCompleted, false},
		{"final approve from coordinator review", StateCoordinatorReview, TriggerFinalApprove, StateCompleted, false},
		{"final reject from coordinator review", StateCoordinatorReview, TriggerFinalReject, StateCompleted, false},
		{"override from coordinator review", StateCoordinatorReview, TriggerOverride, StateCompleted, false},
		{"final approve from manager review", StateManagerReview, TriggerFinalApprove, StateCompleted, false},
		{"final reject from manager review", StateManagerReview, TriggerFinalReject, StateCompleted, false},
		{"auto-reject from manager review", StateManagerReview, TriggerAutoReject, StateCompleted, false},
		{"override from manager review", StateManagerReview, TriggerOverride, StateCompleted, false},
		{"auto-approve invalid at manager review", StateManagerReview, TriggerAutoApprove, StateManagerReview, true},
		{"recommend invalid at manager review", StateManagerReview, TriggerRecommend, StateManagerReview, true},
		{"nothing fires from completed", StateCompleted, TriggerFinalApprove, StateCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := BuildClaimStateMachine(tt.initial)
			err := m.Fire(context.Background(), tt.trigger)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTransition)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantState, m.State())
		})
	}
}

func TestClaimStateMachine_CompletedIsTerminal(t *testing.T) {
	m := BuildClaimStateMachine(StateCompleted)
	assert.Empty(t, m.PermittedTriggers())
}

func TestMachine_CanFire(t *testing.T) {
	m := BuildClaimStateMachine(StateCoordinatorReview)

	assert.True(t, m.CanFire(TriggerAutoApprove))
	assert.True(t, m.CanFire(TriggerRecommend))

	require.NoError(t, m.Fire(context.Background(), TriggerAutoApprove))

	assert.False(t, m.CanFire(TriggerAutoApprove))
	assert.True(t, m.CanFire(TriggerFinalApprove))
}

func TestBuilder_GuardedTransition(t *testing.T) {
	allow := false

	b := NewBuilder()
	b.Configure(StateCoordinatorReview).
		PermitIf(TriggerAutoApprove, StateManagerReview, func(ctx context.Context) bool {
			return allow
		})

	m := b.Build(StateCoordinatorReview)

	err := m.Fire(context.Background(), TriggerAutoApprove)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGuardFailed)
	assert.Equal(t, StateCoordinatorReview, m.State())

	allow = true
	require.NoError(t, m.Fire(context.Background(), TriggerAutoApprove))
	assert.Equal(t, StateManagerReview, m.State())
}

func TestBuilder_BuildSnapshotsTable(t *testing.T) {
	b := NewBuilder()
	b.Configure(StateCoordinatorReview).
		Permit(TriggerAutoReject, StateCompleted)

	m := b.Build(StateCoordinatorReview)

	// A transition configured after Build must not leak into the machine
	b.Configure(StateCoordinatorReview).
		Permit(TriggerAutoApprove, StateManagerReview)

	assert.False(t, m.CanFire(TriggerAutoApprove))
	assert.True(t, m.CanFire(TriggerAutoReject))
}
