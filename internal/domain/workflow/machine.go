package workflow

import (
	"context"
	"fmt"
)

// GuardFunc evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// Machine tracks a claim's current stage and validates decision transitions
type Machine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire attempts the trigger, moving to the target state if permitted
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers that can fire in the current state
	PermittedTriggers() []Trigger
}

// Builder assembles a transition table and produces machine instances
type Builder interface {
	// Configure returns the configuration for a state, creating it if needed
	Configure(state State) StateConfig

	// Build creates a machine starting at the given state
	Build(initial State) Machine
}

// StateConfig configures outgoing transitions for one state
type StateConfig interface {
	// Permit allows a trigger to move to the target state
	Permit(trigger Trigger, to State) StateConfig

	// PermitIf allows the transition only when the guard passes
	PermitIf(trigger Trigger, to State, guard GuardFunc) StateConfig
}

type transition struct {
	to    State
	guard GuardFunc
}

type stateConfig struct {
	transitions map[Trigger][]transition
}

type builder struct {
	configs map[State]*stateConfig
}

type machine struct {
	current State
	configs map[State]*stateConfig
}

// NewBuilder creates an empty transition-table builder
func NewBuilder() Builder {
	return &builder{configs: make(map[State]*stateConfig)}
}

func (b *builder) Configure(state State) StateConfig {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	cfg, ok := b.configs[state]
	if !ok {
		cfg = &stateConfig{transitions: make(map[Trigger][]transition)}
		b.configs[state] = cfg
	}
	return cfg
}

func (b *builder) Build(initial State) Machine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}

	// Copy the table so later Configure calls cannot mutate live machines
	configs := make(map[State]*stateConfig, len(b.configs))
	for state, cfg := range b.configs {
		transitions := make(map[Trigger][]transition, len(cfg.transitions))
		for trigger, ts := range cfg.transitions {
			transitions[trigger] = append([]transition{}, ts...)
		}
		configs[state] = &stateConfig{transitions: transitions}
	}

	return &machine{current: initial, configs: configs}
}

func (c *stateConfig) Permit(trigger Trigger, to State) StateConfig {
	return c.PermitIf(trigger, to, nil)
}

func (c *stateConfig) PermitIf(trigger Trigger, to State, guard GuardFunc) StateConfig {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}
	c.transitions[trigger] = append(c.transitions[trigger], transition{to: to, guard: guard})
	return c
}

func (m *machine) State() State {
	return m.current
}

func (m *machine) CanFire(trigger Trigger) bool {
	cfg, ok := m.configs[m.current]
	if !ok {
		return false
	}
	return len(cfg.transitions[trigger]) > 0
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) error {
	cfg, ok := m.configs[m.current]
	if !ok {
		return fmt.Errorf("%w: trigger %s from state %s (no configuration)", ErrInvalidTransition, trigger, m.current)
	}

	transitions := cfg.transitions[trigger]
	if len(transitions) == 0 {
		return fmt.Errorf("%w: trigger %s from state %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range transitions {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.to
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, m.current)
}

func (m *machine) PermittedTriggers() []Trigger {
	cfg, ok := m.configs[m.current]
	if !ok {
		return nil
	}
	triggers := make([]Trigger, 0, len(cfg.transitions))
	for trigger := range cfg.transitions {
		triggers = append(triggers, trigger)
	}
	return triggers
}

// BuildClaimStateMachine creates a machine configured with the claim review chain.
// Completed is terminal: no outgoing transitions.
func BuildClaimStateMachine(initial State) Machine {
	b := NewBuilder()

	// FinalApprove and FinalReject are permitted from CoordinatorReview as
	// well: a coordinator recommendation leaves the stage unchanged, so the
	// manager's terminal decision may arrive before any stage advance.
	b.Configure(StateCoordinatorReview).
		Permit(TriggerAutoApprove, StateManagerReview).
		Permit(TriggerAutoReject, StateCompleted).
		Permit(TriggerRecommend, StateCoordinatorReview).
		Permit(TriggerCoordinatorReject, StateCompleted).
		Permit(TriggerFinalApprove, StateCompleted).
		Permit(TriggerFinalReject, StateCompleted).
		Permit(TriggerOverride, StateCompleted)

	b.Configure(StateManagerReview).
		Permit(TriggerAutoReject, StateCompleted).
		Permit(TriggerFinalApprove, StateCompleted).
		Permit(TriggerFinalReject, StateCompleted).
		Permit(TriggerOverride, StateCompleted)

	return b.Build(initial)
}
