package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StatePendingProfessorSignature, false},
		{StateSubmitted, false},
		{StatePendingAdminSignature, false},
		{StateApproved, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"valid state", StateDraft, true},
		{"valid state", StateApproved, true},
		{"lowercase", State("draft"), false},
		{"invalid state", State("INVALID"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAllStates(t *testing.T) {
	states := AllStates()
	if len(states) != 6 {
		t.Fatalf("AllStates() returned %d states, want 6", len(states))
	}
	if states[0] != StateDraft {
		t.Errorf("first state = %v, want %v", states[0], StateDraft)
	}
	for _, s := range states {
		if !s.IsValid() {
			t.Errorf("AllStates() contains invalid state %v", s)
		}
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StateDraft)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	config2 := builder.Configure(StateDraft)
	if config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	builder.Build(State("INVALID"))
}

func TestStateConfiguration_Permit(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSignProfessor, StateSubmitted)

	machine := builder.Build(StateDraft)

	if !machine.CanFire(TriggerSignProfessor) {
		t.Error("CanFire() should return true for permitted trigger")
	}

	if err := machine.Fire(context.Background(), TriggerSignProfessor); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if machine.State() != StateSubmitted {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StateSubmitted)
	}
}

func TestStateConfiguration_PermitIf_GuardPasses(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).
		PermitIf(TriggerRequestAdminSignature, StatePendingAdminSignature, func(ctx context.Context) error {
			return nil
		})

	machine := builder.Build(StateSubmitted)

	if err := machine.Fire(context.Background(), TriggerRequestAdminSignature); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if machine.State() != StatePendingAdminSignature {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StatePendingAdminSignature)
	}
}

func TestStateConfiguration_PermitIf_GuardFails(t *testing.T) {
	reason := errors.New("allocation exceeds request")

	builder := NewBuilder()
	builder.Configure(StatePendingAdminSignature).
		PermitIf(TriggerApprove, StateApproved, func(ctx context.Context) error {
			return reason
		})

	machine := builder.Build(StatePendingAdminSignature)

	err := machine.Fire(context.Background(), TriggerApprove)
	if err == nil {
		t.Fatal("Fire() should fail when guard fails")
	}

	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}

	if !errors.Is(err, reason) {
		t.Errorf("Fire() error = %v, should wrap guard reason", err)
	}

	if machine.State() != StatePendingAdminSignature {
		t.Errorf("State should remain %v after failed Fire(), got %v", StatePendingAdminSignature, machine.State())
	}
}

type modeKey struct{}

func TestStateConfiguration_PermitIf_MultipleTransitions(t *testing.T) {
	denyUnless := func(want string) GuardFunc {
		return func(ctx context.Context) error {
			if ctx.Value(modeKey{}) != want {
				return errors.New("wrong mode")
			}
			return nil
		}
	}

	builder := NewBuilder()
	builder.Configure(StateDraft).
		PermitIf(TriggerSignProfessor, StateSubmitted, denyUnless("direct")).
		PermitIf(TriggerSignProfessor, StatePendingProfessorSignature, denyUnless("deferred"))

	machine1 := builder.Build(StateDraft)
	ctx1 := context.WithValue(context.Background(), modeKey{}, "direct")
	if err := machine1.Fire(ctx1, TriggerSignProfessor); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine1.State() != StateSubmitted {
		t.Errorf("State after Fire() = %v, want %v", machine1.State(), StateSubmitted)
	}

	machine2 := builder.Build(StateDraft)
	ctx2 := context.WithValue(context.Background(), modeKey{}, "deferred")
	if err := machine2.Fire(ctx2, TriggerSignProfessor); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine2.State() != StatePendingProfessorSignature {
		t.Errorf("State after Fire() = %v, want %v", machine2.State(), StatePendingProfessorSignature)
	}
}

func TestStateConfiguration_PermitReentry(t *testing.T) {
	calls := 0
	builder := NewBuilder()
	builder.Configure(StateApproved).
		PermitReentry(TriggerUpdateAllocation, func(ctx context.Context) error {
			calls++
			return nil
		})

	machine := builder.Build(StateApproved)
	if err := machine.Fire(context.Background(), TriggerUpdateAllocation); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}

	if machine.State() != StateApproved {
		t.Errorf("State after reentry = %v, want %v", machine.State(), StateApproved)
	}
	if calls != 1 {
		t.Errorf("guard called %d times, want 1", calls)
	}
}

func TestStateConfiguration_PermitPanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid target state")
		}
	}()

	builder.Configure(StateDraft).Permit(TriggerSignProfessor, State("INVALID"))
}

func TestStateMachine_CanFire(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSignProfessor, StateSubmitted)

	machine := builder.Build(StateDraft)

	tests := []struct {
		trigger  Trigger
		expected bool
	}{
		{TriggerSignProfessor, true},
		{TriggerApprove, false},
		{TriggerReject, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.trigger), func(t *testing.T) {
			if got := machine.CanFire(tt.trigger); got != tt.expected {
				t.Errorf("CanFire() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStateMachine_Fire_InvalidTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSignProfessor, StateSubmitted)

	machine := builder.Build(StateDraft)

	err := machine.Fire(context.Background(), TriggerApprove)
	if err == nil {
		t.Fatal("Fire() should fail for invalid transition")
	}

	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}

	if machine.State() != StateDraft {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateDraft, machine.State())
	}
}

func TestStateMachine_Fire_NoConfiguration(t *testing.T) {
	builder := NewBuilder()
	machine := builder.Build(StateDraft)

	err := machine.Fire(context.Background(), TriggerSignProfessor)
	if err == nil {
		t.Fatal("Fire() should fail when no configuration exists")
	}

	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateSubmitted).
		Permit(TriggerRequestAdminSignature, StatePendingAdminSignature).
		Permit(TriggerReject, StateRejected)

	machine := builder.Build(StateSubmitted)

	triggers := machine.PermittedTriggers()
	if len(triggers) != 2 {
		t.Fatalf("PermittedTriggers() returned %d triggers, want 2", len(triggers))
	}

	// sorted by name
	if triggers[0] != TriggerReject || triggers[1] != TriggerRequestAdminSignature {
		t.Errorf("PermittedTriggers() = %v, want [REJECT REQUEST_ADMIN_SIGNATURE]", triggers)
	}
}

func TestStateMachine_PermittedTriggers_NoConfiguration(t *testing.T) {
	builder := NewBuilder()
	machine := builder.Build(StateDraft)

	triggers := machine.PermittedTriggers()
	if len(triggers) != 0 {
		t.Errorf("PermittedTriggers() returned %d triggers, want 0", len(triggers))
	}
}

func TestStateMachine_Immutability(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateDraft).
		Permit(TriggerSignProfessor, StateSubmitted)

	machine1 := builder.Build(StateDraft)
	machine2 := builder.Build(StateDraft)

	if err := machine1.Fire(context.Background(), TriggerSignProfessor); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if machine2.State() != StateDraft {
		t.Errorf("machine2 state = %v, want %v (machines should be independent)", machine2.State(), StateDraft)
	}

	if machine1.State() != StateSubmitted {
		t.Errorf("machine1 state = %v, want %v", machine1.State(), StateSubmitted)
	}
}
