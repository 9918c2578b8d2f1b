package workflow

import (
	"context"
	"errors"
	"testing"
)

type ctxKey string

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StatePaidUnsubmitted, false},
		{StateEditableRejected, false},
		{StateRejected, false},
		{StateSubmitted, false},
		{StateApproved, false},
		{StateClosed, true},
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
		{"draft", StateDraft, true},
		{"closed", StateClosed, true},
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

func TestTrigger_String(t *testing.T) {
	if got := TriggerPartialApprove.String(); got != "PARTIAL_APPROVE" {
		t.Errorf("Trigger.String() = %v, want %v", got, "PARTIAL_APPROVE")
	}
}

func TestBuilder_PanicsOnInvalidStates(t *testing.T) {
	cases := map[string]func(){
		"configure": func() { NewBuilder().Configure(State("INVALID")) },
		"build":     func() { NewBuilder().Build(State("INVALID")) },
		"permit":    func() { NewBuilder().Configure(StateDraft).Permit(TriggerSubmit, State("INVALID")) },
	}

	for name, fn := range cases {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("%s should panic on invalid state", name)
				}
			}()
			fn()
		})
	}
}

func TestStateConfiguration_PermitIf_FirstPassingGuardWins(t *testing.T) {
	key := ctxKey("fast")
	b := NewBuilder()
	b.Configure(StateSubmitted).
		PermitIf(TriggerApprove, StateClosed, func(ctx context.Context) bool {
			v, _ := ctx.Value(key).(bool)
			return v
		}).
		PermitIf(TriggerApprove, StateApproved, func(ctx context.Context) bool {
			v, _ := ctx.Value(key).(bool)
			return !v
		})

	m1 := b.Build(StateSubmitted)
	if err := m1.Fire(context.WithValue(context.Background(), key, true), TriggerApprove); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if m1.State() != StateClosed {
		t.Errorf("State = %v, want %v", m1.State(), StateClosed)
	}

	m2 := b.Build(StateSubmitted)
	if err := m2.Fire(context.WithValue(context.Background(), key, false), TriggerApprove); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if m2.State() != StateApproved {
		t.Errorf("State = %v, want %v", m2.State(), StateApproved)
	}
}

func TestStateMachine_GuardFailureKeepsState(t *testing.T) {
	m := BuildClosingMachine(StateDraft, func(context.Context) bool { return false })

	err := m.Fire(context.Background(), TriggerSubmit)
	if !errors.Is(err, ErrGuardFailed) {
		t.Fatalf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if m.State() != StateDraft {
		t.Errorf("State = %v, want %v", m.State(), StateDraft)
	}
}

func TestStateMachine_Fire_InvalidTransition(t *testing.T) {
	m := BuildClosingMachine(StateDraft, nil)

	err := m.Fire(context.Background(), TriggerApprove)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if m.State() != StateDraft {
		t.Errorf("State = %v, want %v", m.State(), StateDraft)
	}
}

func TestStateMachine_Immutability(t *testing.T) {
	b := NewBuilder()
	b.Configure(StateDraft).Permit(TriggerSubmit, StateSubmitted)

	m1 := b.Build(StateDraft)
	m2 := b.Build(StateDraft)

	b.Configure(StateDraft).Permit(TriggerClose, StateClosed)

	if err := m1.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if m2.State() != StateDraft {
		t.Errorf("machine2 state = %v, want %v", m2.State(), StateDraft)
	}
	if m2.CanFire(TriggerClose) {
		t.Error("machines must not see transitions added after Build")
	}
}

func TestClosingMachine_Transitions(t *testing.T) {
	tests := []struct {
		from    State
		trigger Trigger
		want    State
		wantErr error
	}{
		{StateDraft, TriggerSubmit, StateSubmitted, nil},
		{StatePaidUnsubmitted, TriggerSubmit, StateSubmitted, nil},
		{StateEditableRejected, TriggerSubmit, StateSubmitted, nil},
		{StateRejected, TriggerSubmit, StateRejected, ErrInvalidTransition},
		{StateSubmitted, TriggerApprove, StateApproved, nil},
		{StateSubmitted, TriggerPartialApprove, StateApproved, nil},
		{StateSubmitted, TriggerReject, StateEditableRejected, nil},
		{StateSubmitted, TriggerSubmit, StateSubmitted, ErrInvalidTransition},
		{StateApproved, TriggerClose, StateClosed, nil},
		{StateApproved, TriggerReject, StateApproved, ErrInvalidTransition},
		{StateDraft, TriggerClose, StateClosed, nil},
		{StateRejected, TriggerClose, StateClosed, nil},
		{StateClosed, TriggerClose, StateClosed, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+string(tt.trigger), func(t *testing.T) {
			m := BuildClosingMachine(tt.from, nil)
			err := m.Fire(context.Background(), tt.trigger)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Fire() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("Fire() failed: %v", err)
			}
			if m.State() != tt.want {
				t.Errorf("State = %v, want %v", m.State(), tt.want)
			}
		})
	}
}

func TestClosingMachine_PermittedTriggersSorted(t *testing.T) {
	got := BuildClosingMachine(StateSubmitted, nil).PermittedTriggers()
	want := []Trigger{TriggerApprove, TriggerClose, TriggerPartialApprove, TriggerReject}
	if len(got) != len(want) {
		t.Fatalf("PermittedTriggers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PermittedTriggers()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if n := len(BuildClosingMachine(StateClosed, nil).PermittedTriggers()); n != 0 {
		t.Errorf("closed state permits %d triggers, want 0", n)
	}
}

func TestClosingMachine_FullLifecycle(t *testing.T) {
	m := BuildClosingMachine(StatePaidUnsubmitted, func(context.Context) bool { return true })

	steps := []struct {
		trigger Trigger
		want    State
	}{
		{TriggerSubmit, StateSubmitted},
		{TriggerReject, StateEditableRejected},
		{TriggerSubmit, StateSubmitted},
		{TriggerPartialApprove, StateApproved},
		{TriggerClose, StateClosed},
	}

	for i, step := range steps {
		if err := m.Fire(context.Background(), step.trigger); err != nil {
			t.Fatalf("step %d: Fire(%v) failed: %v", i, step.trigger, err)
		}
		if m.State() != step.want {
			t.Fatalf("step %d: State = %v, want %v", i, m.State(), step.want)
		}
	}
	if !m.State().IsTerminal() {
		t.Error("closed state should be terminal")
	}
}
