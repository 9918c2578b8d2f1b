package workflow

import "github.com/vitingo/advance-workflow/internal/domain/entity"

// BuildClosingMachine wires the owner-side closing lifecycle. canSubmit
// guards SUBMIT; pass nil to allow it unconditionally.
func BuildClosingMachine(initial State, canSubmit GuardFunc) StateMachine {
	b := NewBuilder()

	for _, s := range []State{StateDraft, StatePaidUnsubmitted, StateEditableRejected} {
		b.Configure(s).
			PermitIf(TriggerSubmit, StateSubmitted, canSubmit).
			Permit(TriggerClose, StateClosed)
	}

	b.Configure(StateRejected).
		Permit(TriggerClose, StateClosed)

	b.Configure(StateSubmitted).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerPartialApprove, StateApproved).
		Permit(TriggerReject, StateEditableRejected).
		Permit(TriggerClose, StateClosed)

	b.Configure(StateApproved).
		Permit(TriggerClose, StateClosed)

	b.Configure(StateClosed)

	return b.Build(initial)
}

// StateOf derives the closing state from the advance as the backend reports it
func StateOf(a *entity.AdvanceRequest) State {
	switch {
	case a.Status == entity.AdvanceStatusClosed || a.ClosingStatus == entity.ClosingStatusClosed:
		return StateClosed
	case a.ClosingStatus == entity.ClosingStatusApproved:
		return StateApproved
	case a.IsRejected():
		if a.EditableByOwner {
			return StateEditableRejected
		}
		return StateRejected
	case a.ClosingStatus == entity.ClosingStatusSubmitted:
		return StateSubmitted
	case a.Status == entity.AdvanceStatusApproved:
		return StateApproved
	case a.Status == entity.AdvanceStatusPaid:
		return StatePaidUnsubmitted
	default:
		return StateDraft
	}
}

// IsReadOnly decides whether the owner may edit the closing. Approved or
// closed on either status always wins; a rejection is editable only when
// the backend handed the closing back to the owner.
func IsReadOnly(status entity.AdvanceStatus, closing entity.ClosingStatus, editableByOwner, fromClosedList bool) bool {
	if fromClosedList {
		return true
	}
	if status == entity.AdvanceStatusApproved || status == entity.AdvanceStatusClosed {
		return true
	}
	if closing == entity.ClosingStatusApproved || closing == entity.ClosingStatusClosed {
		return true
	}
	if status == entity.AdvanceStatusRejected || closing == entity.ClosingStatusRejected {
		return !editableByOwner
	}
	return false
}

// AdvanceReadOnly applies IsReadOnly to an advance
func AdvanceReadOnly(a *entity.AdvanceRequest, fromClosedList bool) bool {
	return IsReadOnly(a.Status, a.ClosingStatus, a.EditableByOwner, fromClosedList)
}
