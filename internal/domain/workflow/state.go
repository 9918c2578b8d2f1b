package workflow

// State is a closing lifecycle state as seen by the advance owner
type State string

const (
	StateDraft            State = "DRAFT"
	StatePaidUnsubmitted  State = "PAID_UNSUBMITTED"
	StateEditableRejected State = "EDITABLE_REJECTED"
	StateRejected         State = "REJECTED"
	StateSubmitted        State = "SUBMITTED"
	StateApproved         State = "APPROVED"
	StateClosed           State = "CLOSED"
)

var validStates = map[State]bool{
	StateDraft:            true,
	StatePaidUnsubmitted:  true,
	StateEditableRejected: true,
	StateRejected:         true,
	StateSubmitted:        true,
	StateApproved:         true,
	StateClosed:           true,
}

// IsTerminal returns true once the closing is finished
func (s State) IsTerminal() bool {
	return s == StateClosed
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known closing state
func (s State) IsValid() bool {
	return validStates[s]
}
