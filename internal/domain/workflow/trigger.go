package workflow

// Trigger is an action that moves a closing between states
type Trigger string

const (
	TriggerSubmit         Trigger = "SUBMIT"
	TriggerApprove        Trigger = "APPROVE"
	TriggerPartialApprove Trigger = "PARTIAL_APPROVE"
	TriggerReject         Trigger = "REJECT"
	TriggerClose          Trigger = "CLOSE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
