package event

// Type identifies the type of domain event
type Type string

const (
	TypeClosingSaved      Type = "closing.saved"
	TypeClosingSubmitted  Type = "closing.submitted"
	TypeClosingClosed     Type = "closing.closed"
	TypeLineApproved      Type = "finance.line_approved"
	TypeLineRejected      Type = "finance.line_rejected"
	TypePartiallyApproved Type = "finance.partially_approved"
	TypeAdvanceApproved   Type = "finance.approved"
	TypeAdvanceRejected   Type = "finance.rejected"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeClosingSaved,
		TypeClosingSubmitted,
		TypeClosingClosed,
		TypeLineApproved,
		TypeLineRejected,
		TypePartiallyApproved,
		TypeAdvanceApproved,
		TypeAdvanceRejected:
		return true
	default:
		return false
	}
}

// IsFinance reports whether the event comes from the finance reviewer
func (t Type) IsFinance() bool {
	switch t {
	case TypeLineApproved, TypeLineRejected, TypePartiallyApproved, TypeAdvanceApproved, TypeAdvanceRejected:
		return true
	}
	return false
}
