package workflow

import "github.com/vitingo/advance-workflow/internal/domain/entity"

// LineDecision is the reviewer's decision on one line. Local is what the
// reviewer currently sees; Confirmed is what the backend has acknowledged.
type LineDecision struct {
	Local     entity.FinanceStatus `json:"local"`
	Confirmed entity.FinanceStatus `json:"confirmed"`
}

// Pending reports whether the local decision has not reached the backend
func (d LineDecision) Pending() bool {
	return d.Local != d.Confirmed
}

// Toggle computes the next local decision when the reviewer presses target.
// Pressing the current decision again clears it locally; only a move to a
// non-empty decision needs a backend call.
func (d LineDecision) Toggle(target entity.FinanceStatus) (next entity.FinanceStatus, callBackend bool) {
	if d.Local == target {
		return entity.FinanceStatusUnset, false
	}
	return target, true
}

// Confirm records a backend-acknowledged decision
func (d LineDecision) Confirm(status entity.FinanceStatus) LineDecision {
	return LineDecision{Local: status, Confirmed: status}
}

// Clear resets the local decision only
func (d LineDecision) Clear() LineDecision {
	return LineDecision{Local: entity.FinanceStatusUnset, Confirmed: d.Confirmed}
}
