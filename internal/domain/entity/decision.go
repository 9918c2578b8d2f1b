package entity

import "time"

// DecisionAction identifies a finance action recorded in the decision log
type DecisionAction string

const (
	DecisionApproveLine    DecisionAction = "APPROVE_LINE"
	DecisionRejectLine     DecisionAction = "REJECT_LINE"
	DecisionPartialApprove DecisionAction = "PARTIAL_APPROVE"
	DecisionApproveAdvance DecisionAction = "APPROVE_ADVANCE"
	DecisionRejectAdvance  DecisionAction = "REJECT_ADVANCE"
)

// FinanceDecision is one finance action issued through this service
type FinanceDecision struct {
	ID        int64          `json:"id"`
	AdvanceID string         `json:"advance_id"`
	LineID    string         `json:"line_id,omitempty"`
	Action    DecisionAction `json:"action"`
	Actor     string         `json:"actor"`
	Reason    string         `json:"reason,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Draft holds work-in-progress lines handed off between screens
type Draft struct {
	AdvanceID string        `json:"advance_id"`
	UserID    string        `json:"user_id"`
	Lines     []ExpenseLine `json:"lines"`
	UpdatedAt time.Time     `json:"updated_at"`
}
