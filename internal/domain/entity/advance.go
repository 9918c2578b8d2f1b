package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdvanceStatus is the lifecycle status of a cash advance
type AdvanceStatus string

const (
	AdvanceStatusPending  AdvanceStatus = "pending"
	AdvanceStatusApproved AdvanceStatus = "approved"
	AdvanceStatusPaid     AdvanceStatus = "paid"
	AdvanceStatusRejected AdvanceStatus = "rejected"
	AdvanceStatusClosed   AdvanceStatus = "closed"
)

// ClosingStatus is the status of the expense closing attached to an advance
type ClosingStatus string

const (
	ClosingStatusNone      ClosingStatus = ""
	ClosingStatusDraft     ClosingStatus = "draft"
	ClosingStatusSubmitted ClosingStatus = "submitted"
	ClosingStatusApproved  ClosingStatus = "approved"
	ClosingStatusRejected  ClosingStatus = "rejected"
	ClosingStatusClosed    ClosingStatus = "closed"
)

// AdvanceRequest is one cash advance issued to an employee
type AdvanceRequest struct {
	ID                  string          `json:"id"`
	AdvanceNumber       string          `json:"advance_number"`
	RequesterID         string          `json:"requester_id,omitempty"`
	RequesterName       string          `json:"requester_name"`
	Amount              decimal.Decimal `json:"amount"`
	ApprovedAmount      decimal.Decimal `json:"approved_amount"`
	Currency            string          `json:"currency"`
	Status              AdvanceStatus   `json:"status"`
	ClosingStatus       ClosingStatus   `json:"closing_status,omitempty"`
	EditableByOwner     bool            `json:"editable_by_owner"`
	LastRejectionReason string          `json:"last_rejection_reason,omitempty"`
	LastRejectionAt     *time.Time      `json:"last_rejection_at,omitempty"`
	ClosingRevision     int             `json:"closing_revision"`
	Notes               string          `json:"notes,omitempty"`
}

// IsRejected reports whether either status carries a rejection
func (a *AdvanceRequest) IsRejected() bool {
	return a.Status == AdvanceStatusRejected || a.ClosingStatus == ClosingStatusRejected
}
