package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitingo/advance-workflow/internal/application/port"
	"github.com/vitingo/advance-workflow/internal/domain/entity"
	"github.com/vitingo/advance-workflow/internal/domain/expense"
)

type wireAdvance struct {
	ID                  expense.WireID  `json:"id"`
	AdvanceNumber       string          `json:"advance_number"`
	RequesterID         expense.WireID  `json:"requester_id"`
	RequesterName       string          `json:"requester_name"`
	Amount              decimal.Decimal `json:"amount"`
	ApprovedAmount      decimal.Decimal `json:"approved_amount"`
	Currency            string          `json:"currency"`
	Status              string          `json:"status"`
	ClosingStatus       string          `json:"closing_status"`
	EditableByOwner     bool            `json:"editable_by_owner"`
	LastRejectionReason string          `json:"last_rejection_reason"`
	LastRejectionAt     *time.Time      `json:"last_rejection_at"`
	ClosingRevision     int             `json:"closing_revision"`
	Notes               string          `json:"notes"`
}

func (w wireAdvance) toEntity() entity.AdvanceRequest {
	return entity.AdvanceRequest{
		ID:                  string(w.ID),
		AdvanceNumber:       w.AdvanceNumber,
		RequesterID:         string(w.RequesterID),
		RequesterName:       w.RequesterName,
		Amount:              w.Amount,
		ApprovedAmount:      w.ApprovedAmount,
		Currency:            w.Currency,
		Status:              entity.AdvanceStatus(w.Status),
		ClosingStatus:       entity.ClosingStatus(w.ClosingStatus),
		EditableByOwner:     w.EditableByOwner,
		LastRejectionReason: w.LastRejectionReason,
		LastRejectionAt:     w.LastRejectionAt,
		ClosingRevision:     w.ClosingRevision,
		Notes:               w.Notes,
	}
}

var numericID = regexp.MustCompile(`^[0-9]+$`)

// idValue sends numeric ids as JSON numbers
func idValue(id string) interface{} {
	if numericID.MatchString(id) {
		return json.Number(id)
	}
	return id
}

// number sends a decimal as a JSON number
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// ListAdvances implements port.AdvanceAPI
func (c *Client) ListAdvances(ctx context.Context, status entity.AdvanceStatus) ([]entity.AdvanceRequest, error) {
	var wire []wireAdvance
	if err := c.doJSON(ctx, http.MethodGet, "/api/advance-requests/"+url.PathEscape(string(status)), nil, &wire); err != nil {
		return nil, err
	}
	out := make([]entity.AdvanceRequest, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toEntity())
	}
	return out, nil
}

// GetAdvanceDetails implements port.AdvanceAPI
func (c *Client) GetAdvanceDetails(ctx context.Context, id string) (*entity.AdvanceRequest, error) {
	var wire *wireAdvance
	if err := c.doJSON(ctx, http.MethodGet, "/api/advance-requests/"+url.PathEscape(id)+"/details", nil, &wire); err != nil {
		return nil, err
	}
	if wire == nil || wire.ID == "" {
		return nil, nil
	}
	adv := wire.toEntity()
	return &adv, nil
}

// CloseAdvance implements port.AdvanceAPI
func (c *Client) CloseAdvance(ctx context.Context, id string, req port.CloseRequest) error {
	body := map[string]interface{}{
		"notes":             req.Notes,
		"total_expenses":    number(req.TotalExpenses),
		"remaining_balance": number(req.RemainingBalance),
	}
	return c.doJSON(ctx, http.MethodPost, "/api/advance-requests/"+url.PathEscape(id)+"/close", body, nil)
}

// SubmitClosing implements port.AdvanceAPI
func (c *Client) SubmitClosing(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/advance-closing/"+url.PathEscape(id)+"/submit", struct{}{}, nil)
}
