package backend

import (
	"context"
	"net/http"
	"net/url"
)

// ApproveLine implements port.FinanceAPI
func (c *Client) ApproveLine(ctx context.Context, lineID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/finance-approval/expense-line/"+url.PathEscape(lineID)+"/approve", struct{}{}, nil)
}

// RejectLine implements port.FinanceAPI
func (c *Client) RejectLine(ctx context.Context, lineID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/finance-approval/expense-line/"+url.PathEscape(lineID)+"/reject", struct{}{}, nil)
}

// PartialApprove implements port.FinanceAPI. The body carries only the
// rejected line ids.
func (c *Client) PartialApprove(ctx context.Context, advanceID string, rejectedLineIDs []string) error {
	ids := make([]interface{}, 0, len(rejectedLineIDs))
	for _, id := range rejectedLineIDs {
		ids = append(ids, idValue(id))
	}
	body := map[string]interface{}{"rejected_line_ids": ids}
	return c.doJSON(ctx, http.MethodPost, "/api/finance-approval/"+url.PathEscape(advanceID)+"/partial-approve", body, nil)
}

// ApproveAdvance implements port.FinanceAPI
func (c *Client) ApproveAdvance(ctx context.Context, advanceID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/advance-requests/"+url.PathEscape(advanceID)+"/finance-approve", struct{}{}, nil)
}

// RejectAdvance implements port.FinanceAPI
func (c *Client) RejectAdvance(ctx context.Context, advanceID, reason, scope string) error {
	body := map[string]string{"reason": reason, "scope": scope}
	return c.doJSON(ctx, http.MethodPost, "/api/finance-approval/"+url.PathEscape(advanceID)+"/reject", body, nil)
}
