package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/vitingo/advance-workflow/internal/application/port"
	"github.com/vitingo/advance-workflow/internal/domain/entity"
	"github.com/vitingo/advance-workflow/internal/domain/expense"
)

// ListExpenses implements port.ExpenseAPI
func (c *Client) ListExpenses(ctx context.Context, advanceID string) ([]expense.WireExpenseLine, error) {
	var lines []expense.WireExpenseLine
	if err := c.doJSON(ctx, http.MethodGet, "/api/advance-expenses/"+url.PathEscape(advanceID), nil, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// SaveExpenses implements port.ExpenseAPI
func (c *Client) SaveExpenses(ctx context.Context, advanceID string, lines []expense.WireExpenseLine) error {
	body := map[string]interface{}{
		"advance_request_id": idValue(advanceID),
		"expenses":           lines,
	}
	return c.doJSON(ctx, http.MethodPost, "/api/advance-expenses", body, nil)
}

// Convert implements port.CurrencyConverter
func (c *Client) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*entity.Conversion, error) {
	body := map[string]interface{}{
		"amount":        number(amount),
		"from_currency": from,
		"to_currency":   to,
	}
	var res entity.Conversion
	if err := c.doJSON(ctx, http.MethodPost, "/api/currency/convert", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadExpenseFile implements port.FileUploader
func (c *Client) UploadExpenseFile(ctx context.Context, file port.FileUpload) (*entity.AttachedFile, error) {
	var res expense.WireAttachedFile
	if err := c.doMultipart(ctx, "/api/upload-expense-file", file, &res); err != nil {
		return nil, err
	}
	out := &entity.AttachedFile{
		FileID: string(res.FileID),
		Name:   res.Name,
		Type:   res.Type,
		Size:   res.Size,
		S3Key:  res.S3Key,
		URL:    res.URL,
	}
	if out.Name == "" {
		out.Name = file.Name
	}
	if out.Type == "" {
		out.Type = file.ContentType
	}
	if out.Size == 0 {
		out.Size = file.Size()
	}
	return out, nil
}
