package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitingo/advance-workflow/internal/domain/entity"
)

// Cache stores JSON-encodable values with a time to live
type Cache interface {
	// Get decodes the cached value into dest and reports whether it was found
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SummaryLine is one row of the closing summary
type SummaryLine struct {
	Line      entity.ExpenseLine
	Converted *entity.ConvertedAmount
}

// ClosingSummary is the data behind the exported workbook
type ClosingSummary struct {
	Advance          entity.AdvanceRequest
	Lines            []SummaryLine
	TotalExpenses    decimal.Decimal
	RemainingBalance decimal.Decimal
	CostCenterNames  map[string]string
}

// SummaryExporter renders a closing summary into a file
type SummaryExporter interface {
	ExportClosing(summary ClosingSummary) ([]byte, error)
}
