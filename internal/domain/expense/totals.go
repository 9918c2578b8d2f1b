package expense

import (
	"github.com/shopspring/decimal"

	"github.com/vitingo/advance-workflow/internal/domain/entity"
)

// Conversions caches converted amounts by line id
type Conversions map[string]entity.ConvertedAmount

// BaseAmount is the line amount in the advance currency: the converted
// amount when one is cached, the raw amount otherwise.
func BaseAmount(l entity.ExpenseLine, conv Conversions) decimal.Decimal {
	if c, ok := conv[l.ID]; ok {
		return c.Amount
	}
	return l.AmountValue()
}

// TotalExpenses sums BaseAmount over every line
func TotalExpenses(lines []entity.ExpenseLine, conv Conversions) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(BaseAmount(l, conv))
	}
	return total
}

// RemainingBalance is approved minus spent. Positive means the employee
// owes a refund; negative means the company owes the employee.
func RemainingBalance(approved, totalExpenses decimal.Decimal) decimal.Decimal {
	return approved.Sub(totalExpenses)
}

// ReviewTotal sums lines the reviewer has not rejected
func ReviewTotal(lines []entity.ExpenseLine, conv Conversions) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.FinanceStatus == entity.FinanceStatusRejected {
			continue
		}
		total = total.Add(BaseAmount(l, conv))
	}
	return total
}

// RejectedTotal sums only rejected lines
func RejectedTotal(lines []entity.ExpenseLine, conv Conversions) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		if l.FinanceStatus == entity.FinanceStatusRejected {
			total = total.Add(BaseAmount(l, conv))
		}
	}
	return total
}

// PartialApprovalAmount is informational only; the backend keeps the paid
// amount unchanged on partial approval.
func PartialApprovalAmount(approved decimal.Decimal, lines []entity.ExpenseLine, conv Conversions) decimal.Decimal {
	return approved.Sub(RejectedTotal(lines, conv))
}

// NeedsConversion reports whether the line must be converted into base
func NeedsConversion(l entity.ExpenseLine, base string) bool {
	return l.HasAmount() && l.Currency != "" && l.Currency != base
}
