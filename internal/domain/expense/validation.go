package expense

import (
	"strings"

	"github.com/vitingo/advance-workflow/internal/domain/entity"
)

// Field names reported by MissingFields, in form order
const (
	FieldDate           = "date"
	FieldSupplier       = "supplier"
	FieldCategory       = "category"
	FieldSubcategory    = "subcategory"
	FieldDescription    = "description"
	FieldAmount         = "amount"
	FieldCurrency       = "currency"
	FieldDocumentStatus = "documentStatus"
	FieldAttachedFile   = "attachedFile"
	FieldCostCenter     = "costCenter"
)

// MissingFields lists what keeps the line from being submittable. An empty
// result means the line is valid.
func MissingFields(l entity.ExpenseLine) []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	check(FieldDate, l.Date)
	check(FieldSupplier, l.Supplier)
	check(FieldCategory, l.Category)
	check(FieldSubcategory, l.Subcategory)
	check(FieldDescription, l.Description)
	if !l.HasAmount() {
		missing = append(missing, FieldAmount)
	}
	check(FieldCurrency, l.Currency)
	check(FieldDocumentStatus, string(l.DocumentStatus))
	if l.DocumentStatus != entity.DocumentStatusWithoutReceipt && l.AttachedFile == nil {
		missing = append(missing, FieldAttachedFile)
	}
	if !l.HasCostCenter() {
		missing = append(missing, FieldCostCenter)
	}
	return missing
}

// IsLineValid reports whether the line can be submitted
func IsLineValid(l entity.ExpenseLine) bool {
	return len(MissingFields(l)) == 0
}

// AreAllLinesValid reports whether every line is valid. An empty list is
// not valid: there is nothing to close.
func AreAllLinesValid(lines []entity.ExpenseLine) bool {
	if len(lines) == 0 {
		return false
	}
	for _, l := range lines {
		if !IsLineValid(l) {
			return false
		}
	}
	return true
}

// PaymentIssues returns soft warnings about payment details. They do not
// affect validity.
func PaymentIssues(l entity.ExpenseLine) []string {
	var issues []string
	switch l.PaymentMethod {
	case entity.PaymentMethodCreditCard:
		if l.CreditCardID == "" {
			issues = append(issues, "credit card not selected")
		}
	case entity.PaymentMethodBankTransfer:
		if l.BankTransfer.RecipientName == "" || l.BankTransfer.BankName == "" {
			issues = append(issues, "bank transfer recipient or bank missing")
		}
	case entity.PaymentMethodCash, "":
	default:
		issues = append(issues, "unknown payment method")
	}
	return issues
}

// SavableLines keeps lines with a positive amount, the set the bulk save sends
func SavableLines(lines []entity.ExpenseLine) []entity.ExpenseLine {
	out := make([]entity.ExpenseLine, 0, len(lines))
	for _, l := range lines {
		if l.HasAmount() {
			out = append(out, l)
		}
	}
	return out
}
