package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentStatus tells whether a line is backed by a receipt
type DocumentStatus string

const (
	DocumentStatusWithReceipt    DocumentStatus = "Belgeli"
	DocumentStatusWithoutReceipt DocumentStatus = "Belgesiz"
)

// PaymentMethod is how the expense was paid
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// IsValid reports whether the payment method is known
func (p PaymentMethod) IsValid() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodCreditCard, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// CostCenterType selects which collection CostCenterID points into
type CostCenterType string

const (
	CostCenterProject        CostCenterType = "project"
	CostCenterGeneralExpense CostCenterType = "general_expense"
)

// IsValid reports whether the cost center type is known
func (c CostCenterType) IsValid() bool {
	return c == CostCenterProject || c == CostCenterGeneralExpense
}

// FinanceStatus is the reviewer's decision on a single line
type FinanceStatus string

const (
	FinanceStatusUnset    FinanceStatus = ""
	FinanceStatusApproved FinanceStatus = "approved"
	FinanceStatusRejected FinanceStatus = "rejected"
)

// TempIDPrefix marks ids generated before the line is persisted
const TempIDPrefix = "tmp-"

// AttachedFile is the receipt uploaded for a line
type AttachedFile struct {
	FileID string `json:"file_id,omitempty"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Size   int64  `json:"size,omitempty"`
	S3Key  string `json:"s3_key,omitempty"`
	URL    string `json:"url,omitempty"`
}

// BankTransfer holds transfer details when PaymentMethod is bank_transfer
type BankTransfer struct {
	RecipientName       string `json:"recipientName"`
	BankName            string `json:"bankName"`
	TransferDescription string `json:"transferDescription"`
}

// IsZero reports whether no transfer detail is filled in
func (b BankTransfer) IsZero() bool {
	return b == BankTransfer{}
}

// ExpenseLine is one itemized expense claimed against an advance.
// JSON tags are the camelCase form the screens use; the backend form
// lives in the expense package.
type ExpenseLine struct {
	ID             string         `json:"id"`
	Date           string         `json:"date"`
	Supplier       string         `json:"supplier"`
	Category       string         `json:"category"`
	Subcategory    string         `json:"subcategory"`
	Description    string         `json:"description"`
	Amount         string         `json:"amount"`
	Currency       string         `json:"currency"`
	DocumentStatus DocumentStatus `json:"documentStatus"`
	AttachedFile   *AttachedFile  `json:"attachedFile"`
	PaymentMethod  PaymentMethod  `json:"paymentMethod"`
	CreditCardID   string         `json:"creditCardId,omitempty"`
	BankTransfer   BankTransfer   `json:"bankTransfer"`
	CostCenterType CostCenterType `json:"costCenterType"`
	CostCenterID   string         `json:"costCenterId"`
	FinanceStatus  FinanceStatus  `json:"financeStatus,omitempty"`
}

// NewExpenseLine returns a blank line dated today in the given currency
func NewExpenseLine(currency string) ExpenseLine {
	return ExpenseLine{
		ID:             TempIDPrefix + uuid.NewString(),
		Date:           time.Now().Format(time.DateOnly),
		Currency:       currency,
		DocumentStatus: DocumentStatusWithReceipt,
		PaymentMethod:  PaymentMethodCash,
	}
}

// IsTemp reports whether the line has not been persisted yet
func (l ExpenseLine) IsTemp() bool {
	return l.ID == "" || strings.HasPrefix(l.ID, TempIDPrefix)
}

// AmountValue parses Amount. A comma is accepted as decimal separator when
// no dot is present ("12,50"). Unparseable input yields zero.
func (l ExpenseLine) AmountValue() decimal.Decimal {
	return ParseAmount(l.Amount)
}

// HasAmount reports whether the amount is strictly positive
func (l ExpenseLine) HasAmount() bool {
	return l.AmountValue().IsPositive()
}

// HasCostCenter reports whether both halves of the cost center are set
func (l ExpenseLine) HasCostCenter() bool {
	return l.CostCenterType != "" && l.CostCenterID != ""
}

// Clone returns a copy that shares no pointers with l
func (l ExpenseLine) Clone() ExpenseLine {
	c := l
	if l.AttachedFile != nil {
		f := *l.AttachedFile
		c.AttachedFile = &f
	}
	return c
}

// CloneLines deep-copies a slice of lines
func CloneLines(lines []ExpenseLine) []ExpenseLine {
	if lines == nil {
		return nil
	}
	out := make([]ExpenseLine, len(lines))
	for i, l := range lines {
		out[i] = l.Clone()
	}
	return out
}

// HasFileKey reports whether any line carries an attachment stored under key
func HasFileKey(lines []ExpenseLine, key string) bool {
	if key == "" {
		return false
	}
	for _, l := range lines {
		if l.AttachedFile != nil && l.AttachedFile.S3Key == key {
			return true
		}
	}
	return false
}

// ParseAmount parses a user-entered decimal string
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
