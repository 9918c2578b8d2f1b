package expense

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vitingo/advance-workflow/internal/domain/entity"
)

// LineField names an editable field of an expense line
type LineField string

const (
	LineFieldDate           LineField = "date"
	LineFieldSupplier       LineField = "supplier"
	LineFieldCategory       LineField = "category"
	LineFieldSubcategory    LineField = "subcategory"
	LineFieldDescription    LineField = "description"
	LineFieldAmount         LineField = "amount"
	LineFieldCurrency       LineField = "currency"
	LineFieldDocumentStatus LineField = "documentStatus"
	LineFieldAttachedFile   LineField = "attachedFile"
	LineFieldPaymentMethod  LineField = "paymentMethod"
	LineFieldCreditCardID   LineField = "creditCardId"
	LineFieldBankTransfer   LineField = "bankTransfer"
	LineFieldCostCenterType LineField = "costCenterType"
	LineFieldCostCenterID   LineField = "costCenterId"
)

var (
	// ErrUnknownField is returned for a field that cannot be edited
	ErrUnknownField = errors.New("unknown expense line field")

	// ErrInvalidValue is returned when the value type does not fit the field
	ErrInvalidValue = errors.New("invalid value for field")
)

// BankTransferPatch carries the bank transfer keys to overwrite. Nil keys
// keep their current value.
type BankTransferPatch struct {
	RecipientName       *string `json:"recipientName,omitempty"`
	BankName            *string `json:"bankName,omitempty"`
	TransferDescription *string `json:"transferDescription,omitempty"`
}

// AffectsConversion reports whether editing f may change the converted amount
func (f LineField) AffectsConversion() bool {
	return f == LineFieldAmount || f == LineFieldCurrency
}

// ApplyUpdate returns l with field set to value. String fields take a
// string; bankTransfer takes a BankTransferPatch and merges; attachedFile
// takes *entity.AttachedFile or nil.
func ApplyUpdate(l entity.ExpenseLine, field LineField, value any) (entity.ExpenseLine, error) {
	out := l.Clone()

	switch field {
	case LineFieldBankTransfer:
		patch, ok := value.(BankTransferPatch)
		if !ok {
			return l, fmt.Errorf("%w: %s", ErrInvalidValue, field)
		}
		if patch.RecipientName != nil {
			out.BankTransfer.RecipientName = *patch.RecipientName
		}
		if patch.BankName != nil {
			out.BankTransfer.BankName = *patch.BankName
		}
		if patch.TransferDescription != nil {
			out.BankTransfer.TransferDescription = *patch.TransferDescription
		}
		return out, nil

	case LineFieldAttachedFile:
		switch f := value.(type) {
		case nil:
			out.AttachedFile = nil
		case *entity.AttachedFile:
			if f == nil {
				out.AttachedFile = nil
			} else {
				cp := *f
				out.AttachedFile = &cp
			}
		default:
			return l, fmt.Errorf("%w: %s", ErrInvalidValue, field)
		}
		return out, nil
	}

	s, ok := value.(string)
	if !ok {
		return l, fmt.Errorf("%w: %s", ErrInvalidValue, field)
	}

	switch field {
	case LineFieldDate:
		out.Date = s
	case LineFieldSupplier:
		out.Supplier = s
	case LineFieldCategory:
		if s != out.Category {
			out.Subcategory = ""
		}
		out.Category = s
	case LineFieldSubcategory:
		out.Subcategory = s
	case LineFieldDescription:
		out.Description = s
	case LineFieldAmount:
		out.Amount = s
	case LineFieldCurrency:
		out.Currency = s
	case LineFieldDocumentStatus:
		out.DocumentStatus = entity.DocumentStatus(s)
	case LineFieldPaymentMethod:
		pm := entity.PaymentMethod(s)
		if s != "" && !pm.IsValid() {
			return l, fmt.Errorf("%w: %s=%q", ErrInvalidValue, field, s)
		}
		out.PaymentMethod = pm
		if pm != entity.PaymentMethodCreditCard {
			out.CreditCardID = ""
		}
		if pm != entity.PaymentMethodBankTransfer {
			out.BankTransfer = entity.BankTransfer{}
		}
	case LineFieldCreditCardID:
		out.CreditCardID = s
	case LineFieldCostCenterType:
		ct := entity.CostCenterType(s)
		if s != "" && !ct.IsValid() {
			return l, fmt.Errorf("%w: %s=%q", ErrInvalidValue, field, s)
		}
		if ct != out.CostCenterType {
			out.CostCenterID = ""
		}
		out.CostCenterType = ct
	case LineFieldCostCenterID:
		out.CostCenterID = s
	default:
		return l, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return out, nil
}

// DecodeValue turns a raw JSON value into the Go type ApplyUpdate expects
// for field.
func DecodeValue(field LineField, raw json.RawMessage) (any, error) {
	switch field {
	case LineFieldBankTransfer:
		var p BankTransferPatch
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
		}
		return p, nil
	case LineFieldAttachedFile:
		var f *entity.AttachedFile
		if len(raw) == 0 {
			return f, nil
		}
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
		}
		return f, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	// amounts may arrive as bare numbers
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidValue, field)
}
