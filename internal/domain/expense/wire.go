// Package expense holds the rules for expense lines: the mapping between
// the backend's snake_case payload and the canonical line, validation,
// field updates, totals and upload checks.
package expense

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/vitingo/advance-workflow/internal/domain/entity"
)

// WireID accepts either a JSON string or number and always encodes as a string
type WireID string

// UnmarshalJSON implements json.Unmarshaler
func (id *WireID) UnmarshalJSON(data []byte) error {
	s, err := scalarText(data)
	if err != nil {
		return err
	}
	*id = WireID(s)
	return nil
}

// WireAmount accepts a JSON string or number and encodes as a number when
// the text is a valid decimal
type WireAmount string

// UnmarshalJSON implements json.Unmarshaler
func (a *WireAmount) UnmarshalJSON(data []byte) error {
	s, err := scalarText(data)
	if err != nil {
		return err
	}
	*a = WireAmount(s)
	return nil
}

// MarshalJSON implements json.Marshaler
func (a WireAmount) MarshalJSON() ([]byte, error) {
	if json.Valid([]byte(a)) && isNumber(string(a)) {
		return []byte(a), nil
	}
	return json.Marshal(string(a))
}

// WireAttachedFile is the backend form of entity.AttachedFile
type WireAttachedFile struct {
	FileID WireID `json:"file_id,omitempty"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Size   int64  `json:"size,omitempty"`
	S3Key  string `json:"s3_key,omitempty"`
	URL    string `json:"url,omitempty"`
}

// UnmarshalJSON also accepts the camelCase aliases older rows were saved with
func (f *WireAttachedFile) UnmarshalJSON(data []byte) error {
	type plain WireAttachedFile
	var aux struct {
		plain
		S3KeyCamel  string `json:"s3Key"`
		FileIDCamel WireID `json:"fileId"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*f = WireAttachedFile(aux.plain)
	if f.S3Key == "" {
		f.S3Key = aux.S3KeyCamel
	}
	if f.FileID == "" {
		f.FileID = aux.FileIDCamel
	}
	return nil
}

// WireBankTransfer is the backend form of entity.BankTransfer
type WireBankTransfer struct {
	RecipientName       string `json:"recipient_name"`
	BankName            string `json:"bank_name"`
	TransferDescription string `json:"transfer_description"`
}

// WireExpenseLine is the snake_case payload exchanged with the backend
type WireExpenseLine struct {
	ID                  WireID            `json:"id,omitempty"`
	Date                string            `json:"date"`
	Supplier            string            `json:"supplier"`
	Category            string            `json:"category"`
	Subcategory         string            `json:"subcategory"`
	Description         string            `json:"description"`
	Amount              WireAmount        `json:"amount"`
	Currency            string            `json:"currency"`
	DocumentStatus      string            `json:"document_status"`
	AttachedFile        *WireAttachedFile `json:"attached_file"`
	PaymentMethod       string            `json:"payment_method"`
	CreditCardID        WireID            `json:"credit_card_id,omitempty"`
	BankTransferDetails *WireBankTransfer `json:"bank_transfer_details,omitempty"`
	CostCenterType      string            `json:"cost_center_type"`
	CostCenterID        WireID            `json:"cost_center_id"`
}

// UnmarshalJSON resolves the attachment from whichever alias is present
func (w *WireExpenseLine) UnmarshalJSON(data []byte) error {
	type plain WireExpenseLine
	var aux struct {
		plain
		AttachedFileCamel *WireAttachedFile `json:"attachedFile"`
		File              *WireAttachedFile `json:"file"`
		Attachment        *WireAttachedFile `json:"attachment"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*w = WireExpenseLine(aux.plain)
	for _, alt := range []*WireAttachedFile{aux.AttachedFileCamel, aux.File, aux.Attachment} {
		if w.AttachedFile != nil {
			break
		}
		w.AttachedFile = alt
	}
	return nil
}

// ToWire maps a canonical line to the backend payload. Temporary ids are
// dropped so the backend assigns real ones.
func ToWire(l entity.ExpenseLine) WireExpenseLine {
	w := WireExpenseLine{
		Date:           l.Date,
		Supplier:       l.Supplier,
		Category:       l.Category,
		Subcategory:    l.Subcategory,
		Description:    l.Description,
		Amount:         WireAmount(l.Amount),
		Currency:       l.Currency,
		DocumentStatus: string(l.DocumentStatus),
		PaymentMethod:  string(l.PaymentMethod),
		CreditCardID:   WireID(l.CreditCardID),
		CostCenterType: string(l.CostCenterType),
		CostCenterID:   WireID(l.CostCenterID),
	}
	if !l.IsTemp() {
		w.ID = WireID(l.ID)
	}
	if l.AttachedFile != nil {
		w.AttachedFile = &WireAttachedFile{
			FileID: WireID(l.AttachedFile.FileID),
			Name:   l.AttachedFile.Name,
			Type:   l.AttachedFile.Type,
			Size:   l.AttachedFile.Size,
			S3Key:  l.AttachedFile.S3Key,
			URL:    l.AttachedFile.URL,
		}
	}
	if !l.BankTransfer.IsZero() {
		w.BankTransferDetails = &WireBankTransfer{
			RecipientName:       l.BankTransfer.RecipientName,
			BankName:            l.BankTransfer.BankName,
			TransferDescription: l.BankTransfer.TransferDescription,
		}
	}
	return w
}

// FromWire maps a backend payload to the canonical line. The date is kept
// as stored; use DisplayDate to show it.
func FromWire(w WireExpenseLine) entity.ExpenseLine {
	l := entity.ExpenseLine{
		ID:             string(w.ID),
		Date:           w.Date,
		Supplier:       w.Supplier,
		Category:       w.Category,
		Subcategory:    w.Subcategory,
		Description:    w.Description,
		Amount:         string(w.Amount),
		Currency:       w.Currency,
		DocumentStatus: entity.DocumentStatus(w.DocumentStatus),
		PaymentMethod:  entity.PaymentMethod(w.PaymentMethod),
		CreditCardID:   string(w.CreditCardID),
		CostCenterType: entity.CostCenterType(w.CostCenterType),
		CostCenterID:   string(w.CostCenterID),
	}
	if w.AttachedFile != nil {
		l.AttachedFile = &entity.AttachedFile{
			FileID: string(w.AttachedFile.FileID),
			Name:   w.AttachedFile.Name,
			Type:   w.AttachedFile.Type,
			Size:   w.AttachedFile.Size,
			S3Key:  w.AttachedFile.S3Key,
			URL:    w.AttachedFile.URL,
		}
	}
	if w.BankTransferDetails != nil {
		l.BankTransfer = entity.BankTransfer{
			RecipientName:       w.BankTransferDetails.RecipientName,
			BankName:            w.BankTransferDetails.BankName,
			TransferDescription: w.BankTransferDetails.TransferDescription,
		}
	}
	return l
}

// ToWireAll maps a slice of lines
func ToWireAll(lines []entity.ExpenseLine) []WireExpenseLine {
	out := make([]WireExpenseLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, ToWire(l))
	}
	return out
}

// FromWireAll maps a slice of payloads
func FromWireAll(ws []WireExpenseLine) []entity.ExpenseLine {
	out := make([]entity.ExpenseLine, 0, len(ws))
	for _, w := range ws {
		out = append(out, FromWire(w))
	}
	return out
}

// DisplayDate cuts a stored timestamp down to its calendar date. Anything
// that does not start with a date is returned unchanged.
func DisplayDate(s string) string {
	if len(s) <= len(time.DateOnly) {
		return s
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(time.DateOnly)
	}
	if _, err := time.Parse(time.DateOnly, s[:len(time.DateOnly)]); err == nil {
		return s[:len(time.DateOnly)]
	}
	return s
}

func scalarText(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func isNumber(s string) bool {
	var n json.Number
	return s != "" && json.Unmarshal([]byte(s), &n) == nil
}
