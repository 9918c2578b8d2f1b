package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vitingo/advance-workflow/internal/domain/entity"
	"github.com/vitingo/advance-workflow/internal/domain/expense"
)

// CloseRequest is the body of the close-advance call
type CloseRequest struct {
	Notes            string          `json:"notes"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// AdvanceAPI reads and transitions advances on the backend
type AdvanceAPI interface {
	// ListAdvances returns advances in one status bucket
	ListAdvances(ctx context.Context, status entity.AdvanceStatus) ([]entity.AdvanceRequest, error)

	// GetAdvanceDetails fetches a single advance by id
	GetAdvanceDetails(ctx context.Context, id string) (*entity.AdvanceRequest, error)

	CloseAdvance(ctx context.Context, id string, req CloseRequest) error
	SubmitClosing(ctx context.Context, id string) error
}

// ExpenseAPI reads and writes expense lines on the backend
type ExpenseAPI interface {
	ListExpenses(ctx context.Context, advanceID string) ([]expense.WireExpenseLine, error)

	// SaveExpenses upserts the full set of lines in one request
	SaveExpenses(ctx context.Context, advanceID string, lines []expense.WireExpenseLine) error
}

// CurrencyConverter converts amounts between currencies
type CurrencyConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*entity.Conversion, error)
}

// FileUpload is a receipt received from the owner
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the upload size in bytes
func (f FileUpload) Size() int64 {
	return int64(len(f.Data))
}

// FileUploader stores receipts on the backend
type FileUploader interface {
	UploadExpenseFile(ctx context.Context, file FileUpload) (*entity.AttachedFile, error)
}

// FinanceAPI carries reviewer decisions to the backend
type FinanceAPI interface {
	ApproveLine(ctx context.Context, lineID string) error
	RejectLine(ctx context.Context, lineID string) error

	// PartialApprove sends only the rejected line ids; the paid amount
	// stays as it is on the backend.
	PartialApprove(ctx context.Context, advanceID string, rejectedLineIDs []string) error

	ApproveAdvance(ctx context.Context, advanceID string) error
	RejectAdvance(ctx context.Context, advanceID, reason, scope string) error
}

// ReferenceAPI serves dropdown data
type ReferenceAPI interface {
	Projects(ctx context.Context) ([]entity.Project, error)
	ExpenseTypes(ctx context.Context) ([]entity.GeneralExpenseType, error)
	Suppliers(ctx context.Context) ([]entity.Supplier, error)
	Categories(ctx context.Context) ([]entity.ExpenseCategory, error)
	CreditCards(ctx context.Context) ([]entity.CreditCard, error)
}

// Backend is everything the REST backend offers
type Backend interface {
	AdvanceAPI
	ExpenseAPI
	CurrencyConverter
	FileUploader
	FinanceAPI
	ReferenceAPI
}

// Notifier delivers a short text message to a person
type Notifier interface {
	Notify(ctx context.Context, recipientID, text string) error
}

// ReceiptSuggestion is what the vision model read off a receipt. Fields it
// could not read are left empty.
type ReceiptSuggestion struct {
	Date        string  `json:"date"`
	Supplier    string  `json:"supplier"`
	Amount      string  `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// ReceiptReader extracts line fields from a receipt image
type ReceiptReader interface {
	ReadReceipt(ctx context.Context, image []byte, mimeType string) (*ReceiptSuggestion, error)
}

// DocumentInspector checks uploaded PDFs and renders pages for the reader
type DocumentInspector interface {
	// PageCount opens the document and fails on corrupt input
	PageCount(data []byte) (int, error)

	// FirstPageJPEG renders page one as a JPEG image
	FirstPageJPEG(data []byte) ([]byte, error)
}

// PreviewURLProvider returns a time-limited URL for a stored receipt
type PreviewURLProvider interface {
	PreviewURL(ctx context.Context, key string) (string, error)
}
