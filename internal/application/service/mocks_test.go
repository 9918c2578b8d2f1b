package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vitingo/advance-workflow/internal/application/port"
	"github.com/vitingo/advance-workflow/internal/domain/entity"
	"github.com/vitingo/advance-workflow/internal/domain/expense"
)

func testLogger() Logger {
	return zap.NewNop().Sugar()
}

// mockBackend implements port.Backend. Unset funcs return zero values;
// every call is recorded by name.
type mockBackend struct {
	mu    sync.Mutex
	calls []string

	listAdvancesFunc      func(ctx context.Context, status entity.AdvanceStatus) ([]entity.AdvanceRequest, error)
	getAdvanceDetailsFunc func(ctx context.Context, id string) (*entity.AdvanceRequest, error)
	closeAdvanceFunc      func(ctx context.Context, id string, req port.CloseRequest) error
	submitClosingFunc     func(ctx context.Context, id string) error
	listExpensesFunc      func(ctx context.Context, advanceID string) ([]expense.WireExpenseLine, error)
	saveExpensesFunc      func(ctx context.Context, advanceID string, lines []expense.WireExpenseLine) error
	convertFunc           func(ctx context.Context, amount decimal.Decimal, from, to string) (*entity.Conversion, error)
	uploadFunc            func(ctx context.Context, file port.FileUpload) (*entity.AttachedFile, error)
	approveLineFunc       func(ctx context.Context, lineID string) error
	rejectLineFunc        func(ctx context.Context, lineID string) error
	partialApproveFunc    func(ctx context.Context, advanceID string, rejected []string) error
	approveAdvanceFunc    func(ctx context.Context, advanceID string) error
	rejectAdvanceFunc     func(ctx context.Context, advanceID, reason, scope string) error
	projectsFunc          func(ctx context.Context) ([]entity.Project, error)
	expenseTypesFunc      func(ctx context.Context) ([]entity.GeneralExpenseType, error)
}

func (m *mockBackend) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockBackend) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *mockBackend) ListAdvances(ctx context.Context, status entity.AdvanceStatus) ([]entity.AdvanceRequest, error) {
	m.record("ListAdvances:" + string(status))
	if m.listAdvancesFunc != nil {
		return m.listAdvancesFunc(ctx, status)
	}
	return nil, nil
}

func (m *mockBackend) GetAdvanceDetails(ctx context.Context, id string) (*entity.AdvanceRequest, error) {
	m.record("GetAdvanceDetails")
	if m.getAdvanceDetailsFunc != nil {
		return m.getAdvanceDetailsFunc(ctx, id)
	}
	return nil, port.ErrNotFound
}

func (m *mockBackend) CloseAdvance(ctx context.Context, id string, req port.CloseRequest) error {
	m.record("CloseAdvance")
	if m.closeAdvanceFunc != nil {
		return m.closeAdvanceFunc(ctx, id, req)
	}
	return nil
}

func (m *mockBackend) SubmitClosing(ctx context.Context, id string) error {
	m.record("SubmitClosing")
	if m.submitClosingFunc != nil {
		return m.submitClosingFunc(ctx, id)
	}
	return nil
}

func (m *mockBackend) ListExpenses(ctx context.Context, advanceID string) ([]expense.WireExpenseLine, error) {
	m.record("ListExpenses")
	if m.listExpensesFunc != nil {
		return m.listExpensesFunc(ctx, advanceID)
	}
	return nil, nil
}

func (m *mockBackend) SaveExpenses(ctx context.Context, advanceID string, lines []expense.WireExpenseLine) error {
	m.record("SaveExpenses")
	if m.saveExpensesFunc != nil {
		return m.saveExpensesFunc(ctx, advanceID, lines)
	}
	return nil
}

func (m *mockBackend) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*entity.Conversion, error) {
	m.record("Convert")
	if m.convertFunc != nil {
		return m.convertFunc(ctx, amount, from, to)
	}
	return &entity.Conversion{ConvertedAmount: amount, ExchangeRate: decimal.NewFromInt(1)}, nil
}

func (m *mockBackend) UploadExpenseFile(ctx context.Context, file port.FileUpload) (*entity.AttachedFile, error) {
	m.record("UploadExpenseFile")
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, file)
	}
	return &entity.AttachedFile{FileID: "f-1", Name: file.Name, Type: file.ContentType, Size: file.Size(), S3Key: "receipts/" + file.Name}, nil
}

func (m *mockBackend) ApproveLine(ctx context.Context, lineID string) error {
	m.record("ApproveLine")
	if m.approveLineFunc != nil {
		return m.approveLineFunc(ctx, lineID)
	}
	return nil
}

func (m *mockBackend) RejectLine(ctx context.Context, lineID string) error {
	m.record("RejectLine")
	if m.rejectLineFunc != nil {
		return m.rejectLineFunc(ctx, lineID)
	}
	return nil
}

func (m *mockBackend) PartialApprove(ctx context.Context, advanceID string, rejected []string) error {
	m.record("PartialApprove")
	if m.partialApproveFunc != nil {
		return m.partialApproveFunc(ctx, advanceID, rejected)
	}
	return nil
}

func (m *mockBackend) ApproveAdvance(ctx context.Context, advanceID string) error {
	m.record("ApproveAdvance")
	if m.approveAdvanceFunc != nil {
		return m.approveAdvanceFunc(ctx, advanceID)
	}
	return nil
}

func (m *mockBackend) RejectAdvance(ctx context.Context, advanceID, reason, scope string) error {
	m.record("RejectAdvance")
	if m.rejectAdvanceFunc != nil {
		return m.rejectAdvanceFunc(ctx, advanceID, reason, scope)
	}
	return nil
}

func (m *mockBackend) Projects(ctx context.Context) ([]entity.Project, error) {
	m.record("Projects")
	if m.projectsFunc != nil {
		return m.projectsFunc(ctx)
	}
	return []entity.Project{{ID: "p1", Name: "Fuar Stand İstanbul"}}, nil
}

func (m *mockBackend) ExpenseTypes(ctx context.Context) ([]entity.GeneralExpenseType, error) {
	m.record("ExpenseTypes")
	if m.expenseTypesFunc != nil {
		return m.expenseTypesFunc(ctx)
	}
	return []entity.GeneralExpenseType{{ID: "g1", Name: "Ofis Giderleri"}}, nil
}

func (m *mockBackend) Suppliers(ctx context.Context) ([]entity.Supplier, error) {
	m.record("Suppliers")
	return []entity.Supplier{{ID: "s1", Name: "Migros"}}, nil
}

func (m *mockBackend) Categories(ctx context.Context) ([]entity.ExpenseCategory, error) {
	m.record("Categories")
	return []entity.ExpenseCategory{{ID: "c1", Name: "Yemek", Subcategories: []string{"Öğle"}}}, nil
}

func (m *mockBackend) CreditCards(ctx context.Context) ([]entity.CreditCard, error) {
	m.record("CreditCards")
	return nil, nil
}

// memoryDrafts is an in-memory port.DraftRepository
type memoryDrafts struct {
	mu     sync.Mutex
	drafts map[string]*entity.Draft
}

func newMemoryDrafts() *memoryDrafts {
	return &memoryDrafts{drafts: make(map[string]*entity.Draft)}
}

func (r *memoryDrafts) Save(ctx context.Context, draft *entity.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[draft.AdvanceID+"/"+draft.UserID] = draft
	return nil
}

func (r *memoryDrafts) Get(ctx context.Context, advanceID, userID string) (*entity.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drafts[advanceID+"/"+userID], nil
}

func (r *memoryDrafts) Delete(ctx context.Context, advanceID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, advanceID+"/"+userID)
	return nil
}

// memoryDecisions is an in-memory port.DecisionRepository
type memoryDecisions struct {
	mu      sync.Mutex
	entries []*entity.FinanceDecision
}

func (r *memoryDecisions) Create(ctx context.Context, d *entity.FinanceDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, d)
	return nil
}

func (r *memoryDecisions) ListByAdvance(ctx context.Context, advanceID string) ([]*entity.FinanceDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FinanceDecision
	for _, d := range r.entries {
		if d.AdvanceID == advanceID {
			out = append(out, d)
		}
	}
	return out, nil
}

type mockInspector struct {
	pageCountErr error
	rendered     []byte
}

func (m *mockInspector) PageCount(data []byte) (int, error) {
	if m.pageCountErr != nil {
		return 0, m.pageCountErr
	}
	return 1, nil
}

func (m *mockInspector) FirstPageJPEG(data []byte) ([]byte, error) {
	if m.pageCountErr != nil {
		return nil, m.pageCountErr
	}
	return m.rendered, nil
}

type mockReceiptReader struct {
	gotMime   string
	gotImage  []byte
	suggested port.ReceiptSuggestion
}

func (m *mockReceiptReader) ReadReceipt(ctx context.Context, image []byte, mimeType string) (*port.ReceiptSuggestion, error) {
	m.gotImage, m.gotMime = image, mimeType
	s := m.suggested
	return &s, nil
}

type mockExporter struct {
	got port.ClosingSummary
}

func (m *mockExporter) ExportClosing(summary port.ClosingSummary) ([]byte, error) {
	m.got = summary
	return []byte("xlsx"), nil
}

// mapCache is a port.Cache that keeps values without encoding
type mapCache struct {
	mu     sync.Mutex
	values map[string]any
	sets   int
}

func newMapCache() *mapCache {
	return &mapCache{values: make(map[string]any)}
}

func (c *mapCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *[]entity.Project:
		*d = v.([]entity.Project)
	case *[]entity.GeneralExpenseType:
		*d = v.([]entity.GeneralExpenseType)
	case *[]entity.Supplier:
		*d = v.([]entity.Supplier)
	case *[]entity.ExpenseCategory:
		*d = v.([]entity.ExpenseCategory)
	case *[]entity.CreditCard:
		*d = v.([]entity.CreditCard)
	default:
		return false, nil
	}
	return true, nil
}

func (c *mapCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	c.sets++
	return nil
}

func (c *mapCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func ownerUser() *entity.User {
	return &entity.User{ID: "u-1", Name: "Ayşe Yılmaz", Role: "Satış", Capabilities: entity.CapabilitiesForRole("Satış")}
}

func financeUser() *entity.User {
	return &entity.User{ID: "u-9", Name: "Mehmet Kaya", Role: "Finans", Capabilities: entity.CapabilitiesForRole("Finans")}
}

func paidAdvance() entity.AdvanceRequest {
	return entity.AdvanceRequest{
		ID:             "42",
		AdvanceNumber:  "AV-2024-042",
		RequesterID:    "u-1",
		RequesterName:  "Ayşe Yılmaz",
		Amount:         decimal.NewFromInt(1000),
		ApprovedAmount: decimal.NewFromInt(1000),
		Currency:       "TRY",
		Status:         entity.AdvanceStatusPaid,
	}
}

// completeWire is a valid persisted line in the given currency
func completeWire(id, amount, currency string) expense.WireExpenseLine {
	return expense.WireExpenseLine{
		ID:             expense.WireID(id),
		Date:           "2024-05-10",
		Supplier:       "Migros",
		Category:       "Yemek",
		Subcategory:    "Öğle",
		Description:    "Ekip yemeği",
		Amount:         expense.WireAmount(amount),
		Currency:       currency,
		DocumentStatus: string(entity.DocumentStatusWithoutReceipt),
		PaymentMethod:  string(entity.PaymentMethodCash),
		CostCenterType: string(entity.CostCenterProject),
		CostCenterID:   "p1",
	}
}
