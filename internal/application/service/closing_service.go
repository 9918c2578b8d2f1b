package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitingo/advance-workflow/internal/application/dispatcher"
	"github.com/vitingo/advance-workflow/internal/application/port"
	"github.com/vitingo/advance-workflow/internal/currency"
	"github.com/vitingo/advance-workflow/internal/domain/entity"
	"github.com/vitingo/advance-workflow/internal/domain/event"
	"github.com/vitingo/advance-workflow/internal/domain/expense"
	"github.com/vitingo/advance-workflow/internal/domain/workflow"
)

// DefaultReloadDelay is how long Save waits before re-reading lines so the
// backend has applied its defaults
const DefaultReloadDelay = 500 * time.Millisecond

// ClosingDeps wires a ClosingService. Drafts, Inspector, Receipts,
// Exporter, References and Events are optional.
type ClosingDeps struct {
	Locator    AdvanceLocator
	Advances   port.AdvanceAPI
	Expenses   port.ExpenseAPI
	Converter  port.CurrencyConverter
	Uploader   port.FileUploader
	Drafts     port.DraftRepository
	Inspector  port.DocumentInspector
	Receipts   port.ReceiptReader
	Exporter   port.SummaryExporter
	References ReferenceService
	Events     dispatcher.Dispatcher
	Logger     Logger

	// ReloadDelay below zero disables the wait; zero means DefaultReloadDelay
	ReloadDelay    time.Duration
	MaxUploadBytes int64
}

// ClosingService creates owner sessions
type ClosingService struct {
	deps ClosingDeps
}

// NewClosingService creates a ClosingService
func NewClosingService(deps ClosingDeps) *ClosingService {
	if deps.ReloadDelay == 0 {
		deps.ReloadDelay = DefaultReloadDelay
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = expense.MaxFileBytes
	}
	return &ClosingService{deps: deps}
}

// NewSession starts an empty session for user; call Load before anything else
func (s *ClosingService) NewSession(user *entity.User) *ClosingSession {
	return &ClosingSession{
		deps:        s.deps,
		user:        user,
		conversions: make(expense.Conversions),
	}
}

// LoadOptions tunes ClosingSession.Load
type LoadOptions struct {
	// Reload ignores a stored draft and reads persisted lines
	Reload bool `json:"reload"`

	// FromClosedList opens the closing read-only
	FromClosedList bool `json:"from_closed_list"`
}

// LeaveDecision answers a request to leave the editing screen
type LeaveDecision struct {
	Allowed      bool `json:"allowed"`
	NeedsConfirm bool `json:"needs_confirm"`
}

// LineView is one line with its derived state
type LineView struct {
	entity.ExpenseLine
	// Date shadows the stored date with its calendar form
	Date      string                  `json:"date"`
	Converted *entity.ConvertedAmount `json:"converted,omitempty"`
	Valid     bool                    `json:"valid"`
	Missing   []string                `json:"missing,omitempty"`
	Warnings  []string                `json:"warnings,omitempty"`
}

// ClosingSnapshot is a consistent read of the session
type ClosingSnapshot struct {
	Advance                 entity.AdvanceRequest `json:"advance"`
	State                   workflow.State        `json:"state"`
	Lines                   []LineView            `json:"lines"`
	TotalExpenses           decimal.Decimal       `json:"total_expenses"`
	RemainingBalance        decimal.Decimal       `json:"remaining_balance"`
	TotalExpensesDisplay    string                `json:"total_expenses_display"`
	RemainingBalanceDisplay string                `json:"remaining_balance_display"`
	ReadOnly                bool                  `json:"read_only"`
	HasUnsavedChanges       bool                  `json:"has_unsaved_changes"`
	AllLinesValid           bool                  `json:"all_lines_valid"`
	PermittedTriggers       []workflow.Trigger    `json:"permitted_triggers"`
	LastRejectionReason     string                `json:"last_rejection_reason,omitempty"`
}

// ClosingSession is one owner editing one advance's closing. Network calls
// run outside the state lock so edits are not blocked by a slow backend;
// save, close and submit are serialized among themselves.
type ClosingSession struct {
	deps ClosingDeps
	user *entity.User

	actionMu sync.Mutex

	mu             sync.Mutex
	loaded         bool
	advance        *entity.AdvanceRequest
	machine        workflow.StateMachine
	fromClosedList bool
	lines          []entity.ExpenseLine
	persisted      []entity.ExpenseLine
	conversions    expense.Conversions
	unsaved        bool
	saved          bool
	rev            uint64
}

// Load finds the advance and its lines. A stored draft wins over
// persisted lines unless opts.Reload is set; an advance with no lines gets
// one blank line in its currency.
func (s *ClosingSession) Load(ctx context.Context, requestID string, opts LoadOptions) error {
	adv, err := s.deps.Locator.Locate(ctx, requestID)
	if err != nil {
		return err
	}

	var draft *entity.Draft
	if s.deps.Drafts != nil {
		if opts.Reload {
			s.dropDraft(ctx, adv.ID)
		} else {
			draft, err = s.deps.Drafts.Get(ctx, adv.ID, s.userID())
			if err != nil {
				s.deps.Logger.Warnw("Draft read failed", "advance_id", adv.ID, "error", err)
				draft = nil
			}
		}
	}

	persisted, err := s.fetchLines(ctx, adv.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.advance = adv
	s.machine = workflow.BuildClosingMachine(workflow.StateOf(adv), s.canSubmitLocked)
	s.fromClosedList = opts.FromClosedList
	s.persisted = persisted
	s.saved = len(persisted) > 0
	s.conversions = make(expense.Conversions)
	s.unsaved = false
	switch {
	case draft != nil && len(draft.Lines) > 0:
		s.lines = entity.CloneLines(draft.Lines)
		s.unsaved = true
	case len(persisted) > 0:
		s.lines = entity.CloneLines(persisted)
	default:
		s.lines = []entity.ExpenseLine{entity.NewExpenseLine(s.baseCurrencyLocked())}
	}
	s.rev++
	s.loaded = true
	ids := s.lineIDsLocked()
	s.mu.Unlock()

	s.deps.Logger.Infow("Closing loaded", "advance_id", adv.ID, "lines", len(ids), "from_draft", draft != nil)
	s.convertAll(ctx, ids)
	return nil
}

func (s *ClosingSession) fetchLines(ctx context.Context, advanceID string) ([]entity.ExpenseLine, error) {
	wire, err := s.deps.Expenses.ListExpenses(ctx, advanceID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expense.FromWireAll(wire), nil
}

// convertAll converts lines one after another
func (s *ClosingSession) convertAll(ctx context.Context, ids []string) {
	for _, id := range ids {
		s.ConvertLine(ctx, id)
	}
}

// ConvertLine refreshes the converted amount of one line. Empty or zero
// amounts and lines already in the advance currency clear the entry
// without calling the converter. Converter failures clear the entry too.
func (s *ClosingSession) ConvertLine(ctx context.Context, lineID string) {
	s.mu.Lock()
	idx := s.indexLocked(lineID)
	if idx < 0 || s.advance == nil {
		s.mu.Unlock()
		return
	}
	line := s.lines[idx]
	base := s.baseCurrencyLocked()
	if !expense.NeedsConversion(line, base) {
		delete(s.conversions, lineID)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	res, err := s.deps.Converter.Convert(ctx, line.AmountValue(), line.Currency, base)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || res == nil {
		s.deps.Logger.Warnw("Currency conversion failed", "line_id", lineID, "from", line.Currency, "to", base, "error", err)
		delete(s.conversions, lineID)
		return
	}
	if s.indexLocked(lineID) < 0 {
		return
	}
	s.conversions[lineID] = entity.ConvertedAmount{
		Amount:   res.ConvertedAmount,
		Currency: base,
		Rate:     res.ExchangeRate,
	}
}

// UpdateLine sets one field of a line. Amount and currency edits re-run
// the conversion for that line.
func (s *ClosingSession) UpdateLine(ctx context.Context, lineID string, field expense.LineField, value any) (entity.ExpenseLine, error) {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return entity.ExpenseLine{}, err
	}
	idx := s.indexLocked(lineID)
	if idx < 0 {
		s.mu.Unlock()
		return entity.ExpenseLine{}, fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}
	updated, err := expense.ApplyUpdate(s.lines[idx], field, value)
	if err != nil {
		s.mu.Unlock()
		return entity.ExpenseLine{}, err
	}
	s.lines[idx] = updated
	s.touchLocked()
	s.mu.Unlock()

	if field.AffectsConversion() {
		s.ConvertLine(ctx, lineID)
	}
	return updated, nil
}

// AddLine appends a blank line in the advance currency
func (s *ClosingSession) AddLine() (entity.ExpenseLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editableLocked(); err != nil {
		return entity.ExpenseLine{}, err
	}
	line := entity.NewExpenseLine(s.baseCurrencyLocked())
	s.lines = append(s.lines, line)
	s.touchLocked()
	return line, nil
}

// RemoveLine deletes a line from the session
func (s *ClosingSession) RemoveLine(lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editableLocked(); err != nil {
		return err
	}
	idx := s.indexLocked(lineID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	delete(s.conversions, lineID)
	s.touchLocked()
	return nil
}

// savePayload picks the lines to send: those with a positive amount, each
// of which must name a cost center
func savePayload(lines []entity.ExpenseLine) ([]expense.WireExpenseLine, error) {
	savable := expense.SavableLines(lines)
	if len(savable) == 0 {
		return nil, ErrNothingToSave
	}
	for i, l := range lines {
		if l.HasAmount() && !l.HasCostCenter() {
			return nil, fmt.Errorf("%w: line %d", ErrMissingCostCenter, i+1)
		}
	}
	return expense.ToWireAll(savable), nil
}

// Save sends every line with an amount in one bulk request, then waits
// ReloadDelay and re-reads the lines the backend stored.
func (s *ClosingSession) Save(ctx context.Context) error {
	s.actionMu.Lock()
	defer s.actionMu.Unlock()

	advanceID, rev, err := s.persist(ctx)
	if err != nil {
		return err
	}

	if s.deps.ReloadDelay > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.deps.ReloadDelay):
		}
	}
	if err := s.reloadLines(ctx, advanceID, rev); err != nil {
		s.deps.Logger.Warnw("Reload after save failed", "advance_id", advanceID, "error", err)
	}
	return nil
}

// persist performs the save request and reports the revision it saved
func (s *ClosingSession) persist(ctx context.Context) (string, uint64, error) {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return "", 0, err
	}
	advanceID := s.advance.ID
	rev := s.rev
	payload, err := savePayload(s.lines)
	s.mu.Unlock()
	if err != nil {
		return "", 0, err
	}

	if err := s.deps.Expenses.SaveExpenses(ctx, advanceID, payload); err != nil {
		s.deps.Logger.Errorw("Saving expenses failed", "advance_id", advanceID, "error", err)
		return "", 0, fmt.Errorf("save expenses: %w", err)
	}

	s.mu.Lock()
	s.saved = true
	if s.rev == rev {
		s.unsaved = false
	}
	s.mu.Unlock()

	s.dropDraft(ctx, advanceID)
	s.publish(ctx, event.TypeClosingSaved, map[string]interface{}{"lines": len(payload)})
	s.deps.Logger.Infow("Expenses saved", "advance_id", advanceID, "lines", len(payload))
	return advanceID, rev, nil
}

// reloadLines replaces local lines with the stored ones unless the owner
// edited in the meantime
func (s *ClosingSession) reloadLines(ctx context.Context, advanceID string, rev uint64) error {
	fresh, err := s.fetchLines(ctx, advanceID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.persisted = fresh
	if s.rev != rev {
		s.mu.Unlock()
		return nil
	}
	s.lines = entity.CloneLines(fresh)
	if len(s.lines) == 0 {
		s.lines = []entity.ExpenseLine{entity.NewExpenseLine(s.baseCurrencyLocked())}
	}
	s.conversions = make(expense.Conversions)
	s.rev++
	ids := s.lineIDsLocked()
	s.mu.Unlock()

	s.convertAll(ctx, ids)
	return nil
}

// SaveAndClose saves and, only if that succeeded, closes the advance with
// the computed totals. Failures come back as *StepError.
func (s *ClosingSession) SaveAndClose(ctx context.Context, notes string) error {
	s.actionMu.Lock()
	defer s.actionMu.Unlock()

	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if !expense.AreAllLinesValid(s.lines) {
		s.mu.Unlock()
		return ErrInvalidLines
	}
	s.mu.Unlock()

	advanceID, _, err := s.persist(ctx)
	if err != nil {
		return &StepError{Step: StepSave, Err: err}
	}

	s.mu.Lock()
	total := expense.TotalExpenses(s.lines, s.conversions)
	remaining := expense.RemainingBalance(s.advance.ApprovedAmount, total)
	s.mu.Unlock()

	req := port.CloseRequest{
		Notes:            strings.TrimSpace(notes),
		TotalExpenses:    total,
		RemainingBalance: remaining,
	}
	if err := s.deps.Advances.CloseAdvance(ctx, advanceID, req); err != nil {
		s.deps.Logger.Errorw("Closing advance failed", "advance_id", advanceID, "error", err)
		return &StepError{Step: StepClose, Err: err}
	}

	s.mu.Lock()
	if err := s.machine.Fire(ctx, workflow.TriggerClose); err != nil {
		s.deps.Logger.Warnw("Close transition rejected locally", "advance_id", advanceID, "error", err)
	}
	s.advance.Status = entity.AdvanceStatusClosed
	s.advance.ClosingStatus = entity.ClosingStatusClosed
	s.mu.Unlock()

	s.refreshAdvance(ctx, advanceID)
	s.publish(ctx, event.TypeClosingClosed, map[string]interface{}{
		event.KeyTotalExpenses: total.String(),
		event.KeyRemaining:     remaining.String(),
	})
	s.deps.Logger.Infow("Advance closed", "advance_id", advanceID, "total", total.String(), "remaining", remaining.String())
	return nil
}

// canSubmitLocked guards SUBMIT; callers hold mu
func (s *ClosingSession) canSubmitLocked(context.Context) bool {
	return s.submitBlockerLocked() == nil
}

func (s *ClosingSession) submitBlockerLocked() error {
	if s.unsaved {
		return ErrUnsavedChanges
	}
	if !s.saved {
		return ErrNoSavedLines
	}
	return nil
}

// SubmitForApproval sends the saved closing to finance. Unsaved edits
// block it so the owner saves explicitly first.
func (s *ClosingSession) SubmitForApproval(ctx context.Context) error {
	s.actionMu.Lock()
	defer s.actionMu.Unlock()

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ErrSessionNotLoaded
	}
	if err := s.submitBlockerLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.machine.CanFire(workflow.TriggerSubmit) {
		state := s.machine.State()
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot submit from %s", workflow.ErrInvalidTransition, state)
	}
	advanceID := s.advance.ID
	s.mu.Unlock()

	if err := s.deps.Advances.SubmitClosing(ctx, advanceID); err != nil {
		s.deps.Logger.Errorw("Submitting closing failed", "advance_id", advanceID, "error", err)
		return fmt.Errorf("submit closing: %w", err)
	}

	s.mu.Lock()
	if err := s.machine.Fire(ctx, workflow.TriggerSubmit); err != nil {
		s.deps.Logger.Warnw("Submit transition rejected locally", "advance_id", advanceID, "error", err)
	}
	s.advance.ClosingStatus = entity.ClosingStatusSubmitted
	s.mu.Unlock()

	s.refreshAdvance(ctx, advanceID)
	s.publish(ctx, event.TypeClosingSubmitted, nil)
	s.deps.Logger.Infow("Closing submitted", "advance_id", advanceID)
	return nil
}

// refreshAdvance re-reads the advance; failures keep the local copy
func (s *ClosingSession) refreshAdvance(ctx context.Context, advanceID string) {
	adv, err := s.deps.Locator.Locate(ctx, advanceID)
	if err != nil {
		s.deps.Logger.Warnw("Advance reload failed", "advance_id", advanceID, "error", err)
		return
	}
	s.mu.Lock()
	s.advance = adv
	s.machine = workflow.BuildClosingMachine(workflow.StateOf(adv), s.canSubmitLocked)
	s.mu.Unlock()
}

// AttachFile validates and uploads a receipt, then marks the line as
// backed by a receipt
func (s *ClosingSession) AttachFile(ctx context.Context, lineID string, file port.FileUpload) (*entity.AttachedFile, error) {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.indexLocked(lineID) < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}
	s.mu.Unlock()

	if err := expense.ValidateUpload(file.ContentType, file.Size(), s.deps.MaxUploadBytes); err != nil {
		return nil, err
	}
	if expense.IsPDF(file.ContentType) && s.deps.Inspector != nil {
		if _, err := s.deps.Inspector.PageCount(file.Data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
		}
	}

	attached, err := s.deps.Uploader.UploadExpenseFile(ctx, file)
	if err != nil {
		s.deps.Logger.Errorw("Receipt upload failed", "line_id", lineID, "error", err)
		return nil, fmt.Errorf("upload file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(lineID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}
	cp := *attached
	s.lines[idx].AttachedFile = &cp
	s.lines[idx].DocumentStatus = entity.DocumentStatusWithReceipt
	s.touchLocked()
	return attached, nil
}

// RemoveFile detaches the receipt and marks the line as without receipt
func (s *ClosingSession) RemoveFile(lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editableLocked(); err != nil {
		return err
	}
	idx := s.indexLocked(lineID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}
	s.lines[idx].AttachedFile = nil
	s.lines[idx].DocumentStatus = entity.DocumentStatusWithoutReceipt
	s.touchLocked()
	return nil
}

// SuggestFromReceipt reads a receipt and proposes line values. Nothing is
// applied; the owner copies what they accept.
func (s *ClosingSession) SuggestFromReceipt(ctx context.Context, lineID string, file port.FileUpload) (*port.ReceiptSuggestion, error) {
	if s.deps.Receipts == nil {
		return nil, fmt.Errorf("%w: receipt reader", ErrFeatureDisabled)
	}

	s.mu.Lock()
	idx := s.indexLocked(lineID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}
	lineCurrency := s.lines[idx].Currency
	s.mu.Unlock()

	if err := expense.ValidateUpload(file.ContentType, file.Size(), s.deps.MaxUploadBytes); err != nil {
		return nil, err
	}

	image, mimeType := file.Data, file.ContentType
	if expense.IsPDF(file.ContentType) {
		if s.deps.Inspector == nil {
			return nil, fmt.Errorf("%w: pdf rendering", ErrFeatureDisabled)
		}
		rendered, err := s.deps.Inspector.FirstPageJPEG(file.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
		}
		image, mimeType = rendered, "image/jpeg"
	}

	suggestion, err := s.deps.Receipts.ReadReceipt(ctx, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("read receipt: %w", err)
	}
	if suggestion.Currency == "" {
		suggestion.Currency = lineCurrency
	}
	return suggestion, nil
}

// RequestLeave asks whether the owner may leave without losing work
func (s *ClosingSession) RequestLeave() LeaveDecision {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unsaved && !s.readOnlyLocked() {
		return LeaveDecision{Allowed: false, NeedsConfirm: true}
	}
	return LeaveDecision{Allowed: true}
}

// ConfirmLeave answers the confirmation. Discarding drops local edits and
// the stored draft; cancelling keeps everything.
func (s *ClosingSession) ConfirmLeave(ctx context.Context, discard bool) LeaveDecision {
	if !discard {
		return LeaveDecision{Allowed: false}
	}

	s.mu.Lock()
	var advanceID string
	if s.advance != nil {
		advanceID = s.advance.ID
	}
	s.lines = entity.CloneLines(s.persisted)
	if len(s.lines) == 0 && s.advance != nil {
		s.lines = []entity.ExpenseLine{entity.NewExpenseLine(s.baseCurrencyLocked())}
	}
	s.conversions = make(expense.Conversions)
	s.unsaved = false
	s.rev++
	s.mu.Unlock()

	if advanceID != "" {
		s.dropDraft(ctx, advanceID)
	}
	return LeaveDecision{Allowed: true}
}

// Preserve stores the current lines as a draft for the next Load
func (s *ClosingSession) Preserve(ctx context.Context) error {
	if s.deps.Drafts == nil {
		return fmt.Errorf("%w: drafts", ErrFeatureDisabled)
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ErrSessionNotLoaded
	}
	draft := &entity.Draft{
		AdvanceID: s.advance.ID,
		UserID:    s.userID(),
		Lines:     entity.CloneLines(s.lines),
		UpdatedAt: time.Now(),
	}
	s.mu.Unlock()

	if err := s.deps.Drafts.Save(ctx, draft); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// ExportSummary renders the closing as a workbook
func (s *ClosingSession) ExportSummary(ctx context.Context) ([]byte, error) {
	if s.deps.Exporter == nil {
		return nil, fmt.Errorf("%w: summary export", ErrFeatureDisabled)
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return nil, ErrSessionNotLoaded
	}
	summary := port.ClosingSummary{
		Advance:         *s.advance,
		TotalExpenses:   expense.TotalExpenses(s.lines, s.conversions),
		CostCenterNames: make(map[string]string),
	}
	summary.RemainingBalance = expense.RemainingBalance(s.advance.ApprovedAmount, summary.TotalExpenses)
	for _, l := range s.lines {
		row := port.SummaryLine{Line: l.Clone()}
		if c, ok := s.conversions[l.ID]; ok {
			c := c
			row.Converted = &c
		}
		summary.Lines = append(summary.Lines, row)
	}
	s.mu.Unlock()

	if s.deps.References != nil {
		ctx := entity.ContextWithUser(ctx, s.user)
		for _, row := range summary.Lines {
			l := row.Line
			if l.HasCostCenter() {
				summary.CostCenterNames[l.ID] = s.deps.References.CostCenterName(ctx, l.CostCenterType, l.CostCenterID)
			}
		}
	}

	data, err := s.deps.Exporter.ExportClosing(summary)
	if err != nil {
		return nil, fmt.Errorf("export summary: %w", err)
	}
	return data, nil
}

// TotalExpenses sums every line in the advance currency
func (s *ClosingSession) TotalExpenses() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return expense.TotalExpenses(s.lines, s.conversions)
}

// RemainingBalance is approved amount minus total expenses
func (s *ClosingSession) RemainingBalance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.advance == nil {
		return decimal.Zero
	}
	return expense.RemainingBalance(s.advance.ApprovedAmount, expense.TotalExpenses(s.lines, s.conversions))
}

// AreAllLinesValid reports whether every line is complete
func (s *ClosingSession) AreAllLinesValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return expense.AreAllLinesValid(s.lines)
}

// LineErrors maps line ids to their missing fields; valid lines are omitted
func (s *ClosingSession) LineErrors() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]string)
	for _, l := range s.lines {
		if missing := expense.MissingFields(l); len(missing) > 0 {
			out[l.ID] = missing
		}
	}
	return out
}

// IsReadOnly reports whether edits are refused
func (s *ClosingSession) IsReadOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readOnlyLocked()
}

// HasUnsavedChanges reports whether local edits are not saved yet
func (s *ClosingSession) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsaved
}

// Lines returns a copy of the current lines
func (s *ClosingSession) Lines() []entity.ExpenseLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entity.CloneLines(s.lines)
}

// HasFile reports whether one of the current lines holds the file stored
// under key
func (s *ClosingSession) HasFile(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entity.HasFileKey(s.lines, key)
}

// Conversion returns the cached conversion for a line
func (s *ClosingSession) Conversion(lineID string) (entity.ConvertedAmount, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversions[lineID]
	return c, ok
}

// Snapshot returns a consistent view for rendering
func (s *ClosingSession) Snapshot() (*ClosingSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return nil, ErrSessionNotLoaded
	}

	total := expense.TotalExpenses(s.lines, s.conversions)
	remaining := expense.RemainingBalance(s.advance.ApprovedAmount, total)
	base := s.baseCurrencyLocked()

	snap := &ClosingSnapshot{
		Advance:                 *s.advance,
		State:                   s.machine.State(),
		Lines:                   make([]LineView, 0, len(s.lines)),
		TotalExpenses:           total,
		RemainingBalance:        remaining,
		TotalExpensesDisplay:    currency.FormatMoney(total, base),
		RemainingBalanceDisplay: currency.FormatMoney(remaining, base),
		ReadOnly:                s.readOnlyLocked(),
		HasUnsavedChanges:       s.unsaved,
		AllLinesValid:           expense.AreAllLinesValid(s.lines),
		PermittedTriggers:       s.machine.PermittedTriggers(),
		LastRejectionReason:     s.advance.LastRejectionReason,
	}
	for _, l := range s.lines {
		missing := expense.MissingFields(l)
		view := LineView{
			ExpenseLine: l.Clone(),
			Date:        expense.DisplayDate(l.Date),
			Valid:       len(missing) == 0,
			Missing:     missing,
			Warnings:    expense.PaymentIssues(l),
		}
		if c, ok := s.conversions[l.ID]; ok {
			c := c
			view.Converted = &c
		}
		snap.Lines = append(snap.Lines, view)
	}
	return snap, nil
}

func (s *ClosingSession) editableLocked() error {
	if !s.loaded {
		return ErrSessionNotLoaded
	}
	if s.readOnlyLocked() {
		return ErrReadOnly
	}
	return nil
}

func (s *ClosingSession) readOnlyLocked() bool {
	if s.advance == nil {
		return true
	}
	return workflow.AdvanceReadOnly(s.advance, s.fromClosedList)
}

func (s *ClosingSession) touchLocked() {
	s.unsaved = true
	s.rev++
}

func (s *ClosingSession) indexLocked(lineID string) int {
	for i := range s.lines {
		if s.lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

func (s *ClosingSession) lineIDsLocked() []string {
	ids := make([]string, 0, len(s.lines))
	for _, l := range s.lines {
		ids = append(ids, l.ID)
	}
	return ids
}

func (s *ClosingSession) baseCurrencyLocked() string {
	if s.advance == nil || s.advance.Currency == "" {
		return currency.Default
	}
	return s.advance.Currency
}

func (s *ClosingSession) userID() string {
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

func (s *ClosingSession) dropDraft(ctx context.Context, advanceID string) {
	if s.deps.Drafts == nil {
		return
	}
	if err := s.deps.Drafts.Delete(ctx, advanceID, s.userID()); err != nil {
		s.deps.Logger.Warnw("Draft delete failed", "advance_id", advanceID, "error", err)
	}
}

func (s *ClosingSession) publish(ctx context.Context, t event.Type, payload map[string]interface{}) {
	if s.deps.Events == nil {
		return
	}
	s.mu.Lock()
	adv := *s.advance
	s.mu.Unlock()

	if payload == nil {
		payload = make(map[string]interface{})
	}
	payload[event.KeyAdvanceNumber] = adv.AdvanceNumber
	payload[event.KeyRequesterID] = adv.RequesterID
	payload[event.KeyRequesterName] = adv.RequesterName
	s.deps.Events.DispatchAsync(ctx, event.NewEvent(t, adv.ID, s.userID(), payload))
}

// IsValidationError reports whether err comes from local validation and
// never reached the backend
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrMissingCostCenter, ErrNothingToSave, ErrInvalidLines, ErrUnsavedChanges, ErrNoSavedLines,
		ErrCorruptDocument, ErrNothingRejected, ErrHasRejectedLines, ErrReasonTooShort, ErrInvalidScope,
		expense.ErrUnsupportedFileType, expense.ErrFileTooLarge, expense.ErrEmptyFile,
		expense.ErrUnknownField, expense.ErrInvalidValue,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
