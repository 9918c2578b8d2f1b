package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vitingo/advance-workflow/internal/application/dispatcher"
	"github.com/vitingo/advance-workflow/internal/application/port"
	"github.com/vitingo/advance-workflow/internal/currency"
	"github.com/vitingo/advance-workflow/internal/domain/entity"
	"github.com/vitingo/advance-workflow/internal/domain/event"
	"github.com/vitingo/advance-workflow/internal/domain/expense"
	"github.com/vitingo/advance-workflow/internal/domain/workflow"
)

// MinRejectReason is the shortest accepted rejection reason, in characters
const MinRejectReason = 10

// RejectScopeAll rejects every line of the advance
const RejectScopeAll = "all"

// FinanceDeps wires a FinanceService. Decisions, TxManager and Events are optional.
type FinanceDeps struct {
	Advances   port.AdvanceAPI
	Expenses   port.ExpenseAPI
	Converter  port.CurrencyConverter
	Finance    port.FinanceAPI
	References ReferenceService
	Decisions  port.DecisionRepository
	TxManager  port.TransactionManager
	Events     dispatcher.Dispatcher
	Logger     Logger
}

// FinanceService creates reviewer sessions
type FinanceService struct {
	deps FinanceDeps
}

// NewFinanceService creates a FinanceService
func NewFinanceService(deps FinanceDeps) *FinanceService {
	return &FinanceService{deps: deps}
}

// NewSession starts a review session for user
func (s *FinanceService) NewSession(user *entity.User) *ReviewSession {
	return &ReviewSession{
		deps:        s.deps,
		user:        user,
		conversions: make(expense.Conversions),
	}
}

// Decisions lists the local log of finance actions on an advance
func (s *FinanceService) Decisions(ctx context.Context, user *entity.User, advanceID string) ([]*entity.FinanceDecision, error) {
	if !user.HasCapability(entity.CapabilityFinanceView) {
		return nil, ErrForbidden
	}
	if s.deps.Decisions == nil {
		return nil, fmt.Errorf("%w: decision log", ErrFeatureDisabled)
	}
	return s.deps.Decisions.ListByAdvance(ctx, advanceID)
}

// ReviewLineView is a line with the reviewer's decision
type ReviewLineView struct {
	entity.ExpenseLine
	// Date shadows the stored date with its calendar form
	Date           string                  `json:"date"`
	Converted      *entity.ConvertedAmount `json:"converted,omitempty"`
	Decision       workflow.LineDecision   `json:"decision"`
	CostCenterName string                  `json:"cost_center_name"`
}

// ReviewSnapshot is a consistent read of a review session
type ReviewSnapshot struct {
	Advance               entity.AdvanceRequest `json:"advance"`
	Lines                 []ReviewLineView      `json:"lines"`
	TotalExpenses         decimal.Decimal       `json:"total_expenses"`
	RejectedTotal         decimal.Decimal       `json:"rejected_total"`
	PartialApprovalAmount decimal.Decimal       `json:"partial_approval_amount"`
	TotalExpensesDisplay  string                `json:"total_expenses_display"`
	PendingChanges        []string              `json:"pending_changes,omitempty"`
	CanApprove            bool                  `json:"can_approve"`
	CanAct                bool                  `json:"can_act"`
}

// ReviewSession is one reviewer deciding on one advance
type ReviewSession struct {
	deps FinanceDeps
	user *entity.User

	mu           sync.Mutex
	loaded       bool
	advance      *entity.AdvanceRequest
	lines        []entity.ExpenseLine
	decisions    []workflow.LineDecision
	conversions  expense.Conversions
	projects     []entity.Project
	expenseTypes []entity.GeneralExpenseType
}

// Load fetches the advance, cost centers and lines concurrently, then
// converts foreign-currency lines one at a time so the converter is not
// flooded.
func (s *ReviewSession) Load(ctx context.Context, requestID string) error {
	if !s.user.HasCapability(entity.CapabilityFinanceView) {
		return ErrForbidden
	}

	var (
		adv      *entity.AdvanceRequest
		projects []entity.Project
		types    []entity.GeneralExpenseType
		wire     []expense.WireExpenseLine
	)

	g, gctx := errgroup.WithContext(entity.ContextWithUser(ctx, s.user))
	g.Go(func() error {
		var err error
		adv, err = s.deps.Advances.GetAdvanceDetails(gctx, requestID)
		if err != nil {
			return fmt.Errorf("get advance details: %w", err)
		}
		if adv == nil {
			return fmt.Errorf("%w: %s", ErrAdvanceNotFound, requestID)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		projects, err = s.deps.References.Projects(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		types, err = s.deps.References.ExpenseTypes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		wire, err = s.deps.Expenses.ListExpenses(gctx, requestID)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.deps.Logger.Errorw("Review load failed", "advance_id", requestID, "error", err)
		return err
	}

	lines := expense.FromWireAll(wire)

	s.mu.Lock()
	s.advance = adv
	s.projects = projects
	s.expenseTypes = types
	s.lines = lines
	s.decisions = make([]workflow.LineDecision, len(lines))
	s.conversions = make(expense.Conversions)
	s.loaded = true
	base := s.baseCurrencyLocked()
	s.mu.Unlock()

	for _, l := range lines {
		if !expense.NeedsConversion(l, base) {
			continue
		}
		res, err := s.deps.Converter.Convert(ctx, l.AmountValue(), l.Currency, base)
		if err != nil || res == nil {
			s.deps.Logger.Warnw("Currency conversion failed", "line_id", l.ID, "from", l.Currency, "error", err)
			continue
		}
		s.mu.Lock()
		s.conversions[l.ID] = entity.ConvertedAmount{Amount: res.ConvertedAmount, Currency: base, Rate: res.ExchangeRate}
		s.mu.Unlock()
	}

	s.deps.Logger.Infow("Review loaded", "advance_id", adv.ID, "lines", len(lines))
	return nil
}

// ApproveLine toggles approval of the line at index
func (s *ReviewSession) ApproveLine(ctx context.Context, index int) (entity.FinanceStatus, error) {
	return s.toggleLine(ctx, index, entity.FinanceStatusApproved)
}

// RejectLine toggles rejection of the line at index
func (s *ReviewSession) RejectLine(ctx context.Context, index int) (entity.FinanceStatus, error) {
	return s.toggleLine(ctx, index, entity.FinanceStatusRejected)
}

// toggleLine clears the decision locally when it already equals target;
// otherwise the backend is told first and the local state follows on success.
func (s *ReviewSession) toggleLine(ctx context.Context, index int, target entity.FinanceStatus) (entity.FinanceStatus, error) {
	s.mu.Lock()
	if err := s.actionableLocked(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	if index < 0 || index >= len(s.lines) {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: index %d", ErrLineNotFound, index)
	}
	next, callBackend := s.decisions[index].Toggle(target)
	if !callBackend {
		s.decisions[index] = s.decisions[index].Clear()
		s.lines[index].FinanceStatus = next
		s.mu.Unlock()
		return next, nil
	}
	lineID := s.lines[index].ID
	advanceID := s.advance.ID
	s.mu.Unlock()

	action, evt, call := entity.DecisionRejectLine, event.TypeLineRejected, s.deps.Finance.RejectLine
	if target == entity.FinanceStatusApproved {
		action, evt, call = entity.DecisionApproveLine, event.TypeLineApproved, s.deps.Finance.ApproveLine
	}
	if err := call(ctx, lineID); err != nil {
		s.deps.Logger.Errorw("Line decision failed", "line_id", lineID, "decision", target, "error", err)
		return "", fmt.Errorf("%s: %w", strings.ToLower(string(action)), err)
	}

	s.mu.Lock()
	if index < len(s.lines) && s.lines[index].ID == lineID {
		s.decisions[index] = s.decisions[index].Confirm(next)
		s.lines[index].FinanceStatus = next
	}
	s.mu.Unlock()

	s.record(ctx, []*entity.FinanceDecision{{AdvanceID: advanceID, LineID: lineID, Action: action}})
	s.publish(ctx, evt, map[string]interface{}{event.KeyLineID: lineID})
	return next, nil
}

// PartialApprove approves the advance except the rejected lines. Only the
// rejected line ids are sent; the paid amount is left to the backend.
func (s *ReviewSession) PartialApprove(ctx context.Context) error {
	s.mu.Lock()
	if err := s.actionableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	rejected := s.rejectedIDsLocked()
	advanceID := s.advance.ID
	s.mu.Unlock()

	if len(rejected) == 0 {
		return ErrNothingRejected
	}

	if err := s.deps.Finance.PartialApprove(ctx, advanceID, rejected); err != nil {
		s.deps.Logger.Errorw("Partial approval failed", "advance_id", advanceID, "error", err)
		return fmt.Errorf("partial approve: %w", err)
	}

	entries := []*entity.FinanceDecision{{AdvanceID: advanceID, Action: entity.DecisionPartialApprove}}
	for _, id := range rejected {
		entries = append(entries, &entity.FinanceDecision{AdvanceID: advanceID, LineID: id, Action: entity.DecisionRejectLine})
	}
	s.record(ctx, entries)
	s.publish(ctx, event.TypePartiallyApproved, map[string]interface{}{event.KeyRejectedLineIDs: rejected})
	s.deps.Logger.Infow("Advance partially approved", "advance_id", advanceID, "rejected", len(rejected))
	return nil
}

// ApproveAdvance approves the whole advance. Rejected lines block it.
func (s *ReviewSession) ApproveAdvance(ctx context.Context) error {
	s.mu.Lock()
	if err := s.actionableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if len(s.rejectedIDsLocked()) > 0 {
		s.mu.Unlock()
		return ErrHasRejectedLines
	}
	advanceID := s.advance.ID
	s.mu.Unlock()

	if err := s.deps.Finance.ApproveAdvance(ctx, advanceID); err != nil {
		s.deps.Logger.Errorw("Advance approval failed", "advance_id", advanceID, "error", err)
		return fmt.Errorf("approve advance: %w", err)
	}

	s.record(ctx, []*entity.FinanceDecision{{AdvanceID: advanceID, Action: entity.DecisionApproveAdvance}})
	s.publish(ctx, event.TypeAdvanceApproved, nil)
	s.deps.Logger.Infow("Advance approved", "advance_id", advanceID)
	return nil
}

// ValidateRejection checks a rejection reason and scope
func ValidateRejection(reason, scope string) error {
	if utf8.RuneCountInString(strings.TrimSpace(reason)) < MinRejectReason {
		return fmt.Errorf("%w: at least %d characters", ErrReasonTooShort, MinRejectReason)
	}
	if scope != RejectScopeAll {
		return fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	return nil
}

// RejectAdvance rejects the whole advance with a reason
func (s *ReviewSession) RejectAdvance(ctx context.Context, reason, scope string) error {
	if err := ValidateRejection(reason, scope); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)

	s.mu.Lock()
	if err := s.actionableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	advanceID := s.advance.ID
	s.mu.Unlock()

	if err := s.deps.Finance.RejectAdvance(ctx, advanceID, reason, scope); err != nil {
		s.deps.Logger.Errorw("Advance rejection failed", "advance_id", advanceID, "error", err)
		return fmt.Errorf("reject advance: %w", err)
	}

	s.record(ctx, []*entity.FinanceDecision{{AdvanceID: advanceID, Action: entity.DecisionRejectAdvance, Reason: reason}})
	s.publish(ctx, event.TypeAdvanceRejected, map[string]interface{}{event.KeyReason: reason})
	s.deps.Logger.Infow("Advance rejected", "advance_id", advanceID)
	return nil
}

// CostCenterName resolves a cost center against the preloaded collections
func (s *ReviewSession) CostCenterName(kind entity.CostCenterType, id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.costCenterNameLocked(kind, id)
}

func (s *ReviewSession) costCenterNameLocked(kind entity.CostCenterType, id string) string {
	switch kind {
	case entity.CostCenterProject:
		return ProjectName(s.projects, id)
	case entity.CostCenterGeneralExpense:
		return ExpenseTypeName(s.expenseTypes, id)
	}
	return NotFoundLabel
}

// HasFile reports whether a line under review holds the file stored
// under key
func (s *ReviewSession) HasFile(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entity.HasFileKey(s.lines, key)
}

// TotalExpenses sums lines that are not rejected
func (s *ReviewSession) TotalExpenses() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return expense.ReviewTotal(s.lines, s.conversions)
}

// RejectedTotal sums rejected lines
func (s *ReviewSession) RejectedTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return expense.RejectedTotal(s.lines, s.conversions)
}

// PartialApprovalAmount is approved amount minus rejected total; display only
func (s *ReviewSession) PartialApprovalAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.advance == nil {
		return decimal.Zero
	}
	return expense.PartialApprovalAmount(s.advance.ApprovedAmount, s.lines, s.conversions)
}

// PendingChanges lists line ids whose local decision differs from the
// one the backend acknowledged
func (s *ReviewSession) PendingChanges() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked()
}

func (s *ReviewSession) pendingLocked() []string {
	var out []string
	for i, d := range s.decisions {
		if d.Pending() {
			out = append(out, s.lines[i].ID)
		}
	}
	return out
}

// Snapshot returns a consistent view for rendering
func (s *ReviewSession) Snapshot() (*ReviewSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return nil, ErrSessionNotLoaded
	}

	total := expense.ReviewTotal(s.lines, s.conversions)
	snap := &ReviewSnapshot{
		Advance:               *s.advance,
		Lines:                 make([]ReviewLineView, 0, len(s.lines)),
		TotalExpenses:         total,
		RejectedTotal:         expense.RejectedTotal(s.lines, s.conversions),
		PartialApprovalAmount: expense.PartialApprovalAmount(s.advance.ApprovedAmount, s.lines, s.conversions),
		TotalExpensesDisplay:  currency.FormatMoney(total, s.baseCurrencyLocked()),
		PendingChanges:        s.pendingLocked(),
		CanApprove:            len(s.rejectedIDsLocked()) == 0,
		CanAct:                s.user.HasCapability(entity.CapabilityFinanceApprove),
	}
	for i, l := range s.lines {
		view := ReviewLineView{
			ExpenseLine:    l.Clone(),
			Date:           expense.DisplayDate(l.Date),
			Decision:       s.decisions[i],
			CostCenterName: s.costCenterNameLocked(l.CostCenterType, l.CostCenterID),
		}
		if c, ok := s.conversions[l.ID]; ok {
			c := c
			view.Converted = &c
		}
		snap.Lines = append(snap.Lines, view)
	}
	return snap, nil
}

func (s *ReviewSession) actionableLocked() error {
	if !s.user.HasCapability(entity.CapabilityFinanceApprove) {
		return ErrForbidden
	}
	if !s.loaded {
		return ErrSessionNotLoaded
	}
	return nil
}

func (s *ReviewSession) rejectedIDsLocked() []string {
	var ids []string
	for i, d := range s.decisions {
		if d.Local == entity.FinanceStatusRejected {
			ids = append(ids, s.lines[i].ID)
		}
	}
	return ids
}

func (s *ReviewSession) baseCurrencyLocked() string {
	if s.advance == nil || s.advance.Currency == "" {
		return currency.Default
	}
	return s.advance.Currency
}

func (s *ReviewSession) actor() string {
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// record appends to the decision log in one transaction. The backend call
// already succeeded, so failures are logged and swallowed.
func (s *ReviewSession) record(ctx context.Context, entries []*entity.FinanceDecision) {
	if s.deps.Decisions == nil {
		return
	}
	now := time.Now()
	write := func(txCtx context.Context) error {
		for _, d := range entries {
			d.Actor = s.actor()
			d.CreatedAt = now
			if err := s.deps.Decisions.Create(txCtx, d); err != nil {
				return err
			}
		}
		return nil
	}

	var err error
	if s.deps.TxManager != nil {
		err = s.deps.TxManager.WithTransaction(ctx, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		s.deps.Logger.Warnw("Decision log write failed", "entries", len(entries), "error", err)
	}
}

func (s *ReviewSession) publish(ctx context.Context, t event.Type, payload map[string]interface{}) {
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
	s.deps.Events.DispatchAsync(ctx, event.NewEvent(t, adv.ID, s.actor(), payload))
}
