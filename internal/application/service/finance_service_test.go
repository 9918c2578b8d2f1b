package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitingo/advance-workflow/internal/application/dispatcher"
	"github.com/vitingo/advance-workflow/internal/domain/entity"
	"github.com/vitingo/advance-workflow/internal/domain/event"
	"github.com/vitingo/advance-workflow/internal/domain/expense"
)

func submittedAdvance() entity.AdvanceRequest {
	a := paidAdvance()
	a.ClosingStatus = entity.ClosingStatusSubmitted
	return a
}

func newReviewBackend(lines ...expense.WireExpenseLine) *mockBackend {
	adv := submittedAdvance()
	return &mockBackend{
		getAdvanceDetailsFunc: func(ctx context.Context, id string) (*entity.AdvanceRequest, error) {
			a := adv
			return &a, nil
		},
		listExpensesFunc: func(ctx context.Context, advanceID string) ([]expense.WireExpenseLine, error) {
			return lines, nil
		},
		convertFunc: func(ctx context.Context, amount decimal.Decimal, from, to string) (*entity.Conversion, error) {
			rate := decimal.NewFromInt(30)
			return &entity.Conversion{ConvertedAmount: amount.Mul(rate), ExchangeRate: rate}, nil
		},
	}
}

func financeDeps(backend *mockBackend, decisions *memoryDecisions) FinanceDeps {
	logger := testLogger()
	deps := FinanceDeps{
		Advances:   backend,
		Expenses:   backend,
		Converter:  backend,
		Finance:    backend,
		References: NewReferenceService(backend, nil, 0, logger),
		Logger:     logger,
	}
	if decisions != nil {
		deps.Decisions = decisions
	}
	return deps
}

func loadReview(t *testing.T, deps FinanceDeps, user *entity.User) *ReviewSession {
	t.Helper()
	session := NewFinanceService(deps).NewSession(user)
	require.NoError(t, session.Load(context.Background(), "42"))
	return session
}

func threeLines() []expense.WireExpenseLine {
	gen := completeWire("3", "50", "TRY")
	gen.CostCenterType = string(entity.CostCenterGeneralExpense)
	gen.CostCenterID = "g1"
	return []expense.WireExpenseLine{
		completeWire("1", "100", "TRY"),
		completeWire("2", "10", "USD"),
		gen,
	}
}

func TestReviewLoad(t *testing.T) {
	backend := newReviewBackend(threeLines()...)
	session := loadReview(t, financeDeps(backend, nil), financeUser())

	decimalEqual(t, 450, session.TotalExpenses())
	decimalEqual(t, 0, session.RejectedTotal())
	assert.Equal(t, 1, backend.count("Convert"))
	assert.Equal(t, "Fuar Stand İstanbul", session.CostCenterName(entity.CostCenterProject, "p1"))
	assert.Equal(t, "Ofis Giderleri", session.CostCenterName(entity.CostCenterGeneralExpense, "g1"))
	assert.Equal(t, NotFoundLabel, session.CostCenterName(entity.CostCenterProject, "p-gone"))

	snap, err := session.Snapshot()
	require.NoError(t, err)
	assert.True(t, snap.CanAct)
	assert.True(t, snap.CanApprove)
	assert.Equal(t, "Ofis Giderleri", snap.Lines[2].CostCenterName)
}

func TestReviewLoad_Failure(t *testing.T) {
	backend := newReviewBackend()
	backend.listExpensesFunc = func(ctx context.Context, advanceID string) ([]expense.WireExpenseLine, error) {
		return nil, errors.New("boom")
	}
	session := NewFinanceService(financeDeps(backend, nil)).NewSession(financeUser())

	assert.Error(t, session.Load(context.Background(), "42"))
	_, err := session.Snapshot()
	assert.ErrorIs(t, err, ErrSessionNotLoaded)
}

func TestReviewCapabilities(t *testing.T) {
	backend := newReviewBackend(threeLines()...)
	deps := financeDeps(backend, nil)

	owner := NewFinanceService(deps).NewSession(ownerUser())
	assert.ErrorIs(t, owner.Load(context.Background(), "42"), ErrForbidden)

	viewer := &entity.User{ID: "u-5", Capabilities: []entity.Capability{entity.CapabilityFinanceView}}
	session := loadReview(t, deps, viewer)
	_, err := session.RejectLine(context.Background(), 0)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, session.ApproveAdvance(context.Background()), ErrForbidden)
	assert.Equal(t, 0, backend.count("RejectLine"))

	snap, err := session.Snapshot()
	require.NoError(t, err)
	assert.False(t, snap.CanAct)
}

func TestReviewToggleLine(t *testing.T) {
	backend := newReviewBackend(threeLines()...)
	session := loadReview(t, financeDeps(backend, nil), financeUser())
	ctx := context.Background()

	status, err := session.RejectLine(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, entity.FinanceStatusRejected, status)
	assert.Equal(t, 1, backend.count("RejectLine"))
	decimalEqual(t, 350, session.TotalExpenses())
	decimalEqual(t, 100, session.RejectedTotal())
	decimalEqual(t, 900, session.PartialApprovalAmount())
	assert.Empty(t, session.PendingChanges())

	// pressing reject again clears it locally only
	status, err = session.RejectLine(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, entity.FinanceStatusUnset, status)
	assert.Equal(t, 1, backend.count("RejectLine"))
	assert.Equal(t, []string{"1"}, session.PendingChanges())
	decimalEqual(t, 450, session.TotalExpenses())

	status, err = session.ApproveLine(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, entity.FinanceStatusApproved, status)
	assert.Equal(t, 1, backend.count("ApproveLine"))
	assert.Empty(t, session.PendingChanges())

	_, err = session.ApproveLine(ctx, 7)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestReviewToggleLine_BackendFailureKeepsState(t *testing.T) {
	backend := newReviewBackend(threeLines()...)
	backend.rejectLineFunc = func(ctx context.Context, lineID string) error {
		return errors.New("503")
	}
	session := loadReview(t, financeDeps(backend, nil), financeUser())

	_, err := session.RejectLine(context.Background(), 1)
	assert.Error(t, err)
	decimalEqual(t, 0, session.RejectedTotal())
	snap, err := session.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, entity.FinanceStatusUnset, snap.Lines[1].Decision.Local)
}

func TestReviewPartialApprove(t *testing.T) {
	backend := newReviewBackend(threeLines()...)
	var sent []string
	backend.partialApproveFunc = func(ctx context.Context, advanceID string, rejected []string) error {
		sent = rejected
		return nil
	}
	decisions := &memoryDecisions{}
	session := loadReview(t, financeDeps(backend, decisions), financeUser())
	ctx := context.Background()

	assert.ErrorIs(t, session.PartialApprove(ctx), ErrNothingRejected)
	assert.Equal(t, 0, backend.count("PartialApprove"))

	_, err := session.ApproveLine(ctx, 0)
	require.NoError(t, err)
	_, err = session.RejectLine(ctx, 1)
	require.NoError(t, err)
	_, err = session.RejectLine(ctx, 2)
	require.NoError(t, err)

	assert.ErrorIs(t, session.ApproveAdvance(ctx), ErrHasRejectedLines)
	assert.Equal(t, 0, backend.count("ApproveAdvance"))

	require.NoError(t, session.PartialApprove(ctx))
	assert.Equal(t, []string{"2", "3"}, sent)

	logged, err := decisions.ListByAdvance(ctx, "42")
	require.NoError(t, err)
	var partial int
	for _, d := range logged {
		assert.Equal(t, "u-9", d.Actor)
		if d.Action == entity.DecisionPartialApprove {
			partial++
		}
	}
	assert.Equal(t, 1, partial)
	assert.Len(t, logged, 6)
}

func TestReviewApproveAdvance(t *testing.T) {
	backend := newReviewBackend(threeLines()...)
	d := dispatcher.NewDispatcher()
	approved := make(chan *event.Event, 1)
	d.Subscribe(event.TypeAdvanceApproved, "test", func(ctx context.Context, evt *event.Event) error {
		approved <- evt
		return nil
	})
	deps := financeDeps(backend, nil)
	deps.Events = d
	session := loadReview(t, deps, financeUser())

	require.NoError(t, session.ApproveAdvance(context.Background()))
	assert.Equal(t, 1, backend.count("ApproveAdvance"))

	select {
	case evt := <-approved:
		assert.Equal(t, "AV-2024-042", evt.GetPayloadString(event.KeyAdvanceNumber))
		assert.Equal(t, "u-1", evt.GetPayloadString(event.KeyRequesterID))
		assert.Equal(t, "u-9", evt.Actor)
	case <-time.After(2 * time.Second):
		t.Fatal("finance.approved was not published")
	}
}

func TestValidateRejection(t *testing.T) {
	tests := []struct {
		name    string
		reason  string
		scope   string
		wantErr error
	}{
		{"valid", "Fişler eksik gönderildi", RejectScopeAll, nil},
		{"exactly ten runes", "çğıöşüÇĞİÖ", RejectScopeAll, nil},
		{"too short", "eksik", RejectScopeAll, ErrReasonTooShort},
		{"whitespace padded", "   kısa     ", RejectScopeAll, ErrReasonTooShort},
		{"bad scope", "Fişler eksik gönderildi", "line", ErrInvalidScope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRejection(tt.reason, tt.scope)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReviewRejectAdvance(t *testing.T) {
	backend := newReviewBackend(threeLines()...)
	var gotReason, gotScope string
	backend.rejectAdvanceFunc = func(ctx context.Context, advanceID, reason, scope string) error {
		gotReason, gotScope = reason, scope
		return nil
	}
	decisions := &memoryDecisions{}
	session := loadReview(t, financeDeps(backend, decisions), financeUser())
	ctx := context.Background()

	assert.ErrorIs(t, session.RejectAdvance(ctx, "kısa", RejectScopeAll), ErrReasonTooShort)
	assert.Equal(t, 0, backend.count("RejectAdvance"))

	require.NoError(t, session.RejectAdvance(ctx, "  Fişler eksik gönderildi ", RejectScopeAll))
	assert.Equal(t, "Fişler eksik gönderildi", gotReason)
	assert.Equal(t, RejectScopeAll, gotScope)

	logged, err := NewFinanceService(financeDeps(backend, decisions)).Decisions(ctx, financeUser(), "42")
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, entity.DecisionRejectAdvance, logged[0].Action)
	assert.Equal(t, gotReason, logged[0].Reason)

	_, err = NewFinanceService(financeDeps(backend, decisions)).Decisions(ctx, ownerUser(), "42")
	assert.ErrorIs(t, err, ErrForbidden)
}
