package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vitingo/advance-workflow/internal/application/port"
	"github.com/vitingo/advance-workflow/internal/domain/entity"
	"github.com/vitingo/advance-workflow/internal/infrastructure/persistence/sqlite"
)

// DecisionRepository implements port.DecisionRepository
type DecisionRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewDecisionRepository creates a new decision repository
func NewDecisionRepository(db *sqlite.DB, logger *zap.Logger) port.DecisionRepository {
	return &DecisionRepository{db: db, logger: logger}
}

// Create appends one decision and sets its ID
func (r *DecisionRepository) Create(ctx context.Context, d *entity.FinanceDecision) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO finance_decisions (advance_id, line_id, action, actor, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		d.AdvanceID, d.LineID, string(d.Action), d.Actor, d.Reason, d.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to record finance decision",
			zap.String("advance_id", d.AdvanceID),
			zap.String("action", string(d.Action)),
			zap.Error(err))
		return fmt.Errorf("failed to record decision: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get decision ID: %w", err)
	}
	d.ID = id
	return nil
}

// ListByAdvance returns decisions for an advance, oldest first
func (r *DecisionRepository) ListByAdvance(ctx context.Context, advanceID string) ([]*entity.FinanceDecision, error) {
	query := `
		SELECT id, advance_id, line_id, action, actor, reason, created_at
		FROM finance_decisions
		WHERE advance_id = ?
		ORDER BY created_at, id
	`
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, advanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var out []*entity.FinanceDecision
	for rows.Next() {
		d := &entity.FinanceDecision{}
		var action string
		if err := rows.Scan(&d.ID, &d.AdvanceID, &d.LineID, &action, &d.Actor, &d.Reason, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		d.Action = entity.DecisionAction(action)
		out = append(out, d)
	}
	return out, rows.Err()
}
