package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vitingo/advance-workflow/internal/application/port"
	"github.com/vitingo/advance-workflow/internal/domain/entity"
	"github.com/vitingo/advance-workflow/internal/infrastructure/persistence/sqlite"
)

// DraftRepository implements port.DraftRepository. Lines are kept as one
// JSON document per advance and user.
type DraftRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(db *sqlite.DB, logger *zap.Logger) port.DraftRepository {
	return &DraftRepository{db: db, logger: logger}
}

// Save replaces the draft for the advance and user
func (r *DraftRepository) Save(ctx context.Context, draft *entity.Draft) error {
	lines, err := json.Marshal(draft.Lines)
	if err != nil {
		return fmt.Errorf("failed to encode draft lines: %w", err)
	}
	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = time.Now()
	}

	query := `
		INSERT INTO closing_drafts (advance_id, user_id, lines, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (advance_id, user_id) DO UPDATE SET
			lines = excluded.lines,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, draft.AdvanceID, draft.UserID, string(lines), draft.UpdatedAt); err != nil {
		r.logger.Error("Failed to save draft", zap.String("advance_id", draft.AdvanceID), zap.Error(err))
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Get returns nil, nil when no draft exists
func (r *DraftRepository) Get(ctx context.Context, advanceID, userID string) (*entity.Draft, error) {
	query := `SELECT lines, updated_at FROM closing_drafts WHERE advance_id = ? AND user_id = ?`

	var (
		raw       string
		updatedAt time.Time
	)
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, advanceID, userID).Scan(&raw, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	draft := &entity.Draft{AdvanceID: advanceID, UserID: userID, UpdatedAt: updatedAt}
	if err := json.Unmarshal([]byte(raw), &draft.Lines); err != nil {
		return nil, fmt.Errorf("failed to decode draft lines: %w", err)
	}
	return draft, nil
}

// Delete removes the draft; a missing draft is not an error
func (r *DraftRepository) Delete(ctx context.Context, advanceID, userID string) error {
	query := `DELETE FROM closing_drafts WHERE advance_id = ? AND user_id = ?`
	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, advanceID, userID); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}
