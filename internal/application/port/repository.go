package port

import (
	"context"

	"github.com/vitingo/advance-workflow/internal/domain/entity"
)

// DraftRepository keeps work-in-progress lines between screens.
// Get returns nil, nil when no draft exists.
type DraftRepository interface {
	Save(ctx context.Context, draft *entity.Draft) error
	Get(ctx context.Context, advanceID, userID string) (*entity.Draft, error)
	Delete(ctx context.Context, advanceID, userID string) error
}

// DecisionRepository is the local log of finance actions
type DecisionRepository interface {
	Create(ctx context.Context, decision *entity.FinanceDecision) error
	ListByAdvance(ctx context.Context, advanceID string) ([]*entity.FinanceDecision, error)
}

// TransactionManager runs fn inside one database transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
