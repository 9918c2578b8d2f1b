package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitingo/advance-workflow/internal/domain/entity"
	"github.com/vitingo/advance-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/vitingo/advance-workflow/pkg/database"
)

func setupDB(t *testing.T) *sqlite.DB {
	t.Helper()
	logger := zap.NewNop()
	raw, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "repo.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	require.NoError(t, database.NewMigrator(raw, logger).Run())
	return sqlite.NewDB(raw.DB, logger)
}

func TestDraftRepository(t *testing.T) {
	db := setupDB(t)
	repo := NewDraftRepository(db, zap.NewNop())
	ctx := context.Background()

	got, err := repo.Get(ctx, "42", "u-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	line := entity.NewExpenseLine("TRY")
	line.Amount = "120,50"
	line.AttachedFile = &entity.AttachedFile{Name: "fis.jpg", S3Key: "r/fis.jpg"}
	require.NoError(t, repo.Save(ctx, &entity.Draft{AdvanceID: "42", UserID: "u-1", Lines: []entity.ExpenseLine{line}}))

	line.Amount = "130"
	require.NoError(t, repo.Save(ctx, &entity.Draft{AdvanceID: "42", UserID: "u-1", Lines: []entity.ExpenseLine{line}}))

	got, err = repo.Get(ctx, "42", "u-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "130", got.Lines[0].Amount)
	assert.Equal(t, "r/fis.jpg", got.Lines[0].AttachedFile.S3Key)
	assert.False(t, got.UpdatedAt.IsZero())

	other, err := repo.Get(ctx, "42", "u-2")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, repo.Delete(ctx, "42", "u-1"))
	require.NoError(t, repo.Delete(ctx, "42", "u-1"))
	got, err = repo.Get(ctx, "42", "u-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecisionRepository(t *testing.T) {
	db := setupDB(t)
	repo := NewDecisionRepository(db, zap.NewNop())
	ctx := context.Background()

	first := &entity.FinanceDecision{AdvanceID: "42", LineID: "2", Action: entity.DecisionRejectLine, Actor: "u-9"}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)
	require.NoError(t, repo.Create(ctx, &entity.FinanceDecision{AdvanceID: "42", Action: entity.DecisionPartialApprove, Actor: "u-9"}))
	require.NoError(t, repo.Create(ctx, &entity.FinanceDecision{AdvanceID: "43", Action: entity.DecisionApproveAdvance, Actor: "u-9"}))

	list, err := repo.ListByAdvance(ctx, "42")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entity.DecisionRejectLine, list[0].Action)
	assert.Equal(t, "2", list[0].LineID)
	assert.Equal(t, entity.DecisionPartialApprove, list[1].Action)
}

func TestDecisionRepository_TransactionRollback(t *testing.T) {
	db := setupDB(t)
	repo := NewDecisionRepository(db, zap.NewNop())
	ctx := context.Background()

	err := db.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := repo.Create(txCtx, &entity.FinanceDecision{AdvanceID: "42", Action: entity.DecisionApproveAdvance, Actor: "u-9"}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	list, err := repo.ListByAdvance(ctx, "42")
	require.NoError(t, err)
	assert.Empty(t, list)
}
