package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitingo/advance-workflow/internal/domain/entity"
)

func userContext(id string) context.Context {
	return entity.ContextWithUser(context.Background(), &entity.User{ID: id})
}

func TestReferenceService_CachesCollections(t *testing.T) {
	backend := &mockBackend{}
	cache := newMapCache()
	svc := NewReferenceService(backend, cache, time.Minute, testLogger())
	ctx := userContext("u-1")

	for i := 0; i < 3; i++ {
		projects, err := svc.Projects(ctx)
		require.NoError(t, err)
		assert.Len(t, projects, 1)
	}
	assert.Equal(t, 1, backend.count("Projects"))
	assert.Equal(t, 1, cache.sets)

	_, err := svc.Suppliers(ctx)
	require.NoError(t, err)
	_, err = svc.Suppliers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.count("Suppliers"))

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.count("Projects"))
}

func TestReferenceService_CachePerUser(t *testing.T) {
	backend := &mockBackend{
		projectsFunc: func(ctx context.Context) ([]entity.Project, error) {
			user := entity.UserFromContext(ctx)
			return []entity.Project{{ID: "p-" + user.ID, Name: user.ID}}, nil
		},
	}
	cache := newMapCache()
	svc := NewReferenceService(backend, cache, time.Minute, testLogger())
	alice, bob := userContext("u-a"), userContext("u-b")

	first, err := svc.Projects(alice)
	require.NoError(t, err)
	second, err := svc.Projects(bob)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "p-u-a", first[0].ID)
	assert.Equal(t, "p-u-b", second[0].ID)
	assert.Equal(t, 2, backend.count("Projects"))

	again, err := svc.Projects(bob)
	require.NoError(t, err)
	assert.Equal(t, "p-u-b", again[0].ID)
	assert.Equal(t, 2, backend.count("Projects"))

	require.NoError(t, svc.Invalidate(alice))
	_, err = svc.Projects(bob)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.count("Projects"), "invalidation is per caller")
}

func TestReferenceService_AnonymousBypassesCache(t *testing.T) {
	backend := &mockBackend{}
	cache := newMapCache()
	svc := NewReferenceService(backend, cache, time.Minute, testLogger())

	_, err := svc.Projects(context.Background())
	require.NoError(t, err)
	_, err = svc.Projects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, backend.count("Projects"))
	assert.Equal(t, 0, cache.sets)
}

func TestReferenceService_NoCache(t *testing.T) {
	backend := &mockBackend{}
	svc := NewReferenceService(backend, nil, 0, testLogger())
	ctx := userContext("u-1")

	_, err := svc.Categories(ctx)
	require.NoError(t, err)
	_, err = svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.count("Categories"))
	assert.NoError(t, svc.Invalidate(ctx))
}

func TestReferenceService_LoadErrorNotCached(t *testing.T) {
	fail := true
	backend := &mockBackend{
		projectsFunc: func(ctx context.Context) ([]entity.Project, error) {
			if fail {
				return nil, errors.New("backend down")
			}
			return []entity.Project{{ID: "p1", Name: "Fuar"}}, nil
		},
	}
	cache := newMapCache()
	svc := NewReferenceService(backend, cache, time.Minute, testLogger())
	ctx := userContext("u-1")

	_, err := svc.Projects(ctx)
	assert.Error(t, err)
	assert.Equal(t, 0, cache.sets)
	assert.Equal(t, NotFoundLabel, svc.CostCenterName(ctx, entity.CostCenterProject, "p1"))

	fail = false
	assert.Equal(t, "Fuar", svc.CostCenterName(ctx, entity.CostCenterProject, "p1"))
}

func TestReferenceService_CostCenterName(t *testing.T) {
	svc := NewReferenceService(&mockBackend{}, newMapCache(), 0, testLogger())
	ctx := userContext("u-1")

	tests := []struct {
		kind entity.CostCenterType
		id   string
		want string
	}{
		{entity.CostCenterProject, "p1", "Fuar Stand İstanbul"},
		{entity.CostCenterGeneralExpense, "g1", "Ofis Giderleri"},
		{entity.CostCenterGeneralExpense, "p1", NotFoundLabel},
		{entity.CostCenterProject, "", NotFoundLabel},
		{"", "p1", NotFoundLabel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, svc.CostCenterName(ctx, tt.kind, tt.id), "%s/%s", tt.kind, tt.id)
	}
}
