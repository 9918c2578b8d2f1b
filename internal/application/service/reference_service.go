package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vitingo/advance-workflow/internal/application/port"
	"github.com/vitingo/advance-workflow/internal/domain/entity"
)

// NotFoundLabel is shown for a cost center id that no longer resolves
const NotFoundLabel = "Bulunamadı"

// DefaultReferenceTTL is used when no TTL is configured
const DefaultReferenceTTL = 10 * time.Minute

// Cache key prefixes for reference collections. Keys are completed with
// the caller id since the backend filters lists by the caller's token.
const (
	cacheKeyProjects     = "ref:projects"
	cacheKeyExpenseTypes = "ref:expense-types"
	cacheKeySuppliers    = "ref:suppliers"
	cacheKeyCategories   = "ref:categories"
	cacheKeyCreditCards  = "ref:credit-cards"
)

// ReferenceService serves dropdown data through the cache
type ReferenceService interface {
	Projects(ctx context.Context) ([]entity.Project, error)
	ExpenseTypes(ctx context.Context) ([]entity.GeneralExpenseType, error)
	Suppliers(ctx context.Context) ([]entity.Supplier, error)
	Categories(ctx context.Context) ([]entity.ExpenseCategory, error)
	CreditCards(ctx context.Context) ([]entity.CreditCard, error)

	// CostCenterName resolves a cost center to its display name, or
	// NotFoundLabel when the id is unknown
	CostCenterName(ctx context.Context, kind entity.CostCenterType, id string) string

	// Invalidate drops every cached collection of the caller in ctx
	Invalidate(ctx context.Context) error
}

type referenceServiceImpl struct {
	api    port.ReferenceAPI
	cache  port.Cache
	ttl    time.Duration
	logger Logger
}

// NewReferenceService creates a ReferenceService. A nil cache disables caching.
func NewReferenceService(api port.ReferenceAPI, cache port.Cache, ttl time.Duration, logger Logger) ReferenceService {
	if ttl <= 0 {
		ttl = DefaultReferenceTTL
	}
	return &referenceServiceImpl{api: api, cache: cache, ttl: ttl, logger: logger}
}

// scopedKey returns the per-caller cache key, or false when ctx carries no
// caller and the result must not be cached
func scopedKey(ctx context.Context, prefix string) (string, bool) {
	user := entity.UserFromContext(ctx)
	if user == nil || user.ID == "" {
		return "", false
	}
	return prefix + ":" + user.ID, true
}

// cached returns the value under the caller's key, loading and storing it
// on a miss. Cache failures fall through to the backend.
func cached[T any](ctx context.Context, s *referenceServiceImpl, prefix string, load func(context.Context) (T, error)) (T, error) {
	var out T
	key, scoped := scopedKey(ctx, prefix)
	useCache := s.cache != nil && scoped
	if useCache {
		hit, err := s.cache.Get(ctx, key, &out)
		if err != nil {
			s.logger.Warnw("Reference cache read failed", "key", key, "error", err)
		} else if hit {
			return out, nil
		}
	}

	out, err := load(ctx)
	if err != nil {
		return out, fmt.Errorf("load %s: %w", prefix, err)
	}

	if useCache {
		if err := s.cache.Set(ctx, key, out, s.ttl); err != nil {
			s.logger.Warnw("Reference cache write failed", "key", key, "error", err)
		}
	}
	return out, nil
}

func (s *referenceServiceImpl) Projects(ctx context.Context) ([]entity.Project, error) {
	return cached(ctx, s, cacheKeyProjects, s.api.Projects)
}

func (s *referenceServiceImpl) ExpenseTypes(ctx context.Context) ([]entity.GeneralExpenseType, error) {
	return cached(ctx, s, cacheKeyExpenseTypes, s.api.ExpenseTypes)
}

func (s *referenceServiceImpl) Suppliers(ctx context.Context) ([]entity.Supplier, error) {
	return cached(ctx, s, cacheKeySuppliers, s.api.Suppliers)
}

func (s *referenceServiceImpl) Categories(ctx context.Context) ([]entity.ExpenseCategory, error) {
	return cached(ctx, s, cacheKeyCategories, s.api.Categories)
}

func (s *referenceServiceImpl) CreditCards(ctx context.Context) ([]entity.CreditCard, error) {
	return cached(ctx, s, cacheKeyCreditCards, s.api.CreditCards)
}

func (s *referenceServiceImpl) CostCenterName(ctx context.Context, kind entity.CostCenterType, id string) string {
	switch kind {
	case entity.CostCenterProject:
		projects, err := s.Projects(ctx)
		if err != nil {
			s.logger.Warnw("Project lookup failed", "error", err)
			return NotFoundLabel
		}
		return ProjectName(projects, id)
	case entity.CostCenterGeneralExpense:
		types, err := s.ExpenseTypes(ctx)
		if err != nil {
			s.logger.Warnw("Expense type lookup failed", "error", err)
			return NotFoundLabel
		}
		return ExpenseTypeName(types, id)
	}
	return NotFoundLabel
}

func (s *referenceServiceImpl) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	for _, prefix := range []string{cacheKeyProjects, cacheKeyExpenseTypes, cacheKeySuppliers, cacheKeyCategories, cacheKeyCreditCards} {
		key, ok := scopedKey(ctx, prefix)
		if !ok {
			return nil
		}
		if err := s.cache.Delete(ctx, key); err != nil {
			return fmt.Errorf("invalidate %s: %w", key, err)
		}
	}
	return nil
}

// ProjectName finds a project by id
func ProjectName(projects []entity.Project, id string) string {
	for _, p := range projects {
		if p.ID == id {
			return p.Name
		}
	}
	return NotFoundLabel
}

// ExpenseTypeName finds a general expense type by id
func ExpenseTypeName(types []entity.GeneralExpenseType, id string) string {
	for _, t := range types {
		if t.ID == id {
			return t.Name
		}
	}
	return NotFoundLabel
}
