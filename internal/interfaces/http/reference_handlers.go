package http

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vitingo/advance-workflow/internal/application/port"
	"github.com/vitingo/advance-workflow/internal/application/service"
	"github.com/vitingo/advance-workflow/internal/currency"
	"github.com/vitingo/advance-workflow/internal/infrastructure/storage"
)

// FileOwnership reports whether userID may see the stored file key
type FileOwnership func(userID, key string) bool

// ReferenceHandlers serves dropdown data and small lookups
type ReferenceHandlers struct {
	refs     service.ReferenceService
	previews port.PreviewURLProvider
	owns     FileOwnership
	logger   Logger
}

// NewReferenceHandlers creates reference handlers. previews may be nil;
// without owns no preview is granted.
func NewReferenceHandlers(refs service.ReferenceService, previews port.PreviewURLProvider, owns FileOwnership, logger Logger) *ReferenceHandlers {
	return &ReferenceHandlers{refs: refs, previews: previews, owns: owns, logger: logger}
}

// CurrencySymbolResponse is the answer of the symbol lookup
type CurrencySymbolResponse struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Known  bool   `json:"known"`
}

// FilePreviewResponse carries a time-limited URL
type FilePreviewResponse struct {
	URL string `json:"url"`
}

func serve[T any](h *ReferenceHandlers, load func(context.Context) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := load(c.Request.Context())
		if err != nil {
			fail(c, h.logger, err)
			return
		}
		ok(c, data)
	}
}

// Projects handles GET /api/reference/projects
func (h *ReferenceHandlers) Projects(c *gin.Context) { serve(h, h.refs.Projects)(c) }

// ExpenseTypes handles GET /api/reference/expense-types
func (h *ReferenceHandlers) ExpenseTypes(c *gin.Context) { serve(h, h.refs.ExpenseTypes)(c) }

// Suppliers handles GET /api/reference/suppliers
func (h *ReferenceHandlers) Suppliers(c *gin.Context) { serve(h, h.refs.Suppliers)(c) }

// Categories handles GET /api/reference/categories
func (h *ReferenceHandlers) Categories(c *gin.Context) { serve(h, h.refs.Categories)(c) }

// CreditCards handles GET /api/reference/credit-cards
func (h *ReferenceHandlers) CreditCards(c *gin.Context) { serve(h, h.refs.CreditCards)(c) }

// CurrencySymbol handles GET /api/currency/symbols/:code
func (h *ReferenceHandlers) CurrencySymbol(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	ok(c, CurrencySymbolResponse{
		Code:   code,
		Symbol: currency.Symbol(code),
		Known:  currency.Known(code),
	})
}

// FilePreview handles GET /api/files/preview?key=
func (h *ReferenceHandlers) FilePreview(c *gin.Context) {
	if h.previews == nil {
		fail(c, h.logger, fmt.Errorf("%w: file previews", service.ErrFeatureDisabled))
		return
	}
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		fail(c, h.logger, fmt.Errorf("%w: empty key", storage.ErrInvalidKey))
		return
	}
	user := currentUser(c)
	if user == nil || h.owns == nil || !h.owns(user.ID, key) {
		fail(c, h.logger, fmt.Errorf("%w: file is not attached to an open session", service.ErrForbidden))
		return
	}
	url, err := h.previews.PreviewURL(c.Request.Context(), key)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, FilePreviewResponse{URL: url})
}
