package http

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vitingo/advance-workflow/internal/application/service"
	"github.com/vitingo/advance-workflow/internal/domain/entity"
)

// FinanceHandlers serves the finance review screen
type FinanceHandlers struct {
	service  *service.FinanceService
	sessions *SessionStore[*service.ReviewSession]
	logger   Logger
}

// NewFinanceHandlers creates finance handlers
func NewFinanceHandlers(svc *service.FinanceService, sessions *SessionStore[*service.ReviewSession], logger Logger) *FinanceHandlers {
	return &FinanceHandlers{service: svc, sessions: sessions, logger: logger}
}

// RejectRequest rejects the whole closing
type RejectRequest struct {
	Reason string `json:"reason"`
	Scope  string `json:"scope"`
}

func (h *FinanceHandlers) session(c *gin.Context) (*service.ReviewSession, bool) {
	s, found := h.sessions.Get(currentUser(c).ID, c.Param("id"))
	if !found {
		fail(c, h.logger, errNoSession)
		return nil, false
	}
	return s, true
}

func (h *FinanceHandlers) snapshot(c *gin.Context, s *service.ReviewSession) {
	snap, err := s.Snapshot()
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, snap)
}

// OpenSession handles POST /api/finance/:id/session
func (h *FinanceHandlers) OpenSession(c *gin.Context) {
	user := currentUser(c)
	s := h.service.NewSession(user)
	if err := s.Load(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, h.logger, err)
		return
	}
	h.sessions.Put(user.ID, c.Param("id"), s)
	h.snapshot(c, s)
}

// GetSnapshot handles GET /api/finance/:id
func (h *FinanceHandlers) GetSnapshot(c *gin.Context) {
	if s, found := h.session(c); found {
		h.snapshot(c, s)
	}
}

// ApproveLine handles POST /api/finance/:id/lines/:index/approve
func (h *FinanceHandlers) ApproveLine(c *gin.Context) {
	h.toggle(c, (*service.ReviewSession).ApproveLine)
}

// RejectLine handles POST /api/finance/:id/lines/:index/reject
func (h *FinanceHandlers) RejectLine(c *gin.Context) {
	h.toggle(c, (*service.ReviewSession).RejectLine)
}

func (h *FinanceHandlers) toggle(c *gin.Context, action func(*service.ReviewSession, context.Context, int) (entity.FinanceStatus, error)) {
	s, found := h.session(c)
	if !found {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		fail(c, h.logger, fmt.Errorf("%w: index %q", service.ErrLineNotFound, c.Param("index")))
		return
	}
	if _, err := action(s, c.Request.Context(), index); err != nil {
		fail(c, h.logger, err)
		return
	}
	h.snapshot(c, s)
}

// PartialApprove handles POST /api/finance/:id/partial-approve
func (h *FinanceHandlers) PartialApprove(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	if err := s.PartialApprove(c.Request.Context()); err != nil {
		fail(c, h.logger, err)
		return
	}
	h.finish(c, s)
}

// Approve handles POST /api/finance/:id/approve
func (h *FinanceHandlers) Approve(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	if err := s.ApproveAdvance(c.Request.Context()); err != nil {
		fail(c, h.logger, err)
		return
	}
	h.finish(c, s)
}

// Reject handles POST /api/finance/:id/reject
func (h *FinanceHandlers) Reject(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	var req RejectRequest
	if err := bindOptional(c, &req); err != nil {
		fail(c, h.logger, err)
		return
	}
	if req.Scope == "" {
		req.Scope = service.RejectScopeAll
	}
	if err := s.RejectAdvance(c.Request.Context(), req.Reason, req.Scope); err != nil {
		fail(c, h.logger, err)
		return
	}
	h.finish(c, s)
}

// finish returns the final snapshot and closes the review; the screen
// navigates back to the list after a terminal decision
func (h *FinanceHandlers) finish(c *gin.Context, s *service.ReviewSession) {
	snap, err := s.Snapshot()
	h.sessions.Delete(currentUser(c).ID, c.Param("id"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, snap)
}

// Decisions handles GET /api/finance/:id/decisions
func (h *FinanceHandlers) Decisions(c *gin.Context) {
	decisions, err := h.service.Decisions(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, decisions)
}
