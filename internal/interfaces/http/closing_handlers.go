package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vitingo/advance-workflow/internal/application/service"
	"github.com/vitingo/advance-workflow/internal/domain/expense"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ClosingHandlers serves the owner's closing screen
type ClosingHandlers struct {
	service        *service.ClosingService
	sessions       *SessionStore[*service.ClosingSession]
	maxUploadBytes int64
	logger         Logger
}

// NewClosingHandlers creates closing handlers
func NewClosingHandlers(svc *service.ClosingService, sessions *SessionStore[*service.ClosingSession], maxUploadBytes int64, logger Logger) *ClosingHandlers {
	return &ClosingHandlers{service: svc, sessions: sessions, maxUploadBytes: maxUploadBytes, logger: logger}
}

// UpdateLineRequest sets one field of a line. Value is a string for plain
// fields, an object for bankTransfer and attachedFile.
type UpdateLineRequest struct {
	Field string          `json:"field" binding:"required"`
	Value json.RawMessage `json:"value"`
}

// SaveAndCloseRequest carries the closing notes
type SaveAndCloseRequest struct {
	Notes string `json:"notes"`
}

// ConfirmLeaveRequest answers the leave prompt
type ConfirmLeaveRequest struct {
	Discard bool `json:"discard"`
}

func (h *ClosingHandlers) session(c *gin.Context) (*service.ClosingSession, bool) {
	user := currentUser(c)
	s, found := h.sessions.Get(user.ID, c.Param("id"))
	if !found {
		fail(c, h.logger, errNoSession)
		return nil, false
	}
	return s, true
}

func (h *ClosingHandlers) snapshot(c *gin.Context, s *service.ClosingSession) {
	snap, err := s.Snapshot()
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, snap)
}

// OpenSession handles POST /api/closing/:id/session
func (h *ClosingHandlers) OpenSession(c *gin.Context) {
	var opts service.LoadOptions
	if err := bindOptional(c, &opts); err != nil {
		fail(c, h.logger, err)
		return
	}

	user := currentUser(c)
	s := h.service.NewSession(user)
	if err := s.Load(c.Request.Context(), c.Param("id"), opts); err != nil {
		fail(c, h.logger, err)
		return
	}
	h.sessions.Put(user.ID, c.Param("id"), s)
	h.snapshot(c, s)
}

// GetSnapshot handles GET /api/closing/:id
func (h *ClosingHandlers) GetSnapshot(c *gin.Context) {
	if s, found := h.session(c); found {
		h.snapshot(c, s)
	}
}

// AddLine handles POST /api/closing/:id/lines
func (h *ClosingHandlers) AddLine(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	line, err := s.AddLine()
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: line})
}

// UpdateLine handles PATCH /api/closing/:id/lines/:lineId
func (h *ClosingHandlers) UpdateLine(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}

	var req UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.logger, fmt.Errorf("%w: %v", expense.ErrInvalidValue, err))
		return
	}

	field := expense.LineField(req.Field)
	value, err := expense.DecodeValue(field, req.Value)
	if err != nil {
		fail(c, h.logger, err)
		return
	}

	if _, err := s.UpdateLine(c.Request.Context(), c.Param("lineId"), field, value); err != nil {
		fail(c, h.logger, err)
		return
	}
	h.snapshot(c, s)
}

// RemoveLine handles DELETE /api/closing/:id/lines/:lineId
func (h *ClosingHandlers) RemoveLine(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	if err := s.RemoveLine(c.Param("lineId")); err != nil {
		fail(c, h.logger, err)
		return
	}
	h.snapshot(c, s)
}

// Save handles POST /api/closing/:id/save
func (h *ClosingHandlers) Save(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	if err := s.Save(c.Request.Context()); err != nil {
		fail(c, h.logger, err)
		return
	}
	h.snapshot(c, s)
}

// SaveAndClose handles POST /api/closing/:id/save-and-close
func (h *ClosingHandlers) SaveAndClose(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	var req SaveAndCloseRequest
	if err := bindOptional(c, &req); err != nil {
		fail(c, h.logger, err)
		return
	}
	if err := s.SaveAndClose(c.Request.Context(), req.Notes); err != nil {
		fail(c, h.logger, err)
		return
	}
	h.snapshot(c, s)
}

// Submit handles POST /api/closing/:id/submit
func (h *ClosingHandlers) Submit(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	if err := s.SubmitForApproval(c.Request.Context()); err != nil {
		fail(c, h.logger, err)
		return
	}
	h.snapshot(c, s)
}

// Preserve handles POST /api/closing/:id/preserve
func (h *ClosingHandlers) Preserve(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	if err := s.Preserve(c.Request.Context()); err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, gin.H{"preserved": true})
}

// AttachFile handles POST /api/closing/:id/lines/:lineId/file
func (h *ClosingHandlers) AttachFile(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	upload, err := readUpload(c, h.maxUploadBytes)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	if _, err := s.AttachFile(c.Request.Context(), c.Param("lineId"), upload); err != nil {
		fail(c, h.logger, err)
		return
	}
	h.snapshot(c, s)
}

// RemoveFile handles DELETE /api/closing/:id/lines/:lineId/file
func (h *ClosingHandlers) RemoveFile(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	if err := s.RemoveFile(c.Param("lineId")); err != nil {
		fail(c, h.logger, err)
		return
	}
	h.snapshot(c, s)
}

// Suggest handles POST /api/closing/:id/lines/:lineId/suggest
func (h *ClosingHandlers) Suggest(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	upload, err := readUpload(c, h.maxUploadBytes)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	suggestion, err := s.SuggestFromReceipt(c.Request.Context(), c.Param("lineId"), upload)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, suggestion)
}

// Leave handles POST /api/closing/:id/leave
func (h *ClosingHandlers) Leave(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	decision := s.RequestLeave()
	if decision.Allowed {
		h.sessions.Delete(currentUser(c).ID, c.Param("id"))
	}
	ok(c, decision)
}

// ConfirmLeave handles POST /api/closing/:id/leave/confirm
func (h *ClosingHandlers) ConfirmLeave(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	var req ConfirmLeaveRequest
	if err := bindOptional(c, &req); err != nil {
		fail(c, h.logger, err)
		return
	}
	decision := s.ConfirmLeave(c.Request.Context(), req.Discard)
	if decision.Allowed {
		h.sessions.Delete(currentUser(c).ID, c.Param("id"))
	}
	ok(c, decision)
}

// ExportSummary handles GET /api/closing/:id/summary.xlsx
func (h *ClosingHandlers) ExportSummary(c *gin.Context) {
	s, found := h.session(c)
	if !found {
		return
	}
	data, err := s.ExportSummary(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}

	name := "kapanis.xlsx"
	if snap, err := s.Snapshot(); err == nil && snap.Advance.AdvanceNumber != "" {
		name = snap.Advance.AdvanceNumber + "-kapanis.xlsx"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, data)
}
