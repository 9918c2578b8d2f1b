package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vitingo/advance-workflow/internal/application/port"
	"github.com/vitingo/advance-workflow/internal/application/service"
	"github.com/vitingo/advance-workflow/internal/domain/expense"
	"github.com/vitingo/advance-workflow/internal/domain/workflow"
	"github.com/vitingo/advance-workflow/internal/infrastructure/backend"
	"github.com/vitingo/advance-workflow/internal/infrastructure/storage"
)

// errNoSession is returned when a route needs a session that was never
// opened or has expired
var errNoSession = errors.New("no open session for this advance, open one first")

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HealthCheck handles GET /health
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func fail(c *gin.Context, logger Logger, err error) {
	status := statusFor(err)
	if status >= 500 {
		logger.Errorw("Request failed", "path", c.Request.URL.Path, "status", status, "error", err)
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

// statusFor maps service and backend errors onto HTTP status codes
func statusFor(err error) int {
	var stepErr *service.StepError
	switch {
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrReadOnly),
		errors.Is(err, service.ErrUnsavedChanges),
		errors.Is(err, service.ErrSessionNotLoaded),
		errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict
	case service.IsValidationError(err), errors.Is(err, storage.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrAdvanceNotFound),
		errors.Is(err, service.ErrLineNotFound),
		errors.Is(err, errNoSession):
		return http.StatusNotFound
	case errors.Is(err, service.ErrFeatureDisabled):
		return http.StatusNotImplemented
	case errors.As(err, &stepErr):
		return backendStatus(err)
	}
	if backend.StatusCode(err) > 0 {
		return backendStatus(err)
	}
	return http.StatusInternalServerError
}

// backendStatus turns a backend rejection into 400 or 404; anything else
// is the backend's fault
func backendStatus(err error) int {
	switch code := backend.StatusCode(err); {
	case code == http.StatusNotFound:
		return http.StatusNotFound
	case backend.IsClientError(err):
		return http.StatusBadRequest
	case code == 0 && service.IsValidationError(err):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

// bindOptional binds a JSON body that may be absent
func bindOptional(c *gin.Context, dest interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", expense.ErrInvalidValue, err)
	}
	return nil
}

// multipartOverhead is the room left for boundaries and part headers on
// top of the file itself
const multipartOverhead = 64 << 10

// errBodyTooLarge is returned when an upload request exceeds the body cap
var errBodyTooLarge = fmt.Errorf("%w: request body", expense.ErrFileTooLarge)

// readUpload caps the request body before the multipart form is parsed,
// then reads the "file" field up to maxBytes+1 so the size check still
// sees oversize files
func readUpload(c *gin.Context, maxBytes int64) (port.FileUpload, error) {
	limit := maxBytes + multipartOverhead
	if c.Request.ContentLength > limit {
		return port.FileUpload{}, fmt.Errorf("%w: %d bytes, limit %d", errBodyTooLarge, c.Request.ContentLength, limit)
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return port.FileUpload{}, fmt.Errorf("%w: limit %d", errBodyTooLarge, tooLarge.Limit)
		}
		return port.FileUpload{}, fmt.Errorf("%w: %v", expense.ErrEmptyFile, err)
	}
	return readFileHeader(header, maxBytes)
}

func readFileHeader(header *multipart.FileHeader, maxBytes int64) (port.FileUpload, error) {
	f, err := header.Open()
	if err != nil {
		return port.FileUpload{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return port.FileUpload{}, fmt.Errorf("failed to read upload: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return port.FileUpload{Name: header.Filename, ContentType: contentType, Data: data}, nil
}
