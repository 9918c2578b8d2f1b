package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vitingo/advance-workflow/internal/application/port"
)

// APIError is a non-2xx answer from the backend
type APIError struct {
	StatusCode int
	Message    string
	Path       string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s: status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("backend %s: status %d: %s", e.Path, e.StatusCode, e.Message)
}

// Is lets a 404 match port.ErrNotFound
func (e *APIError) Is(target error) bool {
	return target == port.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// StatusCode returns the backend status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsClientError reports whether the backend refused the request as invalid
func IsClientError(err error) bool {
	code := StatusCode(err)
	return code >= 400 && code < 500 && code != http.StatusNotFound
}
