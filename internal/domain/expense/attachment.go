package expense

import (
	"errors"
	"fmt"
	"strings"
)

// MaxFileBytes is the largest receipt accepted for upload
const MaxFileBytes int64 = 5 << 20

var (
	// ErrUnsupportedFileType is returned for receipts that are not an image or PDF
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileTooLarge is returned for receipts above the size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrEmptyFile is returned for zero-length uploads
	ErrEmptyFile = errors.New("file is empty")
)

var allowedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/gif":       true,
	"application/pdf": true,
}

// IsPDF reports whether the content type is a PDF
func IsPDF(contentType string) bool {
	return normalizeType(contentType) == "application/pdf"
}

// ValidateUpload checks type and size before anything is sent out.
// maxBytes <= 0 falls back to MaxFileBytes.
func ValidateUpload(contentType string, size, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = MaxFileBytes
	}
	if !allowedTypes[normalizeType(contentType)] {
		return fmt.Errorf("%w: %s", ErrUnsupportedFileType, contentType)
	}
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > maxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, size, maxBytes)
	}
	return nil
}

func normalizeType(contentType string) string {
	t, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(t))
}
