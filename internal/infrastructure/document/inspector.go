package document

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/vitingo/advance-workflow/internal/application/port"
)

// DefaultRenderDPI keeps rendered receipts legible for the vision model
const DefaultRenderDPI = 150

// Inspector opens PDFs with MuPDF
type Inspector struct {
	dpi     float64
	quality int
	logger  *zap.Logger
}

// NewInspector creates an Inspector. A dpi of 0 uses DefaultRenderDPI.
func NewInspector(dpi float64, logger *zap.Logger) *Inspector {
	if dpi <= 0 {
		dpi = DefaultRenderDPI
	}
	return &Inspector{dpi: dpi, quality: 85, logger: logger}
}

var _ port.DocumentInspector = (*Inspector)(nil)

// PageCount opens the document and returns its page count
func (i *Inspector) PageCount(data []byte) (int, error) {
	doc, err := open(data)
	if err != nil {
		return 0, err
	}
	defer doc.Close()

	n := doc.NumPage()
	if n < 1 {
		return 0, fmt.Errorf("document has no pages")
	}
	return n, nil
}

// FirstPageJPEG renders page one as a JPEG image
func (i *Inspector) FirstPageJPEG(data []byte) ([]byte, error) {
	doc, err := open(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if doc.NumPage() < 1 {
		return nil, fmt.Errorf("document has no pages")
	}

	img, err := doc.ImageDPI(0, i.dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	out, err := encodeJPEG(img, i.quality)
	if err != nil {
		return nil, err
	}

	i.logger.Debug("Rendered first page",
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
		zap.Int("bytes", len(out)))
	return out, nil
}

func open(data []byte) (*fitz.Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return doc, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}
