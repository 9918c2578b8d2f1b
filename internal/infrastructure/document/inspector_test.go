package document

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInspector_RejectsBadInput(t *testing.T) {
	ins := NewInspector(0, zap.NewNop())
	assert.Equal(t, float64(DefaultRenderDPI), ins.dpi)

	_, err := ins.PageCount(nil)
	assert.Error(t, err)

	_, err = ins.PageCount([]byte("%PDF-1.4 truncated"))
	assert.Error(t, err)

	_, err = ins.FirstPageJPEG([]byte("not a pdf at all"))
	assert.Error(t, err)
}

func TestEncodeJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	out, err := encodeJPEG(img, 85)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())
}
