package storage

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSigner struct {
	bucket  string
	object  string
	expires time.Duration
	err     error
}

func (m *mockSigner) PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error) {
	m.bucket, m.object, m.expires = bucketName, objectName, expires
	if m.err != nil {
		return nil, m.err
	}
	return url.Parse("https://files.example.com/" + bucketName + "/" + objectName + "?X-Amz-Signature=abc")
}

func TestPresigner_PreviewURL(t *testing.T) {
	signer := &mockSigner{}
	p := NewPresigner(signer, "receipts", 0, zap.NewNop())

	got, err := p.PreviewURL(context.Background(), "/2024/05/fis.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/receipts/2024/05/fis.jpg?X-Amz-Signature=abc", got)
	assert.Equal(t, "2024/05/fis.jpg", signer.object)
	assert.Equal(t, DefaultPresignExpiry, signer.expires)
}

func TestPresigner_RejectsBadKeys(t *testing.T) {
	p := NewPresigner(&mockSigner{}, "receipts", time.Minute, zap.NewNop())

	for _, key := range []string{"", "  ", "../secrets", "a/../../b"} {
		_, err := p.PreviewURL(context.Background(), key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestPresigner_SignerError(t *testing.T) {
	p := NewPresigner(&mockSigner{err: errors.New("denied")}, "receipts", time.Minute, zap.NewNop())

	_, err := p.PreviewURL(context.Background(), "fis.jpg")
	assert.Error(t, err)
}
