// Package storage hands out time-limited links to receipts kept in the
// object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/vitingo/advance-workflow/internal/application/port"
)

// DefaultPresignExpiry is used when no expiry is configured
const DefaultPresignExpiry = 15 * time.Minute

// ErrInvalidKey is returned for empty keys or keys escaping the bucket
var ErrInvalidKey = errors.New("invalid object key")

// Config holds object store settings
type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PresignExpiry time.Duration
}

// ObjectSigner is the part of *minio.Client the presigner needs
type ObjectSigner interface {
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// Presigner implements port.PreviewURLProvider
type Presigner struct {
	signer ObjectSigner
	bucket string
	expiry time.Duration
	logger *zap.Logger
}

// NewMinioClient opens a client from cfg
func NewMinioClient(cfg Config) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

// NewPresigner creates a presigner over signer
func NewPresigner(signer ObjectSigner, bucket string, expiry time.Duration, logger *zap.Logger) *Presigner {
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}
	return &Presigner{signer: signer, bucket: bucket, expiry: expiry, logger: logger}
}

var _ port.PreviewURLProvider = (*Presigner)(nil)

// PreviewURL returns a presigned GET link for key
func (p *Presigner) PreviewURL(ctx context.Context, key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	params := url.Values{}
	params.Set("response-content-disposition", "inline")

	u, err := p.signer.PresignedGetObject(ctx, p.bucket, key, p.expiry, params)
	if err != nil {
		p.logger.Error("Failed to presign receipt", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}
