package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/harborhealth/harbor-backend/internal/config"
)

// S3Store implements ObjectStore against any S3-compatible endpoint.
type S3Store struct {
	client *minio.Client
	bucket string
	region string
}

// NewS3Store creates an S3 object store from configuration. A missing
// bucket is not an error here; Configured() reports it and ingestion
// refuses to run.
func NewS3Store(cfg config.StorageConfig) (*S3Store, error) {
	opts := &minio.Options{
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.AccessKey != "" {
		opts.Creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	} else {
		opts.Creds = credentials.NewIAM("")
	}

	client, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &S3Store{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

func (s *S3Store) Configured() bool {
	return s.bucket != ""
}

func (s *S3Store) Bucket() string {
	return s.bucket
}

// Put uploads bytes and returns the stored object's canonical URL.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if !s.Configured() {
		return "", errors.New("storage bucket not configured")
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// PresignGet signs a time-limited GET URL for a stored object URL.
func (s *S3Store) PresignGet(ctx context.Context, storedURL string, expiry time.Duration) (string, error) {
	if !s.Configured() {
		return "", errors.New("storage bucket not configured")
	}

	key, err := KeyFromURL(storedURL)
	if err != nil {
		return "", err
	}

	signed, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", err
	}
	return signed.String(), nil
}

// KeyFromURL extracts the object key from a stored object URL.
func KeyFromURL(storedURL string) (string, error) {
	u, err := url.Parse(storedURL)
	if err != nil {
		return "", fmt.Errorf("parse object url: %w", err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", fmt.Errorf("object url %q has no key", storedURL)
	}
	return key, nil
}

// IsAccessDenied reports whether an upload failed because the credentials
// lack permission on the bucket.
func IsAccessDenied(err error) bool {
	return minio.ToErrorResponse(err).Code == "AccessDenied"
}
