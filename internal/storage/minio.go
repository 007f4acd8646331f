package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Canadian-Geospatial-Platform/stac-to-geocore/internal/logger"
)

const defaultOperationTimeout = 30 * time.Second

// Config holds S3-compatible object store settings.
type Config struct {
	// Endpoint is the server address without scheme, e.g. "s3.ca-central-1.amazonaws.com".
	Endpoint  string
	AccessKey string
	SecretKey string
	// SessionToken is set when using temporary credentials.
	SessionToken string
	UseSSL       bool
	Region       string
	// Timeout bounds every single object operation.
	Timeout time.Duration
}

// MinioStore implements ObjectStore on minio-go. It works against MinIO and AWS S3.
type MinioStore struct {
	client  *miniogo.Client
	timeout time.Duration
	log     logger.Logger
}

// NewMinioStore creates a MinioStore.
func NewMinioStore(cfg Config, log logger.Logger) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("object store endpoint is required")
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, cfg.SessionToken),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultOperationTimeout
	}

	log.Info("Object store initialized",
		logger.String("endpoint", cfg.Endpoint),
		logger.Bool("ssl", cfg.UseSSL),
	)

	return &MinioStore{client: client, timeout: timeout, log: log}, nil
}

// GetObject reads a whole object. A missing key yields ErrNotFound.
func (s *MinioStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	obj, err := s.client.GetObject(ctx, bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(err, bucket, key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.translate(err, bucket, key)
	}

	return data, nil
}

// PutObject writes data under key, replacing any existing object.
func (s *MinioStore) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.PutObject(
		ctx,
		bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		miniogo.PutObjectOptions{ContentType: ContentType(key)},
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}

	s.log.Debug("Uploaded object", logger.String("bucket", bucket), logger.String("key", key), logger.Int("size", len(data)))
	return nil
}

// DeleteObject removes key. Removing a missing key is not an error.
func (s *MinioStore) DeleteObject(ctx context.Context, bucket, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.RemoveObject(ctx, bucket, key, miniogo.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

// ListObjects lists every key in bucket.
func (s *MinioStore) ListObjects(ctx context.Context, bucket string) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var keys []string
	for obj := range s.client.ListObjects(ctx, bucket, miniogo.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", bucket, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// HealthCheck verifies that every bucket exists.
func (s *MinioStore) HealthCheck(ctx context.Context, buckets ...string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	for _, bucket := range buckets {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		if !exists {
			return fmt.Errorf("bucket %s does not exist", bucket)
		}
	}
	return nil
}

func (s *MinioStore) translate(err error, bucket, key string) error {
	if miniogo.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("get %s/%s: %w", bucket, key, ErrNotFound)
	}
	return fmt.Errorf("get %s/%s: %w", bucket, key, err)
}
