// Package storage provides the object store the harvester publishes to.
package storage

import (
	"context"
	"errors"
	"path"
)

// ErrNotFound is returned by GetObject when the key does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectStore is the four-operation contract the harvester depends on.
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	DeleteObject(ctx context.Context, bucket, key string) error
	ListObjects(ctx context.Context, bucket string) ([]string, error)
}

// HealthChecker is implemented by stores that can verify connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context, buckets ...string) error
}

// ContentType returns the content type stored with key.
func ContentType(key string) string {
	switch path.Ext(key) {
	case ".geojson":
		return "application/geo+json"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
