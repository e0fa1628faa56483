// Package remote is the blob service holding the authoritative copy of the
// store. Implementations: S3Store for S3-compatible services (AWS, MinIO)
// and MemoryStore for tests and local runs.
package remote

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("remote object not found")

// ObjectStore reads and writes whole blobs by key.
type ObjectStore interface {
	// Get returns the blob stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, overwriting any existing blob.
	Put(ctx context.Context, key string, data []byte) error
}
