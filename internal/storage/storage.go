// Package storage stores raw uploaded analyzer files. Backends: local disk,
// S3-compatible object storage, Google Cloud Storage, Azure Blob Storage.
package storage

import (
	"context"
	"fmt"
	"io"
)

// ObjectStore persists raw file content under opaque keys. Implementations
// must tolerate Delete on a missing key.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Backend names accepted by New.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
	BackendGCS   = "gcs"
	BackendAzure = "azure"
)

// Config selects and parameterizes a backend.
type Config struct {
	Backend string

	// local
	Dir string

	// s3
	S3Endpoint string
	S3Region   string
	S3KeyID    string
	S3Secret   string
	S3Bucket   string

	// gcs
	GCSKeyFilePath string
	GCSBucket      string

	// azure
	AzureAccountName string
	AzureAccountKey  string
	AzureContainer   string
}

// New constructs the configured backend.
func New(ctx context.Context, cfg Config) (ObjectStore, error) {
	switch cfg.Backend {
	case BackendLocal, "":
		return NewLocalStore(cfg.Dir)
	case BackendS3:
		return NewS3Store(cfg)
	case BackendGCS:
		return NewGCSStore(ctx, cfg)
	case BackendAzure:
		return NewAzureStore(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
