package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"lineagehub/internal/domain"
)

var _ ObjectStore = (*AzureStore)(nil)

// AzureStore stores objects as blobs in one Azure container. Only shared-key
// authentication is supported.
type AzureStore struct {
	client    *azblob.Client
	container string
}

func NewAzureStore(cfg Config) (*AzureStore, error) {
	if cfg.AzureAccountName == "" || cfg.AzureAccountKey == "" || cfg.AzureContainer == "" {
		return nil, fmt.Errorf("azure storage config is incomplete")
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AzureAccountName, cfg.AzureAccountKey)
	if err != nil {
		return nil, fmt.Errorf("create shared key credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AzureAccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}

	return &AzureStore{client: client, container: cfg.AzureContainer}, nil
}

func (s *AzureStore) Put(ctx context.Context, key string, r io.Reader) error {
	// azblob wants a seekable body for retries; uploads are analyzer files,
	// small enough to buffer.
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read object %q: %w", key, err)
	}
	if _, err := s.client.UploadStream(ctx, s.container, key, bytes.NewReader(data), nil); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

func (s *AzureStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, domain.ErrNotFound("object %s not found", key)
		}
		return nil, fmt.Errorf("get object %q: %w", key, err)
	}
	return out.Body, nil
}

func (s *AzureStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteBlob(ctx, s.container, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}
