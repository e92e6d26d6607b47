package domain

import (
	"context"
	"time"
)

// FileRepository persists uploaded file metadata.
type FileRepository interface {
	Create(ctx context.Context, f *FileRecord) error
	Get(ctx context.Context, owner, id string) (*FileRecord, error)
	List(ctx context.Context, owner string) ([]FileRecord, error)
	// SetStatus updates the lifecycle status of a file.
	SetStatus(ctx context.Context, id, status string) error
	// SoftDelete marks a file deleted; the retention sweeper removes it later.
	SoftDelete(ctx context.Context, owner, id string) error
	// PurgeDeletedBefore hard-deletes soft-deleted files older than the cutoff
	// and returns the purged records so callers can clean up blob storage.
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) ([]FileRecord, error)
}

// FactRepository persists per-file extracted lineage facts.
type FactRepository interface {
	// Replace swaps the stored facts for a file in one transaction.
	Replace(ctx context.Context, fileID string, nodes []NodeFact, edges []EdgeFact) error
	// Get loads the facts for one file.
	Get(ctx context.Context, fileID string) (nodes []NodeFact, edges []EdgeFact, err error)
	// Delete removes all facts for a file.
	Delete(ctx context.Context, fileID string) error
}
