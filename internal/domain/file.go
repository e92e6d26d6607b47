package domain

import "time"

// File statuses.
const (
	FileStatusUploaded = "uploaded" // raw content stored, no facts yet
	FileStatusAnalyzed = "analyzed" // lineage facts stored
	FileStatusDeleted  = "deleted"  // soft-deleted, pending retention sweep
)

// FileRecord is the metadata for one uploaded analyzer file. The raw content
// lives in the object store under StorageKey; extracted lineage facts live in
// the fact repository.
type FileRecord struct {
	ID         string     `json:"id"`
	Owner      string     `json:"owner"`
	Filename   string     `json:"filename"`
	Dialect    string     `json:"dialect"` // talend, informatica, sql, datastage, ...
	SizeBytes  int64      `json:"size_bytes"`
	StorageKey string     `json:"storage_key"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}
