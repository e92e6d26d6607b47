package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"lineagehub/internal/domain"
	"lineagehub/internal/storage"
)

// maxUploadBytes caps a single analyzer file upload.
const maxUploadBytes = 64 << 20

// FileService manages uploaded analyzer files: raw content in the object
// store, metadata and extracted facts in the metastore.
type FileService struct {
	fileRepo domain.FileRepository
	factRepo domain.FactRepository
	store    storage.ObjectStore
	lineage  *LineageService
	logger   *slog.Logger
}

func NewFileService(fileRepo domain.FileRepository, factRepo domain.FactRepository,
	store storage.ObjectStore, lineage *LineageService, logger *slog.Logger) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		factRepo: factRepo,
		store:    store,
		lineage:  lineage,
		logger:   logger,
	}
}

// Upload stores a new analyzer file and registers its metadata. The file
// starts in status "uploaded"; it joins the lineage graph once facts are
// stored for it.
func (s *FileService) Upload(ctx context.Context, filename, dialect string, content io.Reader) (*domain.FileRecord, error) {
	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return nil, domain.ErrAccessDenied("authentication required")
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, domain.ErrValidation("filename is required")
	}

	id := uuid.NewString()
	key := "files/" + id

	limited := &countingReader{r: io.LimitReader(content, maxUploadBytes+1)}
	if err := s.store.Put(ctx, key, limited); err != nil {
		return nil, fmt.Errorf("store file content: %w", err)
	}
	if limited.n > maxUploadBytes {
		_ = s.store.Delete(ctx, key)
		return nil, domain.ErrValidation("file exceeds maximum size of %d bytes", maxUploadBytes)
	}

	record := &domain.FileRecord{
		ID:         id,
		Owner:      principal.Name,
		Filename:   filename,
		Dialect:    strings.ToLower(strings.TrimSpace(dialect)),
		SizeBytes:  limited.n,
		StorageKey: key,
		Status:     domain.FileStatusUploaded,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.fileRepo.Create(ctx, record); err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, err
	}

	s.logger.Info("file uploaded", "owner", principal.Name, "file_id", id,
		"filename", filename, "size_bytes", limited.n)
	return record, nil
}

// Get returns one of the caller's files.
func (s *FileService) Get(ctx context.Context, id string) (*domain.FileRecord, error) {
	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return nil, domain.ErrAccessDenied("authentication required")
	}
	return s.fileRepo.Get(ctx, principal.Name, id)
}

// List returns all of the caller's live files.
func (s *FileService) List(ctx context.Context) ([]domain.FileRecord, error) {
	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return nil, domain.ErrAccessDenied("authentication required")
	}
	return s.fileRepo.List(ctx, principal.Name)
}

// Download streams the raw content of one of the caller's files.
func (s *FileService) Download(ctx context.Context, id string) (*domain.FileRecord, io.ReadCloser, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Get(ctx, record.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return record, rc, nil
}

// StoreFacts replaces the extracted lineage facts for a file and marks it
// analyzed. The caller's cached merges are invalidated.
func (s *FileService) StoreFacts(ctx context.Context, id string, nodes []domain.NodeFact, edges []domain.EdgeFact) error {
	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return domain.ErrAccessDenied("authentication required")
	}
	if _, err := s.fileRepo.Get(ctx, principal.Name, id); err != nil {
		return err
	}

	if err := s.factRepo.Replace(ctx, id, nodes, edges); err != nil {
		return fmt.Errorf("store facts: %w", err)
	}
	if err := s.fileRepo.SetStatus(ctx, id, domain.FileStatusAnalyzed); err != nil {
		return err
	}

	s.lineage.Invalidate(principal.Name)
	s.logger.Info("facts stored", "owner", principal.Name, "file_id", id,
		"nodes", len(nodes), "edges", len(edges))
	return nil
}

// Delete soft-deletes a file. Its facts leave the graph immediately; the
// retention sweeper removes the metadata row and blob later.
func (s *FileService) Delete(ctx context.Context, id string) error {
	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return domain.ErrAccessDenied("authentication required")
	}
	if err := s.fileRepo.SoftDelete(ctx, principal.Name, id); err != nil {
		return err
	}
	if err := s.factRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete facts: %w", err)
	}

	s.lineage.Invalidate(principal.Name)
	s.logger.Info("file deleted", "owner", principal.Name, "file_id", id)
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
