package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"lineagehub/internal/domain"
	"lineagehub/internal/storage"
)

// RetentionService periodically hard-deletes soft-deleted files once they
// age past the retention window, removing both the metadata row (facts
// cascade with it) and the stored blob.
type RetentionService struct {
	fileRepo  domain.FileRepository
	store     storage.ObjectStore
	retention time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
}

func NewRetentionService(fileRepo domain.FileRepository, store storage.ObjectStore,
	retention time.Duration, logger *slog.Logger) *RetentionService {
	return &RetentionService{
		fileRepo:  fileRepo,
		store:     store,
		retention: retention,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start schedules the sweep. The schedule is a standard cron expression.
func (s *RetentionService) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("retention sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *RetentionService) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep purges everything soft-deleted before the retention cutoff and
// returns the number of files removed. Blob deletion failures are logged,
// not fatal: the metadata row is already gone and the sweep must not wedge
// on one unreachable object.
func (s *RetentionService) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.retention)
	purged, err := s.fileRepo.PurgeDeletedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, f := range purged {
		if f.StorageKey == "" {
			continue
		}
		if err := s.store.Delete(ctx, f.StorageKey); err != nil {
			s.logger.Error("delete purged blob", "file_id", f.ID, "key", f.StorageKey, "error", err)
		}
	}

	if len(purged) > 0 {
		s.logger.Info("retention sweep", "purged", len(purged), "cutoff", cutoff)
	}
	return len(purged), nil
}
