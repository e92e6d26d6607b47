// Package service implements the application services over the repositories,
// the object store, and the lineage engine.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"lineagehub/internal/domain"
	"lineagehub/internal/lineage"
)

// factLoadConcurrency bounds parallel fact loads per merge.
const factLoadConcurrency = 8

// GraphOptions selects what the lineage graph request covers.
type GraphOptions struct {
	// FileIDs restricts the graph to the named files. Empty means all of
	// the caller's analyzed files.
	FileIDs []string
	// IncludeFileDeps adds derived FILE-to-FILE dependency edges.
	IncludeFileDeps bool
}

// mergeEntry is one cached merge result. The graph is immutable once merged;
// callers must not modify it.
type mergeEntry struct {
	graph    *domain.Graph
	warnings []domain.MergeWarning
}

// LineageService produces the merged lineage graph for a caller's files.
// Full merges are cached per owner; any file mutation bumps the owner's
// generation, which orphans the stale entries.
type LineageService struct {
	fileRepo domain.FileRepository
	factRepo domain.FactRepository
	cache    *lru.Cache[string, *mergeEntry]
	logger   *slog.Logger

	mu          sync.Mutex
	generations map[string]uint64
}

// NewLineageService creates a LineageService. cacheSize <= 0 disables merge
// caching.
func NewLineageService(fileRepo domain.FileRepository, factRepo domain.FactRepository, cacheSize int, logger *slog.Logger) *LineageService {
	s := &LineageService{
		fileRepo:    fileRepo,
		factRepo:    factRepo,
		logger:      logger,
		generations: make(map[string]uint64),
	}
	if cacheSize > 0 {
		if c, err := lru.New[string, *mergeEntry](cacheSize); err == nil {
			s.cache = c
		}
	}
	return s
}

// Graph returns the merged lineage graph for the authenticated caller,
// optionally restricted to a subset of files.
func (s *LineageService) Graph(ctx context.Context, opts GraphOptions) (*domain.Graph, []domain.MergeWarning, error) {
	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return nil, nil, domain.ErrAccessDenied("authentication required")
	}

	entry, err := s.fullMerge(ctx, principal.Name, opts.IncludeFileDeps)
	if err != nil {
		return nil, nil, err
	}

	if len(opts.FileIDs) == 0 {
		return entry.graph, entry.warnings, nil
	}

	// Subset requests filter the cached full merge instead of re-merging.
	if err := s.checkFileIDs(ctx, principal.Name, opts.FileIDs); err != nil {
		return nil, nil, err
	}
	return lineage.FilterBySources(entry.graph, opts.FileIDs), entry.warnings, nil
}

// Invalidate drops the cached merges for an owner. Call after any change to
// the owner's files or facts.
func (s *LineageService) Invalidate(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[owner]++
}

func (s *LineageService) generation(owner string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[owner]
}

func (s *LineageService) fullMerge(ctx context.Context, owner string, includeFileDeps bool) (*mergeEntry, error) {
	key := fmt.Sprintf("%s|g%d|deps=%t", owner, s.generation(owner), includeFileDeps)
	if s.cache != nil {
		if entry, ok := s.cache.Get(key); ok {
			return entry, nil
		}
	}

	files, err := s.analyzedFiles(ctx, owner)
	if err != nil {
		return nil, err
	}

	inputs, err := s.loadFacts(ctx, files)
	if err != nil {
		return nil, err
	}

	graph, warnings := lineage.Merge(inputs, includeFileDeps)
	for _, w := range warnings {
		s.logger.Warn("merge warning", "owner", owner, "file_id", w.FileID, "message", w.Message)
	}

	entry := &mergeEntry{graph: graph, warnings: warnings}
	if s.cache != nil {
		s.cache.Add(key, entry)
	}
	return entry, nil
}

func (s *LineageService) analyzedFiles(ctx context.Context, owner string) ([]domain.FileRecord, error) {
	all, err := s.fileRepo.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	files := make([]domain.FileRecord, 0, len(all))
	for _, f := range all {
		if f.Status == domain.FileStatusAnalyzed {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ID < files[j].ID })
	return files, nil
}

// loadFacts fetches every file's facts concurrently, preserving file order.
func (s *LineageService) loadFacts(ctx context.Context, files []domain.FileRecord) ([]domain.FileLineage, error) {
	inputs := make([]domain.FileLineage, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(factLoadConcurrency)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			nodes, edges, err := s.factRepo.Get(gctx, f.ID)
			if err != nil {
				return fmt.Errorf("load facts for %s: %w", f.ID, err)
			}
			inputs[i] = domain.FileLineage{
				FileID:   f.ID,
				Filename: f.Filename,
				Nodes:    nodes,
				Edges:    edges,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inputs, nil
}

func (s *LineageService) checkFileIDs(ctx context.Context, owner string, ids []string) error {
	files, err := s.fileRepo.List(ctx, owner)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}
	known := make(map[string]struct{}, len(files))
	for _, f := range files {
		known[f.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return domain.ErrNotFound("unknown file id(s): %s", strings.Join(missing, ", "))
	}
	return nil
}
