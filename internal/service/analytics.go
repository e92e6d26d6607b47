package service

import (
	"context"
	"strings"

	"lineagehub/internal/domain"
	"lineagehub/internal/lineage/graph"
	"lineagehub/internal/lineage/migration"
)

// AnalyticsService answers insight, search, and migration-order requests
// over the caller's merged graph.
type AnalyticsService struct {
	lineage *LineageService
	engine  *graph.Engine
}

func NewAnalyticsService(lineage *LineageService, engine *graph.Engine) *AnalyticsService {
	return &AnalyticsService{lineage: lineage, engine: engine}
}

// Insights computes the analytics summary for the caller's graph.
func (s *AnalyticsService) Insights(ctx context.Context, opts GraphOptions) (*domain.Insights, error) {
	g, _, err := s.lineage.Graph(ctx, opts)
	if err != nil {
		return nil, err
	}
	return s.engine.Insights(g), nil
}

// Search runs an impact search over the caller's graph.
func (s *AnalyticsService) Search(ctx context.Context, query string, opts GraphOptions) (*domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrValidation("search query is required")
	}
	g, _, err := s.lineage.Graph(ctx, opts)
	if err != nil {
		return nil, err
	}
	return s.engine.Search(g, query), nil
}

// MigrationOrder plans dependency-respecting migration waves over the
// caller's graph.
func (s *AnalyticsService) MigrationOrder(ctx context.Context, opts GraphOptions) (*domain.MigrationPlan, error) {
	g, _, err := s.lineage.Graph(ctx, opts)
	if err != nil {
		return nil, err
	}
	return migration.Plan(g), nil
}
