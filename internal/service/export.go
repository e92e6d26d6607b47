package service

import (
	"context"
	"io"

	"lineagehub/internal/domain"
	"lineagehub/internal/export"
)

// ExportService streams the caller's merged graph in an interchange format.
type ExportService struct {
	lineage *LineageService
}

func NewExportService(lineage *LineageService) *ExportService {
	return &ExportService{lineage: lineage}
}

// Export writes the caller's graph to w. Returns the MIME content type for
// the chosen format.
func (s *ExportService) Export(ctx context.Context, w io.Writer, format string, opts GraphOptions) (string, error) {
	contentType, ok := export.ContentType(format)
	if !ok {
		return "", domain.ErrValidation("unknown export format %q", format)
	}

	g, _, err := s.lineage.Graph(ctx, opts)
	if err != nil {
		return "", err
	}
	if err := export.Write(w, g, format); err != nil {
		return "", err
	}
	return contentType, nil
}
