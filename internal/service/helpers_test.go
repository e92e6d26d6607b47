package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	internaldb "lineagehub/internal/db"
	"lineagehub/internal/db/repository"
	"lineagehub/internal/domain"
	"lineagehub/internal/lineage/graph"
	"lineagehub/internal/testutil"
)

// testEnv wires the services against a real metastore in t.TempDir() and an
// in-memory object store.
type testEnv struct {
	files     *FileService
	lineage   *LineageService
	analytics *AnalyticsService
	exports   *ExportService
	fileRepo  *repository.FileRepo
	store     *testutil.MemoryStore
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	fileRepo := repository.NewFileRepo(writeDB, readDB)
	factRepo := repository.NewFactRepo(writeDB, readDB)
	store := testutil.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	lineageSvc := NewLineageService(fileRepo, factRepo, 16, logger)
	return &testEnv{
		files:     NewFileService(fileRepo, factRepo, store, lineageSvc, logger),
		lineage:   lineageSvc,
		analytics: NewAnalyticsService(lineageSvc, graph.NewEngine(16)),
		exports:   NewExportService(lineageSvc),
		fileRepo:  fileRepo,
		store:     store,
	}
}

func authCtx(name string) context.Context {
	return domain.WithPrincipal(context.Background(), domain.ContextPrincipal{Name: name, Email: name + "@example.com"})
}

// uploadAnalyzed uploads a file and stores facts for it, returning the record.
func uploadAnalyzed(t *testing.T, env *testEnv, ctx context.Context, filename string,
	nodes []domain.NodeFact, edges []domain.EdgeFact) *domain.FileRecord {
	t.Helper()
	record, err := env.files.Upload(ctx, filename, "talend", contentOf(filename))
	if err != nil {
		t.Fatalf("upload %s: %v", filename, err)
	}
	if err := env.files.StoreFacts(ctx, record.ID, nodes, edges); err != nil {
		t.Fatalf("store facts for %s: %v", filename, err)
	}
	return record
}

func contentOf(filename string) io.Reader {
	return strings.NewReader("<job name=\"" + filename + "\"/>")
}

func creatorFacts() ([]domain.NodeFact, []domain.EdgeFact) {
	return []domain.NodeFact{
			{ID: "self", Name: "", Type: "FILE"},
			{ID: "t1", Name: "orders", Type: "TABLE_OR_VIEW"},
		}, []domain.EdgeFact{
			{Source: "self", Target: "t1", Relationship: "CREATES"},
		}
}

func readerFacts() ([]domain.NodeFact, []domain.EdgeFact) {
	return []domain.NodeFact{
			{ID: "self", Name: "", Type: "FILE"},
			{ID: "t1", Name: "orders", Type: "TABLE_OR_VIEW"},
			{ID: "t2", Name: "report", Type: "TABLE_OR_VIEW"},
		}, []domain.EdgeFact{
			{Source: "t1", Target: "self", Relationship: "READS_FROM"},
			{Source: "self", Target: "t2", Relationship: "WRITES_TO"},
		}
}
