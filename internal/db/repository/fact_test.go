package repository

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "lineagehub/internal/db"
	"lineagehub/internal/domain"
)

func setupFactRepo(t *testing.T) (*FactRepo, *FileRepo) {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	return NewFactRepo(writeDB, readDB), NewFileRepo(writeDB, readDB)
}

func sampleFacts() ([]domain.NodeFact, []domain.EdgeFact) {
	nodes := []domain.NodeFact{
		{ID: "self", Name: "job.xml", Type: "FILE"},
		{ID: "t1", Name: "orders", Type: "TABLE_OR_VIEW"},
	}
	edges := []domain.EdgeFact{
		{Source: "self", Target: "t1", Relationship: "WRITES_TO"},
	}
	return nodes, edges
}

func TestFactRepo_ReplaceAndGet(t *testing.T) {
	facts, files := setupFactRepo(t)
	ctx := context.Background()

	require.NoError(t, files.Create(ctx, newFileRecord("a1", "alice")))

	nodes, edges := sampleFacts()
	require.NoError(t, facts.Replace(ctx, "a1", nodes, edges))

	gotNodes, gotEdges, err := facts.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, nodes, gotNodes)
	assert.Equal(t, edges, gotEdges)
}

func TestFactRepo_ReplaceSwapsAtomically(t *testing.T) {
	facts, files := setupFactRepo(t)
	ctx := context.Background()

	require.NoError(t, files.Create(ctx, newFileRecord("a1", "alice")))

	nodes, edges := sampleFacts()
	require.NoError(t, facts.Replace(ctx, "a1", nodes, edges))

	// Re-analysis replaces, never appends.
	replacement := []domain.NodeFact{{ID: "t9", Name: "customers", Type: "TABLE_OR_VIEW"}}
	require.NoError(t, facts.Replace(ctx, "a1", replacement, nil))

	gotNodes, gotEdges, err := facts.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, replacement, gotNodes)
	assert.Empty(t, gotEdges)
}

func TestFactRepo_GetUnknownFile(t *testing.T) {
	facts, _ := setupFactRepo(t)

	nodes, edges, err := facts.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, nodes)
	assert.Empty(t, edges)
}

func TestFactRepo_Delete(t *testing.T) {
	facts, files := setupFactRepo(t)
	ctx := context.Background()

	require.NoError(t, files.Create(ctx, newFileRecord("a1", "alice")))
	nodes, edges := sampleFacts()
	require.NoError(t, facts.Replace(ctx, "a1", nodes, edges))

	require.NoError(t, facts.Delete(ctx, "a1"))

	gotNodes, gotEdges, err := facts.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, gotNodes)
	assert.Empty(t, gotEdges)
}

func TestFactRepo_CascadesWithFilePurge(t *testing.T) {
	facts, files := setupFactRepo(t)
	ctx := context.Background()

	require.NoError(t, files.Create(ctx, newFileRecord("a1", "alice")))
	nodes, edges := sampleFacts()
	require.NoError(t, facts.Replace(ctx, "a1", nodes, edges))
	require.NoError(t, files.SoftDelete(ctx, "alice", "a1"))

	purged, err := files.PurgeDeletedBefore(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, purged, 1)

	gotNodes, gotEdges, err := facts.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, gotNodes)
	assert.Empty(t, gotEdges)
}
