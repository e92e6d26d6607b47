package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineagehub/internal/domain"
)

func TestLineageService_Graph_MergesAnalyzedFiles(t *testing.T) {
	env := setupEnv(t)
	ctx := authCtx("alice")

	creatorNodes, creatorEdges := creatorFacts()
	readerNodes, readerEdges := readerFacts()
	uploadAnalyzed(t, env, ctx, "create_orders.xml", creatorNodes, creatorEdges)
	uploadAnalyzed(t, env, ctx, "report_orders.xml", readerNodes, readerEdges)

	// An uploaded-but-unanalyzed file contributes nothing.
	_, err := env.files.Upload(ctx, "pending.xml", "", contentOf("pending.xml"))
	require.NoError(t, err)

	g, warnings, err := env.lineage.Graph(ctx, GraphOptions{})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	// Two FILE nodes plus orders and report; the shared orders table merged.
	assert.Equal(t, 4, g.Stats.TotalNodes)
	assert.Equal(t, 3, g.Stats.TotalEdges)
	assert.Equal(t, 2, g.Stats.NodesByType[domain.NodeTypeFile])
}

func TestLineageService_Graph_RequiresAuth(t *testing.T) {
	env := setupEnv(t)

	_, _, err := env.lineage.Graph(context.Background(), GraphOptions{})
	var accessDenied *domain.AccessDeniedError
	assert.ErrorAs(t, err, &accessDenied)
}

func TestLineageService_Graph_OwnerIsolation(t *testing.T) {
	env := setupEnv(t)

	nodes, edges := creatorFacts()
	uploadAnalyzed(t, env, authCtx("alice"), "create_orders.xml", nodes, edges)

	g, _, err := env.lineage.Graph(authCtx("bob"), GraphOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, g.Stats.TotalNodes)
}

func TestLineageService_Graph_FileDeps(t *testing.T) {
	env := setupEnv(t)
	ctx := authCtx("alice")

	creatorNodes, creatorEdges := creatorFacts()
	readerNodes, readerEdges := readerFacts()
	creator := uploadAnalyzed(t, env, ctx, "create_orders.xml", creatorNodes, creatorEdges)
	reader := uploadAnalyzed(t, env, ctx, "report_orders.xml", readerNodes, readerEdges)

	g, _, err := env.lineage.Graph(ctx, GraphOptions{IncludeFileDeps: true})
	require.NoError(t, err)

	found := false
	for _, e := range g.Edges {
		if e.Relationship == domain.RelDependsOnFile {
			found = true
			assert.Equal(t, "file:"+creator.ID, e.Source)
			assert.Equal(t, "file:"+reader.ID, e.Target)
		}
	}
	assert.True(t, found, "expected a derived file dependency edge")
}

func TestLineageService_Graph_SubsetFilter(t *testing.T) {
	env := setupEnv(t)
	ctx := authCtx("alice")

	creatorNodes, creatorEdges := creatorFacts()
	readerNodes, readerEdges := readerFacts()
	creator := uploadAnalyzed(t, env, ctx, "create_orders.xml", creatorNodes, creatorEdges)
	uploadAnalyzed(t, env, ctx, "report_orders.xml", readerNodes, readerEdges)

	g, _, err := env.lineage.Graph(ctx, GraphOptions{FileIDs: []string{creator.ID}})
	require.NoError(t, err)

	assert.Equal(t, 2, g.Stats.TotalNodes)
	for _, n := range g.Nodes {
		assert.Contains(t, n.Sources, creator.ID)
	}
}

func TestLineageService_Graph_UnknownFileID(t *testing.T) {
	env := setupEnv(t)
	ctx := authCtx("alice")

	nodes, edges := creatorFacts()
	uploadAnalyzed(t, env, ctx, "create_orders.xml", nodes, edges)

	_, _, err := env.lineage.Graph(ctx, GraphOptions{FileIDs: []string{"nope"}})
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, notFound.Message, "nope")
}

func TestLineageService_Graph_CacheHitAndInvalidation(t *testing.T) {
	env := setupEnv(t)
	ctx := authCtx("alice")

	nodes, edges := creatorFacts()
	uploadAnalyzed(t, env, ctx, "create_orders.xml", nodes, edges)

	first, _, err := env.lineage.Graph(ctx, GraphOptions{})
	require.NoError(t, err)
	second, _, err := env.lineage.Graph(ctx, GraphOptions{})
	require.NoError(t, err)
	assert.Same(t, first, second, "repeat request must hit the merge cache")

	// Storing facts for a new file invalidates the cached merge.
	readerNodes, readerEdges := readerFacts()
	uploadAnalyzed(t, env, ctx, "report_orders.xml", readerNodes, readerEdges)

	third, _, err := env.lineage.Graph(ctx, GraphOptions{})
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 4, third.Stats.TotalNodes)
}

func TestLineageService_Graph_UncachedStillWorks(t *testing.T) {
	env := setupEnv(t)
	ctx := authCtx("alice")

	nodes, edges := creatorFacts()
	uploadAnalyzed(t, env, ctx, "create_orders.xml", nodes, edges)

	// cacheSize 0 disables caching entirely.
	uncached := NewLineageService(env.lineage.fileRepo, env.lineage.factRepo, 0, env.lineage.logger)
	g, _, err := uncached.Graph(ctx, GraphOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, g.Stats.TotalNodes)
}
