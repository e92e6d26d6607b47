package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineagehub/internal/domain"
	"lineagehub/internal/lineage"
)

// chainFiles builds A -> raw -> B -> fact -> C: the extract creates raw,
// the transform reads raw and writes fact, the report reads fact.
func chainFiles() []domain.FileLineage {
	return []domain.FileLineage{
		{
			FileID:   "a1",
			Filename: "extract.xml",
			Nodes: []domain.NodeFact{
				{ID: "self", Name: "extract.xml", Type: "FILE"},
				{ID: "t1", Name: "raw", Type: "TABLE_OR_VIEW"},
			},
			Edges: []domain.EdgeFact{{Source: "self", Target: "t1", Relationship: "CREATES"}},
		},
		{
			FileID:   "b2",
			Filename: "transform.xml",
			Nodes: []domain.NodeFact{
				{ID: "self", Name: "transform.xml", Type: "FILE"},
				{ID: "t1", Name: "raw", Type: "TABLE_OR_VIEW"},
				{ID: "t2", Name: "fact", Type: "TABLE_OR_VIEW"},
			},
			Edges: []domain.EdgeFact{
				{Source: "t1", Target: "self", Relationship: "READS_FROM"},
				{Source: "self", Target: "t2", Relationship: "WRITES_TO"},
			},
		},
		{
			FileID:   "c3",
			Filename: "report.xml",
			Nodes: []domain.NodeFact{
				{ID: "self", Name: "report.xml", Type: "FILE"},
				{ID: "t2", Name: "fact", Type: "TABLE_OR_VIEW"},
			},
			Edges: []domain.EdgeFact{{Source: "t2", Target: "self", Relationship: "READS_FROM"}},
		},
	}
}

func mergedChain(t *testing.T) *domain.Graph {
	t.Helper()
	g, warnings := lineage.Merge(chainFiles(), false)
	require.Empty(t, warnings)
	return g
}

func nodeIDs(nodes []domain.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestSearch_UpstreamAndDownstream(t *testing.T) {
	e := NewEngine(0)
	out := e.Search(mergedChain(t), "transform")

	require.Len(t, out.MatchedNodes, 1)
	assert.Equal(t, "file:b2", out.MatchedNodes[0].ID)
	require.Len(t, out.Paths, 1)

	path := out.Paths[0]
	assert.Equal(t, []string{"file:a1", "table:raw"}, nodeIDs(path.UpstreamNodes))
	assert.Equal(t, []string{"file:c3", "table:fact"}, nodeIDs(path.DownstreamNodes))
	assert.Equal(t, 2, path.ConnectionCount)
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	e := NewEngine(0)
	out := e.Search(mergedChain(t), "  RePort  ")

	require.Len(t, out.MatchedNodes, 1)
	assert.Equal(t, "file:c3", out.MatchedNodes[0].ID)
}

func TestSearch_MatchesNodeID(t *testing.T) {
	e := NewEngine(0)
	out := e.Search(mergedChain(t), "table:raw")

	require.Len(t, out.MatchedNodes, 1)
	assert.Equal(t, "table:raw", out.MatchedNodes[0].ID)
}

func TestSearch_NoMatch(t *testing.T) {
	e := NewEngine(0)
	out := e.Search(mergedChain(t), "nonexistent")

	assert.Equal(t, "nonexistent", out.Query)
	assert.Empty(t, out.MatchedNodes)
	assert.Empty(t, out.Paths)
}

func TestSearch_EmptyQuery(t *testing.T) {
	e := NewEngine(0)
	out := e.Search(mergedChain(t), "   ")

	assert.Empty(t, out.MatchedNodes)
	assert.Empty(t, out.Paths)
}

func TestSearch_AffectedEdgesInduced(t *testing.T) {
	e := NewEngine(0)
	out := e.Search(mergedChain(t), "transform")

	require.Len(t, out.Paths, 1)
	// The whole chain is affected, so every edge has both endpoints in the
	// affected set.
	assert.Len(t, out.Paths[0].AffectedEdges, 4)
}

func TestSearch_Centrality(t *testing.T) {
	e := NewEngine(0)
	out := e.Search(mergedChain(t), "transform")

	require.Len(t, out.Paths, 1)
	// Degree 2 over 4 other nodes.
	assert.InDelta(t, 0.5, out.Paths[0].CentralityScore, 1e-9)
}

func TestSearch_RolesMatchedFirst(t *testing.T) {
	e := NewEngine(0)
	out := e.Search(mergedChain(t), "transform")

	require.Len(t, out.Paths, 1)
	roles := out.Paths[0].NodesWithRoles
	require.Len(t, roles, 5)
	assert.Equal(t, domain.RoleMatched, roles[0].Role)
	assert.Equal(t, "file:b2", roles[0].Node.ID)
	assert.Equal(t, domain.RoleUpstream, roles[1].Role)
	assert.Equal(t, domain.RoleDownstream, roles[3].Role)
}

func TestSearch_CycleCountsAsUpstream(t *testing.T) {
	files := chainFiles()
	// Close the loop: the extract also reads fact, so every node reaches
	// every other node.
	files[0].Nodes = append(files[0].Nodes, domain.NodeFact{ID: "t2", Name: "fact", Type: "TABLE_OR_VIEW"})
	files[0].Edges = append(files[0].Edges, domain.EdgeFact{Source: "t2", Target: "self", Relationship: "READS_FROM"})

	g, warnings := lineage.Merge(files, false)
	require.Empty(t, warnings)

	e := NewEngine(0)
	out := e.Search(g, "transform")

	require.Len(t, out.Paths, 1)
	path := out.Paths[0]
	assert.Empty(t, path.DownstreamNodes, "on a full cycle every reachable node is also an ancestor")
	assert.Len(t, path.UpstreamNodes, 4)
}

func TestEngine_CachedMatchesUncached(t *testing.T) {
	cached := NewEngine(8)
	uncached := NewEngine(0)
	g := mergedChain(t)

	assert.Equal(t, uncached.Insights(g), cached.Insights(g))
	assert.Equal(t, uncached.Search(g, "fact"), cached.Search(g, "fact"))
	// Second pass hits the cache; results must not drift.
	assert.Equal(t, uncached.Search(g, "fact"), cached.Search(g, "fact"))
}
