package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineagehub/internal/domain"
)

func TestFilterBySources_SubGraph(t *testing.T) {
	g, warnings := Merge([]domain.FileLineage{creatorFile(), loaderFile()}, false)
	require.Empty(t, warnings)

	sub := FilterBySources(g, []string{"a1"})

	for _, n := range sub.Nodes {
		assert.Contains(t, n.Sources, "a1")
	}
	for _, e := range sub.Edges {
		assert.Equal(t, "a1", e.Sources[0].FileID)
	}

	// The creator contributes its own FILE node, the shared orders table,
	// and one CREATES edge. The loader's customers table is gone.
	assert.Len(t, sub.Nodes, 2)
	assert.Len(t, sub.Edges, 1)
	assert.Equal(t, 2, sub.Stats.TotalNodes)
	assert.Equal(t, 1, sub.Stats.TotalEdges)
}

func TestFilterBySources_NoMatchYieldsEmptyGraph(t *testing.T) {
	g, _ := Merge([]domain.FileLineage{creatorFile()}, false)

	sub := FilterBySources(g, []string{"does-not-exist"})

	assert.Empty(t, sub.Nodes)
	assert.Empty(t, sub.Edges)
	assert.Equal(t, 0, sub.Stats.TotalNodes)
	assert.Equal(t, 0, sub.Stats.TotalEdges)
}

func TestFilterBySources_DoesNotMutateInput(t *testing.T) {
	g, _ := Merge([]domain.FileLineage{creatorFile(), loaderFile()}, true)
	pristine, _ := Merge([]domain.FileLineage{creatorFile(), loaderFile()}, true)

	_ = FilterBySources(g, []string{"b2"})

	assert.Equal(t, pristine, g)
}

func TestFilterBySources_EdgeNeedsBothEndpoints(t *testing.T) {
	g, _ := Merge([]domain.FileLineage{creatorFile(), loaderFile()}, true)

	sub := FilterBySources(g, []string{"b2"})

	// The derived DEPENDS_ON_FILE edge carries both files as sources, but
	// the creator's FILE node is filtered out, so the edge must go too.
	for _, e := range sub.Edges {
		assert.NotEqual(t, domain.RelDependsOnFile, e.Relationship)
	}
}
