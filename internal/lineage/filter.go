package lineage

import (
	"lineagehub/internal/domain"
)

// FilterBySources returns the sub-graph of nodes and edges whose provenance
// intersects the requested file id set. The input graph is never mutated.
// Edges whose endpoints are filtered out are dropped along with the nodes,
// and stats are recomputed for the sub-graph. An id set matching nothing
// yields a valid empty graph.
func FilterBySources(g *domain.Graph, fileIDs []string) *domain.Graph {
	want := make(map[string]struct{}, len(fileIDs))
	for _, id := range fileIDs {
		want[id] = struct{}{}
	}

	kept := make(map[string]struct{})
	nodes := make([]domain.Node, 0)
	for _, n := range g.Nodes {
		if !intersects(n.Sources, want) {
			continue
		}
		nc := n
		nc.Sources = append([]string(nil), n.Sources...)
		nodes = append(nodes, nc)
		kept[n.ID] = struct{}{}
	}

	edges := make([]domain.Edge, 0)
	for _, e := range g.Edges {
		if !edgeIntersects(e.Sources, want) {
			continue
		}
		if _, ok := kept[e.Source]; !ok {
			continue
		}
		if _, ok := kept[e.Target]; !ok {
			continue
		}
		ec := e
		ec.Sources = append([]domain.EdgeSource(nil), e.Sources...)
		edges = append(edges, ec)
	}

	return &domain.Graph{
		Nodes: nodes,
		Edges: edges,
		Stats: domain.ComputeStats(nodes, edges),
	}
}

func intersects(sources []string, want map[string]struct{}) bool {
	for _, s := range sources {
		if _, ok := want[s]; ok {
			return true
		}
	}
	return false
}

func edgeIntersects(sources []domain.EdgeSource, want map[string]struct{}) bool {
	for _, s := range sources {
		if _, ok := want[s.FileID]; ok {
			return true
		}
	}
	return false
}
