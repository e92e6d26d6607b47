package graph

import (
	"sort"
	"strings"

	"lineagehub/internal/domain"
)

// Search finds nodes whose name or id contains the query (case-insensitive)
// and computes the upstream/downstream impact view for each match. A query
// matching nothing returns a valid empty result.
func (e *Engine) Search(mg *domain.Graph, query string) *domain.SearchResult {
	result := &domain.SearchResult{
		Query:        query,
		MatchedNodes: []domain.Node{},
		Paths:        []domain.ImpactPath{},
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(mg.Nodes) == 0 {
		return result
	}

	byID := make(map[string]domain.Node, len(mg.Nodes))
	for _, n := range mg.Nodes {
		byID[n.ID] = n
	}

	var matches []domain.Node
	for _, n := range mg.Nodes {
		if strings.Contains(strings.ToLower(n.Name), q) || strings.Contains(strings.ToLower(n.ID), q) {
			matches = append(matches, n)
		}
	}
	if len(matches) == 0 {
		return result
	}
	result.MatchedNodes = matches

	d := e.directed(mg)

	degree := make(map[string]int, len(mg.Nodes))
	for _, edge := range mg.Edges {
		degree[edge.Source]++
		degree[edge.Target]++
	}

	for _, match := range matches {
		ancestors := d.Ancestors(match.ID)
		descendants := d.Descendants(match.ID)

		// Roles are mutually exclusive per node: on cyclic graphs a node
		// reachable both ways counts as upstream.
		for id := range ancestors {
			delete(descendants, id)
		}
		delete(ancestors, match.ID)
		delete(descendants, match.ID)

		affected := make(map[string]struct{}, len(ancestors)+len(descendants)+1)
		affected[match.ID] = struct{}{}
		for id := range ancestors {
			affected[id] = struct{}{}
		}
		for id := range descendants {
			affected[id] = struct{}{}
		}

		edges := make([]domain.Edge, 0)
		for _, edge := range mg.Edges {
			_, okS := affected[edge.Source]
			_, okT := affected[edge.Target]
			if okS && okT {
				edges = append(edges, edge)
			}
		}

		centrality := 0.0
		if len(mg.Nodes) > 1 {
			centrality = float64(degree[match.ID]) / float64(len(mg.Nodes)-1)
		}

		up := collectNodes(byID, ancestors)
		down := collectNodes(byID, descendants)

		roles := make([]domain.NodeWithRole, 0, 1+len(up)+len(down))
		roles = append(roles, domain.NodeWithRole{Node: match, Role: domain.RoleMatched})
		for _, n := range up {
			roles = append(roles, domain.NodeWithRole{Node: n, Role: domain.RoleUpstream})
		}
		for _, n := range down {
			roles = append(roles, domain.NodeWithRole{Node: n, Role: domain.RoleDownstream})
		}

		result.Paths = append(result.Paths, domain.ImpactPath{
			MatchedNode:     match,
			UpstreamNodes:   up,
			DownstreamNodes: down,
			ConnectionCount: degree[match.ID],
			AffectedEdges:   edges,
			CentralityScore: centrality,
			NodesWithRoles:  roles,
		})
	}

	return result
}

func collectNodes(byID map[string]domain.Node, ids map[string]struct{}) []domain.Node {
	out := make([]domain.Node, 0, len(ids))
	for id := range ids {
		if n, ok := byID[id]; ok {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
