package graph

import (
	"sort"

	"lineagehub/internal/domain"
)

// mostConnectedLimit caps the most-connected ranking.
const mostConnectedLimit = 10

// tableUsage accumulates per-table facts gathered in a single edge pass.
type tableUsage struct {
	createdBy map[string]struct{}
	readBy    map[string]struct{}
	writtenBy map[string]struct{}
	reads     int
	writes    int
	deletes   int
	drops     int
}

// Insights computes the full analytics summary for a merged graph. An empty
// graph yields a fully-populated zero-valued result. The input is not
// mutated.
func (e *Engine) Insights(mg *domain.Graph) *domain.Insights {
	out := &domain.Insights{
		TotalNodes:        mg.Stats.TotalNodes,
		TotalEdges:        mg.Stats.TotalEdges,
		MostConnected:     []domain.ConnectedTable{},
		OrphanedNodes:     []domain.Node{},
		NodeTypes:         make(map[domain.NodeType]int, len(mg.Stats.NodesByType)),
		RelationshipTypes: make(map[domain.Relationship]int, len(mg.Stats.EdgesByRelationship)),
		TablesOnlyRead:    []string{},
		TablesNeverRead:   []string{},
		TablesWithDeletes: []domain.TableOpCount{},
		TablesWithDrops:   []domain.TableOpCount{},
	}
	for t, c := range mg.Stats.NodesByType {
		out.NodeTypes[t] = c
	}
	for r, c := range mg.Stats.EdgesByRelationship {
		out.RelationshipTypes[r] = c
	}

	byID := make(map[string]*domain.Node, len(mg.Nodes))
	for i := range mg.Nodes {
		byID[mg.Nodes[i].ID] = &mg.Nodes[i]
	}

	// Single pass over edges: degrees plus per-table usage.
	inDeg := make(map[string]int, len(mg.Nodes))
	outDeg := make(map[string]int, len(mg.Nodes))
	usage := make(map[string]*tableUsage)

	usageFor := func(id string) *tableUsage {
		u, ok := usage[id]
		if !ok {
			u = &tableUsage{
				createdBy: make(map[string]struct{}),
				readBy:    make(map[string]struct{}),
				writtenBy: make(map[string]struct{}),
			}
			usage[id] = u
		}
		return u
	}

	fileName := func(id string) string {
		if n, ok := byID[id]; ok && n.Type == domain.NodeTypeFile {
			return n.Name
		}
		return id
	}

	// Edges run in dataflow direction: mutations file -> table, reads
	// table -> consuming file.
	for _, edge := range mg.Edges {
		outDeg[edge.Source]++
		inDeg[edge.Target]++

		switch edge.Relationship {
		case domain.RelReadsFrom:
			src, ok := byID[edge.Source]
			if !ok || src.Type != domain.NodeTypeTable {
				continue
			}
			u := usageFor(edge.Source)
			u.readBy[fileName(edge.Target)] = struct{}{}
			u.reads++
		case domain.RelCreates, domain.RelCreatesIndex, domain.RelWritesTo,
			domain.RelDeletesFrom, domain.RelDrops:
			target, ok := byID[edge.Target]
			if !ok || target.Type != domain.NodeTypeTable {
				continue
			}
			u := usageFor(edge.Target)
			switch edge.Relationship {
			case domain.RelCreates, domain.RelCreatesIndex:
				u.createdBy[fileName(edge.Source)] = struct{}{}
			case domain.RelWritesTo:
				u.writtenBy[fileName(edge.Source)] = struct{}{}
				u.writes++
			case domain.RelDeletesFrom:
				u.deletes++
			case domain.RelDrops:
				u.drops++
			}
		}
	}

	// Most connected: tables only, degree descending, lexicographic id
	// tie-break for determinism.
	tables := make([]domain.ConnectedTable, 0)
	for _, n := range mg.Nodes {
		if n.Type != domain.NodeTypeTable {
			continue
		}
		entry := domain.ConnectedTable{
			NodeID:    n.ID,
			Name:      n.Name,
			Degree:    inDeg[n.ID] + outDeg[n.ID],
			InDegree:  inDeg[n.ID],
			OutDegree: outDeg[n.ID],
			CreatedBy: []string{},
			ReadBy:    []string{},
			WrittenBy: []string{},
		}
		if u, ok := usage[n.ID]; ok {
			entry.CreatedBy = sortedKeys(u.createdBy)
			entry.ReadBy = sortedKeys(u.readBy)
			entry.WrittenBy = sortedKeys(u.writtenBy)
		}
		tables = append(tables, entry)
	}
	sort.Slice(tables, func(i, j int) bool {
		if tables[i].Degree != tables[j].Degree {
			return tables[i].Degree > tables[j].Degree
		}
		return tables[i].NodeID < tables[j].NodeID
	})
	if len(tables) > mostConnectedLimit {
		tables = tables[:mostConnectedLimit]
	}
	out.MostConnected = tables

	for _, n := range mg.Nodes {
		if inDeg[n.ID]+outDeg[n.ID] == 0 {
			out.OrphanedNodes = append(out.OrphanedNodes, n)
		}
	}

	// Read/write classification per table. A table counts as touched by
	// destructive ops when any WRITES_TO, DELETES_FROM, or DROPS edge hits it.
	for _, n := range mg.Nodes {
		if n.Type != domain.NodeTypeTable {
			continue
		}
		u, ok := usage[n.ID]
		if !ok {
			continue
		}
		mutations := u.writes + u.deletes + u.drops
		if u.reads > 0 && mutations == 0 {
			out.TablesOnlyRead = append(out.TablesOnlyRead, n.Name)
		}
		if u.reads == 0 && mutations > 0 {
			out.TablesNeverRead = append(out.TablesNeverRead, n.Name)
		}
		if u.deletes > 0 {
			out.TablesWithDeletes = append(out.TablesWithDeletes, domain.TableOpCount{
				NodeID: n.ID, Name: n.Name, Count: u.deletes,
			})
		}
		if u.drops > 0 {
			out.TablesWithDrops = append(out.TablesWithDrops, domain.TableOpCount{
				NodeID: n.ID, Name: n.Name, Count: u.drops,
			})
		}
	}
	sort.Strings(out.TablesOnlyRead)
	sort.Strings(out.TablesNeverRead)
	sortOpCounts(out.TablesWithDeletes)
	sortOpCounts(out.TablesWithDrops)

	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// sortOpCounts orders by count descending, then name, for stable output.
func sortOpCounts(list []domain.TableOpCount) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].Name < list[j].Name
	})
}
