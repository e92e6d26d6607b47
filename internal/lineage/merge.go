package lineage

import (
	"fmt"
	"sort"
	"strings"

	"lineagehub/internal/domain"
)

// edgeKey identifies one merged edge. The merged edge set is deduplicated on
// this triple; contributing sources accumulate instead.
type edgeKey struct {
	source       string
	target       string
	relationship domain.Relationship
}

// nodeBuilder accumulates nodes by canonical id with explicit upsert
// semantics: first-seen name and type win, provenance unions.
type nodeBuilder struct {
	nodes   map[string]*domain.Node
	sources map[string]map[string]struct{}
}

func newNodeBuilder() *nodeBuilder {
	return &nodeBuilder{
		nodes:   make(map[string]*domain.Node),
		sources: make(map[string]map[string]struct{}),
	}
}

func (b *nodeBuilder) upsert(id, name string, typ domain.NodeType, fileID string) {
	if _, ok := b.nodes[id]; !ok {
		b.nodes[id] = &domain.Node{ID: id, Name: name, Type: typ}
		b.sources[id] = make(map[string]struct{})
	}
	b.sources[id][fileID] = struct{}{}
}

func (b *nodeBuilder) has(id string) bool {
	_, ok := b.nodes[id]
	return ok
}

// edgeBuilder accumulates edges by (source, target, relationship) and
// deduplicates contributing sources per file id.
type edgeBuilder struct {
	edges map[edgeKey]*domain.Edge
	seen  map[edgeKey]map[string]struct{}
}

func newEdgeBuilder() *edgeBuilder {
	return &edgeBuilder{
		edges: make(map[edgeKey]*domain.Edge),
		seen:  make(map[edgeKey]map[string]struct{}),
	}
}

func (b *edgeBuilder) upsert(key edgeKey, src domain.EdgeSource) {
	e, ok := b.edges[key]
	if !ok {
		e = &domain.Edge{Source: key.source, Target: key.target, Relationship: key.relationship}
		b.edges[key] = e
		b.seen[key] = make(map[string]struct{})
	}
	if _, dup := b.seen[key][src.FileID]; dup {
		return
	}
	b.seen[key][src.FileID] = struct{}{}
	e.Sources = append(e.Sources, src)
}

// Merge combines per-file lineage fact lists into one deduplicated graph.
//
// Merging is a pure function of its inputs: it is idempotent and independent
// of both file order and batching. Malformed records are skipped and reported
// as warnings; one bad file never aborts the rest. Edges whose endpoints
// resolve to no declared node in any file are dropped with a warning rather
// than synthesizing placeholder nodes.
//
// When includeFileDeps is set, a second pass over the finished table edges
// derives FILE-to-FILE DEPENDS_ON_FILE edges: file B depends on file A when
// A creates or writes a table that B reads or depends on. A file never
// depends on itself.
func Merge(files []domain.FileLineage, includeFileDeps bool) (*domain.Graph, []domain.MergeWarning) {
	nodes := newNodeBuilder()
	edges := newEdgeBuilder()
	var warnings []domain.MergeWarning

	warnf := func(fileID, format string, args ...interface{}) {
		warnings = append(warnings, domain.MergeWarning{
			FileID:  fileID,
			Message: fmt.Sprintf(format, args...),
		})
	}

	// Two passes keep the merge order-independent: all files' node facts
	// fold in first, so an edge referencing a table by name resolves no
	// matter which file declared that table.
	type pendingEdges struct {
		file  domain.FileLineage
		hints map[string]string // this file's raw node ids -> canonical ids
	}
	var pending []pendingEdges

	for _, f := range files {
		if strings.TrimSpace(f.FileID) == "" {
			warnf("", "skipping file entry with empty file id (filename %q)", f.Filename)
			continue
		}

		hints := make(map[string]string, len(f.Nodes))

		for _, fact := range f.Nodes {
			if strings.TrimSpace(fact.ID) == "" && strings.TrimSpace(fact.Name) == "" {
				warnf(f.FileID, "skipping node with no id and no name")
				continue
			}
			typ, ok := domain.NormalizeNodeType(fact.Type)
			if !ok {
				warnf(f.FileID, "skipping node %q: unknown type %q", fact.Name, fact.Type)
				continue
			}

			id := canonicalID(fact, typ, f.FileID)
			name := strings.TrimSpace(fact.Name)
			if name == "" {
				name = strings.TrimSpace(fact.ID)
			}
			if typ == domain.NodeTypeFile && name == "" {
				name = f.Filename
			}

			nodes.upsert(id, name, typ, f.FileID)
			if strings.TrimSpace(fact.ID) != "" {
				hints[fact.ID] = id
			}
		}

		pending = append(pending, pendingEdges{file: f, hints: hints})
	}

	for _, p := range pending {
		f, hints := p.file, p.hints
		src := domain.EdgeSource{FileID: f.FileID, Filename: f.Filename}
		for _, fact := range f.Edges {
			rel, ok := domain.ParseRelationship(fact.Relationship)
			if !ok {
				warnf(f.FileID, "skipping edge with unknown relationship %q", fact.Relationship)
				continue
			}
			source, ok := resolveHint(hints, nodes, fact.Source)
			if !ok {
				warnf(f.FileID, "dropping %s edge: unresolved source %q", rel, fact.Source)
				continue
			}
			target, ok := resolveHint(hints, nodes, fact.Target)
			if !ok {
				warnf(f.FileID, "dropping %s edge: unresolved target %q", rel, fact.Target)
				continue
			}
			edges.upsert(edgeKey{source: source, target: target, relationship: rel}, src)
		}
	}

	if includeFileDeps {
		deriveFileDependencies(nodes, edges)
	}

	return freeze(nodes, edges), warnings
}

// resolveHint maps a raw edge endpoint hint to a canonical node id. The hint
// is first matched against its own file's node fact ids; failing that it is
// treated as a table name, accepted only if some file declared that table.
func resolveHint(hints map[string]string, nodes *nodeBuilder, hint string) (string, bool) {
	if id, ok := hints[hint]; ok {
		return id, true
	}
	if id := TableNodeID(hint); id != UnknownTableID && nodes.has(id) {
		return id, true
	}
	return "", false
}

// deriveFileDependencies adds FILE->FILE DEPENDS_ON_FILE edges inferred from
// the already-merged table edges.
//
// Edges follow dataflow direction throughout the graph: mutation edges
// (CREATES, WRITES_TO, ...) run file -> table, read edges (READS_FROM,
// DEPENDS_ON) run table -> consuming file. A derived DEPENDS_ON_FILE edge
// therefore runs provider -> consumer: "the target depends on the source".
func deriveFileDependencies(nodes *nodeBuilder, edges *edgeBuilder) {
	providers := make(map[string][]string) // table node id -> provider file node ids
	consumers := make(map[string][]string) // table node id -> consumer file node ids

	for key := range edges.edges {
		switch key.relationship {
		case domain.RelCreates, domain.RelWritesTo:
			if IsFileNode(key.source) && !IsFileNode(key.target) {
				providers[key.target] = append(providers[key.target], key.source)
			}
		case domain.RelReadsFrom, domain.RelDependsOn:
			if !IsFileNode(key.source) && IsFileNode(key.target) {
				consumers[key.source] = append(consumers[key.source], key.target)
			}
		}
	}

	for table, cons := range consumers {
		for _, consumer := range cons {
			for _, provider := range providers[table] {
				if consumer == provider {
					continue
				}
				key := edgeKey{
					source:       provider,
					target:       consumer,
					relationship: domain.RelDependsOnFile,
				}
				edges.upsert(key, fileEdgeSource(nodes, provider))
				edges.upsert(key, fileEdgeSource(nodes, consumer))
			}
		}
	}
}

// fileEdgeSource builds the provenance entry for a derived file edge from
// the FILE node itself (its name is the original filename).
func fileEdgeSource(nodes *nodeBuilder, fileNodeID string) domain.EdgeSource {
	src := domain.EdgeSource{FileID: strings.TrimPrefix(fileNodeID, filePrefix)}
	if n, ok := nodes.nodes[fileNodeID]; ok {
		src.Filename = n.Name
	}
	return src
}

// freeze produces the immutable merged graph: nodes sorted by id, edges
// sorted by (source, target, relationship), provenance lists sorted, and
// stats recomputed in full from the final sets.
func freeze(nb *nodeBuilder, eb *edgeBuilder) *domain.Graph {
	outNodes := make([]domain.Node, 0, len(nb.nodes))
	for id, n := range nb.nodes {
		node := *n
		node.Sources = make([]string, 0, len(nb.sources[id]))
		for fileID := range nb.sources[id] {
			node.Sources = append(node.Sources, fileID)
		}
		sort.Strings(node.Sources)
		outNodes = append(outNodes, node)
	}
	sort.Slice(outNodes, func(i, j int) bool { return outNodes[i].ID < outNodes[j].ID })

	outEdges := make([]domain.Edge, 0, len(eb.edges))
	for _, e := range eb.edges {
		edge := *e
		edge.Sources = append([]domain.EdgeSource(nil), e.Sources...)
		sort.Slice(edge.Sources, func(i, j int) bool {
			return edge.Sources[i].FileID < edge.Sources[j].FileID
		})
		outEdges = append(outEdges, edge)
	}
	sort.Slice(outEdges, func(i, j int) bool {
		a, b := outEdges[i], outEdges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		return a.Relationship < b.Relationship
	})

	return &domain.Graph{
		Nodes: outNodes,
		Edges: outEdges,
		Stats: domain.ComputeStats(outNodes, outEdges),
	}
}
