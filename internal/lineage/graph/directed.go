// Package graph builds an in-memory directed representation of a merged
// lineage graph and computes insights and impact searches over it. It never
// mutates the merged graph it is given.
package graph

import (
	"fmt"
	"hash/fnv"

	lru "github.com/hashicorp/golang-lru/v2"
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"lineagehub/internal/domain"
)

// Directed wraps a gonum directed graph keyed by merged-graph node ids.
// String node ids map to sequential int64 ids for gonum.
type Directed struct {
	g   *simple.DirectedGraph
	ids map[string]int64
	rev map[int64]string
}

// build constructs the gonum representation from a merged graph. Self-loops
// are skipped (simple graphs reject them); they still count toward degree,
// which is computed from the merged edge list, not from this structure.
func build(mg *domain.Graph) *Directed {
	d := &Directed{
		g:   simple.NewDirectedGraph(),
		ids: make(map[string]int64, len(mg.Nodes)),
		rev: make(map[int64]string, len(mg.Nodes)),
	}
	for i, n := range mg.Nodes {
		id := int64(i)
		d.ids[n.ID] = id
		d.rev[id] = n.ID
		d.g.AddNode(simple.Node(id))
	}
	for _, e := range mg.Edges {
		from, okF := d.ids[e.Source]
		to, okT := d.ids[e.Target]
		if okF && okT && from != to {
			d.g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		}
	}
	return d
}

// Ancestors returns the ids of all nodes with a directed path to id,
// excluding id itself. BFS over reverse adjacency; safe on cyclic graphs.
func (d *Directed) Ancestors(id string) map[string]struct{} {
	return d.reach(id, func(gid int64) []int64 { return d.neighbors(d.g.To(gid)) })
}

// Descendants returns the ids of all nodes reachable from id, excluding id.
func (d *Directed) Descendants(id string) map[string]struct{} {
	return d.reach(id, func(gid int64) []int64 { return d.neighbors(d.g.From(gid)) })
}

func (d *Directed) reach(id string, next func(int64) []int64) map[string]struct{} {
	out := make(map[string]struct{})
	start, ok := d.ids[id]
	if !ok {
		return out
	}
	visited := map[int64]struct{}{start: {}}
	queue := []int64{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range next(cur) {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			out[d.rev[n]] = struct{}{}
			queue = append(queue, n)
		}
	}
	return out
}

// neighbors drains a gonum node iterator into int64 ids.
func (d *Directed) neighbors(it gonumgraph.Nodes) []int64 {
	var ids []int64
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	return ids
}

// Engine computes analytics over merged graphs. It may cache the derived
// directed structure keyed by a content hash of the graph; caching is an
// optimization only — cached and uncached paths give identical results.
type Engine struct {
	cache *lru.Cache[string, *Directed]
}

// NewEngine creates an analytics engine. cacheSize <= 0 disables caching.
func NewEngine(cacheSize int) *Engine {
	e := &Engine{}
	if cacheSize > 0 {
		// lru.New only errors on a non-positive size.
		if c, err := lru.New[string, *Directed](cacheSize); err == nil {
			e.cache = c
		}
	}
	return e
}

// directed returns the gonum representation for a merged graph, from cache
// when possible.
func (e *Engine) directed(mg *domain.Graph) *Directed {
	if e.cache == nil {
		return build(mg)
	}
	key := contentKey(mg)
	if d, ok := e.cache.Get(key); ok {
		return d
	}
	d := build(mg)
	e.cache.Add(key, d)
	return d
}

// contentKey hashes the graph's stats plus its node and edge identity sets.
// Merged graphs are sorted on freeze, so the hash is deterministic.
func contentKey(mg *domain.Graph) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "n%d|e%d", mg.Stats.TotalNodes, mg.Stats.TotalEdges)
	for _, n := range mg.Nodes {
		h.Write([]byte(n.ID))
		h.Write([]byte{0})
	}
	for _, edge := range mg.Edges {
		fmt.Fprintf(h, "%s>%s:%s;", edge.Source, edge.Target, edge.Relationship)
	}
	return fmt.Sprintf("%x", h.Sum64())
}
