// Package migration derives a dependency-respecting migration order over the
// FILE nodes of a merged lineage graph: connected groups, topological waves
// within each group, and structured cycle reporting instead of failure.
package migration

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"lineagehub/internal/domain"
)

// fileInfo is the planner's working view of one FILE node.
type fileInfo struct {
	nodeID   string
	fileID   string
	filename string
	deps     map[string]struct{} // node ids of files this one depends on
	rdeps    map[string]struct{} // node ids of files depending on this one
	preDeps  []string            // pre-existing table names it consumes
}

// Plan computes the migration order for a merged graph. The graph is not
// mutated. An empty graph yields a valid zero-valued plan.
func Plan(mg *domain.Graph) *domain.MigrationPlan {
	plan := &domain.MigrationPlan{
		Groups:            []domain.MigrationGroup{},
		CycleInfo:         []string{},
		PreExistingTables: []string{},
		TableDependencies: map[string][]string{},
	}

	files, tables := indexNodes(mg)
	if len(files) == 0 {
		return plan
	}

	// Mutation edges run file -> table, read edges run table -> file.
	providers := make(map[string][]string) // table node id -> provider file node ids
	consumers := make(map[string][]string) // table node id -> consumer file node ids
	for _, e := range mg.Edges {
		switch e.Relationship {
		case domain.RelCreates, domain.RelWritesTo:
			_, isFile := files[e.Source]
			_, isTable := tables[e.Target]
			if isFile && isTable {
				providers[e.Target] = appendUnique(providers[e.Target], e.Source)
			}
		case domain.RelReadsFrom, domain.RelDependsOn:
			_, isTable := tables[e.Source]
			_, isFile := files[e.Target]
			if isTable && isFile {
				consumers[e.Source] = appendUnique(consumers[e.Source], e.Target)
			}
		}
	}

	// File-to-file dependency relation: consumer depends on every provider
	// of a table it consumes, never on itself. Tables nobody provides are
	// pre-existing, not missing.
	preExisting := make(map[string]struct{})
	for tableID, cons := range consumers {
		tableName := tables[tableID].Name
		for _, consumer := range cons {
			f := files[consumer]
			plan.TableDependencies[tableName] = appendUnique(plan.TableDependencies[tableName], f.filename)
			if len(providers[tableID]) == 0 {
				preExisting[tableName] = struct{}{}
				f.preDeps = appendUnique(f.preDeps, tableName)
				continue
			}
			for _, provider := range providers[tableID] {
				if provider == consumer {
					continue
				}
				f.deps[provider] = struct{}{}
				files[provider].rdeps[consumer] = struct{}{}
			}
		}
	}

	for name := range preExisting {
		plan.PreExistingTables = append(plan.PreExistingTables, name)
	}
	sort.Strings(plan.PreExistingTables)
	for name := range plan.TableDependencies {
		sort.Strings(plan.TableDependencies[name])
	}

	groups, cycles := layout(files)
	plan.Groups = groups
	plan.TotalGroups = len(groups)
	plan.TotalNodes = len(files)
	plan.HasCycles = len(cycles) > 0
	plan.CycleInfo = cycles
	return plan
}

// indexNodes splits the merged nodes into FILE and TABLE_OR_VIEW views.
func indexNodes(mg *domain.Graph) (map[string]*fileInfo, map[string]domain.Node) {
	files := make(map[string]*fileInfo)
	tables := make(map[string]domain.Node)
	for _, n := range mg.Nodes {
		switch n.Type {
		case domain.NodeTypeFile:
			files[n.ID] = &fileInfo{
				nodeID:   n.ID,
				fileID:   strings.TrimPrefix(n.ID, "file:"),
				filename: n.Name,
				deps:     make(map[string]struct{}),
				rdeps:    make(map[string]struct{}),
			}
		case domain.NodeTypeTable:
			tables[n.ID] = n
		}
	}
	return files, tables
}

// layout partitions files into connected groups and orders each group into
// waves. Cycles never deadlock the layering: each cycle's members are
// reported and scheduled together in one wave, then ordering continues below
// them so the result stays total.
func layout(files map[string]*fileInfo) ([]domain.MigrationGroup, []string) {
	ids := make([]string, 0, len(files))
	for id := range files {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	idx := make(map[string]int64, len(ids))
	undirected := simple.NewUndirectedGraph()
	directed := simple.NewDirectedGraph()
	for i, id := range ids {
		idx[id] = int64(i)
		undirected.AddNode(simple.Node(int64(i)))
		directed.AddNode(simple.Node(int64(i)))
	}
	for id, f := range files {
		for dep := range f.deps {
			from, to := idx[dep], idx[id]
			if from == to {
				continue
			}
			// provider -> consumer for topological layering
			directed.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
			if !undirected.HasEdgeBetween(from, to) {
				undirected.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
			}
		}
	}

	// Cycle membership comes from the strongly connected components, not
	// from layering leftovers: a file merely downstream of a cycle is not
	// part of it.
	comps := cycleComponents(directed, ids, files)
	cycles := describeCycles(comps, files)
	sccOf := make(map[string]int)
	cyclePeers := make(map[string][]string)
	for ci, members := range comps {
		for _, id := range members {
			sccOf[id] = ci
			peers := make([]string, 0, len(members)-1)
			for _, other := range members {
				if other != id {
					peers = append(peers, files[other].filename)
				}
			}
			sort.Strings(peers)
			cyclePeers[id] = peers
		}
	}

	// Connected grouping is undirected; ordering within a group is directed.
	components := topo.ConnectedComponents(undirected)
	groups := make([][]string, 0, len(components))
	for _, comp := range components {
		members := make([]string, 0, len(comp))
		for _, n := range comp {
			members = append(members, ids[n.ID()])
		}
		sortByName(members, files)
		groups = append(groups, members)
	}
	sort.Slice(groups, func(i, j int) bool {
		return files[groups[i][0]].filename < files[groups[j][0]].filename
	})

	out := make([]domain.MigrationGroup, 0, len(groups))
	for gi, members := range groups {
		out = append(out, domain.MigrationGroup{
			GroupID: gi,
			Waves:   waves(members, files, sccOf, cyclePeers),
			Files:   len(members),
		})
	}
	return out, cycles
}

// waves runs Kahn's algorithm restricted to one group's members, emitting one
// wave per tier. A drained queue with members still unplaced means the
// layering stalled on a cycle: the cycle members ready to go (all unmet
// dependencies inside their own strongly connected component) migrate
// together in the next wave, and layering resumes below them so files
// downstream of a cycle land in later waves.
func waves(members []string, files map[string]*fileInfo, sccOf map[string]int, cyclePeers map[string][]string) []domain.MigrationWave {
	inGroup := make(map[string]struct{}, len(members))
	for _, id := range members {
		inGroup[id] = struct{}{}
	}

	indeg := make(map[string]int, len(members))
	for _, id := range members {
		for dep := range files[id].deps {
			if _, ok := inGroup[dep]; ok {
				indeg[id]++
			}
		}
	}

	var queue []string
	for _, id := range members {
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}

	var out []domain.MigrationWave
	placed := make(map[string]struct{}, len(members))
	waveNum := 0
	for len(placed) < len(members) {
		batch := queue
		cyclic := false
		if len(batch) == 0 {
			batch = readyCycleMembers(members, files, sccOf, placed)
			if len(batch) == 0 {
				break
			}
			cyclic = true
		}
		sortByName(batch, files)
		wave := domain.MigrationWave{Wave: waveNum}
		for _, id := range batch {
			placed[id] = struct{}{}
			wave.Files = append(wave.Files, migrationFile(files[id], files, waveNum, cyclic, cyclePeers[id]))
		}
		var next []string
		for _, id := range batch {
			for dependent := range files[id].rdeps {
				if _, ok := inGroup[dependent]; !ok {
					continue
				}
				indeg[dependent]--
				if indeg[dependent] != 0 {
					continue
				}
				if _, done := placed[dependent]; !done {
					next = append(next, dependent)
				}
			}
		}
		out = append(out, wave)
		queue = next
		waveNum++
	}
	return out
}

// readyCycleMembers selects the unplaced cycle members whose every unmet
// dependency lies inside their own strongly connected component.
func readyCycleMembers(members []string, files map[string]*fileInfo, sccOf map[string]int, placed map[string]struct{}) []string {
	var ready []string
	for _, id := range members {
		if _, done := placed[id]; done {
			continue
		}
		comp, inCycle := sccOf[id]
		if !inCycle {
			continue
		}
		blocked := false
		for dep := range files[id].deps {
			if _, done := placed[dep]; done {
				continue
			}
			if depComp, ok := sccOf[dep]; !ok || depComp != comp {
				blocked = true
				break
			}
		}
		if !blocked {
			ready = append(ready, id)
		}
	}
	return ready
}

// migrationFile assembles the emitted entry for one file, including its
// ordering rationale. peers names the file's cycle companions; it is nil for
// acyclic files.
func migrationFile(f *fileInfo, files map[string]*fileInfo, wave int, cyclic bool, peers []string) domain.MigrationFile {
	upstream := namesOf(f.deps, files)
	downstream := namesOf(f.rdeps, files)
	pre := append([]string(nil), f.preDeps...)
	sort.Strings(pre)

	var rationale string
	switch {
	case cyclic:
		rationale = fmt.Sprintf("part of a dependency cycle with %s; migrate these files together in wave %d",
			joinOr(peers, "its peers"), wave)
	case len(upstream) == 0 && len(pre) == 0:
		rationale = "no dependencies on other files; can migrate in the first wave"
	case len(upstream) == 0:
		rationale = fmt.Sprintf("depends only on pre-existing tables (%s); can migrate in the first wave",
			strings.Join(pre, ", "))
	default:
		rationale = fmt.Sprintf("depends on %d file(s) (%s); scheduled in wave %d after its dependencies",
			len(upstream), strings.Join(upstream, ", "), wave)
	}

	return domain.MigrationFile{
		NodeID:          f.nodeID,
		FileID:          f.fileID,
		Filename:        f.filename,
		UpstreamCount:   len(f.deps),
		DownstreamCount: len(f.rdeps),
		UpstreamFiles:   upstream,
		DownstreamFiles: downstream,
		PreExistingDeps: pre,
		Rationale:       rationale,
	}
}

// cycleComponents returns the strongly connected components with more than
// one member, each as a name-sorted node id list.
func cycleComponents(directed *simple.DirectedGraph, ids []string, files map[string]*fileInfo) [][]string {
	var comps [][]string
	for _, scc := range topo.TarjanSCC(directed) {
		if len(scc) < 2 {
			continue
		}
		members := make([]string, 0, len(scc))
		for _, n := range scc {
			members = append(members, ids[n.ID()])
		}
		sortByName(members, files)
		comps = append(comps, members)
	}
	return comps
}

// describeCycles reports one human-readable description per cycle component.
func describeCycles(comps [][]string, files map[string]*fileInfo) []string {
	var cycles []string
	for _, members := range comps {
		names := make([]string, 0, len(members))
		for _, id := range members {
			names = append(names, files[id].filename)
		}
		sort.Strings(names)
		cycles = append(cycles, fmt.Sprintf("dependency cycle: %s -> %s",
			strings.Join(names, " -> "), names[0]))
	}
	sort.Strings(cycles)
	if cycles == nil {
		cycles = []string{}
	}
	return cycles
}

func sortByName(ids []string, files map[string]*fileInfo) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := files[ids[i]], files[ids[j]]
		if a.filename != b.filename {
			return a.filename < b.filename
		}
		return a.nodeID < b.nodeID
	})
}

func namesOf(set map[string]struct{}, files map[string]*fileInfo) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, files[id].filename)
	}
	sort.Strings(out)
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func joinOr(names []string, fallback string) string {
	if len(names) == 0 {
		return fallback
	}
	return strings.Join(names, ", ")
}
