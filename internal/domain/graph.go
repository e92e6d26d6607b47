package domain

// NodeType classifies lineage graph participants.
type NodeType string

const (
	// NodeTypeFile is an uploaded analyzer source file.
	NodeTypeFile NodeType = "FILE"
	// NodeTypeTable is a table or view referenced by ETL logic.
	NodeTypeTable NodeType = "TABLE_OR_VIEW"
)

// legacyGlobalTempTable is an obsolete node type still emitted by older
// analyzer exports. It folds into TABLE_OR_VIEW on ingestion.
const legacyGlobalTempTable = "GLOBAL_TEMP_TABLE"

// NormalizeNodeType maps a raw type string to a NodeType.
// Returns false when the value is not a recognized type.
func NormalizeNodeType(raw string) (NodeType, bool) {
	switch raw {
	case string(NodeTypeFile):
		return NodeTypeFile, true
	case string(NodeTypeTable), legacyGlobalTempTable:
		return NodeTypeTable, true
	default:
		return "", false
	}
}

// Relationship is the operation a directed lineage edge represents.
type Relationship string

const (
	RelReadsFrom     Relationship = "READS_FROM"
	RelWritesTo      Relationship = "WRITES_TO"
	RelCreates       Relationship = "CREATES"
	RelCreatesIndex  Relationship = "CREATES_INDEX"
	RelDeletesFrom   Relationship = "DELETES_FROM"
	RelDrops         Relationship = "DROPS"
	RelDependsOn     Relationship = "DEPENDS_ON"
	RelDependsOnFile Relationship = "DEPENDS_ON_FILE"
)

// ParseRelationship maps a raw relationship string to a Relationship.
// Returns false for unrecognized values.
func ParseRelationship(raw string) (Relationship, bool) {
	switch Relationship(raw) {
	case RelReadsFrom, RelWritesTo, RelCreates, RelCreatesIndex,
		RelDeletesFrom, RelDrops, RelDependsOn, RelDependsOnFile:
		return Relationship(raw), true
	default:
		return "", false
	}
}

// Node is one participant in the merged lineage graph.
type Node struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Type NodeType `json:"type"`
	// Sources lists the ids of the files whose lineage contributed this
	// node, sorted and deduplicated.
	Sources []string `json:"sources,omitempty"`
}

// EdgeSource records one file's contribution to an edge.
type EdgeSource struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
}

// Edge is a directed relationship between two nodes in the merged graph.
// The merged edge set is deduplicated on (Source, Target, Relationship);
// Sources accumulates every distinct contributing file.
type Edge struct {
	Source       string       `json:"source"`
	Target       string       `json:"target"`
	Relationship Relationship `json:"relationship"`
	Sources      []EdgeSource `json:"sources,omitempty"`
}

// GraphStats is a derived summary of a merged graph. It is always recomputed
// from the node and edge sets, never maintained incrementally.
type GraphStats struct {
	TotalNodes          int                  `json:"total_nodes"`
	TotalEdges          int                  `json:"total_edges"`
	NodesByType         map[NodeType]int     `json:"nodes_by_type"`
	EdgesByRelationship map[Relationship]int `json:"edges_by_relationship"`
}

// Graph is the aggregate lineage graph merged across a user's file set.
// Once produced it is treated as an immutable value: analytics, planning,
// and filtering all return new structures.
type Graph struct {
	Nodes []Node     `json:"nodes"`
	Edges []Edge     `json:"edges"`
	Stats GraphStats `json:"stats"`
}

// ComputeStats derives GraphStats from node and edge slices.
func ComputeStats(nodes []Node, edges []Edge) GraphStats {
	stats := GraphStats{
		TotalNodes:          len(nodes),
		TotalEdges:          len(edges),
		NodesByType:         make(map[NodeType]int),
		EdgesByRelationship: make(map[Relationship]int),
	}
	for _, n := range nodes {
		stats.NodesByType[n.Type]++
	}
	for _, e := range edges {
		stats.EdgesByRelationship[e.Relationship]++
	}
	return stats
}
