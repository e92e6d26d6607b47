package domain

// ConnectedTable is one entry in the most-connected ranking: a table node
// with its total degree and the files that created, read, and wrote it.
type ConnectedTable struct {
	NodeID    string   `json:"node_id"`
	Name      string   `json:"name"`
	Degree    int      `json:"degree"`
	InDegree  int      `json:"in_degree"`
	OutDegree int      `json:"out_degree"`
	CreatedBy []string `json:"created_by"`
	ReadBy    []string `json:"read_by"`
	WrittenBy []string `json:"written_by"`
}

// TableOpCount counts destructive operations against one table.
type TableOpCount struct {
	NodeID string `json:"node_id"`
	Name   string `json:"name"`
	Count  int    `json:"count"`
}

// Insights is the full analytics summary of a merged graph. Every field is
// populated (possibly empty, never nil slices in JSON-visible lists) even
// when the graph has no nodes.
type Insights struct {
	TotalNodes        int                  `json:"total_nodes"`
	TotalEdges        int                  `json:"total_edges"`
	MostConnected     []ConnectedTable     `json:"most_connected"`
	OrphanedNodes     []Node               `json:"orphaned_nodes"`
	NodeTypes         map[NodeType]int     `json:"node_types"`
	RelationshipTypes map[Relationship]int `json:"relationship_types"`
	TablesOnlyRead    []string             `json:"tables_only_read"`
	TablesNeverRead   []string             `json:"tables_never_read"`
	TablesWithDeletes []TableOpCount       `json:"tables_with_deletes"`
	TablesWithDrops   []TableOpCount       `json:"tables_with_drops"`
}
