package domain

// NodeRole tags a node's position relative to a search match.
type NodeRole string

const (
	RoleMatched    NodeRole = "matched"
	RoleUpstream   NodeRole = "upstream"
	RoleDownstream NodeRole = "downstream"
)

// NodeWithRole pairs a node with its role in one impact path.
type NodeWithRole struct {
	Node Node     `json:"node"`
	Role NodeRole `json:"role"`
}

// ImpactPath is the full upstream/downstream impact view for one matched node.
type ImpactPath struct {
	MatchedNode Node `json:"matched_node"`
	// UpstreamNodes are all nodes with a directed path to the match.
	UpstreamNodes []Node `json:"upstream_nodes"`
	// DownstreamNodes are all nodes reachable from the match.
	DownstreamNodes []Node `json:"downstream_nodes"`
	// ConnectionCount is the matched node's total degree.
	ConnectionCount int `json:"connection_count"`
	// AffectedEdges is the induced edge set over match, upstream, and
	// downstream nodes.
	AffectedEdges []Edge `json:"affected_edges"`
	// CentralityScore is degree centrality: degree / (total nodes - 1).
	CentralityScore float64        `json:"centrality_score"`
	NodesWithRoles  []NodeWithRole `json:"nodes_with_roles"`
}

// SearchResult is the outcome of a node search over a merged graph.
// No match is a valid, empty result.
type SearchResult struct {
	Query        string       `json:"query"`
	MatchedNodes []Node       `json:"matched_nodes"`
	Paths        []ImpactPath `json:"paths"`
}
