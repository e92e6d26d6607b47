package domain

// NodeFact is one raw node record extracted from a single analyzer file.
// ID is the extractor's local hint; the merger canonicalizes it before use.
type NodeFact struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// EdgeFact is one raw edge record extracted from a single analyzer file.
// Source and Target reference NodeFact IDs from the same file.
type EdgeFact struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Relationship string `json:"relationship"`
}

// FileLineage is the immutable per-file input to the merger: the node and
// edge facts previously extracted from one analyzer file.
type FileLineage struct {
	FileID   string     `json:"file_id"`
	Filename string     `json:"filename"`
	Nodes    []NodeFact `json:"nodes"`
	Edges    []EdgeFact `json:"edges"`
}

// MergeWarning reports a per-record problem the merger recovered from.
// One malformed record never aborts merging the rest.
type MergeWarning struct {
	FileID  string `json:"file_id"`
	Message string `json:"message"`
}
