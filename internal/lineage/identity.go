// Package lineage merges per-file lineage fact lists into one aggregate
// dependency graph with provenance, and provides pure post-filters over it.
package lineage

import (
	"strings"

	"lineagehub/internal/domain"
)

// Node id namespaces. FILE and TABLE_OR_VIEW ids never collide because every
// id carries its type prefix.
const (
	filePrefix  = "file:"
	tablePrefix = "table:"
)

// UnknownTableID is the sentinel id produced for table facts whose name is
// empty or whitespace. Unparseable names never abort a merge.
const UnknownTableID = tablePrefix + "unknown"

// TableNodeID canonicalizes a table or view name into a stable merge key.
// The same logical table referenced with different casing or stray
// whitespace by different files always yields the same id.
func TableNodeID(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return UnknownTableID
	}
	return tablePrefix + n
}

// FileNodeID derives the node id for an uploaded file from its file id.
func FileNodeID(fileID string) string {
	return filePrefix + strings.TrimSpace(fileID)
}

// IsFileNode reports whether a canonical node id belongs to a FILE node.
func IsFileNode(id string) bool {
	return strings.HasPrefix(id, filePrefix)
}

// canonicalID resolves one raw node fact to its canonical id. FILE facts key
// on the owning file; table-like facts key on their normalized name. The
// fact's own name falls back to its raw id hint when empty.
func canonicalID(fact domain.NodeFact, typ domain.NodeType, fileID string) string {
	if typ == domain.NodeTypeFile {
		return FileNodeID(fileID)
	}
	name := fact.Name
	if strings.TrimSpace(name) == "" {
		name = fact.ID
	}
	return TableNodeID(name)
}
