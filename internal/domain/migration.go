package domain

// MigrationFile is one FILE node placed in a migration wave.
type MigrationFile struct {
	NodeID   string `json:"node_id"`
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	// UpstreamCount / DownstreamCount are file-to-file dependency counts.
	UpstreamCount   int      `json:"upstream_count"`
	DownstreamCount int      `json:"downstream_count"`
	UpstreamFiles   []string `json:"upstream_files"`
	DownstreamFiles []string `json:"downstream_files"`
	// PreExistingDeps lists tables this file reads that no file in the
	// set creates or writes.
	PreExistingDeps []string `json:"pre_existing_dependencies"`
	Rationale       string   `json:"rationale"`
}

// MigrationWave is one topological layer: every file in wave k depends only
// on files in waves < k or on pre-existing tables.
type MigrationWave struct {
	Wave  int             `json:"wave"`
	Files []MigrationFile `json:"files"`
}

// MigrationGroup is a connected cluster of files under the file-to-file
// dependency relation, ordered into waves.
type MigrationGroup struct {
	GroupID int             `json:"group_id"`
	Waves   []MigrationWave `json:"waves"`
	Files   int             `json:"file_count"`
}

// MigrationPlan is the dependency-respecting migration order derived from a
// merged graph. Plans are recomputed on every call; they are not persisted.
type MigrationPlan struct {
	Groups      []MigrationGroup `json:"groups"`
	TotalNodes  int              `json:"total_nodes"`
	TotalGroups int              `json:"total_groups"`
	HasCycles   bool             `json:"has_cycles"`
	// CycleInfo holds a human-readable description per detected cycle.
	CycleInfo []string `json:"cycle_info,omitempty"`
	// PreExistingTables must exist before migration starts.
	PreExistingTables []string `json:"pre_existing_tables"`
	// TableDependencies maps each table name to the files that consume it.
	TableDependencies map[string][]string `json:"table_dependencies"`
}
