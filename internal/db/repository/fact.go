package repository

import (
	"context"
	"database/sql"
	"fmt"

	"lineagehub/internal/domain"
)

// FactRepo stores the extracted lineage facts for each file.
type FactRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

func NewFactRepo(writeDB, readDB *sql.DB) *FactRepo {
	return &FactRepo{writeDB: writeDB, readDB: readDB}
}

// Replace swaps the stored facts for a file in one transaction, so readers
// never observe a half-written fact set.
func (r *FactRepo) Replace(ctx context.Context, fileID string, nodes []domain.NodeFact, edges []domain.EdgeFact) error {
	tx, err := r.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin fact replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lineage_nodes WHERE file_id = ?`, fileID); err != nil {
		return mapDBError(err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM lineage_edges WHERE file_id = ?`, fileID); err != nil {
		return mapDBError(err)
	}

	for _, n := range nodes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lineage_nodes (file_id, node_id, name, node_type) VALUES (?, ?, ?, ?)`,
			fileID, n.ID, n.Name, n.Type); err != nil {
			return mapDBError(err)
		}
	}
	for _, e := range edges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lineage_edges (file_id, source_hint, target_hint, relationship) VALUES (?, ?, ?, ?)`,
			fileID, e.Source, e.Target, e.Relationship); err != nil {
			return mapDBError(err)
		}
	}

	return tx.Commit()
}

func (r *FactRepo) Get(ctx context.Context, fileID string) ([]domain.NodeFact, []domain.EdgeFact, error) {
	nodes, err := r.getNodes(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	edges, err := r.getEdges(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}

func (r *FactRepo) getNodes(ctx context.Context, fileID string) ([]domain.NodeFact, error) {
	rows, err := r.readDB.QueryContext(ctx,
		`SELECT node_id, name, node_type FROM lineage_nodes WHERE file_id = ? ORDER BY id`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.NodeFact, 0)
	for rows.Next() {
		var n domain.NodeFact
		if err := rows.Scan(&n.ID, &n.Name, &n.Type); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *FactRepo) getEdges(ctx context.Context, fileID string) ([]domain.EdgeFact, error) {
	rows, err := r.readDB.QueryContext(ctx,
		`SELECT source_hint, target_hint, relationship FROM lineage_edges WHERE file_id = ? ORDER BY id`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.EdgeFact, 0)
	for rows.Next() {
		var e domain.EdgeFact
		if err := rows.Scan(&e.Source, &e.Target, &e.Relationship); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *FactRepo) Delete(ctx context.Context, fileID string) error {
	if _, err := r.writeDB.ExecContext(ctx, `DELETE FROM lineage_nodes WHERE file_id = ?`, fileID); err != nil {
		return mapDBError(err)
	}
	if _, err := r.writeDB.ExecContext(ctx, `DELETE FROM lineage_edges WHERE file_id = ?`, fileID); err != nil {
		return mapDBError(err)
	}
	return nil
}
