package repository

import (
	"context"
	"database/sql"
	"time"

	"lineagehub/internal/domain"
)

// FileRepo stores uploaded file metadata. Reads go through readDB, writes
// through the single-connection writeDB.
type FileRepo struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

func NewFileRepo(writeDB, readDB *sql.DB) *FileRepo {
	return &FileRepo{writeDB: writeDB, readDB: readDB}
}

const fileColumns = `id, owner, filename, dialect, size_bytes, storage_key, status, created_at, deleted_at`

func (r *FileRepo) Create(ctx context.Context, f *domain.FileRecord) error {
	if f.Status == "" {
		f.Status = domain.FileStatusUploaded
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	_, err := r.writeDB.ExecContext(ctx,
		`INSERT INTO files (id, owner, filename, dialect, size_bytes, storage_key, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Owner, f.Filename, f.Dialect, f.SizeBytes, f.StorageKey, f.Status, f.CreatedAt)
	return mapDBError(err)
}

func (r *FileRepo) Get(ctx context.Context, owner, id string) (*domain.FileRecord, error) {
	row := r.readDB.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = ? AND owner = ? AND status != ?`,
		id, owner, domain.FileStatusDeleted)
	f, err := scanFile(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return f, nil
}

func (r *FileRepo) List(ctx context.Context, owner string) ([]domain.FileRecord, error) {
	rows, err := r.readDB.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE owner = ? AND status != ? ORDER BY created_at DESC, id`,
		owner, domain.FileStatusDeleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.FileRecord, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (r *FileRepo) SetStatus(ctx context.Context, id, status string) error {
	res, err := r.writeDB.ExecContext(ctx,
		`UPDATE files SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res, "file %s not found", id)
}

func (r *FileRepo) SoftDelete(ctx context.Context, owner, id string) error {
	res, err := r.writeDB.ExecContext(ctx,
		`UPDATE files SET status = ?, deleted_at = ? WHERE id = ? AND owner = ? AND status != ?`,
		domain.FileStatusDeleted, time.Now().UTC(), id, owner, domain.FileStatusDeleted)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res, "file %s not found", id)
}

func (r *FileRepo) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) ([]domain.FileRecord, error) {
	rows, err := r.writeDB.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE status = ? AND deleted_at IS NOT NULL AND deleted_at < ?`,
		domain.FileStatusDeleted, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purged := make([]domain.FileRecord, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		purged = append(purged, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Fact rows cascade with the file row.
	for _, f := range purged {
		if _, err := r.writeDB.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, f.ID); err != nil {
			return nil, mapDBError(err)
		}
	}
	return purged, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFile(row rowScanner) (*domain.FileRecord, error) {
	var f domain.FileRecord
	var deletedAt sql.NullTime
	err := row.Scan(&f.ID, &f.Owner, &f.Filename, &f.Dialect, &f.SizeBytes,
		&f.StorageKey, &f.Status, &f.CreatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		f.DeletedAt = &t
	}
	return &f, nil
}

func requireRow(res sql.Result, format string, args ...interface{}) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound(format, args...)
	}
	return nil
}
