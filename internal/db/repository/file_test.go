package repository

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "lineagehub/internal/db"
	"lineagehub/internal/domain"
)

func setupFileRepo(t *testing.T) *FileRepo {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	return NewFileRepo(writeDB, readDB)
}

func newFileRecord(id, owner string) *domain.FileRecord {
	return &domain.FileRecord{
		ID:         id,
		Owner:      owner,
		Filename:   id + ".xml",
		Dialect:    "talend",
		SizeBytes:  128,
		StorageKey: "files/" + id,
	}
}

func TestFileRepo_CreateAndGet(t *testing.T) {
	repo := setupFileRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newFileRecord("a1", "alice")))

	got, err := repo.Get(ctx, "alice", "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1.xml", got.Filename)
	assert.Equal(t, domain.FileStatusUploaded, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Nil(t, got.DeletedAt)
}

func TestFileRepo_Get_WrongOwner(t *testing.T) {
	repo := setupFileRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newFileRecord("a1", "alice")))

	_, err := repo.Get(ctx, "bob", "a1")
	require.Error(t, err)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestFileRepo_Create_Duplicate(t *testing.T) {
	repo := setupFileRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newFileRecord("a1", "alice")))
	err := repo.Create(ctx, newFileRecord("a1", "alice"))
	require.Error(t, err)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestFileRepo_List_OwnerScoped(t *testing.T) {
	repo := setupFileRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newFileRecord("a1", "alice")))
	require.NoError(t, repo.Create(ctx, newFileRecord("a2", "alice")))
	require.NoError(t, repo.Create(ctx, newFileRecord("b1", "bob")))

	files, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	files, err = repo.List(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileRepo_SetStatus(t *testing.T) {
	repo := setupFileRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newFileRecord("a1", "alice")))
	require.NoError(t, repo.SetStatus(ctx, "a1", domain.FileStatusAnalyzed))

	got, err := repo.Get(ctx, "alice", "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusAnalyzed, got.Status)

	err = repo.SetStatus(ctx, "missing", domain.FileStatusAnalyzed)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestFileRepo_SoftDeleteHidesFile(t *testing.T) {
	repo := setupFileRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newFileRecord("a1", "alice")))
	require.NoError(t, repo.SoftDelete(ctx, "alice", "a1"))

	_, err := repo.Get(ctx, "alice", "a1")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	files, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, files)

	// Double delete is a not-found, not a silent no-op.
	err = repo.SoftDelete(ctx, "alice", "a1")
	assert.ErrorAs(t, err, &notFound)
}

func TestFileRepo_PurgeDeletedBefore(t *testing.T) {
	repo := setupFileRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newFileRecord("a1", "alice")))
	require.NoError(t, repo.Create(ctx, newFileRecord("a2", "alice")))
	require.NoError(t, repo.SoftDelete(ctx, "alice", "a1"))

	// Cutoff in the past: the fresh soft-delete survives.
	purged, err := repo.PurgeDeletedBefore(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, purged)

	// Cutoff in the future: the soft-deleted file goes, the live one stays.
	purged, err = repo.PurgeDeletedBefore(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, purged, 1)
	assert.Equal(t, "a1", purged[0].ID)
	assert.Equal(t, "files/a1", purged[0].StorageKey)

	files, err := repo.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a2", files[0].ID)
}
