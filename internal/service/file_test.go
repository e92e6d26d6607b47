package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineagehub/internal/domain"
)

func TestFileService_Upload(t *testing.T) {
	env := setupEnv(t)
	ctx := authCtx("alice")

	record, err := env.files.Upload(ctx, "  job.xml  ", "Talend", strings.NewReader("<job/>"))
	require.NoError(t, err)
	assert.Equal(t, "job.xml", record.Filename)
	assert.Equal(t, "talend", record.Dialect)
	assert.Equal(t, "alice", record.Owner)
	assert.Equal(t, domain.FileStatusUploaded, record.Status)
	assert.Equal(t, int64(6), record.SizeBytes)
	assert.Equal(t, 1, env.store.Len())

	got, err := env.files.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
}

func TestFileService_Upload_RequiresAuth(t *testing.T) {
	env := setupEnv(t)

	_, err := env.files.Upload(context.Background(), "job.xml", "", strings.NewReader("<job/>"))
	var accessDenied *domain.AccessDeniedError
	assert.ErrorAs(t, err, &accessDenied)
}

func TestFileService_Upload_EmptyFilename(t *testing.T) {
	env := setupEnv(t)

	_, err := env.files.Upload(authCtx("alice"), "   ", "", strings.NewReader("<job/>"))
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)
	assert.Equal(t, 0, env.store.Len())
}

func TestFileService_Download(t *testing.T) {
	env := setupEnv(t)
	ctx := authCtx("alice")

	record, err := env.files.Upload(ctx, "job.xml", "", strings.NewReader("<job/>"))
	require.NoError(t, err)

	got, rc, err := env.files.Download(ctx, record.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "<job/>", string(data))
	assert.Equal(t, "job.xml", got.Filename)
}

func TestFileService_StoreFacts_MarksAnalyzed(t *testing.T) {
	env := setupEnv(t)
	ctx := authCtx("alice")

	record, err := env.files.Upload(ctx, "job.xml", "", strings.NewReader("<job/>"))
	require.NoError(t, err)

	nodes, edges := creatorFacts()
	require.NoError(t, env.files.StoreFacts(ctx, record.ID, nodes, edges))

	got, err := env.files.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusAnalyzed, got.Status)
}

func TestFileService_StoreFacts_OwnerScoped(t *testing.T) {
	env := setupEnv(t)

	record, err := env.files.Upload(authCtx("alice"), "job.xml", "", strings.NewReader("<job/>"))
	require.NoError(t, err)

	nodes, edges := creatorFacts()
	err = env.files.StoreFacts(authCtx("bob"), record.ID, nodes, edges)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestFileService_Delete_RemovesFromGraph(t *testing.T) {
	env := setupEnv(t)
	ctx := authCtx("alice")

	nodes, edges := creatorFacts()
	record := uploadAnalyzed(t, env, ctx, "job.xml", nodes, edges)

	g, _, err := env.lineage.Graph(ctx, GraphOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, g.Stats.TotalNodes)

	require.NoError(t, env.files.Delete(ctx, record.ID))

	g, _, err = env.lineage.Graph(ctx, GraphOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, g.Stats.TotalNodes)

	_, err = env.files.Get(ctx, record.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
