package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineagehub/internal/domain"
)

// runCommand executes the root command with args against the given server
// and returns stdout.
func runCommand(t *testing.T, srvURL string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir()) // keep the real user config out of tests

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--host", srvURL}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCLI_FilesList_Table(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/files", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"files": []domain.FileRecord{
			{ID: "f1", Filename: "load_orders.xml", Dialect: "talend", Status: "analyzed",
				SizeBytes: 2048, CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		}})
	}))
	defer srv.Close()

	out, err := runCommand(t, srv.URL, "files", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "load_orders.xml")
	assert.Contains(t, out, "analyzed")
	assert.Contains(t, out, "FILENAME")
}

func TestCLI_FilesUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.FileRecord{ID: "f9", Filename: "job.xml"})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "job.xml")
	require.NoError(t, os.WriteFile(path, []byte("<job/>"), 0o600))

	out, err := runCommand(t, srv.URL, "files", "upload", path, "--dialect", "talend")
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded job.xml (f9)")
}

func TestCLI_FilesPushFacts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/files/f1/lineage", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "facts.json")
	facts := `{"nodes":[{"id":"t","name":"t","type":"TABLE_OR_VIEW"}],"edges":[]}`
	require.NoError(t, os.WriteFile(path, []byte(facts), 0o600))

	out, err := runCommand(t, srv.URL, "files", "push-facts", "f1", "--facts", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Stored 1 nodes and 0 edges")
}

func TestCLI_Graph_JSONOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(GraphResult{Graph: &domain.Graph{
			Nodes: []domain.Node{{ID: "table:orders", Name: "orders", Type: domain.NodeTypeTable}},
			Stats: domain.GraphStats{TotalNodes: 1},
		}})
	}))
	defer srv.Close()

	out, err := runCommand(t, srv.URL, "graph", "-o", "json")
	require.NoError(t, err)

	var result GraphResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 1, result.Graph.Stats.TotalNodes)
}

func TestCLI_Plan_TableOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/lineage/migration-order", r.URL.Path)
		_ = json.NewEncoder(w).Encode(domain.MigrationPlan{
			Groups: []domain.MigrationGroup{{
				GroupID: 0,
				Waves: []domain.MigrationWave{
					{Wave: 0, Files: []domain.MigrationFile{{Filename: "seed.xml", Rationale: "no dependencies"}}},
				},
				Files: 1,
			}},
			TotalGroups: 1,
		})
	}))
	defer srv.Close()

	out, err := runCommand(t, srv.URL, "plan")
	require.NoError(t, err)
	assert.Contains(t, out, "Wave 0:")
	assert.Contains(t, out, "seed.xml")
}

func TestCLI_Search_PassesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "orders", r.URL.Query().Get("q"))
		_ = json.NewEncoder(w).Encode(domain.SearchResult{Query: "orders"})
	}))
	defer srv.Close()

	out, err := runCommand(t, srv.URL, "search", "orders")
	require.NoError(t, err)
	assert.Contains(t, out, `0 nodes match "orders"`)
}

func TestCLI_ServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
	}))
	defer srv.Close()

	_, err := runCommand(t, srv.URL, "files", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication required")
}

func TestCLI_RejectsBadOutputFormat(t *testing.T) {
	_, err := runCommand(t, "http://localhost:1", "files", "list", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
