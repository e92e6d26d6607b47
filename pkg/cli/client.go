package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lineagehub/internal/domain"
)

// APIError represents a non-2xx response from the server.
type APIError struct {
	HTTPStatus int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.HTTPStatus)
}

// Client is a thin HTTP client for the lineagehub REST API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient creates a client for the given host.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// GraphQuery mirrors the shared query parameters of the lineage endpoints.
type GraphQuery struct {
	FileIDs         []string
	IncludeFileDeps bool
}

func (q GraphQuery) values() url.Values {
	v := url.Values{}
	if len(q.FileIDs) > 0 {
		v.Set("file_ids", strings.Join(q.FileIDs, ","))
	}
	if q.IncludeFileDeps {
		v.Set("include_file_deps", "true")
	}
	return v
}

// GraphResult is the response of the graph endpoint: the merged graph plus
// any warnings produced while merging.
type GraphResult struct {
	Graph    *domain.Graph         `json:"graph"`
	Warnings []domain.MergeWarning `json:"warnings"`
}

// FactsPayload is the analyzer output pushed for one file.
type FactsPayload struct {
	Nodes []domain.NodeFact `json:"nodes"`
	Edges []domain.EdgeFact `json:"edges"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values,
	body io.Reader, contentType string) (*http.Response, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close() //nolint:errcheck
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, &APIError{HTTPStatus: resp.StatusCode, Message: apiErr.Error}
	}
	return resp, nil
}

// doJSON performs a request and decodes the JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values,
	body io.Reader, contentType string, out any) error {
	resp, err := c.do(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// UploadFile uploads analyzer file content as a multipart form.
func (c *Client) UploadFile(ctx context.Context, filename, dialect string, content io.Reader) (*domain.FileRecord, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, err
	}
	if dialect != "" {
		if err := mw.WriteField("dialect", dialect); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var record domain.FileRecord
	if err := c.doJSON(ctx, http.MethodPost, "/v1/files", nil, &buf, mw.FormDataContentType(), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListFiles returns the caller's files.
func (c *Client) ListFiles(ctx context.Context) ([]domain.FileRecord, error) {
	var out struct {
		Files []domain.FileRecord `json:"files"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/files", nil, nil, "", &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// GetFile returns one file's metadata.
func (c *Client) GetFile(ctx context.Context, id string) (*domain.FileRecord, error) {
	var record domain.FileRecord
	if err := c.doJSON(ctx, http.MethodGet, "/v1/files/"+url.PathEscape(id), nil, nil, "", &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteFile soft-deletes a file and drops it from the graph.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/files/"+url.PathEscape(id), nil, nil, "", nil)
}

// PushFacts replaces the lineage facts for a file.
func (c *Client) PushFacts(ctx context.Context, id string, facts FactsPayload) error {
	body, err := json.Marshal(facts)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPut, "/v1/files/"+url.PathEscape(id)+"/lineage",
		nil, bytes.NewReader(body), "application/json", nil)
}

// Graph fetches the merged lineage graph.
func (c *Client) Graph(ctx context.Context, q GraphQuery) (*GraphResult, error) {
	var out GraphResult
	if err := c.doJSON(ctx, http.MethodGet, "/v1/lineage/graph", q.values(), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Insights fetches the analytics summary.
func (c *Client) Insights(ctx context.Context, q GraphQuery) (*domain.Insights, error) {
	var out domain.Insights
	if err := c.doJSON(ctx, http.MethodGet, "/v1/lineage/insights", q.values(), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs an impact analysis for nodes matching query.
func (c *Client) Search(ctx context.Context, query string, q GraphQuery) (*domain.SearchResult, error) {
	v := q.values()
	v.Set("q", query)
	var out domain.SearchResult
	if err := c.doJSON(ctx, http.MethodGet, "/v1/lineage/search", v, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MigrationOrder fetches the wave-based migration plan.
func (c *Client) MigrationOrder(ctx context.Context, q GraphQuery) (*domain.MigrationPlan, error) {
	var out domain.MigrationPlan
	if err := c.doJSON(ctx, http.MethodGet, "/v1/lineage/migration-order", q.values(), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export streams the graph in the given format to w.
func (c *Client) Export(ctx context.Context, w io.Writer, format string, q GraphQuery) error {
	v := q.values()
	v.Set("format", format)
	resp, err := c.do(ctx, http.MethodGet, "/v1/lineage/export", v, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	_, err = io.Copy(w, resp.Body)
	return err
}
