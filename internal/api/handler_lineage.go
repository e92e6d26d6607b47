package api

import (
	"net/http"

	"lineagehub/internal/domain"
)

// graphResponse pairs the merged graph with the warnings generated while
// merging its source files.
type graphResponse struct {
	Graph    *domain.Graph         `json:"graph"`
	Warnings []domain.MergeWarning `json:"warnings"`
}

// getGraph returns the caller's merged lineage graph. Optional query
// parameters: file_ids (comma separated) limits the merge to named files,
// include_file_deps=true adds derived file-to-file dependency edges.
func (h *Handler) getGraph(w http.ResponseWriter, r *http.Request) {
	g, warnings, err := h.lineage.Graph(r.Context(), graphOptionsFromQuery(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, graphResponse{Graph: g, Warnings: warnings})
}

func (h *Handler) getInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.analytics.Insights(r.Context(), graphOptionsFromQuery(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

// search runs an impact analysis for every node matching the q parameter.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	result, err := h.analytics.Search(r.Context(), r.URL.Query().Get("q"), graphOptionsFromQuery(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) getMigrationOrder(w http.ResponseWriter, r *http.Request) {
	plan, err := h.analytics.MigrationOrder(r.Context(), graphOptionsFromQuery(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// exportGraph streams the graph in the requested format (json, csv,
// graphml). The format is validated before any merge work happens.
func (h *Handler) exportGraph(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	// Export writes directly to the response, so the format must be
	// checked up front while the status code can still change.
	rec := &headerBuffer{}
	contentType, err := h.exports.Export(r.Context(), rec, format, graphOptionsFromQuery(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="lineage.`+format+`"`)
	_, _ = w.Write(rec.buf)
}

// headerBuffer collects the export body so errors surfaced mid-write can
// still produce a clean JSON error response.
type headerBuffer struct {
	buf []byte
}

func (b *headerBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}
