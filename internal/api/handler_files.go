package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lineagehub/internal/domain"
)

// uploadFile accepts a multipart upload with a "file" part and an optional
// "dialect" form field naming the source ETL tool.
func (h *Handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	// The multipart reader streams parts; the size cap is enforced by the
	// file service, this limit only bounds the non-file form fields.
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		h.writeError(w, r, domain.ErrValidation("invalid multipart form: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	part, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, domain.ErrValidation("missing file part"))
		return
	}
	defer part.Close() //nolint:errcheck

	record, err := h.files.Upload(r.Context(), header.Filename, r.FormValue("dialect"), part)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *Handler) listFiles(w http.ResponseWriter, r *http.Request) {
	records, err := h.files.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": records})
}

func (h *Handler) getFile(w http.ResponseWriter, r *http.Request) {
	record, err := h.files.Get(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// downloadFile streams the raw uploaded content back to the caller.
func (h *Handler) downloadFile(w http.ResponseWriter, r *http.Request) {
	record, rc, err := h.files.Download(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer rc.Close() //nolint:errcheck

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": record.Filename}))
	if record.SizeBytes > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", record.SizeBytes))
	}
	_, _ = io.Copy(w, rc)
}

func (h *Handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.files.Delete(r.Context(), chi.URLParam(r, "fileID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// storeFactsRequest is the analyzer output for one file: the node and edge
// facts extracted from it.
type storeFactsRequest struct {
	Nodes []domain.NodeFact `json:"nodes"`
	Edges []domain.EdgeFact `json:"edges"`
}

// storeFacts replaces the lineage facts for a file and marks it analyzed.
func (h *Handler) storeFacts(w http.ResponseWriter, r *http.Request) {
	var req storeFactsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if err := h.files.StoreFacts(r.Context(), chi.URLParam(r, "fileID"), req.Nodes, req.Edges); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
