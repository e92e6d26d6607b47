// Package api provides HTTP handlers for the lineage REST API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"lineagehub/internal/middleware"
	"lineagehub/internal/service"
)

// Handler serves the REST API. All routes under /v1 require an
// authenticated principal.
type Handler struct {
	files     *service.FileService
	lineage   *service.LineageService
	analytics *service.AnalyticsService
	exports   *service.ExportService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required service dependencies.
func NewHandler(files *service.FileService, lineage *service.LineageService,
	analytics *service.AnalyticsService, exports *service.ExportService,
	logger *slog.Logger) *Handler {
	return &Handler{
		files:     files,
		lineage:   lineage,
		analytics: analytics,
		exports:   exports,
		logger:    logger,
	}
}

// RouterConfig carries the middleware settings for NewRouter.
type RouterConfig struct {
	Validator          middleware.JWTValidator
	RateLimit          middleware.RateLimitConfig
	CORSAllowedOrigins []string
}

// NewRouter mounts the API on a chi router with the standard middleware
// stack. /healthz is public; everything under /v1 is authenticated and
// rate limited.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RateLimiter(cfg.RateLimit))
		r.Use(middleware.Authenticate(cfg.Validator))

		r.Route("/files", func(r chi.Router) {
			r.Post("/", h.uploadFile)
			r.Get("/", h.listFiles)
			r.Get("/{fileID}", h.getFile)
			r.Get("/{fileID}/content", h.downloadFile)
			r.Delete("/{fileID}", h.deleteFile)
			r.Put("/{fileID}/lineage", h.storeFacts)
		})

		r.Route("/lineage", func(r chi.Router) {
			r.Get("/graph", h.getGraph)
			r.Get("/insights", h.getInsights)
			r.Get("/search", h.search)
			r.Get("/migration-order", h.getMigrationOrder)
			r.Get("/export", h.exportGraph)
		})
	})

	return r
}

// === Response helpers ===

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders a domain error as JSON. Internal errors are logged with
// their cause but returned to the client as a generic message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// graphOptionsFromQuery parses the shared file_ids / include_file_deps
// query parameters.
func graphOptionsFromQuery(r *http.Request) service.GraphOptions {
	opts := service.GraphOptions{}
	if v := r.URL.Query().Get("file_ids"); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				opts.FileIDs = append(opts.FileIDs, id)
			}
		}
	}
	if v := r.URL.Query().Get("include_file_deps"); strings.EqualFold(v, "true") {
		opts.IncludeFileDeps = true
	}
	return opts
}
