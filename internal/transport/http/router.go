package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	assignmenthandler "vetcore/internal/assignment/handler"
	catalogcache "vetcore/internal/catalog/cache"
	dosehandler "vetcore/internal/dose/handler"
	"vetcore/internal/platform/metrics"
	dErrors "vetcore/pkg/domain-errors"
	id "vetcore/pkg/domain"
	"vetcore/pkg/platform/httputil"
	"vetcore/pkg/platform/middleware/admin"
	"vetcore/pkg/platform/middleware/auth"
	"vetcore/pkg/platform/middleware/metadata"
	"vetcore/pkg/platform/middleware/requestid"
	"vetcore/pkg/platform/middleware/requesttime"
)

// Deps collects everything the router mounts. Keeping wiring here leaves
// main with construction only.
type Deps struct {
	Assignments *assignmenthandler.Handler
	Doses       *dosehandler.Handler
	Validator   auth.JWTValidator
	HTTPMetrics *metrics.HTTP
	Health      func(ctx context.Context) error
	Logger      *slog.Logger

	// AdminToken guards the ops routes; empty disables them.
	AdminToken   string
	CatalogCache *catalogcache.Cache
}

// NewRouter wires middleware and mounts the API. All business routes sit
// behind bearer auth; health and metrics stay open for probes and scrapers.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(chimw.Recoverer)
	if d.HTTPMetrics != nil {
		r.Use(d.HTTPMetrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if d.Health != nil {
			if err := d.Health(req.Context()); err != nil {
				d.Logger.WarnContext(req.Context(), "health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(d.Validator, d.Logger))
		d.Assignments.Register(r)
		d.Doses.Register(r)
	})

	if d.AdminToken != "" {
		r.Route("/admin", func(r chi.Router) {
			r.Use(admin.RequireAdminToken(d.AdminToken, d.Logger))
			r.Post("/catalog/invalidate", handleCatalogInvalidate(d.CatalogCache))
		})
	}

	return r
}

type invalidateRequest struct {
	OrgID      string   `json:"org_id"`
	ProtocolID string   `json:"protocol_id"`
	EntryIDs   []string `json:"entry_ids"`
}

// handleCatalogInvalidate drops cached copies of a protocol after the
// catalog service edits it. The catalog service calls this out of band.
func handleCatalogInvalidate(cache *catalogcache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req invalidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
			return
		}

		orgID, err := id.ParseOrgID(req.OrgID)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "org id must be a valid uuid"))
			return
		}
		protocolID, err := id.ParseProtocolID(req.ProtocolID)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "protocol id must be a valid uuid"))
			return
		}
		entryIDs := make([]id.EntryID, 0, len(req.EntryIDs))
		for _, raw := range req.EntryIDs {
			entryID, err := id.ParseEntryID(raw)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "entry ids must be valid uuids"))
				return
			}
			entryIDs = append(entryIDs, entryID)
		}

		if err := cache.Invalidate(r.Context(), orgID, protocolID, entryIDs); err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "invalidate catalog cache"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
