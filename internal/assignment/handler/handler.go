// Package handler exposes plan assignment management over HTTP. Routes are
// organization-scoped: the org comes from the authenticated request
// context, never from the URL.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vetcore/internal/assignment/models"
	"vetcore/internal/assignment/service"
	"vetcore/internal/assignment/store"
	dErrors "vetcore/pkg/domain-errors"
	id "vetcore/pkg/domain"
	"vetcore/pkg/pagination"
	"vetcore/pkg/platform/httputil"
	"vetcore/pkg/requestcontext"
)

// Service defines the assignment operations the handler needs.
type Service interface {
	Assign(ctx context.Context, orgID id.OrgID, in service.AssignInput) (*models.PlanAssignment, error)
	Activate(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID) (*models.PlanAssignment, error)
	Deactivate(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID) (*models.PlanAssignment, error)
	Update(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID, in service.UpdateInput) (*models.PlanAssignment, error)
	Delete(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID) error
	Get(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID) (*models.PlanAssignment, error)
	List(ctx context.Context, orgID id.OrgID, f store.Filter, params pagination.Params) ([]*models.PlanAssignment, int, error)
}

// Handler wires assignment endpoints to the assignment service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an assignment handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts assignment endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/assignments", func(r chi.Router) {
		r.Post("/", h.HandleAssign)
		r.Get("/", h.HandleList)
		r.Route("/{assignmentID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Patch("/", h.HandleUpdate)
			r.Delete("/", h.HandleDelete)
			r.Post("/activate", h.HandleActivate)
			r.Post("/deactivate", h.HandleDeactivate)
		})
	})
}

// HandleAssign handles POST /assignments requests.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	orgID, ok := h.requireOrg(w, ctx)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[AssignRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	a, err := h.service.Assign(ctx, orgID, service.AssignInput{
		PatientID:  req.parsedPatientID,
		ProtocolID: req.parsedProtocolID,
		Status:     req.parsedStatus,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "assignment creation failed",
			"request_id", requestID,
			"patient_id", req.PatientID,
			"protocol_id", req.ProtocolID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "assignment created",
		"request_id", requestID,
		"assignment_id", a.ID,
		"doses", len(a.Doses),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromAssignment(a))
}

// HandleList handles GET /assignments requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID, ok := h.requireOrg(w, ctx)
	if !ok {
		return
	}

	f, params, err := parseListQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	items, total, err := h.service.List(ctx, orgID, f, params)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	data := make([]AssignmentResponse, 0, len(items))
	for _, a := range items {
		data = append(data, FromAssignment(a))
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.NewPage(data, total, params, r.URL.Path))
}

// HandleGet handles GET /assignments/{assignmentID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID, ok := h.requireOrg(w, ctx)
	if !ok {
		return
	}
	assignmentID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	a, err := h.service.Get(ctx, orgID, assignmentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAssignment(a))
}

// HandleUpdate handles PATCH /assignments/{assignmentID} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID, ok := h.requireOrg(w, ctx)
	if !ok {
		return
	}
	assignmentID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	a, err := h.service.Update(ctx, orgID, assignmentID, service.UpdateInput{
		PatientID:  req.parsedPatientID,
		ProtocolID: req.parsedProtocolID,
		Status:     req.parsedStatus,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAssignment(a))
}

// HandleDelete handles DELETE /assignments/{assignmentID} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID, ok := h.requireOrg(w, ctx)
	if !ok {
		return
	}
	assignmentID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, orgID, assignmentID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleActivate handles POST /assignments/{assignmentID}/activate requests.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Activate)
}

// HandleDeactivate handles POST /assignments/{assignmentID}/deactivate requests.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Deactivate)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request,
	op func(context.Context, id.OrgID, id.AssignmentID) (*models.PlanAssignment, error)) {

	ctx := r.Context()

	orgID, ok := h.requireOrg(w, ctx)
	if !ok {
		return
	}
	assignmentID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	a, err := op(ctx, orgID, assignmentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromAssignment(a))
}

func (h *Handler) requireOrg(w http.ResponseWriter, ctx context.Context) (id.OrgID, bool) {
	orgID := requestcontext.OrgID(ctx)
	if orgID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return orgID, false
	}
	return orgID, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (id.AssignmentID, bool) {
	assignmentID, err := id.ParseAssignmentID(chi.URLParam(r, "assignmentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "assignment id must be a valid uuid"))
		return assignmentID, false
	}
	return assignmentID, true
}
