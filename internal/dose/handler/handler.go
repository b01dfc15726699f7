// Package handler exposes dose lifecycle operations over HTTP. Transitions
// are POST subresources so their conflict semantics stay visible in access
// logs; general edits go through PATCH.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vetcore/internal/dose/models"
	"vetcore/internal/dose/service"
	"vetcore/internal/dose/store"
	dErrors "vetcore/pkg/domain-errors"
	id "vetcore/pkg/domain"
	"vetcore/pkg/pagination"
	"vetcore/pkg/platform/httputil"
	"vetcore/pkg/requestcontext"
)

// Service defines the dose operations the handler needs.
type Service interface {
	ToggleEnabled(ctx context.Context, orgID id.OrgID, doseID id.DoseID, enabled bool) (*models.Dose, error)
	Complete(ctx context.Context, orgID id.OrgID, doseID id.DoseID, administeredAt *time.Time) (*models.Dose, error)
	Cancel(ctx context.Context, orgID id.OrgID, doseID id.DoseID) (*models.Dose, error)
	Reschedule(ctx context.Context, orgID id.OrgID, doseID id.DoseID, newDate time.Time) (*models.Dose, error)
	Update(ctx context.Context, orgID id.OrgID, doseID id.DoseID, in service.UpdateInput) (*models.Dose, error)
	AddDose(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID, in service.AddInput) (*models.Dose, error)
	Get(ctx context.Context, orgID id.OrgID, doseID id.DoseID) (*models.Dose, error)
	List(ctx context.Context, orgID id.OrgID, f store.Filter, params pagination.Params) ([]*models.Dose, int, error)
}

// Handler wires dose endpoints to the dose service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a dose handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts dose endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/assignments/{assignmentID}/doses", h.HandleAddDose)
	r.Route("/doses", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Route("/{doseID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Patch("/", h.HandleUpdate)
			r.Put("/enabled", h.HandleToggleEnabled)
			r.Post("/complete", h.HandleComplete)
			r.Post("/cancel", h.HandleCancel)
			r.Post("/reschedule", h.HandleReschedule)
		})
	})
}

// HandleAddDose handles POST /assignments/{assignmentID}/doses requests.
func (h *Handler) HandleAddDose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID, ok := h.requireOrg(w, ctx)
	if !ok {
		return
	}

	assignmentID, err := id.ParseAssignmentID(chi.URLParam(r, "assignmentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "assignment id must be a valid uuid"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[AddDoseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	d, err := h.service.AddDose(ctx, orgID, assignmentID, req.parsed)
	if err != nil {
		h.logger.ErrorContext(ctx, "dose addition failed",
			"request_id", requestID,
			"assignment_id", assignmentID,
			"entry_id", req.EntryID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromDose(d))
}

// HandleList handles GET /doses requests.
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

	data := make([]DoseResponse, 0, len(items))
	for _, d := range items {
		data = append(data, FromDose(d))
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.NewPage(data, total, params, r.URL.Path))
}

// HandleGet handles GET /doses/{doseID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID, ok := h.requireOrg(w, ctx)
	if !ok {
		return
	}
	doseID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	d, err := h.service.Get(ctx, orgID, doseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDose(d))
}

// HandleUpdate handles PATCH /doses/{doseID} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID, ok := h.requireOrg(w, ctx)
	if !ok {
		return
	}
	doseID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	d, err := h.service.Update(ctx, orgID, doseID, req.parsed)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDose(d))
}

// HandleToggleEnabled handles PUT /doses/{doseID}/enabled requests.
func (h *Handler) HandleToggleEnabled(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID, ok := h.requireOrg(w, ctx)
	if !ok {
		return
	}
	doseID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ToggleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	d, err := h.service.ToggleEnabled(ctx, orgID, doseID, *req.Enabled)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDose(d))
}

// HandleComplete handles POST /doses/{doseID}/complete requests.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID, ok := h.requireOrg(w, ctx)
	if !ok {
		return
	}
	doseID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	// The body is optional: complete-with-defaults is the common case at
	// the front desk.
	var administeredAt *time.Time
	if r.ContentLength > 0 {
		req, ok := httputil.DecodeAndPrepare[CompleteRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		administeredAt = req.parsedDate
	}

	d, err := h.service.Complete(ctx, orgID, doseID, administeredAt)
	if err != nil {
		h.logger.ErrorContext(ctx, "dose completion failed",
			"request_id", requestID,
			"dose_id", doseID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDose(d))
}

// HandleCancel handles POST /doses/{doseID}/cancel requests.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orgID, ok := h.requireOrg(w, ctx)
	if !ok {
		return
	}
	doseID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	d, err := h.service.Cancel(ctx, orgID, doseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDose(d))
}

// HandleReschedule handles POST /doses/{doseID}/reschedule requests.
func (h *Handler) HandleReschedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID, ok := h.requireOrg(w, ctx)
	if !ok {
		return
	}
	doseID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[RescheduleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	d, err := h.service.Reschedule(ctx, orgID, doseID, req.parsedDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDose(d))
}

func (h *Handler) requireOrg(w http.ResponseWriter, ctx context.Context) (id.OrgID, bool) {
	orgID := requestcontext.OrgID(ctx)
	if orgID.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return orgID, false
	}
	return orgID, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (id.DoseID, bool) {
	doseID, err := id.ParseDoseID(chi.URLParam(r, "doseID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "dose id must be a valid uuid"))
		return doseID, false
	}
	return doseID, true
}
