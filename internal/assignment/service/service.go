// Package service orchestrates plan assignment management: creation with
// dose provisioning, lifecycle transitions, and paged reads. All decisions
// about individual dose schedules live in the provision package; all state
// guards live on the models.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vetcore/internal/assignment/metrics"
	"vetcore/internal/assignment/models"
	"vetcore/internal/assignment/provision"
	"vetcore/internal/assignment/store"
	"vetcore/internal/audit"
	"vetcore/internal/catalog"
	"vetcore/internal/directory"
	dosemodels "vetcore/internal/dose/models"
	dErrors "vetcore/pkg/domain-errors"
	id "vetcore/pkg/domain"
	"vetcore/pkg/pagination"
	"vetcore/pkg/platform/sentinel"
	"vetcore/pkg/requestcontext"
)

// Service coordinates assignments against the catalog and directory
// collaborators.
type Service struct {
	store     store.Store
	catalog   catalog.Catalog
	directory directory.Directory

	logger  *slog.Logger
	audit   audit.Publisher
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a Service.
func New(st store.Store, cat catalog.Catalog, dir directory.Directory, opts ...Option) *Service {
	s := &Service{
		store:     st,
		catalog:   cat,
		directory: dir,
		logger:    slog.Default(),
		tracer:    otel.Tracer("vetcore/assignment"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AssignInput creates an assignment. Status defaults to active.
type AssignInput struct {
	PatientID  id.PatientID
	ProtocolID id.ProtocolID
	Status     models.Status
}

// Assign validates the patient against the protocol's species, provisions
// one dose per protocol entry, and persists assignment plus doses
// atomically. The patient's age is read once, here; later birthdays do not
// reshape the provisioned schedule.
func (s *Service) Assign(ctx context.Context, orgID id.OrgID, in AssignInput) (*models.PlanAssignment, error) {
	ctx, span := s.tracer.Start(ctx, "assignment.Assign")
	defer span.End()
	start := time.Now()
	defer s.observeAssign(start)

	patient, err := s.directory.GetPatient(ctx, orgID, in.PatientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "patient not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load patient")
	}

	protocol, err := s.catalog.GetProtocol(ctx, orgID, in.ProtocolID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "protocol not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load protocol")
	}

	if protocol.SpeciesID != patient.SpeciesID {
		return nil, dErrors.New(dErrors.CodeProtocolMismatch,
			"protocol species does not match patient species")
	}

	now := requestcontext.Now(ctx)
	a, err := models.New(orgID, in.PatientID, in.ProtocolID, in.Status, now)
	if err != nil {
		return nil, err
	}
	a.Doses = s.provisionDoses(a, protocol.Entries, patient.AgeMonths, now)
	span.SetAttributes(attribute.Int("doses.provisioned", len(a.Doses)))

	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.incrementConflict()
			return nil, dErrors.New(dErrors.CodeDuplicateAssignment,
				"patient already has an active assignment for this protocol")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create assignment")
	}

	s.logger.InfoContext(ctx, "assignment created",
		"assignment_id", a.ID, "patient_id", a.PatientID,
		"protocol_id", a.ProtocolID, "doses", len(a.Doses))
	s.emit(ctx, audit.EventAssignmentCreated, a, id.DoseID{})
	if s.metrics != nil {
		s.metrics.IncrementAssignmentsCreated()
		s.metrics.AddDosesProvisioned(len(a.Doses))
	}
	return a, nil
}

func (s *Service) provisionDoses(a *models.PlanAssignment, entries []catalog.ProtocolEntry, ageMonths int, now time.Time) []dosemodels.Dose {
	doses := make([]dosemodels.Dose, 0, len(entries))
	for _, entry := range entries {
		schedule := provision.Compute(ageMonths, entry, now)
		doses = append(doses, dosemodels.Dose{
			ID:             id.NewDoseID(),
			OrgID:          a.OrgID,
			AssignmentID:   a.ID,
			PatientID:      a.PatientID,
			ProtocolID:     a.ProtocolID,
			EntryID:        entry.ID,
			VaccineName:    entry.Name,
			ApplicationAge: entry.ApplicationAge,
			ValidityMonths: entry.ValidityMonths,
			Mandatory:      entry.Mandatory,
			Enabled:        schedule.Enabled,
			ScheduledDate:  schedule.ScheduledDate,
			Status:         dosemodels.StatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return doses
}

// Activate moves an inactive assignment back to active. The store rejects
// the transition when another active assignment exists for the same
// patient and protocol.
func (s *Service) Activate(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID) (*models.PlanAssignment, error) {
	ctx, span := s.tracer.Start(ctx, "assignment.Activate")
	defer span.End()

	now := requestcontext.Now(ctx)
	a, err := s.store.Execute(ctx, orgID, assignmentID,
		func(live *models.PlanAssignment) error { return live.CanActivate() },
		func(live *models.PlanAssignment) { live.ApplyActivate(now) },
	)
	if err != nil {
		return nil, s.translateMutation(err, "activate assignment")
	}

	s.emit(ctx, audit.EventAssignmentActivated, a, id.DoseID{})
	s.incrementTransition(string(models.StatusActive))
	return a, nil
}

// Deactivate pauses an assignment. Doses stay as they are; a paused plan
// keeps its history.
func (s *Service) Deactivate(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID) (*models.PlanAssignment, error) {
	ctx, span := s.tracer.Start(ctx, "assignment.Deactivate")
	defer span.End()

	now := requestcontext.Now(ctx)
	a, err := s.store.Execute(ctx, orgID, assignmentID,
		func(live *models.PlanAssignment) error { return live.CanDeactivate() },
		func(live *models.PlanAssignment) { live.ApplyDeactivate(now) },
	)
	if err != nil {
		return nil, s.translateMutation(err, "deactivate assignment")
	}

	s.emit(ctx, audit.EventAssignmentDeactivated, a, id.DoseID{})
	s.incrementTransition(string(models.StatusInactive))
	return a, nil
}

// UpdateInput carries optional changes. Nil fields are left untouched.
type UpdateInput struct {
	PatientID  *id.PatientID
	ProtocolID *id.ProtocolID
	Status     *models.Status
}

// Update rewrites assignment fields without re-provisioning: existing doses
// keep their schedules even when the protocol reference changes. Species
// compatibility is re-checked whenever patient or protocol moves.
func (s *Service) Update(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID, in UpdateInput) (*models.PlanAssignment, error) {
	ctx, span := s.tracer.Start(ctx, "assignment.Update")
	defer span.End()

	if in.Status != nil && !in.Status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", *in.Status)
	}

	current, err := s.Get(ctx, orgID, assignmentID)
	if err != nil {
		return nil, err
	}

	patientID := current.PatientID
	protocolID := current.ProtocolID
	if in.PatientID != nil {
		patientID = *in.PatientID
	}
	if in.ProtocolID != nil {
		protocolID = *in.ProtocolID
	}

	if in.PatientID != nil || in.ProtocolID != nil {
		if err := s.checkSpecies(ctx, orgID, patientID, protocolID); err != nil {
			return nil, err
		}
	}

	now := requestcontext.Now(ctx)
	a, err := s.store.Execute(ctx, orgID, assignmentID,
		func(*models.PlanAssignment) error { return nil },
		func(live *models.PlanAssignment) {
			live.PatientID = patientID
			live.ProtocolID = protocolID
			if in.Status != nil {
				live.Status = *in.Status
			}
			live.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, s.translateMutation(err, "update assignment")
	}

	s.emit(ctx, audit.EventAssignmentUpdated, a, id.DoseID{})
	return a, nil
}

func (s *Service) checkSpecies(ctx context.Context, orgID id.OrgID, patientID id.PatientID, protocolID id.ProtocolID) error {
	patient, err := s.directory.GetPatient(ctx, orgID, patientID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "patient not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load patient")
	}
	protocol, err := s.catalog.GetProtocol(ctx, orgID, protocolID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "protocol not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load protocol")
	}
	if protocol.SpeciesID != patient.SpeciesID {
		return dErrors.New(dErrors.CodeProtocolMismatch,
			"protocol species does not match patient species")
	}
	return nil
}

// Delete soft-deletes the assignment. Dose rows are retained for history
// but the assignment stops appearing in reads.
func (s *Service) Delete(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID) error {
	ctx, span := s.tracer.Start(ctx, "assignment.Delete")
	defer span.End()

	now := requestcontext.Now(ctx)
	a, err := s.store.Execute(ctx, orgID, assignmentID,
		func(*models.PlanAssignment) error { return nil },
		func(live *models.PlanAssignment) { live.ApplySoftDelete(now) },
	)
	if err != nil {
		return s.translateMutation(err, "delete assignment")
	}

	s.emit(ctx, audit.EventAssignmentDeleted, a, id.DoseID{})
	return nil
}

// Get returns one assignment with its doses attached.
func (s *Service) Get(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID) (*models.PlanAssignment, error) {
	a, err := s.store.FindByID(ctx, orgID, assignmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "assignment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load assignment")
	}
	return a, nil
}

// List returns one page of assignments without doses.
func (s *Service) List(ctx context.Context, orgID id.OrgID, f store.Filter, params pagination.Params) ([]*models.PlanAssignment, int, error) {
	params = params.Normalize()
	items, total, err := s.store.List(ctx, orgID, f, params.Offset(), params.PerPage)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list assignments")
	}
	return items, total, nil
}

// translateMutation maps store sentinels to coded errors; guard errors from
// the models already carry their codes and pass through.
func (s *Service) translateMutation(err error, action string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "assignment not found")
	case errors.Is(err, sentinel.ErrConflict):
		s.incrementConflict()
		return dErrors.New(dErrors.CodeDuplicateAssignment,
			"patient already has an active assignment for this protocol")
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
}

func (s *Service) emit(ctx context.Context, typ audit.EventType, a *models.PlanAssignment, doseID id.DoseID) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Type:         typ,
		Timestamp:    requestcontext.Now(ctx),
		OrgID:        a.OrgID.String(),
		Actor:        requestcontext.Actor(ctx),
		RequestID:    requestcontext.RequestID(ctx),
		AssignmentID: a.ID.String(),
		PatientID:    a.PatientID.String(),
		ProtocolID:   a.ProtocolID.String(),
	}
	if !doseID.IsZero() {
		event.DoseID = doseID.String()
	}
	if err := s.audit.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit publish failed", "type", typ, "error", err)
	}
}

func (s *Service) observeAssign(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveAssign(start)
	}
}

func (s *Service) incrementConflict() {
	if s.metrics != nil {
		s.metrics.IncrementAssignmentConflicts()
	}
}

func (s *Service) incrementTransition(to string) {
	if s.metrics != nil {
		s.metrics.IncrementStatusTransition(to)
	}
}
