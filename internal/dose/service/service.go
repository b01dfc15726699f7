// Package service drives the dose lifecycle: apply/cancel/reschedule
// transitions, the enabled toggle, general edits, and manual additions to
// an existing assignment. Guards live on the models; this layer wires them
// into the store's Execute callback so racing transitions serialize.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	assignmentstore "vetcore/internal/assignment/store"
	"vetcore/internal/audit"
	"vetcore/internal/catalog"
	"vetcore/internal/dose/metrics"
	"vetcore/internal/dose/models"
	"vetcore/internal/dose/store"
	dErrors "vetcore/pkg/domain-errors"
	id "vetcore/pkg/domain"
	"vetcore/pkg/pagination"
	"vetcore/pkg/platform/sentinel"
	"vetcore/pkg/requestcontext"
)

// Service manages individual doses. AddDose needs the owning assignment to
// check protocol membership, so the assignment store is a collaborator.
type Service struct {
	store       store.Store
	assignments assignmentstore.Store
	catalog     catalog.Catalog

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
func New(st store.Store, assignments assignmentstore.Store, cat catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		store:       st,
		assignments: assignments,
		catalog:     cat,
		logger:      slog.Default(),
		tracer:      otel.Tracer("vetcore/dose"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ToggleEnabled flips the orthogonal enabled flag. Completed doses are
// frozen; cancelled doses may still be toggled for record keeping.
func (s *Service) ToggleEnabled(ctx context.Context, orgID id.OrgID, doseID id.DoseID, enabled bool) (*models.Dose, error) {
	ctx, span := s.tracer.Start(ctx, "dose.ToggleEnabled")
	defer span.End()

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)
	d, err := s.store.Execute(ctx, orgID, doseID,
		func(live *models.Dose) error { return live.CanToggleEnabled() },
		func(live *models.Dose) { live.ApplyToggleEnabled(enabled, now, actor) },
	)
	if err != nil {
		return nil, s.translate(err, "toggle")
	}

	s.emit(ctx, audit.EventDoseToggled, d)
	s.record("toggle")
	return d, nil
}

// Complete marks the dose administered. A nil administeredAt defaults to
// the request time. This is the only path that sets AdministeredDate on a
// pending dose.
func (s *Service) Complete(ctx context.Context, orgID id.OrgID, doseID id.DoseID, administeredAt *time.Time) (*models.Dose, error) {
	ctx, span := s.tracer.Start(ctx, "dose.Complete")
	defer span.End()

	now := requestcontext.Now(ctx)
	when := now
	if administeredAt != nil {
		when = *administeredAt
	}
	actor := requestcontext.Actor(ctx)

	d, err := s.store.Execute(ctx, orgID, doseID,
		func(live *models.Dose) error { return live.CanComplete() },
		func(live *models.Dose) { live.ApplyComplete(when, now, actor) },
	)
	if err != nil {
		return nil, s.translate(err, "complete")
	}

	s.logger.InfoContext(ctx, "dose completed",
		"dose_id", d.ID, "assignment_id", d.AssignmentID, "administered_date", when)
	s.emit(ctx, audit.EventDoseCompleted, d)
	s.record("complete")
	return d, nil
}

// Cancel moves a pending dose to the cancelled terminal state.
func (s *Service) Cancel(ctx context.Context, orgID id.OrgID, doseID id.DoseID) (*models.Dose, error) {
	ctx, span := s.tracer.Start(ctx, "dose.Cancel")
	defer span.End()

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)
	d, err := s.store.Execute(ctx, orgID, doseID,
		func(live *models.Dose) error { return live.CanCancel() },
		func(live *models.Dose) { live.ApplyCancel(now, actor) },
	)
	if err != nil {
		return nil, s.translate(err, "cancel")
	}

	s.emit(ctx, audit.EventDoseCancelled, d)
	s.record("cancel")
	return d, nil
}

// Reschedule overwrites the scheduled date of a pending dose.
func (s *Service) Reschedule(ctx context.Context, orgID id.OrgID, doseID id.DoseID, newDate time.Time) (*models.Dose, error) {
	ctx, span := s.tracer.Start(ctx, "dose.Reschedule")
	defer span.End()

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)
	d, err := s.store.Execute(ctx, orgID, doseID,
		func(live *models.Dose) error { return live.CanReschedule() },
		func(live *models.Dose) { live.ApplyReschedule(newDate, now, actor) },
	)
	if err != nil {
		return nil, s.translate(err, "reschedule")
	}

	s.emit(ctx, audit.EventDoseRescheduled, d)
	s.record("reschedule")
	return d, nil
}

// UpdateInput carries optional edits. Nil fields stay untouched. Note is
// appended to the log, never substituted.
type UpdateInput struct {
	EntryID          *id.EntryID
	VaccineName      *string
	ApplicationAge   *int
	ValidityMonths   *int
	Mandatory        *bool
	Enabled          *bool
	ScheduledDate    *time.Time
	AdministeredDate *time.Time
	Status           *models.Status
	Note             *string
}

// Update is the general-purpose edit. Rules enforced here rather than in
// the guards because they span several fields:
//   - completed doses accept no edits at all
//   - a status change to completed must bring an administered date
//   - an administered date is only accepted together with completed status
//   - replacing the entry reference requires the new entry to exist
func (s *Service) Update(ctx context.Context, orgID id.OrgID, doseID id.DoseID, in UpdateInput) (*models.Dose, error) {
	ctx, span := s.tracer.Start(ctx, "dose.Update")
	defer span.End()

	if in.Status != nil && !in.Status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", *in.Status)
	}

	var entry *catalog.ProtocolEntry
	if in.EntryID != nil {
		var err error
		entry, err = s.catalog.GetEntry(ctx, orgID, *in.EntryID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "protocol entry not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load protocol entry")
		}
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	d, err := s.store.Execute(ctx, orgID, doseID,
		func(live *models.Dose) error { return validateUpdate(live, in) },
		func(live *models.Dose) {
			if entry != nil {
				live.EntryID = entry.ID
			}
			if in.VaccineName != nil {
				live.VaccineName = *in.VaccineName
			}
			if in.ApplicationAge != nil {
				live.ApplicationAge = *in.ApplicationAge
			}
			if in.ValidityMonths != nil {
				live.ValidityMonths = *in.ValidityMonths
			}
			if in.Mandatory != nil {
				live.Mandatory = *in.Mandatory
			}
			if in.Enabled != nil {
				live.Enabled = *in.Enabled
			}
			if in.ScheduledDate != nil {
				live.ScheduledDate = in.ScheduledDate
			}
			if in.Status != nil {
				live.Status = *in.Status
				if *in.Status == models.StatusCompleted {
					live.AdministeredDate = in.AdministeredDate
				}
			}
			if in.Note != nil {
				live.AppendNote(now, byActorLine(*in.Note, actor))
			}
			live.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, s.translate(err, "update")
	}

	s.emit(ctx, audit.EventDoseUpdated, d)
	s.record("update")
	return d, nil
}

func validateUpdate(live *models.Dose, in UpdateInput) error {
	if live.Status == models.StatusCompleted {
		return dErrors.New(dErrors.CodeImmutableState, "completed dose cannot be edited")
	}
	if live.Status == models.StatusCancelled && in.Status != nil && *in.Status != models.StatusCancelled {
		return dErrors.New(dErrors.CodeAlreadyCancelled, "cancelled dose cannot change status")
	}
	if in.Status != nil && *in.Status == models.StatusCompleted && in.AdministeredDate == nil {
		return dErrors.New(dErrors.CodeMissingAdministeredDate,
			"completing a dose requires an administered date")
	}
	if in.AdministeredDate != nil && (in.Status == nil || *in.Status != models.StatusCompleted) {
		return dErrors.New(dErrors.CodeInvalidInput,
			"administered date is only valid together with completed status")
	}
	return nil
}

// AddInput adds a dose outside provisioning, for entries the clinic wants
// tracked on an existing plan. Snapshot overrides are optional; absent
// fields copy from the catalog entry.
type AddInput struct {
	EntryID       id.EntryID
	VaccineName   *string
	ScheduledDate *time.Time
	Enabled       *bool
	Note          string
}

// AddDose appends a pending dose to an assignment. The entry must belong
// to the assignment's protocol, and only one pending dose per entry may
// exist at a time.
func (s *Service) AddDose(ctx context.Context, orgID id.OrgID, assignmentID id.AssignmentID, in AddInput) (*models.Dose, error) {
	ctx, span := s.tracer.Start(ctx, "dose.AddDose")
	defer span.End()

	a, err := s.assignments.FindByID(ctx, orgID, assignmentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "assignment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load assignment")
	}

	entry, err := s.catalog.GetEntry(ctx, orgID, in.EntryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "protocol entry not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load protocol entry")
	}
	if entry.ProtocolID != a.ProtocolID {
		return nil, dErrors.New(dErrors.CodeEntryNotInProtocol,
			"entry does not belong to the assignment's protocol")
	}

	now := requestcontext.Now(ctx)
	d := &models.Dose{
		ID:             id.NewDoseID(),
		OrgID:          orgID,
		AssignmentID:   a.ID,
		PatientID:      a.PatientID,
		ProtocolID:     a.ProtocolID,
		EntryID:        entry.ID,
		VaccineName:    entry.Name,
		ApplicationAge: entry.ApplicationAge,
		ValidityMonths: entry.ValidityMonths,
		Mandatory:      entry.Mandatory,
		Enabled:        true,
		ScheduledDate:  in.ScheduledDate,
		Status:         models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.VaccineName != nil {
		d.VaccineName = *in.VaccineName
	}
	if in.Enabled != nil {
		d.Enabled = *in.Enabled
	}
	if in.Note != "" {
		d.AppendNote(now, byActorLine(in.Note, requestcontext.Actor(ctx)))
	}

	if err := s.store.Create(ctx, d); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeDuplicatePendingDose,
				"a pending dose for this entry already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create dose")
	}

	s.emit(ctx, audit.EventDoseAdded, d)
	if s.metrics != nil {
		s.metrics.IncrementDosesAdded()
	}
	return d, nil
}

// Get returns one dose.
func (s *Service) Get(ctx context.Context, orgID id.OrgID, doseID id.DoseID) (*models.Dose, error) {
	d, err := s.store.FindByID(ctx, orgID, doseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "dose not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dose")
	}
	return d, nil
}

// List returns one filtered page of doses plus the total match count.
func (s *Service) List(ctx context.Context, orgID id.OrgID, f store.Filter, params pagination.Params) ([]*models.Dose, int, error) {
	params = params.Normalize()
	items, total, err := s.store.List(ctx, orgID, f, params.Offset(), params.PerPage)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list doses")
	}
	return items, total, nil
}

func (s *Service) translate(err error, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "dose not found")
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeDuplicatePendingDose,
			"a pending dose for this entry already exists")
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		if s.metrics != nil {
			s.metrics.IncrementGuardFailure(string(coded.Code))
		}
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action+" dose")
}

func (s *Service) emit(ctx context.Context, typ audit.EventType, d *models.Dose) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Type:         typ,
		Timestamp:    requestcontext.Now(ctx),
		OrgID:        d.OrgID.String(),
		Actor:        requestcontext.Actor(ctx),
		RequestID:    requestcontext.RequestID(ctx),
		AssignmentID: d.AssignmentID.String(),
		PatientID:    d.PatientID.String(),
		ProtocolID:   d.ProtocolID.String(),
		DoseID:       d.ID.String(),
	}
	if err := s.audit.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit publish failed", "type", typ, "error", err)
	}
}

func (s *Service) record(operation string) {
	if s.metrics != nil {
		s.metrics.IncrementTransition(operation)
	}
}

func byActorLine(note, actor string) string {
	if actor == "" {
		return note
	}
	return note + " (" + actor + ")"
}
