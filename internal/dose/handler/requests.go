package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"vetcore/internal/dose/models"
	"vetcore/internal/dose/service"
	"vetcore/internal/dose/store"
	dErrors "vetcore/pkg/domain-errors"
	id "vetcore/pkg/domain"
	"vetcore/pkg/pagination"
)

// dateFormat is the wire format for schedule dates. Administration
// timestamps accept RFC 3339 as well.
const dateFormat = "2006-01-02"

// CompleteRequest is the HTTP request body for POST /doses/{id}/complete.
// An empty body is valid: the administered date defaults to now.
type CompleteRequest struct {
	AdministeredDate string `json:"administered_date,omitempty"`

	parsedDate *time.Time
}

func (r *CompleteRequest) Validate() error {
	if r == nil || r.AdministeredDate == "" {
		return nil
	}
	t, err := parseDate(r.AdministeredDate)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "administered_date must be YYYY-MM-DD or RFC 3339")
	}
	r.parsedDate = &t
	return nil
}

// RescheduleRequest is the HTTP request body for POST /doses/{id}/reschedule.
type RescheduleRequest struct {
	ScheduledDate string `json:"scheduled_date"`

	parsedDate time.Time
}

func (r *RescheduleRequest) Validate() error {
	if r == nil || strings.TrimSpace(r.ScheduledDate) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "scheduled_date is required")
	}
	t, err := parseDate(r.ScheduledDate)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "scheduled_date must be YYYY-MM-DD or RFC 3339")
	}
	r.parsedDate = t
	return nil
}

// ToggleRequest is the HTTP request body for PUT /doses/{id}/enabled.
type ToggleRequest struct {
	Enabled *bool `json:"enabled"`
}

func (r *ToggleRequest) Validate() error {
	if r == nil || r.Enabled == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "enabled is required")
	}
	return nil
}

// UpdateRequest is the HTTP request body for PATCH /doses/{id}. Absent
// fields stay untouched; note is appended, never substituted.
type UpdateRequest struct {
	EntryID          *string `json:"entry_id,omitempty"`
	VaccineName      *string `json:"vaccine_name,omitempty"`
	ApplicationAge   *int    `json:"application_age,omitempty"`
	ValidityMonths   *int    `json:"validity,omitempty"`
	Mandatory        *bool   `json:"is_mandatory,omitempty"`
	Enabled          *bool   `json:"enabled,omitempty"`
	ScheduledDate    *string `json:"scheduled_date,omitempty"`
	AdministeredDate *string `json:"administered_date,omitempty"`
	Status           *string `json:"status,omitempty"`
	Note             *string `json:"note,omitempty"`

	parsed service.UpdateInput
}

func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if r.EntryID != nil {
		entryID, err := id.ParseEntryID(*r.EntryID)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "entry_id must be a valid uuid")
		}
		r.parsed.EntryID = &entryID
	}
	if r.ScheduledDate != nil {
		t, err := parseDate(*r.ScheduledDate)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "scheduled_date must be YYYY-MM-DD or RFC 3339")
		}
		r.parsed.ScheduledDate = &t
	}
	if r.AdministeredDate != nil {
		t, err := parseDate(*r.AdministeredDate)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "administered_date must be YYYY-MM-DD or RFC 3339")
		}
		r.parsed.AdministeredDate = &t
	}
	if r.Status != nil {
		status := models.Status(*r.Status)
		if !status.Valid() {
			return dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", *r.Status)
		}
		r.parsed.Status = &status
	}

	r.parsed.VaccineName = r.VaccineName
	r.parsed.ApplicationAge = r.ApplicationAge
	r.parsed.ValidityMonths = r.ValidityMonths
	r.parsed.Mandatory = r.Mandatory
	r.parsed.Enabled = r.Enabled
	r.parsed.Note = r.Note
	return nil
}

// AddDoseRequest is the HTTP request body for POST /assignments/{id}/doses.
type AddDoseRequest struct {
	EntryID       string  `json:"entry_id"`
	VaccineName   *string `json:"vaccine_name,omitempty"`
	ScheduledDate *string `json:"scheduled_date,omitempty"`
	Enabled       *bool   `json:"enabled,omitempty"`
	Note          string  `json:"note,omitempty"`

	parsed service.AddInput
}

func (r *AddDoseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	entryID, err := id.ParseEntryID(r.EntryID)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "entry_id must be a valid uuid")
	}
	r.parsed.EntryID = entryID

	if r.ScheduledDate != nil {
		t, err := parseDate(*r.ScheduledDate)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "scheduled_date must be YYYY-MM-DD or RFC 3339")
		}
		r.parsed.ScheduledDate = &t
	}
	r.parsed.VaccineName = r.VaccineName
	r.parsed.Enabled = r.Enabled
	r.parsed.Note = strings.TrimSpace(r.Note)
	return nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateFormat, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// parseListQuery reads dose filters and pagination from the URL.
func parseListQuery(r *http.Request) (store.Filter, pagination.Params, error) {
	q := r.URL.Query()

	var f store.Filter
	if raw := q.Get("assignment_id"); raw != "" {
		assignmentID, err := id.ParseAssignmentID(raw)
		if err != nil {
			return f, pagination.Params{}, dErrors.New(dErrors.CodeInvalidInput, "assignment_id must be a valid uuid")
		}
		f.AssignmentID = &assignmentID
	}
	if raw := q.Get("patient_id"); raw != "" {
		patientID, err := id.ParsePatientID(raw)
		if err != nil {
			return f, pagination.Params{}, dErrors.New(dErrors.CodeInvalidInput, "patient_id must be a valid uuid")
		}
		f.PatientID = &patientID
	}
	if raw := q.Get("protocol_id"); raw != "" {
		protocolID, err := id.ParseProtocolID(raw)
		if err != nil {
			return f, pagination.Params{}, dErrors.New(dErrors.CodeInvalidInput, "protocol_id must be a valid uuid")
		}
		f.ProtocolID = &protocolID
	}
	if raw := q.Get("status"); raw != "" {
		status := models.Status(raw)
		if !status.Valid() {
			return f, pagination.Params{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", raw)
		}
		f.Status = &status
	}
	if raw := q.Get("enabled"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return f, pagination.Params{}, dErrors.New(dErrors.CodeInvalidInput, "enabled must be true or false")
		}
		f.Enabled = &enabled
	}

	for param, dest := range map[string]**time.Time{
		"scheduled_from":    &f.ScheduledFrom,
		"scheduled_to":      &f.ScheduledTo,
		"administered_from": &f.AdministeredFrom,
		"administered_to":   &f.AdministeredTo,
	} {
		if raw := q.Get(param); raw != "" {
			t, err := parseDate(raw)
			if err != nil {
				return f, pagination.Params{}, dErrors.Newf(dErrors.CodeInvalidInput, "%s must be YYYY-MM-DD or RFC 3339", param)
			}
			*dest = &t
		}
	}

	f.VaccineNameContains = strings.TrimSpace(q.Get("vaccine_name"))
	f.NotesContain = strings.TrimSpace(q.Get("notes"))

	var params pagination.Params
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return f, params, dErrors.New(dErrors.CodeInvalidInput, "page must be a positive integer")
		}
		params.Page = page
	}
	if raw := q.Get("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil || perPage < 1 {
			return f, params, dErrors.New(dErrors.CodeInvalidInput, "per_page must be a positive integer")
		}
		params.PerPage = perPage
	}
	return f, params, nil
}
