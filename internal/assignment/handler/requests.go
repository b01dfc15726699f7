package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"vetcore/internal/assignment/models"
	"vetcore/internal/assignment/store"
	dErrors "vetcore/pkg/domain-errors"
	id "vetcore/pkg/domain"
	"vetcore/pkg/pagination"
)

// AssignRequest is the HTTP request body for POST /assignments.
type AssignRequest struct {
	PatientID  string `json:"patient_id"`
	ProtocolID string `json:"protocol_id"`
	Status     string `json:"status,omitempty"`

	parsedPatientID  id.PatientID
	parsedProtocolID id.ProtocolID
	parsedStatus     models.Status
}

// Validate parses and checks the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *AssignRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	patientID, err := id.ParsePatientID(r.PatientID)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "patient_id must be a valid uuid")
	}
	r.parsedPatientID = patientID

	protocolID, err := id.ParseProtocolID(r.ProtocolID)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "protocol_id must be a valid uuid")
	}
	r.parsedProtocolID = protocolID

	if r.Status != "" {
		status := models.Status(r.Status)
		if !status.Valid() {
			return dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", r.Status)
		}
		r.parsedStatus = status
	}
	return nil
}

// UpdateRequest is the HTTP request body for PATCH /assignments/{id}.
// Absent fields stay untouched.
type UpdateRequest struct {
	PatientID  *string `json:"patient_id,omitempty"`
	ProtocolID *string `json:"protocol_id,omitempty"`
	Status     *string `json:"status,omitempty"`

	parsedPatientID  *id.PatientID
	parsedProtocolID *id.ProtocolID
	parsedStatus     *models.Status
}

func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if r.PatientID != nil {
		patientID, err := id.ParsePatientID(*r.PatientID)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "patient_id must be a valid uuid")
		}
		r.parsedPatientID = &patientID
	}
	if r.ProtocolID != nil {
		protocolID, err := id.ParseProtocolID(*r.ProtocolID)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "protocol_id must be a valid uuid")
		}
		r.parsedProtocolID = &protocolID
	}
	if r.Status != nil {
		status := models.Status(*r.Status)
		if !status.Valid() {
			return dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", *r.Status)
		}
		r.parsedStatus = &status
	}
	return nil
}

// parseListQuery reads filter and pagination parameters from the URL.
func parseListQuery(r *http.Request) (store.Filter, pagination.Params, error) {
	q := r.URL.Query()

	var f store.Filter
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

	params, err := parsePagination(q)
	if err != nil {
		return f, params, err
	}
	return f, params, nil
}

func parsePagination(q url.Values) (pagination.Params, error) {
	var params pagination.Params
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return params, dErrors.New(dErrors.CodeInvalidInput, "page must be a positive integer")
		}
		params.Page = page
	}
	if raw := q.Get("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil || perPage < 1 {
			return params, dErrors.New(dErrors.CodeInvalidInput, "per_page must be a positive integer")
		}
		params.PerPage = perPage
	}
	return params, nil
}
