package handler

import (
	"time"

	"vetcore/internal/assignment/models"
	dosemodels "vetcore/internal/dose/models"
)

// AssignmentResponse is the wire shape of one plan assignment.
type AssignmentResponse struct {
	ID         string         `json:"id"`
	PatientID  string         `json:"patient_id"`
	ProtocolID string         `json:"protocol_id"`
	Status     string         `json:"status"`
	Doses      []DoseResponse `json:"doses,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// DoseResponse is the wire shape of one dose, shared with the dose module's
// nested listing.
type DoseResponse struct {
	ID               string     `json:"id"`
	AssignmentID     string     `json:"assignment_id"`
	PatientID        string     `json:"patient_id"`
	ProtocolID       string     `json:"protocol_id"`
	EntryID          string     `json:"entry_id"`
	VaccineName      string     `json:"vaccine_name"`
	ApplicationAge   int        `json:"application_age"`
	ValidityMonths   int        `json:"validity"`
	Mandatory        bool       `json:"is_mandatory"`
	Enabled          bool       `json:"enabled"`
	ScheduledDate    *time.Time `json:"scheduled_date"`
	AdministeredDate *time.Time `json:"administered_date"`
	Status           string     `json:"status"`
	Notes            string     `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// FromAssignment converts a domain assignment to its HTTP response.
func FromAssignment(a *models.PlanAssignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:         a.ID.String(),
		PatientID:  a.PatientID.String(),
		ProtocolID: a.ProtocolID.String(),
		Status:     string(a.Status),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	for i := range a.Doses {
		resp.Doses = append(resp.Doses, FromDose(&a.Doses[i]))
	}
	return resp
}

// FromDose converts a domain dose to its HTTP response.
func FromDose(d *dosemodels.Dose) DoseResponse {
	return DoseResponse{
		ID:               d.ID.String(),
		AssignmentID:     d.AssignmentID.String(),
		PatientID:        d.PatientID.String(),
		ProtocolID:       d.ProtocolID.String(),
		EntryID:          d.EntryID.String(),
		VaccineName:      d.VaccineName,
		ApplicationAge:   d.ApplicationAge,
		ValidityMonths:   d.ValidityMonths,
		Mandatory:        d.Mandatory,
		Enabled:          d.Enabled,
		ScheduledDate:    d.ScheduledDate,
		AdministeredDate: d.AdministeredDate,
		Status:           string(d.Status),
		Notes:            d.Notes,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
