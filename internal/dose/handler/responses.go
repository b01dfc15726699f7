package handler

import (
	"time"

	"vetcore/internal/dose/models"
)

// DoseResponse is the wire shape of one dose.
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

// FromDose converts a domain dose to its HTTP response.
func FromDose(d *models.Dose) DoseResponse {
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
