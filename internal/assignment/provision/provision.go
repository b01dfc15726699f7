// Package provision computes the initial scheduling state for each dose
// when a protocol is assigned to a patient. The computation is pure: given
// the same age, entry, and clock instant it always yields the same result,
// and it runs exactly once per dose — a patient's age advancing later never
// rewrites already-provisioned doses.
package provision

import (
	"time"

	"vetcore/internal/catalog"
)

// OptionalGraceMonths is how far past its application age an optional dose
// may be before it is provisioned disabled (recorded but treated as no
// longer clinically relevant).
const OptionalGraceMonths = 6

// Schedule is the derived initial state for one dose.
type Schedule struct {
	Enabled bool
	// ScheduledDate is nil for doses that are already age-eligible: they
	// are immediately actionable and wait for explicit staff scheduling.
	ScheduledDate *time.Time
}

// Compute derives the initial schedule for one protocol entry.
//
// Branches, evaluated in order:
//  1. Patient younger than the application age: due in the future, enabled,
//     scheduled (application_age - age) months from now.
//  2. Age-eligible and mandatory: enabled, unscheduled.
//  3. Age-eligible and optional: unscheduled; enabled only while at most
//     OptionalGraceMonths overdue.
func Compute(patientAgeMonths int, entry catalog.ProtocolEntry, now time.Time) Schedule {
	if patientAgeMonths < entry.ApplicationAge {
		monthsToWait := entry.ApplicationAge - patientAgeMonths
		due := now.AddDate(0, monthsToWait, 0)
		return Schedule{Enabled: true, ScheduledDate: &due}
	}

	if entry.Mandatory {
		return Schedule{Enabled: true}
	}

	overdue := patientAgeMonths - entry.ApplicationAge
	return Schedule{Enabled: overdue <= OptionalGraceMonths}
}
