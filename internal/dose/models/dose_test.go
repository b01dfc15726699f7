package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vetcore/pkg/domain-errors"
	id "vetcore/pkg/domain"
)

func pendingDose() *Dose {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &Dose{
		ID:           id.DoseID(uuid.New()),
		OrgID:        id.OrgID(uuid.New()),
		AssignmentID: id.AssignmentID(uuid.New()),
		EntryID:      id.EntryID(uuid.New()),
		VaccineName:  "rabies",
		Enabled:      true,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCompleteGuards(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("pending enabled dose completes", func(t *testing.T) {
		d := pendingDose()
		require.NoError(t, d.CanComplete())
		d.ApplyComplete(now, now, "dr.vega")

		assert.Equal(t, StatusCompleted, d.Status)
		require.NotNil(t, d.AdministeredDate)
		assert.Equal(t, now, *d.AdministeredDate)
	})

	t.Run("disabled dose is refused", func(t *testing.T) {
		d := pendingDose()
		d.Enabled = false
		err := d.CanComplete()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDoseDisabled))
	})

	t.Run("second completion is refused", func(t *testing.T) {
		d := pendingDose()
		d.ApplyComplete(now, now, "")
		err := d.CanComplete()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyCompleted))
	})

	t.Run("cancelled dose cannot complete", func(t *testing.T) {
		d := pendingDose()
		d.ApplyCancel(now, "")
		err := d.CanComplete()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyCancelled))
	})
}

func TestCompletedDoseIsFrozen(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	d := pendingDose()
	d.ApplyComplete(now, now, "")
	administered := *d.AdministeredDate

	t.Run("cancel refused", func(t *testing.T) {
		err := d.CanCancel()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyCompleted))
	})

	t.Run("reschedule refused", func(t *testing.T) {
		err := d.CanReschedule()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyCompleted))
	})

	t.Run("toggle refused", func(t *testing.T) {
		err := d.CanToggleEnabled()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeImmutableState))
	})

	// The refused guards must not have touched the administered date.
	assert.Equal(t, administered, *d.AdministeredDate)
}

func TestCancelGuards(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("pending dose cancels", func(t *testing.T) {
		d := pendingDose()
		require.NoError(t, d.CanCancel())
		d.ApplyCancel(now, "tech.ruiz")
		assert.Equal(t, StatusCancelled, d.Status)
		assert.Nil(t, d.AdministeredDate)
	})

	t.Run("double cancel refused", func(t *testing.T) {
		d := pendingDose()
		d.ApplyCancel(now, "")
		err := d.CanCancel()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyCancelled))
	})

	t.Run("cancelled dose cannot reschedule but can toggle", func(t *testing.T) {
		d := pendingDose()
		d.ApplyCancel(now, "")
		assert.True(t, dErrors.HasCode(d.CanReschedule(), dErrors.CodeAlreadyCancelled))
		// enabled is orthogonal: only completion freezes it
		assert.NoError(t, d.CanToggleEnabled())
	})
}

func TestNotesAreAppendOnly(t *testing.T) {
	d := pendingDose()
	t1 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	d.ApplyToggleEnabled(false, t1, "dr.vega")
	d.ApplyToggleEnabled(true, t2, "dr.vega")

	lines := strings.Split(d.Notes, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "enabled set to false by dr.vega")
	assert.Contains(t, lines[0], "[2026-03-02T09:00:00Z]")
	assert.Contains(t, lines[1], "enabled set to true by dr.vega")
}
