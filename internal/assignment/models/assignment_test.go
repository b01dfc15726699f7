package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vetcore/pkg/domain-errors"
	id "vetcore/pkg/domain"
)

func TestNew(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orgID := id.OrgID(uuid.New())
	patientID := id.PatientID(uuid.New())
	protocolID := id.ProtocolID(uuid.New())

	t.Run("defaults to active", func(t *testing.T) {
		a, err := New(orgID, patientID, protocolID, "", now)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, a.Status)
		assert.True(t, a.IsActive())
		assert.False(t, a.ID.IsZero())
	})

	t.Run("accepts explicit inactive", func(t *testing.T) {
		a, err := New(orgID, patientID, protocolID, StatusInactive, now)
		require.NoError(t, err)
		assert.False(t, a.IsActive())
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := New(orgID, patientID, protocolID, Status("archived"), now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestStatusTransitions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a, err := New(id.OrgID(uuid.New()), id.PatientID(uuid.New()), id.ProtocolID(uuid.New()), "", now)
	require.NoError(t, err)

	t.Run("activating an active assignment is refused", func(t *testing.T) {
		err := a.CanActivate()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyInState))
	})

	t.Run("deactivate then reactivate", func(t *testing.T) {
		require.NoError(t, a.CanDeactivate())
		a.ApplyDeactivate(now.Add(time.Hour))
		assert.Equal(t, StatusInactive, a.Status)

		err := a.CanDeactivate()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyInState))

		require.NoError(t, a.CanActivate())
		a.ApplyActivate(now.Add(2 * time.Hour))
		assert.True(t, a.IsActive())
	})

	t.Run("soft delete releases the active slot", func(t *testing.T) {
		a.ApplySoftDelete(now.Add(3 * time.Hour))
		assert.NotNil(t, a.DeletedAt)
		assert.False(t, a.IsActive())
	})
}
