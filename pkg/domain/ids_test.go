package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vetcore/pkg/domain-errors"
)

// TestParseUUID_Invariants validates that identifiers must be valid,
// non-empty, non-nil UUIDs at trust boundaries.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseDoseID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseAssignmentID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseProtocolID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		raw := uuid.New()
		id, err := ParsePatientID(raw.String())
		require.NoError(t, err)
		assert.Equal(t, PatientID(raw), id)
	})
}

// TestTypeDistinction verifies the compiler enforces type safety between
// identifier kinds. If this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	doseID := DoseID(uuid.New())
	assignmentID := AssignmentID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ DoseID = assignmentID       // compile error
	// var _ AssignmentID = doseID       // compile error

	assert.NotEqual(t, uuid.UUID(doseID), uuid.UUID(assignmentID))
}

func TestZeroValues(t *testing.T) {
	var id DoseID
	assert.True(t, id.IsZero())
	assert.False(t, NewDoseID().IsZero())
	assert.False(t, NewAssignmentID().IsZero())
}
