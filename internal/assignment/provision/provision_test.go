package provision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetcore/internal/catalog"
)

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func entry(applicationAge int, mandatory bool) catalog.ProtocolEntry {
	return catalog.ProtocolEntry{
		Name:           "rabies",
		ApplicationAge: applicationAge,
		ValidityMonths: 12,
		Mandatory:      mandatory,
	}
}

func TestCompute(t *testing.T) {
	t.Run("not yet age-eligible schedules the wait in months", func(t *testing.T) {
		// patient age 2 months, due at 4 months: scheduled 2 months out
		s := Compute(2, entry(4, true), now)

		assert.True(t, s.Enabled)
		require.NotNil(t, s.ScheduledDate)
		assert.Equal(t, now.AddDate(0, 2, 0), *s.ScheduledDate)
	})

	t.Run("age-eligible mandatory is enabled and unscheduled", func(t *testing.T) {
		// patient age 10 months, due at 4: overdue, awaits staff scheduling
		s := Compute(10, entry(4, true), now)

		assert.True(t, s.Enabled)
		assert.Nil(t, s.ScheduledDate)
	})

	t.Run("optional within grace stays enabled", func(t *testing.T) {
		s := Compute(8, entry(2, false), now)

		assert.True(t, s.Enabled)
		assert.Nil(t, s.ScheduledDate)
	})

	t.Run("optional past grace is provisioned disabled", func(t *testing.T) {
		// 8 months overdue: recorded but no longer clinically relevant
		s := Compute(10, entry(2, false), now)

		assert.False(t, s.Enabled)
		assert.Nil(t, s.ScheduledDate)
	})

	t.Run("grace boundary is inclusive", func(t *testing.T) {
		atBoundary := Compute(2+OptionalGraceMonths, entry(2, false), now)
		assert.True(t, atBoundary.Enabled)

		pastBoundary := Compute(2+OptionalGraceMonths+1, entry(2, false), now)
		assert.False(t, pastBoundary.Enabled)
	})

	t.Run("exact application age counts as eligible", func(t *testing.T) {
		s := Compute(4, entry(4, true), now)
		assert.True(t, s.Enabled)
		assert.Nil(t, s.ScheduledDate)
	})

	t.Run("same inputs always produce the same schedule", func(t *testing.T) {
		a := Compute(3, entry(6, false), now)
		b := Compute(3, entry(6, false), now)
		assert.Equal(t, a, b)
	})
}
