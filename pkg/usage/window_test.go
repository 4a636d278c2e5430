package usage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/strivefit/gatekit/pkg/usage"
)

func TestWindowStart(t *testing.T) {
	t.Parallel()

	t.Run("daily window starts at utc midnight", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 6, 15, 18, 45, 30, 0, time.UTC)
		want := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, want, usage.WindowStart(usage.CounterAIChats, now))
	})

	t.Run("weekly window starts on monday", func(t *testing.T) {
		t.Parallel()

		// 2025-06-15 is a Sunday; the week started Monday 2025-06-09.
		now := time.Date(2025, 6, 15, 18, 45, 30, 0, time.UTC)
		want := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, want, usage.WindowStart(usage.CounterWorkouts, now))
	})

	t.Run("monday maps to itself", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, now, usage.WindowStart(usage.CounterWorkouts, now))
	})

	t.Run("local time is normalized to utc", func(t *testing.T) {
		t.Parallel()

		loc := time.FixedZone("UTC+10", 10*3600)
		// 2025-06-16 08:00 +10:00 is still Sunday 2025-06-15 22:00 UTC.
		now := time.Date(2025, 6, 16, 8, 0, 0, 0, loc)
		want := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, want, usage.WindowStart(usage.CounterWorkouts, now))
	})
}
