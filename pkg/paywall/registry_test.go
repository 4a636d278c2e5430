package paywall_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strivefit/gatekit/pkg/entitlement"
	"github.com/strivefit/gatekit/pkg/paywall"
	"github.com/strivefit/gatekit/pkg/subscription"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	valid := paywall.Definition{
		ID:             "streak_7",
		Type:           paywall.TypeValueMoment,
		Match:          paywall.MatchCondition{Event: "streak_reached", CountThreshold: 7},
		Cooldown:       72 * time.Hour,
		MaxImpressions: 3,
		Priority:       10,
	}

	t.Run("keeps valid definitions", func(t *testing.T) {
		t.Parallel()

		registry := paywall.NewRegistry([]paywall.Definition{valid})
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("excludes invalid definitions", func(t *testing.T) {
		t.Parallel()

		broken := valid
		broken.ID = ""
		registry := paywall.NewRegistry([]paywall.Definition{broken, valid})
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("duplicate ids keep first occurrence", func(t *testing.T) {
		t.Parallel()

		second := valid
		second.Priority = 99
		registry := paywall.NewRegistry([]paywall.Definition{valid, second})
		require.Equal(t, 1, registry.Len())
		assert.Equal(t, 10, registry.Definitions()[0].Priority)
	})

	t.Run("cooldown hours normalized to duration", func(t *testing.T) {
		t.Parallel()

		def := valid
		def.Cooldown = 0
		def.CooldownHours = 48
		registry := paywall.NewRegistry([]paywall.Definition{def})
		require.Equal(t, 1, registry.Len())
		assert.Equal(t, 48*time.Hour, registry.Definitions()[0].Cooldown)
	})

	t.Run("matrix cross-check excludes unmapped feature", func(t *testing.T) {
		t.Parallel()

		matrix := entitlement.Matrix{
			"ai_coach": {subscription.TierPremium, subscription.TierElite},
		}
		def := paywall.Definition{
			ID:             "ghost_feature",
			Type:           paywall.TypeFeatureLimit,
			Match:          paywall.MatchCondition{Event: "feature_tapped", FeatureKey: "video_analysis"},
			Cooldown:       24 * time.Hour,
			MaxImpressions: 1,
		}
		registry := paywall.NewRegistry([]paywall.Definition{def}, paywall.WithMatrix(matrix))
		assert.Zero(t, registry.Len())
	})
}

func TestCandidatesFor(t *testing.T) {
	t.Parallel()

	registry := paywall.NewRegistry([]paywall.Definition{
		{ID: "a", Type: paywall.TypeSoftPaywall, Match: paywall.MatchCondition{Event: "app_open"}, Cooldown: time.Hour, MaxImpressions: 1},
		{ID: "b", Type: paywall.TypeContextual, Match: paywall.MatchCondition{Event: "plan_ended"}, Cooldown: time.Hour, MaxImpressions: 1},
		{ID: "c", Type: paywall.TypeSoftPaywall, Match: paywall.MatchCondition{Event: "app_open"}, Cooldown: time.Hour, MaxImpressions: 1},
	})

	candidates := registry.CandidatesFor("app_open")
	require.Len(t, candidates, 2)
	assert.Equal(t, "a", candidates[0].ID)
	assert.Equal(t, "c", candidates[1].ID)
	assert.Empty(t, registry.CandidatesFor("unknown_event"))
}

func TestParseRegistry(t *testing.T) {
	t.Parallel()

	t.Run("valid yaml", func(t *testing.T) {
		t.Parallel()

		raw := `
triggers:
  - id: three_meals_logged
    type: value_moment
    event: meal_logged
    count_threshold: 3
    cooldown_hours: 48
    max_impressions: 2
    priority: 10
  - id: hit_workout_limit
    type: feature_limit
    event: workout_blocked
    feature_key: unlimited_workouts
    cooldown_hours: 24
    max_impressions: 5
    priority: 20
`
		registry, err := paywall.ParseRegistry(strings.NewReader(raw))
		require.NoError(t, err)
		require.Equal(t, 2, registry.Len())

		def := registry.Definitions()[0]
		assert.Equal(t, "three_meals_logged", def.ID)
		assert.Equal(t, paywall.TypeValueMoment, def.Type)
		assert.Equal(t, 3, def.Match.CountThreshold)
		assert.Equal(t, 48*time.Hour, def.Cooldown)
	})

	t.Run("malformed yaml rejected", func(t *testing.T) {
		t.Parallel()

		_, err := paywall.ParseRegistry(strings.NewReader("triggers: {not a list}"))
		assert.ErrorIs(t, err, paywall.ErrInvalidRegistry)
	})
}

func TestDefinitionValidate(t *testing.T) {
	t.Parallel()

	base := paywall.Definition{
		ID:             "t",
		Type:           paywall.TypeContextual,
		Match:          paywall.MatchCondition{Event: "goal_set"},
		Cooldown:       time.Hour,
		MaxImpressions: 1,
	}

	tests := []struct {
		name   string
		mutate func(*paywall.Definition)
	}{
		{"empty id", func(d *paywall.Definition) { d.ID = "" }},
		{"unknown type", func(d *paywall.Definition) { d.Type = "nudge" }},
		{"missing event", func(d *paywall.Definition) { d.Match.Event = "" }},
		{"feature_limit without feature key", func(d *paywall.Definition) { d.Type = paywall.TypeFeatureLimit }},
		{"negative threshold", func(d *paywall.Definition) { d.Match.CountThreshold = -1 }},
		{"zero max impressions", func(d *paywall.Definition) { d.MaxImpressions = 0 }},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			def := base
			tt.mutate(&def)
			assert.ErrorIs(t, def.Validate(), paywall.ErrInvalidTrigger)
		})
	}

	assert.NoError(t, base.Validate())
}
