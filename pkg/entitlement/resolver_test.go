package entitlement_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strivefit/gatekit/pkg/entitlement"
	"github.com/strivefit/gatekit/pkg/subscription"
)

func testMatrix() entitlement.Matrix {
	return entitlement.Matrix{
		"unlimited_workouts": {subscription.TierPremium, subscription.TierElite},
		"ai_coach":           {subscription.TierPremium, subscription.TierElite},
		"advanced_analytics": {subscription.TierElite},
		"locked_for_all":     {},
	}
}

func activeSub(tier subscription.Tier) *subscription.Subscription {
	return &subscription.Subscription{
		UserID: "user-1",
		Tier:   tier,
		Status: subscription.StatusActive,
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	resolver := entitlement.NewResolver(testMatrix())
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("free user denied premium feature", func(t *testing.T) {
		t.Parallel()

		decision := resolver.Resolve("unlimited_workouts", activeSub(subscription.TierFree), now)

		assert.False(t, decision.HasAccess)
		require.NotNil(t, decision.RequiredTier)
		assert.Equal(t, subscription.TierPremium, *decision.RequiredTier)
		assert.Equal(t, entitlement.ReasonUpgradeRequired, decision.Reason)
		assert.Equal(t, now, decision.ResolvedAt)
	})

	t.Run("trial user granted premium feature", func(t *testing.T) {
		t.Parallel()

		sub := &subscription.Subscription{
			UserID: "user-1",
			Tier:   subscription.TierPremium,
			Status: subscription.StatusTrialing,
		}
		decision := resolver.Resolve("ai_coach", sub, now)

		assert.True(t, decision.HasAccess)
		assert.Equal(t, entitlement.ReasonNone, decision.Reason)
	})

	t.Run("premium user denied elite-only feature", func(t *testing.T) {
		t.Parallel()

		decision := resolver.Resolve("advanced_analytics", activeSub(subscription.TierPremium), now)

		assert.False(t, decision.HasAccess)
		require.NotNil(t, decision.RequiredTier)
		assert.Equal(t, subscription.TierElite, *decision.RequiredTier)
		assert.Equal(t, entitlement.ReasonEliteOnly, decision.Reason)
	})

	t.Run("status override denies nominal tier", func(t *testing.T) {
		t.Parallel()

		sub := &subscription.Subscription{
			UserID:            "user-1",
			Tier:              subscription.TierPremium,
			Status:            subscription.StatusCanceled,
			CancelAtPeriodEnd: false,
		}
		decision := resolver.Resolve("unlimited_workouts", sub, now)

		assert.False(t, decision.HasAccess)
		assert.Equal(t, entitlement.ReasonSubscriptionInactive, decision.Reason)
	})

	t.Run("nil subscription treated as free", func(t *testing.T) {
		t.Parallel()

		decision := resolver.Resolve("unlimited_workouts", nil, now)
		assert.False(t, decision.HasAccess)
		assert.Equal(t, entitlement.ReasonUpgradeRequired, decision.Reason)
	})

	t.Run("empty allowed set has no required tier", func(t *testing.T) {
		t.Parallel()

		decision := resolver.Resolve("locked_for_all", activeSub(subscription.TierElite), now)
		assert.False(t, decision.HasAccess)
		assert.Nil(t, decision.RequiredTier)
	})
}

// Default-open property: feature keys absent from the matrix are enabled for
// every tier and status.
func TestResolveDefaultOpen(t *testing.T) {
	t.Parallel()

	resolver := entitlement.NewResolver(testMatrix())
	now := time.Now().UTC()

	subs := []*subscription.Subscription{
		nil,
		activeSub(subscription.TierFree),
		activeSub(subscription.TierPremium),
		activeSub(subscription.TierElite),
		{Tier: subscription.TierPremium, Status: subscription.StatusCanceled},
		{Tier: subscription.TierElite, Status: subscription.StatusPaused},
	}

	for _, sub := range subs {
		decision := resolver.Resolve("brand_new_feature", sub, now)
		assert.True(t, decision.HasAccess)
		assert.Nil(t, decision.RequiredTier)
		assert.Equal(t, entitlement.ReasonNone, decision.Reason)
	}
}

// Tier monotonicity: Elite is never denied where Premium is granted.
func TestResolveTierMonotonicity(t *testing.T) {
	t.Parallel()

	resolver := entitlement.NewResolver(testMatrix())
	now := time.Now().UTC()

	for featureKey := range testMatrix() {
		premium := resolver.Resolve(featureKey, activeSub(subscription.TierPremium), now)
		elite := resolver.Resolve(featureKey, activeSub(subscription.TierElite), now)

		if premium.HasAccess {
			assert.True(t, elite.HasAccess, "feature %q granted to premium but denied to elite", featureKey)
		}
	}
}

func TestMatrix(t *testing.T) {
	t.Parallel()

	t.Run("required tier is lowest", func(t *testing.T) {
		t.Parallel()

		matrix := entitlement.Matrix{
			"f": {subscription.TierElite, subscription.TierPremium},
		}
		required := matrix.RequiredTier("f")
		require.NotNil(t, required)
		assert.Equal(t, subscription.TierPremium, *required)
	})

	t.Run("validate rejects unknown tier", func(t *testing.T) {
		t.Parallel()

		matrix := entitlement.Matrix{
			"f": {subscription.Tier("platinum")},
		}
		assert.ErrorIs(t, matrix.Validate(), entitlement.ErrInvalidMatrix)
	})
}

func TestParseMatrix(t *testing.T) {
	t.Parallel()

	t.Run("valid yaml", func(t *testing.T) {
		t.Parallel()

		const raw = `
features:
  unlimited_workouts: [premium, elite]
  advanced_analytics: [elite]
`
		matrix, err := entitlement.ParseMatrix(strings.NewReader(raw))
		require.NoError(t, err)

		assert.True(t, matrix.Contains("unlimited_workouts"))
		required := matrix.RequiredTier("unlimited_workouts")
		require.NotNil(t, required)
		assert.Equal(t, subscription.TierPremium, *required)
	})

	t.Run("unknown tier rejected", func(t *testing.T) {
		t.Parallel()

		const raw = `
features:
  f: [platinum]
`
		_, err := entitlement.ParseMatrix(strings.NewReader(raw))
		assert.ErrorIs(t, err, entitlement.ErrInvalidMatrix)
	})

	t.Run("malformed yaml rejected", func(t *testing.T) {
		t.Parallel()

		_, err := entitlement.ParseMatrix(strings.NewReader("features: ["))
		assert.ErrorIs(t, err, entitlement.ErrInvalidMatrix)
	})
}
