package usage

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// FreePlan defines the Free-tier quotas. Paid tiers are never rate-limited
// by this package; any paid-tier limiting is a backend concern.
type FreePlan struct {
	WorkoutsPerWeek int64 `yaml:"workouts_per_week" env:"FREE_WORKOUTS_PER_WEEK" envDefault:"3"`
	AIChatsPerDay   int64 `yaml:"ai_chats_per_day" env:"FREE_AI_CHATS_PER_DAY" envDefault:"3"`
}

// DefaultFreePlan returns the stock Free-tier quotas.
func DefaultFreePlan() FreePlan {
	return FreePlan{
		WorkoutsPerWeek: 3,
		AIChatsPerDay:   3,
	}
}

// Limit returns the quota for the given counter type.
func (p FreePlan) Limit(counterType CounterType) (int64, error) {
	switch counterType {
	case CounterWorkouts:
		return p.WorkoutsPerWeek, nil
	case CounterAIChats:
		return p.AIChatsPerDay, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCounter, counterType)
	}
}

// Validate checks that all quotas are non-negative.
func (p FreePlan) Validate() error {
	if p.WorkoutsPerWeek < 0 || p.AIChatsPerDay < 0 {
		return ErrInvalidPlan
	}
	return nil
}

// ParseFreePlan reads a YAML free-plan definition:
//
//	workouts_per_week: 3
//	ai_chats_per_day: 3
func ParseFreePlan(r io.Reader) (FreePlan, error) {
	plan := DefaultFreePlan()
	if err := yaml.NewDecoder(r).Decode(&plan); err != nil {
		return FreePlan{}, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	if err := plan.Validate(); err != nil {
		return FreePlan{}, err
	}
	return plan, nil
}

// LoadFreePlanFile reads a YAML free-plan definition from disk.
func LoadFreePlanFile(path string) (FreePlan, error) {
	f, err := os.Open(path)
	if err != nil {
		return FreePlan{}, fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	defer f.Close()
	return ParseFreePlan(f)
}
