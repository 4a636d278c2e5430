package entitlement

import (
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/strivefit/gatekit/pkg/subscription"
)

// Matrix maps feature keys to the set of tiers that unlock them.
// Feature keys absent from the matrix are enabled for everyone: the
// default-open policy means unknown or newly shipped features never break
// silently behind the gate.
type Matrix map[string][]subscription.Tier

// AllowedTiers returns the tiers that unlock the feature and whether the
// feature is mapped at all.
func (m Matrix) AllowedTiers(featureKey string) ([]subscription.Tier, bool) {
	tiers, ok := m[featureKey]
	return tiers, ok
}

// Contains reports whether the feature key is declared in the matrix.
func (m Matrix) Contains(featureKey string) bool {
	_, ok := m[featureKey]
	return ok
}

// RequiredTier returns the lowest tier that unlocks the feature, used for
// upsell copy. Returns nil for unmapped features and for features whose
// allowed set is empty.
func (m Matrix) RequiredTier(featureKey string) *subscription.Tier {
	tiers, ok := m[featureKey]
	if !ok || len(tiers) == 0 {
		return nil
	}

	lowest := tiers[0]
	for _, tier := range tiers[1:] {
		if tier.Rank() < lowest.Rank() {
			lowest = tier
		}
	}
	return &lowest
}

// Validate checks that every declared tier is known.
func (m Matrix) Validate() error {
	for featureKey, tiers := range m {
		for _, tier := range tiers {
			if !tier.Valid() {
				return fmt.Errorf("%w: feature %q references unknown tier %q",
					ErrInvalidMatrix, featureKey, tier)
			}
		}
	}
	return nil
}

// matrixFile is the YAML representation of a Matrix.
type matrixFile struct {
	Features map[string][]string `yaml:"features"`
}

// ParseMatrix reads a YAML matrix definition:
//
//	features:
//	  unlimited_workouts: [premium, elite]
//	  advanced_analytics: [elite]
func ParseMatrix(r io.Reader) (Matrix, error) {
	var file matrixFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMatrix, err)
	}

	matrix := make(Matrix, len(file.Features))
	for featureKey, tiers := range file.Features {
		converted := make([]subscription.Tier, 0, len(tiers))
		for _, tier := range tiers {
			converted = append(converted, subscription.Tier(tier))
		}
		matrix[featureKey] = converted
	}

	if err := matrix.Validate(); err != nil {
		return nil, err
	}
	return matrix, nil
}

// LoadMatrixFile reads a YAML matrix definition from disk.
func LoadMatrixFile(path string) (Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMatrix, err)
	}
	defer f.Close()
	return ParseMatrix(f)
}

// Clone returns a deep copy of the matrix.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for featureKey, tiers := range m {
		out[featureKey] = slices.Clone(tiers)
	}
	return out
}
