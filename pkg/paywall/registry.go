package paywall

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/strivefit/gatekit/pkg/entitlement"
	"github.com/strivefit/gatekit/pkg/logger"
)

// Registry is the static catalogue of paywall triggers. Definitions that
// fail load-time validation are excluded and logged rather than crashing the
// evaluator; the remaining set is immutable for process lifetime.
// Registration order is preserved: it breaks priority ties (first registered
// wins).
type Registry struct {
	definitions []Definition
}

// RegistryOption configures registry loading.
type RegistryOption func(*registryLoader)

type registryLoader struct {
	matrix entitlement.Matrix
	log    *slog.Logger
}

// WithMatrix cross-checks trigger feature keys against the entitlement
// matrix. A feature_limit trigger referencing a key the matrix does not
// declare would never fire usefully (unmapped keys are default-open, so the
// entitlement check always grants), so it is excluded at load.
func WithMatrix(matrix entitlement.Matrix) RegistryOption {
	return func(l *registryLoader) {
		l.matrix = matrix
	}
}

// WithRegistryLogger sets the logger for excluded definitions.
func WithRegistryLogger(log *slog.Logger) RegistryOption {
	return func(l *registryLoader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewRegistry builds a registry from definitions, excluding invalid ones.
// Duplicate IDs keep the first occurrence.
func NewRegistry(definitions []Definition, opts ...RegistryOption) *Registry {
	loader := &registryLoader{log: slog.Default()}
	for _, opt := range opts {
		opt(loader)
	}

	seen := make(map[string]struct{}, len(definitions))
	kept := make([]Definition, 0, len(definitions))

	for _, def := range definitions {
		if err := loader.validate(def); err != nil {
			loader.log.LogAttrs(context.Background(), slog.LevelWarn, "excluding invalid paywall trigger",
				logger.TriggerID(def.ID),
				logger.Error(err),
			)
			continue
		}
		if _, dup := seen[def.ID]; dup {
			loader.log.LogAttrs(context.Background(), slog.LevelWarn, "excluding duplicate paywall trigger",
				logger.TriggerID(def.ID),
			)
			continue
		}
		seen[def.ID] = struct{}{}

		// Normalize so downstream code only reads Cooldown.
		def.Cooldown = def.cooldown()
		kept = append(kept, def)
	}

	return &Registry{definitions: kept}
}

func (l *registryLoader) validate(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	// Feature keys are referenced by convention, not an enforced foreign
	// key; the matrix cross-check catches typos at load time.
	if l.matrix != nil && def.Match.FeatureKey != "" && !l.matrix.Contains(def.Match.FeatureKey) {
		return fmt.Errorf("%w: trigger %q references feature %q absent from entitlement matrix",
			ErrInvalidTrigger, def.ID, def.Match.FeatureKey)
	}
	return nil
}

// CandidatesFor returns the triggers activated by eventName, in
// registration order.
func (r *Registry) CandidatesFor(eventName string) []Definition {
	var out []Definition
	for _, def := range r.definitions {
		if def.Match.Event == eventName {
			out = append(out, def)
		}
	}
	return out
}

// Definitions returns all registered triggers in registration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.definitions))
	copy(out, r.definitions)
	return out
}

// Len returns the number of registered triggers.
func (r *Registry) Len() int {
	return len(r.definitions)
}

// registryFile is the YAML representation of a trigger catalogue.
type registryFile struct {
	Triggers []struct {
		ID             string      `yaml:"id"`
		Type           TriggerType `yaml:"type"`
		Event          string      `yaml:"event"`
		FeatureKey     string      `yaml:"feature_key"`
		CountThreshold int         `yaml:"count_threshold"`
		CooldownHours  int         `yaml:"cooldown_hours"`
		MaxImpressions int         `yaml:"max_impressions"`
		Priority       int         `yaml:"priority"`
	} `yaml:"triggers"`
}

// ParseRegistry reads a YAML trigger catalogue:
//
//	triggers:
//	  - id: three_meals_logged
//	    type: value_moment
//	    event: meal_logged
//	    count_threshold: 3
//	    cooldown_hours: 48
//	    max_impressions: 2
//	    priority: 10
func ParseRegistry(r io.Reader, opts ...RegistryOption) (*Registry, error) {
	var file registryFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRegistry, err)
	}

	definitions := make([]Definition, 0, len(file.Triggers))
	for _, t := range file.Triggers {
		definitions = append(definitions, Definition{
			ID:   t.ID,
			Type: t.Type,
			Match: MatchCondition{
				Event:          t.Event,
				FeatureKey:     t.FeatureKey,
				CountThreshold: t.CountThreshold,
			},
			CooldownHours:  t.CooldownHours,
			MaxImpressions: t.MaxImpressions,
			Priority:       t.Priority,
		})
	}

	return NewRegistry(definitions, opts...), nil
}

// LoadRegistryFile reads a YAML trigger catalogue from disk.
func LoadRegistryFile(path string, opts ...RegistryOption) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRegistry, err)
	}
	defer f.Close()
	return ParseRegistry(f, opts...)
}
