package selector

import (
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/nulzo/model-selector/internal/core/domain"
	"github.com/nulzo/model-selector/internal/core/services/registry"
	"github.com/nulzo/model-selector/pkg/schema"
)

// Selector accumulates selection criteria and resolves them against a
// registry. It is a value: every builder returns a new Selector and leaves
// the receiver untouched, so a base selector can be shared and extended
// from several goroutines.
type Selector struct {
	reg      *registry.Registry
	criteria schema.SelectionCriteria
}

// New starts an empty selection using the cost strategy.
func New(reg *registry.Registry) Selector {
	return Selector{
		reg:      reg,
		criteria: schema.SelectionCriteria{Strategy: schema.StrategyCost},
	}
}

// FromCriteria rebuilds a selector from previously accumulated criteria.
func FromCriteria(reg *registry.Registry, c schema.SelectionCriteria) Selector {
	c = c.Clone()
	if c.Strategy == "" {
		c.Strategy = schema.StrategyCost
	}
	return Selector{reg: reg, criteria: c}
}

// Criteria returns a deep copy of the accumulated criteria.
func (s Selector) Criteria() schema.SelectionCriteria {
	return s.criteria.Clone()
}

func (s Selector) with(mutate func(c *schema.SelectionCriteria)) Selector {
	next := s.criteria.Clone()
	mutate(&next)
	return Selector{reg: s.reg, criteria: next}
}

// Require adds capabilities to the required set.
func (s Selector) Require(caps ...schema.Capability) (Selector, error) {
	for _, c := range caps {
		if !slices.Contains(schema.KnownCapabilities, c) {
			return s, domain.Argument("capability", "unknown capability %q", c)
		}
	}
	return s.with(func(c *schema.SelectionCriteria) {
		c.Requirements.Capabilities = schema.Union(c.Requirements.Capabilities, caps...)
	}), nil
}

// OptimizeFor sets the ranking strategy. Performance also requires the
// premium tier and latest turns on newest-first selection.
func (s Selector) OptimizeFor(strategy schema.Strategy) (Selector, error) {
	if !strategy.Valid() {
		return s, &domain.InvalidStrategyError{Strategy: string(strategy)}
	}
	return s.with(func(c *schema.SelectionCriteria) {
		c.Strategy = strategy
		switch strategy {
		case schema.StrategyPerformance:
			c.Requirements.PerformanceTier = schema.TierPremium
		case schema.StrategyLatest:
			c.Requirements.PickNewer = true
		}
	}), nil
}

// WithinBudget caps per-1k costs. A nil bound leaves that side unchanged.
func (s Selector) WithinBudget(maxInput, maxOutput *float64) (Selector, error) {
	if maxInput != nil && *maxInput <= 0 {
		return s, domain.Argument("max_input_cost", "must be positive, got %v", *maxInput)
	}
	if maxOutput != nil && *maxOutput <= 0 {
		return s, domain.Argument("max_output_cost", "must be positive, got %v", *maxOutput)
	}
	return s.with(func(c *schema.SelectionCriteria) {
		if maxInput != nil {
			v := *maxInput
			c.Requirements.MaxInputCost = &v
		}
		if maxOutput != nil {
			v := *maxOutput
			c.Requirements.MaxOutputCost = &v
		}
	}), nil
}

// MinContext requires at least n tokens of context window.
func (s Selector) MinContext(n int) (Selector, error) {
	if n <= 0 {
		return s, domain.Argument("min_context_length", "must be positive, got %d", n)
	}
	return s.with(func(c *schema.SelectionCriteria) {
		c.Requirements.MinContextLength = n
	}), nil
}

// PreferProviders moves models from these providers ahead of equally ranked
// models from others. Earlier providers win.
func (s Selector) PreferProviders(providers ...string) Selector {
	return s.with(func(c *schema.SelectionCriteria) {
		c.Providers.Preferred = schema.Union(c.Providers.Preferred, lowerAll(providers)...)
	})
}

// RequireProviders restricts candidates to the listed providers.
func (s Selector) RequireProviders(providers ...string) Selector {
	return s.with(func(c *schema.SelectionCriteria) {
		c.Providers.Required = schema.Union(c.Providers.Required, lowerAll(providers)...)
	})
}

// AvoidProviders excludes every model from the listed providers.
func (s Selector) AvoidProviders(providers ...string) Selector {
	return s.with(func(c *schema.SelectionCriteria) {
		c.Providers.AvoidedProviders = schema.Union(c.Providers.AvoidedProviders, lowerAll(providers)...)
	})
}

// AvoidPatterns excludes models whose id, or the part after the provider
// prefix, matches any of the glob patterns ("openai/*", "*-preview").
func (s Selector) AvoidPatterns(patterns ...string) (Selector, error) {
	for _, p := range patterns {
		if p == "" || !doublestar.ValidatePattern(p) {
			return s, domain.Argument("avoid_pattern", "malformed glob %q", p)
		}
	}
	return s.with(func(c *schema.SelectionCriteria) {
		c.Providers.AvoidedPatterns = schema.Union(c.Providers.AvoidedPatterns, patterns...)
	}), nil
}

// NewerThan requires models created on or after the given day. v may be a
// time.Time, a "YYYY-MM-DD" or RFC3339 string, or a unix timestamp.
func (s Selector) NewerThan(v any) (Selector, error) {
	day, err := schema.NormalizeDate(v)
	if err != nil {
		return s, domain.Argument("newer_than", "%v", err)
	}
	return s.with(func(c *schema.SelectionCriteria) {
		c.Requirements.NewerThan = day
	}), nil
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
