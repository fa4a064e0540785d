package schema

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Capability is a named feature a model may support.
type Capability string

const (
	CapabilityChat              Capability = "chat"
	CapabilityFunctionCalling   Capability = "function_calling"
	CapabilityStructuredOutputs Capability = "structured_outputs"
	CapabilityVision            Capability = "vision"
	CapabilityLongContext       Capability = "long_context"
)

// KnownCapabilities lists every capability in canonical order.
var KnownCapabilities = []Capability{
	CapabilityChat,
	CapabilityFunctionCalling,
	CapabilityStructuredOutputs,
	CapabilityVision,
	CapabilityLongContext,
}

// ParseCapability resolves a capability name, case-insensitively.
func ParseCapability(name string) (Capability, error) {
	c := Capability(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(KnownCapabilities, c) {
		return "", fmt.Errorf("unknown capability %q", name)
	}
	return c, nil
}

// PerformanceTier is a coarse cost-based classification.
type PerformanceTier string

const (
	TierStandard PerformanceTier = "standard"
	TierPremium  PerformanceTier = "premium"
)

// Satisfies reports whether a model of tier t meets a requirement of tier
// want. Premium models satisfy a standard requirement, never the reverse.
func (t PerformanceTier) Satisfies(want PerformanceTier) bool {
	switch want {
	case "":
		return true
	case TierStandard:
		return t == TierStandard || t == TierPremium
	case TierPremium:
		return t == TierPremium
	default:
		return false
	}
}

// Strategy selects how qualifying models are ranked.
type Strategy string

const (
	StrategyCost        Strategy = "cost"
	StrategyPerformance Strategy = "performance"
	StrategyLatest      Strategy = "latest"
	StrategyContext     Strategy = "context"
)

// Strategies lists the accepted optimisation strategies.
var Strategies = []Strategy{StrategyCost, StrategyPerformance, StrategyLatest, StrategyContext}

func (s Strategy) Valid() bool {
	return slices.Contains(Strategies, s)
}

// CostPer1K holds input/output prices per 1000 tokens.
type CostPer1K struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// ModelSpec is the normalized view of one model in a registry snapshot.
type ModelSpec struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Description         string            `json:"description"`
	Provider            string            `json:"provider"`
	Cost                CostPer1K         `json:"cost_per_1k_tokens"`
	ContextLength       int               `json:"context_length"`
	Capabilities        []Capability      `json:"capabilities"`
	SupportedParameters []string          `json:"supported_parameters"`
	Architecture        ModelArchitecture `json:"architecture"`
	PerformanceTier     PerformanceTier   `json:"performance_tier"`
	Fallbacks           []string          `json:"fallbacks"`
	CreatedAt           int64             `json:"created_at"`
}

// Clone returns a copy that shares no slices with m.
func (m ModelSpec) Clone() ModelSpec {
	out := m
	out.Capabilities = slices.Clone(m.Capabilities)
	out.SupportedParameters = slices.Clone(m.SupportedParameters)
	out.Fallbacks = slices.Clone(m.Fallbacks)
	out.Architecture.InputModalities = slices.Clone(m.Architecture.InputModalities)
	out.Architecture.OutputModalities = slices.Clone(m.Architecture.OutputModalities)
	return out
}

// Has reports whether the model advertises capability c.
func (m ModelSpec) Has(c Capability) bool {
	return slices.Contains(m.Capabilities, c)
}

// ProviderOf returns the namespace part of a model id ("openai/gpt-4o" ->
// "openai"). Ids without a namespace are their own provider.
func ProviderOf(id string) string {
	if i := strings.IndexByte(id, '/'); i > 0 {
		return id[:i]
	}
	return id
}

// Requirements are the hard constraints a model must meet. Zero values mean
// the constraint is absent.
type Requirements struct {
	Capabilities     []Capability    `json:"capabilities"`
	MaxInputCost     *float64        `json:"max_input_cost,omitempty"`
	MaxOutputCost    *float64        `json:"max_output_cost,omitempty"`
	MinContextLength int             `json:"min_context_length,omitempty"`
	PerformanceTier  PerformanceTier `json:"performance_tier,omitempty"`
	PickNewer        bool            `json:"pick_newer,omitempty"`
	NewerThan        time.Time       `json:"newer_than,omitzero"`
}

// Clone returns a deep copy.
func (r Requirements) Clone() Requirements {
	out := r
	out.Capabilities = slices.Clone(r.Capabilities)
	if r.MaxInputCost != nil {
		v := *r.MaxInputCost
		out.MaxInputCost = &v
	}
	if r.MaxOutputCost != nil {
		v := *r.MaxOutputCost
		out.MaxOutputCost = &v
	}
	return out
}

type ProviderPreferences struct {
	Preferred        []string `json:"preferred"`
	Required         []string `json:"required"`
	AvoidedProviders []string `json:"avoided_providers"`
	AvoidedPatterns  []string `json:"avoided_patterns"`
}

func (p ProviderPreferences) Clone() ProviderPreferences {
	return ProviderPreferences{
		Preferred:        slices.Clone(p.Preferred),
		Required:         slices.Clone(p.Required),
		AvoidedProviders: slices.Clone(p.AvoidedProviders),
		AvoidedPatterns:  slices.Clone(p.AvoidedPatterns),
	}
}

// SelectionCriteria is the accumulated, immutable description of what makes
// a model acceptable and preferable.
type SelectionCriteria struct {
	Strategy     Strategy            `json:"strategy"`
	Requirements Requirements        `json:"requirements"`
	Providers    ProviderPreferences `json:"provider_preferences"`
}

func (c SelectionCriteria) Clone() SelectionCriteria {
	return SelectionCriteria{
		Strategy:     c.Strategy,
		Requirements: c.Requirements.Clone(),
		Providers:    c.Providers.Clone(),
	}
}

// Union appends the members of add that are not already in set, keeping
// first-seen order. The input slice is never modified.
func Union[T comparable](set []T, add ...T) []T {
	out := slices.Clone(set)
	for _, v := range add {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
