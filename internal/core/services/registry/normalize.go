package registry

import (
	"slices"
	"strings"

	"github.com/nulzo/model-selector/pkg/schema"
)

const (
	// DefaultPremiumThreshold is the input price above which a model is
	// classed as premium. Override it with WithPremiumThreshold.
	DefaultPremiumThreshold = 0.00001

	// LongContextThreshold is the context length a model must exceed to
	// advertise long_context.
	LongContextThreshold = 100_000
)

// Normalize converts one raw upstream entry into a ModelSpec. It reports
// false for entries that cannot be served: no id, or no usable context
// window.
func Normalize(raw schema.RawModel, premiumThreshold float64) (schema.ModelSpec, bool) {
	id := strings.TrimSpace(raw.ID)
	if id == "" || raw.ContextLength <= 0 {
		return schema.ModelSpec{}, false
	}

	params := make([]string, 0, len(raw.SupportedParameters))
	for _, p := range raw.SupportedParameters {
		params = append(params, strings.ToLower(strings.TrimSpace(p)))
	}

	cost := schema.CostPer1K{
		Input:  nonNegative(raw.Pricing.Prompt.Value),
		Output: nonNegative(raw.Pricing.Completion.Value),
	}

	name := raw.Name
	if name == "" {
		name = id
	}

	return schema.ModelSpec{
		ID:                  id,
		Name:                name,
		Description:         raw.Description,
		Provider:            schema.ProviderOf(id),
		Cost:                cost,
		ContextLength:       raw.ContextLength,
		Capabilities:        capabilitiesOf(params, raw.Architecture, raw.ContextLength),
		SupportedParameters: slices.Clone(raw.SupportedParameters),
		Architecture:        raw.Architecture,
		PerformanceTier:     tierOf(cost.Input, premiumThreshold),
		Fallbacks:           fallbacksOf(id, raw),
		CreatedAt:           raw.Created,
	}, true
}

func capabilitiesOf(params []string, arch schema.ModelArchitecture, contextLength int) []schema.Capability {
	caps := []schema.Capability{schema.CapabilityChat}

	if slices.Contains(params, "tools") && slices.Contains(params, "tool_choice") {
		caps = append(caps, schema.CapabilityFunctionCalling)
	}
	if slices.Contains(params, "structured_outputs") || slices.Contains(params, "response_format") {
		caps = append(caps, schema.CapabilityStructuredOutputs)
	}
	if slices.ContainsFunc(arch.InputModalities, func(m string) bool {
		return strings.EqualFold(strings.TrimSpace(m), "image")
	}) {
		caps = append(caps, schema.CapabilityVision)
	}
	if contextLength > LongContextThreshold {
		caps = append(caps, schema.CapabilityLongContext)
	}

	return caps
}

func tierOf(inputCost, threshold float64) schema.PerformanceTier {
	if inputCost > threshold {
		return schema.TierPremium
	}
	return schema.TierStandard
}

// fallbacksOf is reserved for curated substitute chains; upstream metadata
// carries none today.
func fallbacksOf(string, schema.RawModel) []string {
	return []string{}
}

// Upstream uses negative prices as a "variable pricing" sentinel.
func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
