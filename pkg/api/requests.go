package api

import "github.com/nulzo/model-selector/pkg/schema"

// SelectRequest describes a selection over the HTTP surface. Every field is
// optional; an empty body picks the cheapest known model.
type SelectRequest struct {
	// ranking strategy, defaults to `cost`
	Strategy schema.Strategy `json:"strategy,omitempty" binding:"omitempty,oneof=cost performance latest context"`

	// required capabilities, e.g. ["function_calling", "vision"]
	Capabilities []string `json:"capabilities,omitempty" binding:"omitempty,dive,capability"`

	// per-1k token price caps
	MaxInputCost  *float64 `json:"max_input_cost,omitempty" binding:"omitempty,gt=0"`
	MaxOutputCost *float64 `json:"max_output_cost,omitempty" binding:"omitempty,gt=0"`

	MinContext int `json:"min_context,omitempty" binding:"omitempty,gt=0"`

	// "YYYY-MM-DD" or RFC3339; only models created on or after that day qualify
	NewerThan string `json:"newer_than,omitempty"`

	// provider namespaces ("openai", "anthropic")
	Prefer  []string `json:"prefer,omitempty" binding:"omitempty,dive,required"`
	Require []string `json:"require,omitempty" binding:"omitempty,dive,required"`
	Avoid   []string `json:"avoid,omitempty" binding:"omitempty,dive,required"`

	// glob patterns matched against model ids, e.g. "*-preview"
	AvoidPatterns []string `json:"avoid_patterns,omitempty"`

	// length of ranked and fallbacks, defaults to 5
	Limit int `json:"limit,omitempty" binding:"omitempty,min=1,max=100"`

	IncludeScores bool `json:"include_scores,omitempty"`

	// walk the relaxation ladder when nothing matches exactly
	Relax bool `json:"relax,omitempty"`
}

type EstimateRequest struct {
	Model        string `json:"model" binding:"required"`
	InputTokens  int    `json:"input_tokens" binding:"min=0"`
	OutputTokens int    `json:"output_tokens" binding:"min=0"`
}
