package api

import (
	"time"

	"github.com/nulzo/model-selector/pkg/schema"
)

type ModelList struct {
	Object string             `json:"object"`
	Data   []schema.ModelSpec `json:"data"`
}

// ScoredModel is a ranked id with the value it was ranked by.
type ScoredModel struct {
	ID     string  `json:"id"`
	Metric string  `json:"metric"`
	Score  float64 `json:"score"`
}

type SelectResponse struct {
	// nil when nothing qualifies
	Model *string `json:"model"`

	Ranked []string      `json:"ranked"`
	Scores []ScoredModel `json:"scores,omitempty"`

	// ranked alternatives to try after Model, in order
	Fallbacks []string `json:"fallbacks"`

	// constraints dropped to find Model when relax was requested
	Relaxed []string `json:"relaxed,omitempty"`

	Criteria schema.SelectionCriteria `json:"criteria"`
}

type FallbacksResponse struct {
	ID        string   `json:"id"`
	Fallbacks []string `json:"fallbacks"`
}

type EstimateResponse struct {
	Model         string  `json:"model"`
	InputTokens   int     `json:"input_tokens"`
	OutputTokens  int     `json:"output_tokens"`
	EstimatedCost float64 `json:"estimated_cost"`
}

type RefreshResponse struct {
	Models   int       `json:"models"`
	LoadedAt time.Time `json:"loaded_at"`
}

// HistoryEntry describes one persisted listing.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	ModelsCount int       `json:"models_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type HistoryResponse struct {
	Data []HistoryEntry `json:"data"`
}

type HealthResponse struct {
	Status   string     `json:"status"`
	Version  string     `json:"version"`
	Models   int        `json:"models"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}
