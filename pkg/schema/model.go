package schema

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ModelsResponse is the body of the upstream model-listing endpoint and the
// content of the local cache.
type ModelsResponse struct {
	Data []RawModel `json:"data"`

	// Skipped counts entries dropped while decoding because they did not fit
	// the RawModel shape.
	Skipped int `json:"-"`
}

// UnmarshalJSON decodes entries one at a time so a single malformed record
// is skipped instead of failing the whole listing.
func (r *ModelsResponse) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	*r = ModelsResponse{}
	if envelope.Data == nil {
		return nil
	}
	r.Data = make([]RawModel, 0, len(envelope.Data))
	for _, entry := range envelope.Data {
		var m RawModel
		if err := json.Unmarshal(entry, &m); err != nil {
			r.Skipped++
			continue
		}
		r.Data = append(r.Data, m)
	}
	return nil
}

// RawModel is a single upstream model entry, OpenRouter aligned. Keys the
// struct does not model are kept in Extra and written back on encode, so a
// cached listing carries everything upstream sent.
type RawModel struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Description         string            `json:"description"`
	Created             int64             `json:"created"`
	ContextLength       int               `json:"context_length"`
	Pricing             RawPricing        `json:"pricing"`
	Architecture        ModelArchitecture `json:"architecture"`
	TopProvider         RawTopProvider    `json:"top_provider"`
	SupportedParameters []string          `json:"supported_parameters"`

	Extra map[string]json.RawMessage `json:"-"`
}

type rawModelFields RawModel

var rawModelKeys = []string{
	"id", "name", "description", "created", "context_length",
	"pricing", "architecture", "top_provider", "supported_parameters",
}

func (m RawModel) MarshalJSON() ([]byte, error) {
	return withExtra(rawModelFields(m), m.Extra)
}

func (m *RawModel) UnmarshalJSON(data []byte) error {
	var fields rawModelFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := unknownKeys(data, rawModelKeys)
	if err != nil {
		return err
	}
	fields.Extra = extra
	*m = RawModel(fields)
	return nil
}

// RawPricing keeps unmodelled price components (cache reads, web search,
// reasoning) in Extra.
type RawPricing struct {
	Prompt     Price `json:"prompt"`
	Completion Price `json:"completion"`
	Request    Price `json:"request,omitzero"`
	Image      Price `json:"image,omitzero"`

	Extra map[string]json.RawMessage `json:"-"`
}

type rawPricingFields RawPricing

var rawPricingKeys = []string{"prompt", "completion", "request", "image"}

func (p RawPricing) MarshalJSON() ([]byte, error) {
	return withExtra(rawPricingFields(p), p.Extra)
}

func (p *RawPricing) UnmarshalJSON(data []byte) error {
	var fields rawPricingFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := unknownKeys(data, rawPricingKeys)
	if err != nil {
		return err
	}
	fields.Extra = extra
	*p = RawPricing(fields)
	return nil
}

// unknownKeys returns the members of the JSON object data not named in
// known, or nil when there are none.
func unknownKeys(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// withExtra encodes v and merges extra into the resulting object. Modelled
// fields win over extra keys of the same name.
func withExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	encoded, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return encoded, err
	}

	merged := make(map[string]json.RawMessage, len(extra)+len(rawModelKeys))
	if err := json.Unmarshal(encoded, &merged); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = raw
		}
	}
	return json.Marshal(merged)
}

type ModelArchitecture struct {
	Modality         string   `json:"modality,omitempty"`
	InputModalities  []string `json:"input_modalities"`
	OutputModalities []string `json:"output_modalities"`
	Tokenizer        string   `json:"tokenizer,omitempty"`
	InstructType     string   `json:"instruct_type,omitempty"`
}

type RawTopProvider struct {
	ContextLength       int  `json:"context_length,omitempty"`
	MaxCompletionTokens int  `json:"max_completion_tokens,omitempty"`
	IsModerated         bool `json:"is_moderated"`
}

// Price is an upstream decimal. Providers quote prices as strings
// ("0.000002") but some mirrors emit bare numbers; both decode, and Price
// always re-encodes in the string form.
type Price struct {
	Value float64
}

func NewPrice(v float64) Price {
	return Price{Value: v}
}

func (p Price) String() string {
	return strconv.FormatFloat(p.Value, 'f', -1, 64)
}

func (p Price) IsZero() bool {
	return p.Value == 0
}

func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON never fails: anything that is not a number or a numeric
// string decodes to zero, so one bad price cannot reject the whole payload.
func (p *Price) UnmarshalJSON(data []byte) error {
	*p = Price{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	text := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		text = strings.TrimSpace(s)
	}

	if v, err := strconv.ParseFloat(text, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		p.Value = v
	}
	return nil
}
