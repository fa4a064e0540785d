package registry

import (
	"context"
	"testing"
	"time"

	"github.com/nulzo/model-selector/internal/adapters/cache/memory"
	"github.com/nulzo/model-selector/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FunctionCalling(t *testing.T) {
	spec, ok := Normalize(raw("v/m", 0.001, 0.002, 4096, 0, []string{"tools", "tool_choice", "temperature"}), DefaultPremiumThreshold)
	require.True(t, ok)
	assert.True(t, spec.Has(schema.CapabilityFunctionCalling))

	for _, params := range [][]string{{"tools"}, {"tool_choice"}, nil} {
		spec, ok := Normalize(raw("v/m", 0.001, 0.002, 4096, 0, params), DefaultPremiumThreshold)
		require.True(t, ok)
		assert.False(t, spec.Has(schema.CapabilityFunctionCalling), "%v", params)
	}
}

func TestNormalize_StructuredOutputs(t *testing.T) {
	for _, params := range [][]string{{"structured_outputs"}, {"response_format"}, {"RESPONSE_FORMAT"}} {
		spec, ok := Normalize(raw("v/m", 0, 0, 4096, 0, params), DefaultPremiumThreshold)
		require.True(t, ok)
		assert.True(t, spec.Has(schema.CapabilityStructuredOutputs), "%v", params)
	}

	spec, _ := Normalize(raw("v/m", 0, 0, 4096, 0, []string{"seed"}), DefaultPremiumThreshold)
	assert.False(t, spec.Has(schema.CapabilityStructuredOutputs))
}

func TestNormalize_VisionAndLongContext(t *testing.T) {
	spec, _ := Normalize(raw("v/m", 0, 0, 100_000, 0, nil, "text", "image"), DefaultPremiumThreshold)
	assert.True(t, spec.Has(schema.CapabilityVision))
	assert.False(t, spec.Has(schema.CapabilityLongContext), "threshold is exclusive")

	spec, _ = Normalize(raw("v/m", 0, 0, 100_001, 0, nil, "text"), DefaultPremiumThreshold)
	assert.False(t, spec.Has(schema.CapabilityVision))
	assert.True(t, spec.Has(schema.CapabilityLongContext))
}

func TestNormalize_ChatAlwaysPresent(t *testing.T) {
	spec, ok := Normalize(raw("v/m", 0, 0, 1, 0, nil), DefaultPremiumThreshold)
	require.True(t, ok)
	assert.Equal(t, []schema.Capability{schema.CapabilityChat}, spec.Capabilities)
}

func TestNormalize_PerformanceTier(t *testing.T) {
	cases := []struct {
		input float64
		want  schema.PerformanceTier
	}{
		{0.00002, schema.TierPremium},
		{0.000005, schema.TierStandard},
		{DefaultPremiumThreshold, schema.TierStandard}, // strictly greater
		{0.0000100001, schema.TierPremium},
		{0, schema.TierStandard},
	}
	for _, tc := range cases {
		spec, ok := Normalize(raw("v/m", tc.input, 0, 1000, 0, nil), DefaultPremiumThreshold)
		require.True(t, ok)
		assert.Equal(t, tc.want, spec.PerformanceTier, "input=%v", tc.input)
	}
}

func TestNormalize_SafeDefaults(t *testing.T) {
	_, ok := Normalize(schema.RawModel{ID: "", ContextLength: 1000}, DefaultPremiumThreshold)
	assert.False(t, ok, "missing id")

	_, ok = Normalize(schema.RawModel{ID: "v/m"}, DefaultPremiumThreshold)
	assert.False(t, ok, "missing context length")

	spec, ok := Normalize(raw("openrouter/auto", -1, -1, 2000000, 0, nil), DefaultPremiumThreshold)
	require.True(t, ok)
	assert.Zero(t, spec.Cost.Input)
	assert.Zero(t, spec.Cost.Output)
	assert.Equal(t, "openrouter/auto", spec.Name)
	assert.NotNil(t, spec.Fallbacks)
	assert.Empty(t, spec.Fallbacks)
}

func TestBuild_SkipsMalformedEntries(t *testing.T) {
	r := New(new(MockSource), nil)
	data := fixture()
	data.Data = append(data.Data,
		schema.RawModel{ID: "broken/no-context"},
		schema.RawModel{Name: "no id", ContextLength: 10},
	)

	snap := r.build(data)
	assert.Equal(t, 3, snap.Len())
}

func TestEnsureLoaded_SkipsUndecodableCachedEntries(t *testing.T) {
	store := memory.NewMemoryStore(0)
	store.SetRaw([]byte(`{"data":[
		{"id":"vendor/a","context_length":32000,"pricing":{"prompt":"0.002","completion":"0.004"}},
		{"id":"vendor/broken","context_length":"128000"},
		{"id":"vendor/b","context_length":128000,"pricing":{"prompt":"0.01","completion":"0.03"}}
	]}`))
	src := new(MockSource)

	snap, err := New(src, store).EnsureLoaded(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len())
	assert.True(t, snap.Exists("vendor/a"))
	assert.False(t, snap.Exists("vendor/broken"))
	src.AssertNotCalled(t, "FetchModels", mock.Anything)
}

func TestSnapshot_MatchingPredicate(t *testing.T) {
	// with this cutoff only vendor/b is premium
	snap := New(new(MockSource), nil, WithPremiumThreshold(0.005)).build(fixture())

	cheapOut := 0.005
	ids := func(specs []schema.ModelSpec) []string {
		var out []string
		for _, s := range specs {
			out = append(out, s.ID)
		}
		return out
	}

	assert.Equal(t, []string{"vendor/a", "vendor/b", "other/c"}, ids(snap.Matching(schema.Requirements{})))
	assert.Equal(t, []string{"vendor/a", "other/c"}, ids(snap.Matching(schema.Requirements{MaxOutputCost: &cheapOut})))
	assert.Equal(t, []string{"vendor/b"}, ids(snap.Matching(schema.Requirements{MinContextLength: 64000})))
	assert.Equal(t, []string{"vendor/b"}, ids(snap.Matching(schema.Requirements{PerformanceTier: schema.TierPremium})))
	assert.Len(t, snap.Matching(schema.Requirements{PerformanceTier: schema.TierStandard}), 3)

	since := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC) // after c, before a
	assert.Equal(t, []string{"vendor/a", "vendor/b"}, ids(snap.Matching(schema.Requirements{NewerThan: since})))
}

func TestSnapshot_BestTieKeepsInsertionOrder(t *testing.T) {
	snap := NewSnapshot([]schema.ModelSpec{
		{ID: "x/first", Cost: schema.CostPer1K{Input: 0.001}, Capabilities: []schema.Capability{schema.CapabilityChat}},
		{ID: "x/second", Cost: schema.CostPer1K{Input: 0.001}, Capabilities: []schema.Capability{schema.CapabilityChat}},
	})
	best, ok := snap.Best(schema.Requirements{})
	require.True(t, ok)
	assert.Equal(t, "x/first", best.ID)
}

func TestSnapshot_BestNewerTieBreaksOnCost(t *testing.T) {
	snap := NewSnapshot([]schema.ModelSpec{
		{ID: "x/pricey", CreatedAt: 100, Cost: schema.CostPer1K{Input: 0.01}},
		{ID: "x/cheap", CreatedAt: 100, Cost: schema.CostPer1K{Input: 0.001}},
		{ID: "x/old", CreatedAt: 50, Cost: schema.CostPer1K{Input: 0.0001}},
	})
	best, ok := snap.Best(schema.Requirements{PickNewer: true})
	require.True(t, ok)
	assert.Equal(t, "x/cheap", best.ID)
}
