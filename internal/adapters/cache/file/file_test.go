package file

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nulzo/model-selector/internal/core/ports"
	"github.com/nulzo/model-selector/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func samplePayload() *schema.ModelsResponse {
	return &schema.ModelsResponse{Data: []schema.RawModel{
		{
			ID:            "openai/gpt-4o",
			Name:          "GPT-4o",
			Created:       1715558400,
			ContextLength: 128000,
			Pricing: schema.RawPricing{
				Prompt:     schema.NewPrice(0.0000025),
				Completion: schema.NewPrice(0.00001),
			},
			Architecture: schema.ModelArchitecture{
				InputModalities:  []string{"text", "image"},
				OutputModalities: []string{"text"},
			},
			SupportedParameters: []string{"tools", "tool_choice", "response_format"},
		},
	}}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(filepath.Join(t.TempDir(), "nested", "models.json"), 0)

	data := samplePayload()
	require.NoError(t, store.Save(ctx, data))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, data, loaded)

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"data\": [") // pretty printed
}

func TestStore_MissingAndDeleted(t *testing.T) {
	ctx := context.Background()
	store := NewStore(filepath.Join(t.TempDir(), "models.json"), 0)

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrCacheMiss)

	require.NoError(t, store.Save(ctx, samplePayload()))
	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Delete(ctx)) // idempotent

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrCacheMiss)
}

func TestStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewStore(path, 0).Load(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrCacheMiss)
}

func TestStore_Expired(t *testing.T) {
	ctx := context.Background()
	store := NewStore(filepath.Join(t.TempDir(), "models.json"), time.Hour)
	require.NoError(t, store.Save(ctx, samplePayload()))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path(), old, old))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrCacheMiss)
}

func TestStore_WatchReportsExternalWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "models.json")
	store := NewStore(path, 0)

	var changes atomic.Int32
	require.NoError(t, store.Watch(ctx, zap.NewNop(), func() { changes.Add(1) }))

	// a second store on the same path stands in for another process
	other := NewStore(path, 0)
	require.NoError(t, other.Save(ctx, samplePayload()))

	assert.Eventually(t, func() bool { return changes.Load() > 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestStore_WatchIgnoresOwnWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "models.json")
	store := NewStore(path, 0)

	var changes atomic.Int32
	require.NoError(t, store.Watch(ctx, zap.NewNop(), func() { changes.Add(1) }))

	require.NoError(t, store.Save(ctx, samplePayload()))
	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Save(ctx, samplePayload()))
	assert.Never(t, func() bool { return changes.Load() > 0 }, 300*time.Millisecond, 20*time.Millisecond)

	bigger := samplePayload()
	bigger.Data = append(bigger.Data, bigger.Data[0])
	bigger.Data[1].ID = "openai/gpt-4o-mini"
	require.NoError(t, NewStore(path, 0).Save(ctx, bigger))
	assert.Eventually(t, func() bool { return changes.Load() > 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestStore_PersistsUnknownUpstreamFields(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "models.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data":[{"id":"openai/gpt-4o","canonical_slug":"openai/gpt-4o-2024-05-13","context_length":128000,"pricing":{"prompt":"0.0000025","completion":"0.00001","web_search":"0.01"}}]}`), 0o644))

	store := NewStore(path, 0)
	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, loaded))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"canonical_slug": "openai/gpt-4o-2024-05-13"`)
	assert.Contains(t, string(raw), `"web_search": "0.01"`)
}
