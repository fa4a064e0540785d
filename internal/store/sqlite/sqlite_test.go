package sqlite

import (
	"context"
	"testing"

	"github.com/nulzo/model-selector/internal/core/ports"
	"github.com/nulzo/model-selector/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRepo(t *testing.T) *SqliteRepository {
	t.Helper()
	repo, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func payload(ids ...string) *schema.ModelsResponse {
	data := &schema.ModelsResponse{}
	for _, id := range ids {
		data.Data = append(data.Data, schema.RawModel{
			ID:            id,
			ContextLength: 8192,
			Pricing:       schema.RawPricing{Prompt: schema.NewPrice(0.001), Completion: schema.NewPrice(0.002)},
		})
	}
	return data
}

func TestSnapshotStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore(openTestRepo(t), 0, 0)

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrCacheMiss)

	data := payload("openai/gpt-4o", "anthropic/claude-3.5-sonnet")
	require.NoError(t, s.Save(ctx, data))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, data, loaded)
}

func TestSnapshotStore_LatestWinsAndPrunes(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore(openTestRepo(t), 2, 0)

	require.NoError(t, s.Save(ctx, payload("a/1")))
	require.NoError(t, s.Save(ctx, payload("a/1", "a/2")))
	require.NoError(t, s.Save(ctx, payload("a/1", "a/2", "a/3")))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Data, 3)

	history, err := s.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 3, history[0].ModelsCount)
	assert.Equal(t, 2, history[1].ModelsCount)
}

func TestSnapshotStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore(openTestRepo(t), 0, 0)

	require.NoError(t, s.Save(ctx, payload("a/1")))
	require.NoError(t, s.Delete(ctx))

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrCacheMiss)
}
