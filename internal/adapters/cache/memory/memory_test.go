package memory

import (
	"context"
	"testing"
	"time"

	"github.com/nulzo/model-selector/internal/core/ports"
	"github.com/nulzo/model-selector/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrCacheMiss)

	data := &schema.ModelsResponse{Data: []schema.RawModel{{ID: "a/b", ContextLength: 10}}}
	require.NoError(t, store.Save(ctx, data))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, data, loaded)

	require.NoError(t, store.Delete(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrCacheMiss)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Millisecond)
	require.NoError(t, store.Save(ctx, &schema.ModelsResponse{}))

	time.Sleep(5 * time.Millisecond)
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrCacheMiss)
}

func TestMemoryStore_Corrupt(t *testing.T) {
	store := NewMemoryStore(0)
	store.SetRaw([]byte("garbage"))

	_, err := store.Load(context.Background())
	assert.Error(t, err)
}
