package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nulzo/model-selector/internal/core/ports"
	"github.com/nulzo/model-selector/pkg/schema"
)

// MemoryStore keeps the encoded payload in process memory. It is used by
// tests and by single-process deployments that do not want a cache file.
type MemoryStore struct {
	value     []byte
	expiresAt time.Time
	ttl       time.Duration
	mu        sync.RWMutex
}

// NewMemoryStore returns a store whose payload expires after ttl; zero
// disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl}
}

var _ ports.SnapshotStore = (*MemoryStore)(nil)

func (c *MemoryStore) Load(ctx context.Context) (*schema.ModelsResponse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.value == nil {
		return nil, ports.ErrCacheMiss
	}

	if !c.expiresAt.IsZero() && time.Now().After(c.expiresAt) {
		return nil, ports.ErrCacheMiss
	}

	var data schema.ModelsResponse
	if err := json.Unmarshal(c.value, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *MemoryStore) Save(ctx context.Context, data *schema.ModelsResponse) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = encoded
	c.expiresAt = time.Time{}
	if c.ttl > 0 {
		c.expiresAt = time.Now().Add(c.ttl)
	}
	return nil
}

func (c *MemoryStore) Delete(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
	c.expiresAt = time.Time{}
	return nil
}

// SetRaw stores bytes verbatim, bypassing encoding. Tests use it to plant
// corrupt payloads.
func (c *MemoryStore) SetRaw(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = b
}
