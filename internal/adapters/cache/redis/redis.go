package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nulzo/model-selector/internal/core/ports"
	"github.com/nulzo/model-selector/pkg/schema"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultKey is the redis key holding the encoded payload.
const DefaultKey = "model-selector:models"

// Store shares one snapshot payload between every process pointed at the
// same redis instance.
type Store struct {
	rdb *goredis.Client
	key string
	ttl time.Duration
}

// NewStore wraps an existing client. A zero ttl stores without expiry.
func NewStore(rdb *goredis.Client, key string, ttl time.Duration) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{rdb: rdb, key: key, ttl: ttl}
}

// Connect dials addr and verifies the connection with PING.
func Connect(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

var _ ports.SnapshotStore = (*Store)(nil)

func (s *Store) Load(ctx context.Context) (*schema.ModelsResponse, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	var data schema.ModelsResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode redis payload %s: %w", s.key, err)
	}
	return &data, nil
}

func (s *Store) Save(ctx context.Context, data *schema.ModelsResponse) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache payload: %w", err)
	}
	return s.rdb.Set(ctx, s.key, encoded, s.ttl).Err()
}

func (s *Store) Delete(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}
