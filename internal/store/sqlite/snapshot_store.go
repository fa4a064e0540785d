package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nulzo/model-selector/internal/core/ports"
	"github.com/nulzo/model-selector/internal/store"
	"github.com/nulzo/model-selector/internal/store/model"
	"github.com/nulzo/model-selector/pkg/schema"
)

// DefaultHistory is how many snapshots SnapshotStore retains.
const DefaultHistory = 10

// SnapshotStore adapts a Repository to ports.SnapshotStore. Every save is a
// new row, so past listings stay queryable through History.
type SnapshotStore struct {
	repo    store.Repository
	history int
	ttl     time.Duration
}

func NewSnapshotStore(repo store.Repository, history int, ttl time.Duration) *SnapshotStore {
	if history <= 0 {
		history = DefaultHistory
	}
	return &SnapshotStore{repo: repo, history: history, ttl: ttl}
}

var _ ports.SnapshotStore = (*SnapshotStore)(nil)

func (s *SnapshotStore) Load(ctx context.Context) (*schema.ModelsResponse, error) {
	snap, err := s.repo.Snapshots().Latest(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}
	if s.ttl > 0 && time.Since(snap.CreatedAt) > s.ttl {
		return nil, ports.ErrCacheMiss
	}

	var data schema.ModelsResponse
	if err := json.Unmarshal([]byte(snap.Payload), &data); err != nil {
		return nil, fmt.Errorf("decode snapshot %d: %w", snap.ID, err)
	}
	return &data, nil
}

func (s *SnapshotStore) Save(ctx context.Context, data *schema.ModelsResponse) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache payload: %w", err)
	}

	snap := &model.Snapshot{
		Payload:     string(encoded),
		ModelsCount: len(data.Data),
		CreatedAt:   time.Now().UTC(),
	}

	return s.repo.WithTx(ctx, func(repo store.Repository) error {
		if err := repo.Snapshots().Insert(ctx, snap); err != nil {
			return err
		}
		return repo.Snapshots().Prune(ctx, s.history)
	})
}

func (s *SnapshotStore) Delete(ctx context.Context) error {
	return s.repo.Snapshots().DeleteAll(ctx)
}

// History lists retained snapshots, newest first.
func (s *SnapshotStore) History(ctx context.Context, limit int) ([]model.Snapshot, error) {
	return s.repo.Snapshots().History(ctx, limit)
}
