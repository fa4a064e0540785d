package store

import (
	"context"

	"github.com/nulzo/model-selector/internal/store/model"
)

// Repository is the main contract for the data layer.
type Repository interface {
	Snapshots() SnapshotRepository

	// transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

type SnapshotRepository interface {
	// Latest returns the newest snapshot, or sql.ErrNoRows when there is none.
	Latest(ctx context.Context) (*model.Snapshot, error)
	// Insert stores a snapshot and fills in its ID.
	Insert(ctx context.Context, snap *model.Snapshot) error
	// Prune keeps the newest keep snapshots and deletes the rest.
	Prune(ctx context.Context, keep int) error
	// DeleteAll removes every snapshot.
	DeleteAll(ctx context.Context) error
	// History lists snapshot metadata, newest first, without payloads.
	History(ctx context.Context, limit int) ([]model.Snapshot, error)
}
