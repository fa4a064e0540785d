package sqlite

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/nulzo/model-selector/internal/store"
	"github.com/nulzo/model-selector/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &SqliteRepository{
		db:       r.db,
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Snapshots() store.SnapshotRepository {
	return &snapshotRepo{db: r.executor}
}

type snapshotRepo struct {
	db DB
}

func (r *snapshotRepo) Latest(ctx context.Context) (*model.Snapshot, error) {
	var snap model.Snapshot
	query := `SELECT id, payload, models_count, created_at FROM model_snapshots ORDER BY id DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &snap, query); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *snapshotRepo) Insert(ctx context.Context, snap *model.Snapshot) error {
	query := `
	INSERT INTO model_snapshots (payload, models_count, created_at)
	VALUES (:payload, :models_count, :created_at)`
	res, err := r.db.NamedExecContext(ctx, query, snap)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	snap.ID = id
	return nil
}

func (r *snapshotRepo) Prune(ctx context.Context, keep int) error {
	query := `
	DELETE FROM model_snapshots
	WHERE id NOT IN (SELECT id FROM model_snapshots ORDER BY id DESC LIMIT ?)`
	_, err := r.db.ExecContext(ctx, query, keep)
	return err
}

func (r *snapshotRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM model_snapshots`)
	return err
}

func (r *snapshotRepo) History(ctx context.Context, limit int) ([]model.Snapshot, error) {
	var snaps []model.Snapshot
	query := `SELECT id, models_count, created_at FROM model_snapshots ORDER BY id DESC LIMIT ?`
	err := r.db.SelectContext(ctx, &snaps, query, limit)
	return snaps, err
}
