package model

import "time"

// Snapshot is one persisted upstream listing.
type Snapshot struct {
	ID          int64     `db:"id" json:"id"`
	Payload     string    `db:"payload" json:"-"`
	ModelsCount int       `db:"models_count" json:"models_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
