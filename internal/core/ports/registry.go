package ports

import (
	"context"
	"errors"

	"github.com/nulzo/model-selector/pkg/schema"
)

// ErrCacheMiss is returned by a SnapshotStore that holds no payload.
var ErrCacheMiss = errors.New("snapshot cache miss")

// ModelSource reads the raw model listing from the upstream routing API.
type ModelSource interface {
	// FetchModels performs one read of the listing endpoint.
	FetchModels(ctx context.Context) (*schema.ModelsResponse, error)

	// Endpoint is used for error reporting and logs.
	Endpoint() string
}

// SnapshotStore persists the last fetched raw payload between processes.
type SnapshotStore interface {
	// Load returns the stored payload, ErrCacheMiss when absent, or a decode
	// error when the stored content is corrupt.
	Load(ctx context.Context) (*schema.ModelsResponse, error)

	// Save overwrites any previously stored payload.
	Save(ctx context.Context, data *schema.ModelsResponse) error

	// Delete removes the stored payload. Deleting an absent payload is not an error.
	Delete(ctx context.Context) error
}

// Recorder receives registry and selection events. Implementations must be
// safe for concurrent use.
type Recorder interface {
	FetchCompleted(success bool)
	CacheLookup(hit bool)
	SnapshotLoaded(models int)
	SelectionResolved(strategy schema.Strategy, matched bool)
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) FetchCompleted(bool) {}
func (NopRecorder) CacheLookup(bool) {}
func (NopRecorder) SnapshotLoaded(int) {}
func (NopRecorder) SelectionResolved(schema.Strategy, bool) {}
