package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nulzo/model-selector/internal/core/ports"
	"github.com/nulzo/model-selector/pkg/schema"
)

// DefaultPath is where the payload lives relative to the working directory.
const DefaultPath = ".cache/model-selector/models.json"

// Store persists the raw listing as pretty-printed JSON in a single file.
type Store struct {
	path string
	ttl  time.Duration

	mu   sync.Mutex
	last *stamp // file state produced by this store's latest Save or Delete
}

// stamp identifies one state of the cache file.
type stamp struct {
	exists  bool
	size    int64
	modTime time.Time
}

func (a stamp) same(b stamp) bool {
	if a.exists != b.exists {
		return false
	}
	return !a.exists || (a.size == b.size && a.modTime.Equal(b.modTime))
}

func (s *Store) remember(st *stamp) {
	s.mu.Lock()
	s.last = st
	s.mu.Unlock()
}

// ownState reports whether the file on disk is exactly what this store last
// wrote or removed.
func (s *Store) ownState() bool {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		return false
	}

	cur := stamp{}
	info, err := os.Stat(s.path)
	switch {
	case err == nil:
		cur = stamp{exists: true, size: info.Size(), modTime: info.ModTime()}
	case !errors.Is(err, fs.ErrNotExist):
		return false
	}
	return last.same(cur)
}

// NewStore returns a store at path. A positive ttl makes files older than
// ttl read as a miss.
func NewStore(path string, ttl time.Duration) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path, ttl: ttl}
}

var _ ports.SnapshotStore = (*Store)(nil)

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(ctx context.Context) (*schema.ModelsResponse, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	if s.ttl > 0 && time.Since(info.ModTime()) > s.ttl {
		return nil, ports.ErrCacheMiss
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var data schema.ModelsResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode cache file %s: %w", s.path, err)
	}
	return &data, nil
}

// Save writes through a temporary file and renames it into place so readers
// never observe a partial payload.
func (s *Store) Save(ctx context.Context, data *schema.ModelsResponse) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache payload: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".models-*.json")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// rename keeps size and mtime, so the stamp is known before the watcher
	// can see the new file
	info, err := os.Stat(tmp.Name())
	if err != nil {
		return err
	}
	s.remember(&stamp{exists: true, size: info.Size(), modTime: info.ModTime()})
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		s.remember(nil)
		return err
	}
	return nil
}

func (s *Store) Delete(ctx context.Context) error {
	s.remember(&stamp{})
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.remember(nil)
		return err
	}
	return nil
}
