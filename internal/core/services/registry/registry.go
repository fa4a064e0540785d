package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/nulzo/model-selector/internal/core/domain"
	"github.com/nulzo/model-selector/internal/core/ports"
	"github.com/nulzo/model-selector/pkg/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const tracerName = "github.com/nulzo/model-selector/registry"

// Registry owns the process-wide model snapshot. It populates lazily from
// the snapshot store, falling back to the upstream source, and serves the
// in-memory snapshot until it is invalidated or refreshed.
type Registry struct {
	source    ports.ModelSource
	store     ports.SnapshotStore
	logger    *zap.Logger
	recorder  ports.Recorder
	tracer    trace.Tracer
	threshold float64

	mu       sync.RWMutex
	snapshot *Snapshot
	flight   singleflight.Group
}

type Option func(*Registry)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithRecorder(rec ports.Recorder) Option {
	return func(r *Registry) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithPremiumThreshold overrides DefaultPremiumThreshold.
func WithPremiumThreshold(threshold float64) Option {
	return func(r *Registry) {
		r.threshold = threshold
	}
}

// New builds a registry. store may be nil, in which case nothing is
// persisted and every population reads from source.
func New(source ports.ModelSource, store ports.SnapshotStore, opts ...Option) *Registry {
	r := &Registry{
		source:    source,
		store:     store,
		logger:    zap.NewNop(),
		recorder:  ports.NopRecorder{},
		tracer:    otel.Tracer(tracerName),
		threshold: DefaultPremiumThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recorder exposes the event sink so collaborators report to the same place.
func (r *Registry) Recorder() ports.Recorder {
	return r.recorder
}

// PremiumThreshold is the tier cutoff this registry normalizes with.
func (r *Registry) PremiumThreshold() float64 {
	return r.threshold
}

// Normalize applies this registry's derivation rules to one raw entry.
func (r *Registry) Normalize(raw schema.RawModel) (schema.ModelSpec, bool) {
	return Normalize(raw, r.threshold)
}

// FetchRemote reads the upstream listing. Every failure is reported as a
// *domain.RegistryFetchError.
func (r *Registry) FetchRemote(ctx context.Context) (*schema.ModelsResponse, error) {
	ctx, span := r.tracer.Start(ctx, "registry.fetch_remote")
	defer span.End()

	data, err := r.source.FetchModels(ctx)
	if err == nil && data == nil {
		err = errors.New("empty response body")
	}
	if err != nil {
		r.recorder.FetchCompleted(false)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")

		var fetchErr *domain.RegistryFetchError
		if !errors.As(err, &fetchErr) {
			fetchErr = &domain.RegistryFetchError{URL: r.source.Endpoint(), Err: err}
		}
		r.logger.Error("Model metadata fetch failed", zap.String("url", fetchErr.URL), zap.Error(err))
		return nil, fetchErr
	}

	r.recorder.FetchCompleted(true)
	span.SetAttributes(attribute.Int("models.raw", len(data.Data)))
	r.logger.Info("Fetched model metadata", zap.String("url", r.source.Endpoint()), zap.Int("models_count", len(data.Data)))
	return data, nil
}

// LoadCache returns the persisted payload, or nil when it is absent,
// expired, empty or corrupt. It never fails.
func (r *Registry) LoadCache(ctx context.Context) *schema.ModelsResponse {
	if r.store == nil {
		return nil
	}

	data, err := r.store.Load(ctx)
	switch {
	case errors.Is(err, ports.ErrCacheMiss):
		r.logger.Debug("Model cache miss")
		data = nil
	case err != nil:
		r.logger.Warn("Ignoring unreadable model cache", zap.Error(err))
		data = nil
	case data != nil && len(data.Data) == 0:
		// an empty listing would pin the registry to nothing until invalidated
		data = nil
	}

	r.recorder.CacheLookup(data != nil)
	return data
}

// SaveCache overwrites the persisted payload.
func (r *Registry) SaveCache(ctx context.Context, data *schema.ModelsResponse) error {
	if r.store == nil || data == nil {
		return nil
	}
	return r.store.Save(ctx, data)
}

// EnsureLoaded returns the current snapshot, populating it on first use.
// Until Invalidate or Refresh, repeated calls return the same instance.
// Concurrent first calls share a single population.
func (r *Registry) EnsureLoaded(ctx context.Context) (*Snapshot, error) {
	if s := r.current(); s != nil {
		return s, nil
	}

	v, err, _ := r.flight.Do("populate", func() (interface{}, error) {
		if s := r.current(); s != nil {
			return s, nil
		}

		ctx, span := r.tracer.Start(ctx, "registry.populate")
		defer span.End()

		data := r.LoadCache(ctx)
		source := "cache"
		if data == nil {
			fetched, err := r.FetchRemote(ctx)
			if err != nil {
				span.SetStatus(codes.Error, "populate failed")
				return nil, err
			}
			if err := r.SaveCache(ctx, fetched); err != nil {
				r.logger.Warn("Failed to persist model cache", zap.Error(err))
			}
			data = fetched
			source = "remote"
		}

		s := r.build(data)
		r.install(s)
		span.SetAttributes(attribute.String("source", source), attribute.Int("models", s.Len()))
		r.logger.Info("Model registry loaded", zap.String("source", source), zap.Int("models_count", s.Len()))
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Refresh discards the persisted and in-memory snapshot and repopulates
// from the upstream source unconditionally.
func (r *Registry) Refresh(ctx context.Context) (*Snapshot, error) {
	ctx, span := r.tracer.Start(ctx, "registry.refresh")
	defer span.End()

	if err := r.Invalidate(ctx); err != nil {
		r.logger.Warn("Failed to drop model cache before refresh", zap.Error(err))
	}

	data, err := r.FetchRemote(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "refresh failed")
		return nil, err
	}
	if err := r.SaveCache(ctx, data); err != nil {
		r.logger.Warn("Failed to persist model cache", zap.Error(err))
	}

	s := r.build(data)
	r.install(s)
	r.logger.Info("Model registry refreshed", zap.Int("models_count", s.Len()))
	return s, nil
}

// Invalidate drops the in-memory snapshot and the persisted payload without
// repopulating.
func (r *Registry) Invalidate(ctx context.Context) error {
	r.mu.Lock()
	r.snapshot = nil
	r.mu.Unlock()

	if r.store == nil {
		return nil
	}
	return r.store.Delete(ctx)
}

// Forget drops only the in-memory snapshot so the next call re-reads the
// persisted payload. Used when another process has rewritten the cache.
func (r *Registry) Forget() {
	r.mu.Lock()
	r.snapshot = nil
	r.mu.Unlock()
}

func (r *Registry) ModelExists(ctx context.Context, id string) (bool, error) {
	s, err := r.EnsureLoaded(ctx)
	if err != nil {
		return false, err
	}
	return s.Exists(id), nil
}

// GetModelInfo returns nil without error for unknown ids.
func (r *Registry) GetModelInfo(ctx context.Context, id string) (*schema.ModelSpec, error) {
	s, err := r.EnsureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if m, ok := s.Get(id); ok {
		return &m, nil
	}
	return nil, nil
}

func (r *Registry) GetFallbacks(ctx context.Context, id string) ([]string, error) {
	s, err := r.EnsureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return s.Fallbacks(id), nil
}

func (r *Registry) ModelsMeetingRequirements(ctx context.Context, req schema.Requirements) ([]schema.ModelSpec, error) {
	s, err := r.EnsureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	matching := s.Matching(req)
	for i := range matching {
		matching[i] = matching[i].Clone()
	}
	return matching, nil
}

// FindBestModel returns nil without error when nothing qualifies.
func (r *Registry) FindBestModel(ctx context.Context, req schema.Requirements) (*schema.ModelSpec, error) {
	s, err := r.EnsureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if m, ok := s.Best(req); ok {
		m = m.Clone()
		return &m, nil
	}
	return nil, nil
}

func (r *Registry) CalculateEstimatedCost(ctx context.Context, id string, inputTokens, outputTokens int) (float64, error) {
	s, err := r.EnsureLoaded(ctx)
	if err != nil {
		return 0, err
	}
	return s.EstimateCost(id, inputTokens, outputTokens), nil
}

// Loaded returns the in-memory snapshot without populating it. It is nil
// before the first load and after Invalidate.
func (r *Registry) Loaded() *Snapshot {
	return r.current()
}

func (r *Registry) current() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

func (r *Registry) install(s *Snapshot) {
	r.mu.Lock()
	r.snapshot = s
	r.mu.Unlock()
	r.recorder.SnapshotLoaded(s.Len())
}

func (r *Registry) build(data *schema.ModelsResponse) *Snapshot {
	specs := make([]schema.ModelSpec, 0, len(data.Data))
	skipped := 0
	for _, raw := range data.Data {
		spec, ok := r.Normalize(raw)
		if !ok {
			skipped++
			r.logger.Debug("Skipping unusable model entry", zap.String("id", raw.ID), zap.Int("context_length", raw.ContextLength))
			continue
		}
		specs = append(specs, spec)
	}
	if skipped > 0 || data.Skipped > 0 {
		r.logger.Warn("Skipped malformed model entries",
			zap.Int("skipped", skipped),
			zap.Int("undecodable", data.Skipped),
		)
	}
	return NewSnapshot(specs)
}
