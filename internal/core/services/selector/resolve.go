package selector

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/nulzo/model-selector/internal/core/services/registry"
	"github.com/nulzo/model-selector/pkg/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/nulzo/model-selector/selector")

// ScoredModel is a ranked candidate together with the value it was ranked by.
type ScoredModel struct {
	ID     string  `json:"id"`
	Metric string  `json:"metric"`
	Score  float64 `json:"score"`
}

// Choose returns the best model id, or "" when nothing qualifies.
func (s Selector) Choose(ctx context.Context) (string, error) {
	ranked, err := s.resolve(ctx, "selector.choose", 1)
	if err != nil || len(ranked) == 0 {
		return "", err
	}
	return ranked[0].ID, nil
}

// ChooseMultiple returns up to limit model ids, best first. A limit of zero
// or less returns every qualifying model.
func (s Selector) ChooseMultiple(ctx context.Context, limit int) ([]string, error) {
	ranked, err := s.resolve(ctx, "selector.choose_multiple", limit)
	if err != nil {
		return nil, err
	}
	return ids(ranked), nil
}

// ChooseScored is ChooseMultiple with the ranking metric attached.
func (s Selector) ChooseScored(ctx context.Context, limit int) ([]ScoredModel, error) {
	ranked, err := s.resolve(ctx, "selector.choose_scored", limit)
	if err != nil {
		return nil, err
	}
	metric, score := s.metric()
	out := make([]ScoredModel, 0, len(ranked))
	for _, m := range ranked {
		out = append(out, ScoredModel{ID: m.ID, Metric: metric, Score: score(m)})
	}
	return out, nil
}

// ChooseWithFallbacks returns an ordered failover list. It is never nil.
func (s Selector) ChooseWithFallbacks(ctx context.Context, limit int) ([]string, error) {
	ranked, err := s.resolve(ctx, "selector.choose_with_fallbacks", limit)
	if err != nil {
		return nil, err
	}
	return ids(ranked), nil
}

// Resolution is one ranking pass over a single snapshot.
type Resolution struct {
	// Model is the best match, "" when nothing qualifies.
	Model string
	// Relaxed names the constraints dropped to find Model, in ladder order.
	Relaxed []string
	// Ranked holds every strict match, best first.
	Ranked []ScoredModel
}

// Resolve ranks once and derives both the choice and the ranked list from
// that pass, so they always agree and the selection is recorded once. With
// relax set, an empty strict ranking walks the relaxation ladder for Model;
// Ranked stays strict.
func (s Selector) Resolve(ctx context.Context, relax bool) (Resolution, error) {
	ctx, span := tracer.Start(ctx, "selector.resolve", trace.WithAttributes(
		attribute.String("selection.strategy", string(s.criteria.Strategy)),
		attribute.Bool("selection.relax", relax),
	))
	defer span.End()

	snap, err := s.reg.EnsureLoaded(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "registry unavailable")
		return Resolution{}, err
	}

	ranked := s.rank(snap, s.criteria.Requirements)
	metric, score := s.metric()
	res := Resolution{Ranked: make([]ScoredModel, 0, len(ranked))}
	for _, m := range ranked {
		res.Ranked = append(res.Ranked, ScoredModel{ID: m.ID, Metric: metric, Score: score(m)})
	}

	switch {
	case len(ranked) > 0:
		res.Model = ranked[0].ID
	case relax:
		res.Model, res.Relaxed = s.relax(span, snap)
	}

	s.reg.Recorder().SelectionResolved(s.criteria.Strategy, res.Model != "")
	span.SetAttributes(attribute.Int("selection.candidates", len(ranked)))
	return res, nil
}

func (s Selector) resolve(ctx context.Context, op string, limit int) ([]schema.ModelSpec, error) {
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("selection.strategy", string(s.criteria.Strategy)),
	))
	defer span.End()

	snap, err := s.reg.EnsureLoaded(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "registry unavailable")
		return nil, err
	}

	ranked := s.rank(snap, s.criteria.Requirements)
	s.reg.Recorder().SelectionResolved(s.criteria.Strategy, len(ranked) > 0)
	span.SetAttributes(attribute.Int("selection.candidates", len(ranked)))

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// rank filters snap by req and the provider rules, then orders the survivors
// by the strategy metric, provider preference and snapshot order.
func (s Selector) rank(snap *registry.Snapshot, req schema.Requirements) []schema.ModelSpec {
	prefs := s.criteria.Providers
	candidates := slices.DeleteFunc(snap.Matching(req), func(m schema.ModelSpec) bool {
		return !s.allowed(m)
	})

	primary := s.comparator(req)
	slices.SortStableFunc(candidates, func(a, b schema.ModelSpec) int {
		if c := primary(a, b); c != 0 {
			return c
		}
		return cmp.Compare(preference(prefs.Preferred, a), preference(prefs.Preferred, b))
	})
	if candidates == nil {
		candidates = []schema.ModelSpec{}
	}
	return candidates
}

func (s Selector) allowed(m schema.ModelSpec) bool {
	prefs := s.criteria.Providers
	provider := strings.ToLower(m.Provider)
	if len(prefs.Required) > 0 && !slices.Contains(prefs.Required, provider) {
		return false
	}
	if slices.Contains(prefs.AvoidedProviders, provider) {
		return false
	}
	bare := m.ID
	if i := strings.IndexByte(bare, '/'); i >= 0 {
		bare = bare[i+1:]
	}
	for _, p := range prefs.AvoidedPatterns {
		if ok, _ := doublestar.Match(p, m.ID); ok {
			return false
		}
		if ok, _ := doublestar.Match(p, bare); ok {
			return false
		}
	}
	return true
}

func (s Selector) comparator(req schema.Requirements) func(a, b schema.ModelSpec) int {
	switch {
	case s.criteria.Strategy == schema.StrategyContext:
		return registry.ByContext
	case s.criteria.Strategy == schema.StrategyLatest, req.PickNewer:
		return registry.ByNewest
	default:
		return registry.ByInputCost
	}
}

func (s Selector) metric() (string, func(schema.ModelSpec) float64) {
	switch {
	case s.criteria.Strategy == schema.StrategyContext:
		return "context_length", func(m schema.ModelSpec) float64 { return float64(m.ContextLength) }
	case s.criteria.Strategy == schema.StrategyLatest, s.criteria.Requirements.PickNewer:
		return "created_at", func(m schema.ModelSpec) float64 { return float64(m.CreatedAt) }
	default:
		return "input_cost", func(m schema.ModelSpec) float64 { return m.Cost.Input }
	}
}

// preference is the position of m's provider in preferred, or len(preferred)
// when it is not preferred.
func preference(preferred []string, m schema.ModelSpec) int {
	if i := slices.Index(preferred, strings.ToLower(m.Provider)); i >= 0 {
		return i
	}
	return len(preferred)
}

func ids(specs []schema.ModelSpec) []string {
	out := make([]string, 0, len(specs))
	for _, m := range specs {
		out = append(out, m.ID)
	}
	return out
}
