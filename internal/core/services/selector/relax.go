package selector

import (
	"context"
	"time"

	"github.com/nulzo/model-selector/internal/core/services/registry"
	"github.com/nulzo/model-selector/pkg/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// relaxation is one step of the degradation ladder: the requirements left
// after dropping the named constraint.
type relaxation struct {
	dropped      string
	requirements schema.Requirements
}

// ladder lists progressively looser requirements. Budget goes first, then
// the context minimum, the age cutoff, the tier, and finally capabilities
// one at a time starting with the most recently added. Provider rules and
// the strategy are never relaxed.
func ladder(req schema.Requirements) []relaxation {
	var steps []relaxation
	cur := req.Clone()
	step := func(name string, drop func(r *schema.Requirements)) {
		next := cur.Clone()
		drop(&next)
		cur = next
		steps = append(steps, relaxation{dropped: name, requirements: next})
	}

	if cur.MaxInputCost != nil || cur.MaxOutputCost != nil {
		step("budget", func(r *schema.Requirements) {
			r.MaxInputCost, r.MaxOutputCost = nil, nil
		})
	}
	if cur.MinContextLength > 0 {
		step("min_context_length", func(r *schema.Requirements) { r.MinContextLength = 0 })
	}
	if !cur.NewerThan.IsZero() {
		step("newer_than", func(r *schema.Requirements) { r.NewerThan = time.Time{} })
	}
	if cur.PerformanceTier != "" {
		step("performance_tier", func(r *schema.Requirements) { r.PerformanceTier = "" })
	}
	for len(cur.Capabilities) > 0 {
		last := cur.Capabilities[len(cur.Capabilities)-1]
		step("capability:"+string(last), func(r *schema.Requirements) {
			r.Capabilities = r.Capabilities[:len(r.Capabilities)-1]
		})
	}
	return steps
}

// ChooseWithFallback behaves like Choose but, when nothing qualifies, walks
// the relaxation ladder until a model matches. It returns "" only when even
// the loosest requirements match nothing.
func (s Selector) ChooseWithFallback(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "selector.choose_with_fallback")
	defer span.End()

	snap, err := s.reg.EnsureLoaded(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "registry unavailable")
		return "", err
	}

	id := ""
	if ranked := s.rank(snap, s.criteria.Requirements); len(ranked) > 0 {
		id = ranked[0].ID
	} else {
		id, _ = s.relax(span, snap)
	}
	s.reg.Recorder().SelectionResolved(s.criteria.Strategy, id != "")
	return id, nil
}

// relax walks the ladder against snap and returns the first match together
// with every constraint dropped to reach it.
func (s Selector) relax(span trace.Span, snap *registry.Snapshot) (string, []string) {
	var dropped []string
	for _, r := range ladder(s.criteria.Requirements) {
		dropped = append(dropped, r.dropped)
		span.AddEvent("relaxed", trace.WithAttributes(attribute.String("dropped", r.dropped)))
		if ranked := s.rank(snap, r.requirements); len(ranked) > 0 {
			return ranked[0].ID, dropped
		}
	}
	return "", nil
}
