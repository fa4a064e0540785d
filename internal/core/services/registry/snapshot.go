package registry

import (
	"cmp"
	"slices"
	"time"

	"github.com/nulzo/model-selector/pkg/schema"
)

// Snapshot is an immutable, insertion-ordered index of model specs. Specs
// returned from its methods share backing arrays with the snapshot and must
// be treated as read-only.
type Snapshot struct {
	order    []string
	byID     map[string]schema.ModelSpec
	loadedAt time.Time
}

// NewSnapshot indexes specs in the given order. Later duplicates of an id
// are ignored.
func NewSnapshot(specs []schema.ModelSpec) *Snapshot {
	s := &Snapshot{
		order:    make([]string, 0, len(specs)),
		byID:     make(map[string]schema.ModelSpec, len(specs)),
		loadedAt: time.Now(),
	}
	for _, m := range specs {
		if _, dup := s.byID[m.ID]; dup {
			continue
		}
		s.order = append(s.order, m.ID)
		s.byID[m.ID] = m
	}
	return s
}

func (s *Snapshot) Len() int {
	return len(s.order)
}

func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Models returns a copy of every spec in snapshot order.
func (s *Snapshot) Models() []schema.ModelSpec {
	out := make([]schema.ModelSpec, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

func (s *Snapshot) Exists(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Get returns a copy of the spec for id.
func (s *Snapshot) Get(id string) (schema.ModelSpec, bool) {
	m, ok := s.byID[id]
	return m.Clone(), ok
}

// Fallbacks returns the recommended substitutes for id, possibly empty.
func (s *Snapshot) Fallbacks(id string) []string {
	m, ok := s.byID[id]
	if !ok {
		return []string{}
	}
	return slices.Clone(m.Fallbacks)
}

// Matching returns, in snapshot order, every spec satisfying req. The specs
// share slices with the snapshot and must be treated as read-only.
func (s *Snapshot) Matching(req schema.Requirements) []schema.ModelSpec {
	var out []schema.ModelSpec
	for _, id := range s.order {
		if m := s.byID[id]; Matches(m, req) {
			out = append(out, m)
		}
	}
	return out
}

// Best returns the single preferred spec for req: the newest when
// req.PickNewer is set, otherwise the cheapest by input cost. Remaining ties
// keep snapshot order.
func (s *Snapshot) Best(req schema.Requirements) (schema.ModelSpec, bool) {
	candidates := s.Matching(req)
	if len(candidates) == 0 {
		return schema.ModelSpec{}, false
	}

	compare := ByInputCost
	if req.PickNewer {
		compare = ByNewest
	}
	slices.SortStableFunc(candidates, compare)
	return candidates[0], true
}

// EstimateCost prices a request against id's per-1k rates; unknown ids cost 0.
func (s *Snapshot) EstimateCost(id string, inputTokens, outputTokens int) float64 {
	m, ok := s.byID[id]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1000*m.Cost.Input + float64(outputTokens)/1000*m.Cost.Output
}

// Matches reports whether m satisfies every constraint present in req.
func Matches(m schema.ModelSpec, req schema.Requirements) bool {
	for _, c := range req.Capabilities {
		if !m.Has(c) {
			return false
		}
	}
	if req.MaxInputCost != nil && m.Cost.Input > *req.MaxInputCost {
		return false
	}
	if req.MaxOutputCost != nil && m.Cost.Output > *req.MaxOutputCost {
		return false
	}
	if req.MinContextLength > 0 && m.ContextLength < req.MinContextLength {
		return false
	}
	if req.PerformanceTier != "" && !m.PerformanceTier.Satisfies(req.PerformanceTier) {
		return false
	}
	if !req.NewerThan.IsZero() && m.CreatedAt < req.NewerThan.Unix() {
		return false
	}
	return true
}

// ByInputCost orders cheaper input first.
func ByInputCost(a, b schema.ModelSpec) int {
	return cmp.Compare(a.Cost.Input, b.Cost.Input)
}

// ByNewest orders the most recently created first, then cheaper.
func ByNewest(a, b schema.ModelSpec) int {
	if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
		return c
	}
	return ByInputCost(a, b)
}

// ByContext orders the largest context window first, then cheaper.
func ByContext(a, b schema.ModelSpec) int {
	if c := cmp.Compare(b.ContextLength, a.ContextLength); c != 0 {
		return c
	}
	return ByInputCost(a, b)
}
