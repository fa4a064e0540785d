package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-selector/internal/core/domain"
	"github.com/nulzo/model-selector/internal/core/services/selector"
	"github.com/nulzo/model-selector/pkg/api"
	"github.com/nulzo/model-selector/pkg/schema"
)

const defaultLimit = 5

func (h *Handler) Select(c *gin.Context) {
	var req api.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(domain.ValidationError(h.validator.ParseError(err)))
		return
	}

	sel, err := h.build(req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	resp, err := h.resolve(c.Request.Context(), sel, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// build translates the request into a selector, surfacing builder usage
// errors as-is so they render as 400s.
func (h *Handler) build(req api.SelectRequest) (selector.Selector, error) {
	sel := selector.New(h.registry)
	var err error

	if req.Strategy != "" {
		if sel, err = sel.OptimizeFor(req.Strategy); err != nil {
			return sel, err
		}
	}
	for _, name := range req.Capabilities {
		capability, perr := schema.ParseCapability(name)
		if perr != nil {
			return sel, domain.Argument("capabilities", "%v", perr)
		}
		if sel, err = sel.Require(capability); err != nil {
			return sel, err
		}
	}
	if req.MaxInputCost != nil || req.MaxOutputCost != nil {
		if sel, err = sel.WithinBudget(req.MaxInputCost, req.MaxOutputCost); err != nil {
			return sel, err
		}
	}
	if req.MinContext > 0 {
		if sel, err = sel.MinContext(req.MinContext); err != nil {
			return sel, err
		}
	}
	if req.NewerThan != "" {
		if sel, err = sel.NewerThan(req.NewerThan); err != nil {
			return sel, err
		}
	}
	if len(req.AvoidPatterns) > 0 {
		if sel, err = sel.AvoidPatterns(req.AvoidPatterns...); err != nil {
			return sel, err
		}
	}

	sel = sel.PreferProviders(req.Prefer...).
		RequireProviders(req.Require...).
		AvoidProviders(req.Avoid...)
	return sel, nil
}

func (h *Handler) resolve(ctx context.Context, sel selector.Selector, req api.SelectRequest) (*api.SelectResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = defaultLimit
	}

	res, err := sel.Resolve(ctx, req.Relax)
	if err != nil {
		return nil, err
	}

	resp := &api.SelectResponse{
		Criteria:  sel.Criteria(),
		Ranked:    make([]string, 0, min(limit, len(res.Ranked))),
		Fallbacks: make([]string, 0, limit),
		Relaxed:   res.Relaxed,
	}
	if res.Model != "" {
		resp.Model = &res.Model
	}

	for i, m := range res.Ranked {
		if i < limit {
			resp.Ranked = append(resp.Ranked, m.ID)
			if req.IncludeScores {
				resp.Scores = append(resp.Scores, api.ScoredModel{ID: m.ID, Metric: m.Metric, Score: m.Score})
			}
		}
		if m.ID != res.Model && len(resp.Fallbacks) < limit {
			resp.Fallbacks = append(resp.Fallbacks, m.ID)
		}
	}
	return resp, nil
}
