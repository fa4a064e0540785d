package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-selector/internal/core/domain"
	"github.com/nulzo/model-selector/pkg/api"
	"github.com/nulzo/model-selector/pkg/schema"
)

// ListModels returns the snapshot, optionally narrowed by repeated
// capability and provider query parameters.
func (h *Handler) ListModels(c *gin.Context) {
	var req schema.Requirements
	for _, name := range c.QueryArray("capability") {
		capability, err := schema.ParseCapability(name)
		if err != nil {
			_ = c.Error(domain.BadRequestError(err.Error()))
			return
		}
		req.Capabilities = schema.Union(req.Capabilities, capability)
	}

	models, err := h.registry.ModelsMeetingRequirements(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if provider := strings.ToLower(c.Query("provider")); provider != "" {
		filtered := models[:0:0]
		for _, m := range models {
			if strings.ToLower(m.Provider) == provider {
				filtered = append(filtered, m)
			}
		}
		models = filtered
	}
	if models == nil {
		models = []schema.ModelSpec{}
	}

	c.JSON(http.StatusOK, api.ModelList{Object: "list", Data: models})
}

func (h *Handler) LookupModel(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		_ = c.Error(domain.ValidationError(map[string]string{"id": "id is a required field"}))
		return
	}

	info, err := h.registry.GetModelInfo(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if info == nil {
		_ = c.Error(domain.NotFoundError("unknown model " + id))
		return
	}
	c.JSON(http.StatusOK, info)
}

// GetFallbacks returns the recommended substitutes recorded for a model.
// Unknown ids yield an empty list.
func (h *Handler) GetFallbacks(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		_ = c.Error(domain.ValidationError(map[string]string{"id": "id is a required field"}))
		return
	}

	fallbacks, err := h.registry.GetFallbacks(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, api.FallbacksResponse{ID: id, Fallbacks: fallbacks})
}

func (h *Handler) EstimateCost(c *gin.Context) {
	var req api.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(domain.ValidationError(h.validator.ParseError(err)))
		return
	}

	ctx := c.Request.Context()
	exists, err := h.registry.ModelExists(ctx, req.Model)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if !exists {
		_ = c.Error(domain.NotFoundError("unknown model " + req.Model))
		return
	}

	cost, err := h.registry.CalculateEstimatedCost(ctx, req.Model, req.InputTokens, req.OutputTokens)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, api.EstimateResponse{
		Model:         req.Model,
		InputTokens:   req.InputTokens,
		OutputTokens:  req.OutputTokens,
		EstimatedCost: cost,
	})
}
