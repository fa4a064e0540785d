package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-selector/internal/buildinfo"
	"github.com/nulzo/model-selector/internal/core/services/registry"
	"github.com/nulzo/model-selector/internal/server/validator"
	"github.com/nulzo/model-selector/pkg/api"
	"go.uber.org/zap"
)

// Handler serves the model and selection endpoints over one registry.
type Handler struct {
	registry  *registry.Registry
	validator *validator.Validator
	logger    *zap.Logger
	history   HistorySource
}

func NewHandler(reg *registry.Registry, v *validator.Validator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{registry: reg, validator: v, logger: logger}
}

// Health never triggers a registry load.
func (h *Handler) Health(c *gin.Context) {
	resp := api.HealthResponse{Status: "ok", Version: buildinfo.Version}
	if snap := h.registry.Loaded(); snap != nil {
		loadedAt := snap.LoadedAt()
		resp.Models = snap.Len()
		resp.LoadedAt = &loadedAt
	}
	c.JSON(http.StatusOK, resp)
}
