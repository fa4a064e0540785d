package v1

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-selector/internal/core/domain"
	"github.com/nulzo/model-selector/internal/store/model"
	"github.com/nulzo/model-selector/pkg/api"
	"go.uber.org/zap"
)

// HistorySource lists previously persisted listings, newest first.
type HistorySource interface {
	History(ctx context.Context, limit int) ([]model.Snapshot, error)
}

// WithHistory enables the snapshot history route.
func (h *Handler) WithHistory(src HistorySource) *Handler {
	h.history = src
	return h
}

// HasHistory reports whether the cache backend keeps past listings.
func (h *Handler) HasHistory() bool {
	return h.history != nil
}

// Refresh discards the cache and reloads from the upstream listing.
func (h *Handler) Refresh(c *gin.Context) {
	snap, err := h.registry.Refresh(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.logger.Debug("Registry refresh served", zap.String("client_ip", c.ClientIP()), zap.Int("models_count", snap.Len()))
	c.JSON(http.StatusOK, api.RefreshResponse{Models: snap.Len(), LoadedAt: snap.LoadedAt()})
}

func (h *Handler) Invalidate(c *gin.Context) {
	if err := h.registry.Invalidate(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) History(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			_ = c.Error(domain.ValidationError(map[string]string{"limit": "limit must be between 1 and 100"}))
			return
		}
		limit = n
	}

	snaps, err := h.history.History(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(domain.InternalError("failed to read snapshot history", err))
		return
	}
	resp := api.HistoryResponse{Data: make([]api.HistoryEntry, 0, len(snaps))}
	for _, s := range snaps {
		resp.Data = append(resp.Data, api.HistoryEntry{ID: s.ID, ModelsCount: s.ModelsCount, CreatedAt: s.CreatedAt})
	}
	c.JSON(http.StatusOK, resp)
}
