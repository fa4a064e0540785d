package server

import (
	"github.com/nulzo/model-selector/internal/server/middleware"
	v1 "github.com/nulzo/model-selector/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.Logger(s.logger))
	if s.config.Telemetry.Tracing {
		s.router.Use(middleware.Tracing(s.config.Telemetry.ServiceName))
	}
	if s.metrics != nil {
		s.router.Use(middleware.Metrics(s.metrics))
	}
	s.router.Use(middleware.ErrorHandler(s.logger))

	h := v1.NewHandler(s.registry, s.validator, s.logger)
	if s.history != nil {
		h.WithHistory(s.history)
	}

	s.router.GET("/health", h.Health)
	if s.gatherer != nil {
		s.router.GET("/metrics", s.metricsHandler())
	}

	api := s.router.Group("/v1")
	if rl := s.config.Server.RateLimit; rl.RequestsPerSecond > 0 {
		api.Use(middleware.NewRateLimiter(rl.RequestsPerSecond, rl.Burst, s.logger).Middleware())
	}
	{
		api.GET("/models", h.ListModels)
		api.GET("/models/lookup", h.LookupModel)
		api.GET("/models/fallbacks", h.GetFallbacks)
		api.POST("/models/estimate", h.EstimateCost)
		api.POST("/select", h.Select)

		admin := api.Group("/registry", middleware.AdminAuth(s.config.Server.AdminKeys))
		admin.POST("/refresh", h.Refresh)
		admin.POST("/invalidate", h.Invalidate)
		if h.HasHistory() {
			admin.GET("/history", h.History)
		}
	}
}
