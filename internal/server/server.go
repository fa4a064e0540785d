package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-selector/internal/config"
	"github.com/nulzo/model-selector/internal/core/services/registry"
	v1 "github.com/nulzo/model-selector/internal/server/v1"
	"github.com/nulzo/model-selector/internal/server/validator"
	"github.com/nulzo/model-selector/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    *zap.Logger
	registry  *registry.Registry
	metrics   *telemetry.Metrics
	gatherer  prometheus.Gatherer
	validator *validator.Validator
	history   v1.HistorySource
	http      *http.Server
}

type Option func(*Server)

// WithMetrics enables request metrics and serves g on /metrics.
func WithMetrics(m *telemetry.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithHistory serves past cache listings on /v1/registry/history.
func WithHistory(h v1.HistorySource) Option {
	return func(s *Server) {
		s.history = h
	}
}

func New(cfg *config.Config, logger *zap.Logger, reg *registry.Registry, opts ...Option) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:    gin.New(),
		config:    cfg,
		logger:    logger,
		registry:  reg,
		validator: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              ":" + s.config.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) metricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}
