package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nulzo/model-selector/internal/adapters/cache/file"
	"github.com/nulzo/model-selector/internal/adapters/cache/memory"
	"github.com/nulzo/model-selector/internal/adapters/cache/redis"
	"github.com/nulzo/model-selector/internal/adapters/source/openrouter"
	"github.com/nulzo/model-selector/internal/buildinfo"
	"github.com/nulzo/model-selector/internal/cli"
	"github.com/nulzo/model-selector/internal/config"
	"github.com/nulzo/model-selector/internal/core/ports"
	"github.com/nulzo/model-selector/internal/core/services/registry"
	"github.com/nulzo/model-selector/internal/httpclient"
	"github.com/nulzo/model-selector/internal/platform/logger"
	"github.com/nulzo/model-selector/internal/platform/otel"
	"github.com/nulzo/model-selector/internal/server"
	"github.com/nulzo/model-selector/internal/store/sqlite"
	"github.com/nulzo/model-selector/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, cli.CrossMark(), err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return err
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	logger.Initialize(logCfg)
	log := logger.Get()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	banner()

	if cfg.Telemetry.Tracing {
		shutdown, err := otel.InitTracer(cfg.Telemetry.ServiceName, buildinfo.Version, log, os.Stderr)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer func() {
			_ = shutdown(context.Background())
		}()
	}

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	source := openrouter.NewSource(
		httpclient.New(cfg.Registry.Timeout),
		cfg.Registry.BaseURL,
		openrouter.WithHeader("X-Title", "model-selector"),
	)
	reg := registry.New(source, store,
		registry.WithLogger(log.Named("registry")),
		registry.WithRecorder(metrics),
		registry.WithPremiumThreshold(cfg.Registry.PremiumThreshold),
	)

	if fs, ok := store.(*file.Store); ok && cfg.Registry.Cache.Watch {
		go func() {
			// another process rewrote the cache; re-read it on next use
			if err := fs.Watch(ctx, log, reg.Forget); err != nil {
				log.Warn("Cache watch stopped", zap.Error(err))
			}
		}()
	}

	if cfg.Server.CheckUpdates {
		go buildinfo.CheckForUpdates(ctx, log)
	}

	if cfg.Server.DebugAddr != "" {
		go serveDebug(cfg.Server.DebugAddr, log)
	}

	go func() {
		if _, err := reg.EnsureLoaded(ctx); err != nil {
			log.Warn("Initial registry load failed; will retry on first request", zap.Error(err))
		}
	}()

	if len(cfg.Server.AdminKeys) == 0 {
		log.Warn("No admin keys configured; registry maintenance routes are open")
	}

	opts := []server.Option{server.WithMetrics(metrics, prometheus.DefaultGatherer)}
	if hs, ok := store.(*sqlite.SnapshotStore); ok {
		opts = append(opts, server.WithHistory(hs))
	}
	srv := server.New(cfg, log, reg, opts...)
	return srv.Run(ctx)
}

// openStore builds the configured snapshot cache backend.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (ports.SnapshotStore, func(), error) {
	cc := cfg.Registry.Cache
	noop := func() {}

	switch cc.Driver {
	case config.CacheMemory:
		return memory.NewMemoryStore(cc.TTL), noop, nil

	case config.CacheRedis:
		rdb, err := redis.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using redis model cache", zap.String("addr", cfg.Redis.Addr), zap.String("key", cfg.Redis.Key))
		return redis.NewStore(rdb, cfg.Redis.Key, cc.TTL), func() { _ = rdb.Close() }, nil

	case config.CacheSQLite:
		repo, err := sqlite.Open(cfg.SQLite.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite cache: %w", err)
		}
		log.Info("Using sqlite model cache", zap.String("dsn", cfg.SQLite.DSN))
		return sqlite.NewSnapshotStore(repo, sqlite.DefaultHistory, cc.TTL), func() { _ = repo.Close() }, nil

	case config.CacheFile:
		log.Info("Using file model cache", zap.String("path", cc.Path))
		return file.NewStore(cc.Path, cc.TTL), noop, nil
	}
	return nil, nil, errors.New("unknown cache driver " + cc.Driver)
}

// serveDebug exposes expvar on a separate listener for the benchmark tool.
func serveDebug(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	log.Info("Debug listener started", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("Debug listener stopped", zap.Error(err))
	}
}

func banner() {
	title := "model-selector"
	line := ""
	for i, r := range title {
		line += cli.Gradient(string(r), cli.BrandBlue, cli.BrandPurple, float64(i)/float64(len(title)-1))
	}
	fmt.Printf("%s %s %s\n", cli.Arrow(), line, cli.Style(buildinfo.Version, cli.Bold))
}
