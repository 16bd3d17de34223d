package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retailgrid/settings-engine/internal/database"
	apperrors "github.com/retailgrid/settings-engine/internal/errors"
	"github.com/retailgrid/settings-engine/internal/health"
	"github.com/retailgrid/settings-engine/internal/i18n"
	"github.com/retailgrid/settings-engine/internal/lifecycle"
	"github.com/retailgrid/settings-engine/internal/settings"
	"github.com/retailgrid/settings-engine/internal/storage"
	"github.com/retailgrid/settings-engine/pkg/config"
	"github.com/retailgrid/settings-engine/pkg/graceful"
	"github.com/retailgrid/settings-engine/pkg/logger"
	appredis "github.com/retailgrid/settings-engine/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		return
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.AppEnv}); err != nil {
			slog.Error("failed to init sentry", slog.Any("error", err))
			return
		}
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)

	log.Info("starting settings engine",
		slog.String("env", cfg.AppEnv),
		slog.String("http_port", cfg.HTTP.Port),
		slog.String("schema_version", cfg.Engine.SchemaVersion),
	)

	config.Watch(v,
		func(fresh *config.Config) {
			log.Info("configuration reloaded", slog.String("log_level", fresh.Logger.Level))
		},
		func(err error) {
			log.Warn("configuration reload rejected", slog.Any("error", err))
		},
	)

	db, err := sql.Open("postgres", cfg.DB.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		return
	}

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		return
	}

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, cfg.Engine.MigrationsDir); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		return
	}

	var redisClient *appredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = appredis.New(ctx, appredis.Config{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		})
		if err != nil {
			log.Error("failed to connect to redis", slog.Any("error", err))
			return
		}
	}

	var adapter settings.PersistenceAdapter = storage.NewPostgres(db, cfg.Engine.SchemaVersion, log)
	if redisClient != nil {
		adapter = storage.NewCache(adapter, redisClient.Client, cfg.Redis.CacheTTL, log)
	}

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)

	// end-to-end storage probe; a user with no stored bundle is fine
	if _, err := adapter.Load(ctx, "startup-probe"); err != nil && !errors.Is(err, settings.ErrNotFound) {
		errHandler.Handle(ctx, apperrors.NewPersistenceError(err))
		return
	}

	if _, err := i18n.LoadFromDir(cfg.Locales.Dir, cfg.Locales.DefaultLang); err != nil {
		log.Warn("locale catalogs unavailable, using builtin messages", slog.Any("error", err))
	}

	checker := health.NewChecker(log)
	checker.AddCheck("postgres", health.NewDBChecker(db))
	if redisClient != nil {
		checker.AddCheck("redis", health.NewRedisChecker(redisClient))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		results := checker.Check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if !checker.Healthy(r.Context()) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(results)
	})

	srv := graceful.NewServer(log, &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           logger.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}, cfg.HTTP.ShutdownTimeout)

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Add(lifecycle.CloserHook("postgres", db))
	if redisClient != nil {
		shutdown.Add(lifecycle.CloserHook("redis", redisClient))
	}
	if cfg.Sentry.Enabled {
		shutdown.Register("sentry", func(context.Context) error {
			sentry.Flush(2 * time.Second)
			return nil
		})
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Error("http server stopped with error", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	log.Info("settings engine stopped")
}
