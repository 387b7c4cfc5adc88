// Copyright (c) 2026 Roster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Roster HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the credential store selected by STORE_DRIVER.
//  4. Build the token codec and password hasher.
//  5. Wire the auth service, request gate and HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/roster/internal/api"
	"github.com/taibuivan/roster/internal/platform/config"
	"github.com/taibuivan/roster/internal/platform/constants"
	"github.com/taibuivan/roster/internal/platform/metrics"
	"github.com/taibuivan/roster/internal/platform/migration"
	pgstore "github.com/taibuivan/roster/internal/platform/postgres"
	redisstore "github.com/taibuivan/roster/internal/platform/redis"
	"github.com/taibuivan/roster/internal/platform/sec"
	"github.com/taibuivan/roster/internal/users/account"
	"github.com/taibuivan/roster/internal/users/auth"
)

// credentialBackend is a credential store that also serves profile edits
// and reports its health.
type credentialBackend interface {
	auth.CredentialStore
	account.ProfileStore
	Ping(ctx context.Context) error
}

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "roster"))
	slog.SetDefault(log)

	log.Info("[Roster] service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "roster"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("store_driver", cfg.StoreDriver),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Credential Store ───────────────────────────────────────────────
	store, closeStore, err := openStore(startupCtx, cfg, log)
	must(log, err, "open credential store")
	defer closeStore()

	// ── 4. Token Codec & Hasher ───────────────────────────────────────────
	codec, err := sec.NewTokenCodec(sec.CodecConfig{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     constants.AuthIssuer,
		AccessTTL:  constants.AccessTokenTTL,
		RefreshTTL: constants.RefreshTokenTTL,
		StrictKind: cfg.TokenKindStrict,
	})
	must(log, err, "initialize token codec")

	log.Info("token_codec_ready",
		slog.Bool("strict_kind", codec.StrictKind()),
		slog.Duration("access_ttl", constants.AccessTokenTTL),
		slog.Duration("refresh_ttl", constants.RefreshTokenTTL),
	)

	hasher := sec.NewBcryptHasher(cfg.BcryptCost)

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	authService := auth.NewService(store, codec, hasher)
	accountService := account.NewService(store)
	gate := auth.NewGate(codec, store)

	liveness, readiness := api.NewHealthHandlers([]api.Check{
		{Name: cfg.StoreDriver, Probe: store.Ping},
	}, log)

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, gate, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   metrics.Handler(),
		Auth:      auth.NewHandler(authService),
		Account:   account.NewHandler(accountService),
	})

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// openStore connects the backend named by cfg.StoreDriver and returns it
// together with a function releasing its resources.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (credentialBackend, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}

		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}

		closePool := func() {
			log.Info("closing_postgres_pool")
			pool.Close()
		}
		return auth.NewPostgresCredentialStore(pool), closePool, nil

	case config.DriverRedis:
		client, err := redisstore.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, nil, err
		}

		closeClient := func() {
			log.Info("closing_redis_client")
			if cerr := client.Close(); cerr != nil {
				log.Error("redis_close_error", slog.Any("error", cerr))
			}
		}
		return auth.NewRedisCredentialStore(client, constants.RefreshTokenTTL), closeClient, nil

	default:
		log.Warn("memory_store_selected", slog.String("note", "credentials are lost on restart"))
		return auth.NewMemoryCredentialStore(), func() {}, nil
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
