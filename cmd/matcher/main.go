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

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/practice-matcher/internal/application"
	"github.com/example/practice-matcher/internal/config"
	httptransport "github.com/example/practice-matcher/internal/http"
	"github.com/example/practice-matcher/internal/logging"
	"github.com/example/practice-matcher/internal/matching"
	"github.com/example/practice-matcher/internal/persistence/sqlite"
)

func main() {
	// A local .env is optional; real deployments set MATCHER_* directly.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "info").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	router := newHandler(pool, cfg, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("matcher API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// newHandler wires repositories, services, and handlers over an open pool.
func newHandler(pool *sqlite.ConnectionPool, cfg config.Config, logger *slog.Logger) http.Handler {
	idGenerator := uuid.NewString
	now := time.Now

	profiles := sqlite.NewProfileRepository(pool)
	preferences := sqlite.NewPreferenceRepository(pool)
	blocks := sqlite.NewBlockRepository(pool)
	sessions := sqlite.NewSessionRepository(pool)
	invites := sqlite.NewInviteRepository(pool)
	store := sqlite.NewStore(pool)

	preferenceService := application.NewPreferenceService(profiles, preferences, blocks, now)
	matchService := application.NewMatchService(profiles, preferences, blocks, invites, matching.DefaultWeights, cfg.DefaultMatchLimit, now)
	inviteService := application.NewInviteServiceWithLogger(store, invites, profiles, idGenerator, now, cfg.PendingInviteLimit, logger)
	sessionService := application.NewSessionService(store, sessions, idGenerator, now)
	membershipService := application.NewMembershipService(store, sessions, now)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Preferences: httptransport.NewPreferenceHandler(preferenceService, logger),
		Matches:     httptransport.NewMatchHandler(matchService, logger),
		Invites:     httptransport.NewInviteHandler(inviteService, logger),
		Sessions:    httptransport.NewSessionHandler(sessionService, membershipService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireIdentity(logger),
		},
	})
}
