package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/terra-clan/event-portal/internal/api"
	"github.com/terra-clan/event-portal/internal/auth"
	"github.com/terra-clan/event-portal/internal/config"
	"github.com/terra-clan/event-portal/internal/health"
	"github.com/terra-clan/event-portal/internal/push"
	"github.com/terra-clan/event-portal/internal/resync"
	"github.com/terra-clan/event-portal/internal/state"
	"github.com/terra-clan/event-portal/internal/storage"
	"github.com/terra-clan/event-portal/pkg/client"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Local overrides for development
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting portal-agent",
		"api", cfg.API.BaseURL,
		"push", cfg.Push.URL,
		"storage", cfg.Storage.Backend,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Open durable client storage
	store, err := openStore(cfg.Storage)
	if err != nil {
		slog.Error("failed to open durable storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Restore persisted credentials; they stay unvalidated until the
	// session validator has settled
	credentials, err := auth.NewCredentialStore(initCtx, store)
	if err != nil {
		slog.Error("failed to restore credentials", "error", err)
		os.Exit(1)
	}

	// The 401 hook is the one place allowed to force a full logout
	portal := client.NewClient(cfg.API.BaseURL, credentials,
		client.WithTimeout(cfg.API.Timeout),
		client.WithUnauthorizedHook(func() {
			slog.Warn("session expired, purging all credentials")
			credentials.LogoutAll(context.Background())
		}),
	)

	// Validate both stored tokens concurrently
	validator := auth.NewValidator(portal, credentials)
	ready := validator.Run(initCtx)
	slog.Info("startup validation complete",
		"participant", ready.ParticipantAuthenticated,
		"admin", ready.AdminAuthenticated,
	)

	// Reconciled views
	email := ""
	if profile := credentials.Profile(); profile != nil {
		email = profile.Email
	}
	leaderboard := state.NewLeaderboard()
	colleges := state.NewCollegeBoard()
	board := state.NewTaskBoard(email)

	// Push channel
	channel := push.NewChannel(cfg.Push.URL,
		push.WithReconnect(cfg.Push.ReconnectAttempts, cfg.Push.ReconnectBackoff),
	)
	if err := channel.Connect(initCtx); err != nil {
		// The periodic pull still keeps views fresh
		slog.Warn("push channel unavailable", "error", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start sync worker
	syncer := resync.NewSyncer(portal, credentials, channel, leaderboard, colleges, board,
		cfg.Sync.PullInterval, cfg.Sync.LeaderboardLimit)
	syncer.Start(ctx)

	// Health registry for the facade
	registry := health.NewRegistry()
	registry.Register("storage", store)
	registry.Register("backend", health.CheckerFunc(portal.Health))
	registry.Register("push", health.CheckerFunc(func(context.Context) error {
		if !channel.Connected() {
			return fmt.Errorf("push channel disconnected")
		}
		return nil
	}))

	// Setup local status facade
	server := api.NewServer(cfg.Facade, credentials, validator, channel, registry, leaderboard, colleges, board)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Facade.Host, cfg.Facade.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("status facade starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("status facade error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()
	channel.Disconnect()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("status facade shutdown error", "error", err)
	}

	slog.Info("portal-agent stopped")
}

func openStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case "redis":
		return storage.NewRedisStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	default:
		return storage.NewSQLiteStore(cfg.SQLitePath)
	}
}
