package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/choreshare/internal/api"
	"github.com/mmynk/choreshare/internal/auth"
	"github.com/mmynk/choreshare/internal/config"
	"github.com/mmynk/choreshare/internal/service"
	"github.com/mmynk/choreshare/internal/storage"
	"github.com/mmynk/choreshare/internal/storage/memory"
	"github.com/mmynk/choreshare/internal/storage/sqlite"
	"github.com/mmynk/choreshare/pkg/logging"
	"github.com/mmynk/choreshare/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.OTELEndpoint, cfg.OTELServiceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("Failed to flush traces", "error", err)
		}
	}()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	opts := []service.Option{service.WithLocation(loc)}

	srv := api.NewServer(api.Services{
		Groups:    service.NewGroupService(store, opts...),
		Chores:    service.NewChoreService(store, opts...),
		Logs:      service.NewChoreLogService(store, opts...),
		Reminders: service.NewReminderScheduler(store, opts...),
		Reports:   service.NewWorkloadReporter(store, opts...),
	}, auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL), nil)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(srv.Routes(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("HTTP server starting", "address", cfg.Addr(), "storage", cfg.Storage, "timezone", loc.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openStore(cfg config.Config) (storage.Store, error) {
	if cfg.Storage == config.StorageMemory {
		slog.Warn("Using in-memory storage; data is lost on restart")
		return memory.New(), nil
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	slog.Info("Storage initialized", "database", cfg.DBPath)
	return store, nil
}
