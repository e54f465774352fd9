package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/vitrinnea/admin-console/config"
	"github.com/vitrinnea/admin-console/internal/ports"
	"github.com/vitrinnea/admin-console/internal/service"
)

// RunConfig contains everything needed to run the console until shutdown.
type RunConfig struct {
	Config   *config.AppConfig
	Sessions *service.SessionManager
	Audit    ports.AuditRecorder
	Logger   *slog.Logger
}

// RunWithShutdown starts the HTTP server and the session eviction loop, then
// blocks until SIGINT/SIGTERM or a component failure.
func RunWithShutdown(cfg *RunConfig) error {
	if cfg == nil {
		return errors.New("run config is required")
	}
	if cfg.Config == nil {
		return errors.New("run config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Sessions: cfg.Sessions,
		Audit:    cfg.Audit,
		Logger:   logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return cfg.Sessions.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down services...")
		// Shutdown gets a fresh context; gctx is already canceled.
		return ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  server,
			Timeout: cfg.Config.HTTP.ShutdownTimeout,
			Logger:  logger,
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
