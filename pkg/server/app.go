package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	drepo "MacroPulse/internal/domain/repository"
	"MacroPulse/internal/scheduler"
	"MacroPulse/internal/store"
	"MacroPulse/internal/usecase"
	"MacroPulse/pkg/config"
	xhttp "MacroPulse/pkg/http"
	xlogger "MacroPulse/pkg/logger"
)

// App owns the application lifecycle: hydrate the last snapshot, start the
// checkpoint schedule and the HTTP server, then shut everything down in order
// on SIGINT/SIGTERM.
type App struct {
	cfg        *config.Config
	logger     *xlogger.Logger
	store      *store.Store
	trigger    *scheduler.Trigger
	sched      *scheduler.Scheduler
	notices    drepo.NoticePublisher // nil when kafka is disabled
	httpServer *xhttp.Server
}

func New(
	cfg *config.Config,
	logger *xlogger.Logger,
	snapStore *store.Store,
	trigger *scheduler.Trigger,
	sched *scheduler.Scheduler,
	notices drepo.NoticePublisher,
	handler xhttp.Handler,
) *App {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(cfg.Metrics.Path))
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		store:      snapStore,
		trigger:    trigger,
		sched:      sched,
		notices:    notices,
		httpServer: xhttp.NewServer(handler, opts...),
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if err := a.store.Hydrate(); err != nil {
		return err
	}
	if _, ok := a.store.Current(); ok {
		a.logger.Info("snapshot hydrated", xlogger.String("file", a.cfg.Snapshot.File))
	}

	if a.cfg.Refresh.OnStartup {
		go func() {
			if _, err := a.trigger.Fire(context.Background(), usecase.TriggerStartup); err != nil {
				a.logger.Error("startup refresh failed", xlogger.Error(err))
			}
		}()
	}

	a.sched.Start()

	if err := a.httpServer.Start(); err != nil {
		return err
	}
	a.logger.Info("server started", xlogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop the schedule first so no new refresh starts mid-shutdown.
	a.sched.Stop(ctx)

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Warn("http shutdown error", xlogger.Error(err))
	}

	if a.notices != nil {
		if err := a.notices.Close(); err != nil {
			a.logger.Warn("notice publisher close error", xlogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
