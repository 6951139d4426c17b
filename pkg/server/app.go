package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "ForexPulse/internal/domain/repository"
	"ForexPulse/internal/service/ratelimit"
	"ForexPulse/internal/usecase"
	"ForexPulse/pkg/config"
	xhttp "ForexPulse/pkg/http"
	applogger "ForexPulse/pkg/logger"
)

const limiterSweepEvery = 5 * time.Minute

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	scheduler  *usecase.Scheduler
	notifier   *usecase.Notifier
	httpServer *xhttp.Server
	limiter    *ratelimit.Limiter
	sinks      []domrepo.SnapshotSink
	archive    domrepo.QuoteArchive

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	scheduler *usecase.Scheduler,
	notifier *usecase.Notifier,
	httpServer *xhttp.Server,
	limiter *ratelimit.Limiter,
	sinks []domrepo.SnapshotSink,
	archive domrepo.QuoteArchive,
) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		log:        log,
		scheduler:  scheduler,
		notifier:   notifier,
		httpServer: httpServer,
		limiter:    limiter,
		sinks:      sinks,
		archive:    archive,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	a.log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Start launches the scheduler, the notifier and the HTTP server. It does not block.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})

	a.scheduler.Start(ctx)
	a.notifier.Start(ctx)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		a.cancel()
		a.cancel = nil
		a.scheduler.Stop()
		a.notifier.Stop()
		return err
	}

	go a.sweepLimiter(ctx)
	a.log.Info("forexpulse started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("addr", a.httpServer.Addr()),
		applogger.Int("sinks", len(a.sinks)),
		applogger.Bool("archive", a.archive != nil),
	)
	return nil
}

// Addr is the bound HTTP address.
func (a *App) Addr() string { return a.httpServer.Addr() }

func (a *App) sweepLimiter(ctx context.Context) {
	defer close(a.done)
	if a.limiter == nil {
		<-ctx.Done()
		return
	}
	t := time.NewTicker(limiterSweepEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.limiter.Sweep(limiterSweepEvery)
		}
	}
}

// Shutdown stops producers before consumers: timers first, then subscribers
// (which ends open streams), then the HTTP server, then the sinks.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")
	if a.cancel != nil {
		a.cancel()
		<-a.done
	}

	a.scheduler.Stop()
	a.notifier.Stop()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	for _, s := range a.sinks {
		if err := s.Close(); err != nil {
			a.log.Warn("sink close error", applogger.String("sink", s.Name()), applogger.Error(err))
		}
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.log.Warn("archive close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
