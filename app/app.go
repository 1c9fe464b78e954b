package app

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/mailharvest/config"
	"github.com/customeros/mailharvest/internal/cron"
	"github.com/customeros/mailharvest/internal/logger"
	"github.com/customeros/mailharvest/internal/tracing"
	"github.com/customeros/mailharvest/services"
)

type App struct {
	config       *config.Config
	log          logger.Logger
	services     *services.Services
	tracerCloser io.Closer
}

func NewApp(cfg *config.Config) (*App, error) {
	// Initialize logger
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	// Initialize tracing
	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		return nil, errors.Wrap(err, "could not initialize jaeger tracer")
	}
	opentracing.SetGlobalTracer(tracer)

	svcs, err := services.InitServices(cfg, appLogger)
	if err != nil {
		closer.Close()
		return nil, err
	}

	return &App{
		config:       cfg,
		log:          appLogger,
		services:     svcs,
		tracerCloser: closer,
	}, nil
}

// RunOnce processes a single batch. A panic inside the batch is returned as
// an error.
func (a *App) RunOnce(ctx context.Context) (err error) {
	defer tracing.RecoverAsError(a.log, &err)

	span, ctx := tracing.StartTracerSpan(ctx, "App.RunOnce")
	defer span.Finish()
	tracing.TagComponentCLI(span)

	a.log.Infof("Starting %s batch of up to %d messages", a.services.MailboxService.Protocol(), a.config.AppConfig.NumEmails)
	if err = a.services.BatchService.Run(ctx); err != nil {
		tracing.TraceErr(span, err)
		a.log.Errorf("Batch failed: %v", err)
		return err
	}
	a.log.Info("Batch completed")
	return nil
}

// Schedule runs a batch on every tick of CRON_SCHEDULE_FETCH until ctx is
// cancelled or the process receives SIGINT/SIGTERM.
func (a *App) Schedule(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cronManager := cron.NewCronManager(a.config.CronConfig, a.log, a.services.BatchService.Run)
	if err := cronManager.StartCron(); err != nil {
		return errors.Wrapf(err, "invalid CRON_SCHEDULE_FETCH %q", a.config.CronConfig.CronScheduleFetch)
	}
	a.log.Info("Scheduler is running. Press Ctrl+C to exit.")

	<-ctx.Done()
	a.log.Info("Shutting down, waiting for the running batch to finish...")
	cronManager.Stop()
	return nil
}

func (a *App) Close() {
	if a.tracerCloser != nil {
		if err := a.tracerCloser.Close(); err != nil {
			a.log.Warnf("Error closing tracer: %v", err)
		}
	}
	_ = a.log.Sync()
}
