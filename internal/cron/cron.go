package cron

import (
	"context"

	cronv3 "github.com/robfig/cron/v3"

	cron_config "github.com/customeros/mailharvest/internal/cron/config"
	"github.com/customeros/mailharvest/internal/logger"
	"github.com/customeros/mailharvest/internal/tracing"
)

const JobFetch = "fetch"

// JobFunc is one complete, independent batch run.
type JobFunc func(ctx context.Context) error

type CronManager struct {
	cfg    *cron_config.Config
	log    logger.Logger
	cron   *cronv3.Cron
	stopCh chan struct{}
	jobIDs map[string]cronv3.EntryID
	fetch  JobFunc
}

func NewCronManager(cfg *cron_config.Config, log logger.Logger, fetch JobFunc) *CronManager {
	return &CronManager{
		cfg:    cfg,
		log:    log,
		stopCh: make(chan struct{}),
		jobIDs: make(map[string]cronv3.EntryID),
		fetch:  fetch,
	}
}

// Stop waits for a running job to finish before returning.
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// Done is closed once Stop has completed.
func (cm *CronManager) Done() <-chan struct{} {
	return cm.stopCh
}

func (cm *CronManager) registerJobs(c *cronv3.Cron) error {
	if cm.cfg.CronScheduleFetch == "" {
		cm.log.Warn("CRON_SCHEDULE_FETCH is empty, no jobs registered")
		return nil
	}

	id, err := c.AddFunc(cm.cfg.CronScheduleFetch, func() {
		defer tracing.RecoverAndLogToJaeger(cm.log)
		cm.runFetch()
	})
	if err != nil {
		return err
	}
	cm.jobIDs[JobFetch] = id
	cm.log.Infof("Registered fetch job with schedule: %s", cm.cfg.CronScheduleFetch)
	return nil
}

// StartCron registers the jobs and starts the scheduler. Overlapping runs of
// the same job are skipped.
func (cm *CronManager) StartCron() error {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	if err := cm.registerJobs(c); err != nil {
		return err
	}
	c.Start()
	cm.cron = c
	return nil
}

func (cm *CronManager) runFetch() {
	cm.log.Info("Running scheduled fetch")

	span, ctx := tracing.StartTracerSpan(context.Background(), "CronManager.runFetch")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	if err := cm.fetch(ctx); err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Scheduled fetch failed: %v", err)
		return
	}

	cm.log.Info("Scheduled fetch completed")
}
