package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Job is a named unit of periodic work. Run must be safe to call again
// after an error; the scheduler keeps firing on later ticks.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

// CronScheduler drives jobs from standard 5-field cron expressions. Each
// job gets an overlap guard: a tick that arrives while the previous run
// is still going is dropped, not queued. The evaluation pass can outlive
// its interval when judge calls are slow, and stacking runs would double
// model spend for no extra signal.
type CronScheduler struct {
	cron *cron.Cron
	jobs map[string]cron.EntryID
	ctx  context.Context
}

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &CronScheduler{
		cron: cron.New(cron.WithParser(parser)),
		jobs: make(map[string]cron.EntryID),
	}
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	logger := logutil.GetLogger(context.Background()).With(zap.String("job", name), zap.String("cron", spec))
	entryID, err := c.cron.AddFunc(spec, c.guarded(job, spec))
	if err != nil {
		logger.Error("cron registration failed", zap.Error(err))
		return err
	}
	c.jobs[name] = entryID
	logger.Info("cron job registered")
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.cron.Start()
}

// Stop blocks until any in-flight job run returns.
func (c *CronScheduler) Stop() {
	done := c.cron.Stop()
	<-done.Done()
}

func (c *CronScheduler) guarded(job Job, spec string) func() {
	var active atomic.Bool
	return func() {
		if !active.CompareAndSwap(false, true) {
			logutil.GetLogger(context.Background()).With(
				zap.String("job", job.Name()),
				zap.String("cron", spec),
			).Info("cron tick dropped, previous run still active")
			return
		}
		defer active.Store(false)

		ctx := c.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		logger := logutil.GetLogger(ctx).With(
			zap.String("job", job.Name()),
			zap.String("cron", spec),
		)
		started := time.Now()
		logger.Info("cron job starting")
		if err := job.Run(ctx); err != nil {
			logger.Error("cron job failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
			return
		}
		logger.Info("cron job done", zap.Duration("elapsed", time.Since(started)))
	}
}
