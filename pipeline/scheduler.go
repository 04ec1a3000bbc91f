package pipeline

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"immo-tracker/utils"
)

// cronParser accepts standard 5-field expressions and descriptors such as
// "@daily".
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Job is one scheduled execution.
type Job func(ctx context.Context) error

// Scheduler runs a job on a cron schedule. Overlapping runs are skipped and
// panics are recovered, for scheduled and immediate runs alike.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	job      Job
	logger   *utils.Logger
	chain    cron.Chain
	cron     *cron.Cron
}

// NewScheduler validates spec and prepares a Scheduler.
func NewScheduler(spec string, job Job, logger *utils.Logger) (*Scheduler, error) {
	schedule, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	cl := cronLogger{logger}
	return &Scheduler{
		spec:     spec,
		schedule: schedule,
		job:      job,
		logger:   logger,
		chain:    cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		cron:     cron.New(cron.WithParser(cronParser)),
	}, nil
}

// Run blocks until ctx is done. With runNow set the job also runs once
// immediately. A running job is allowed to finish before Run returns.
func (s *Scheduler) Run(ctx context.Context, runNow bool) error {
	// One wrapped job serves both paths so they share the overlap guard.
	job := s.chain.Then(cron.FuncJob(func() { s.execute(ctx) }))
	id := s.cron.Schedule(s.schedule, job)

	s.cron.Start()
	s.logger.Info("[scheduler] Started with schedule %q, next run at %s",
		s.spec, s.cron.Entry(id).Next.Format("2006-01-02 15:04:05"))

	if runNow {
		job.Run()
	}

	<-ctx.Done()
	s.logger.Info("[scheduler] Stopping")
	<-s.cron.Stop().Done()
	return nil
}

func (s *Scheduler) execute(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.job(ctx); err != nil {
		s.logger.Error("[scheduler] Run failed: %v", err)
		return
	}
	s.logger.Info("[scheduler] Run completed")
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	l *utils.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.With(keysAndValues...).Debug("[cron] %s", msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.With(keysAndValues...).Error("[cron] %s: %v", msg, err)
}
