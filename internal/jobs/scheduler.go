// Package jobs runs the background triggers of the household API on a cron
// schedule: notification dispatch, recurring chore rotation and due-date
// reminders.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yukikurage/household-api/internal/logging"
	"github.com/yukikurage/household-api/internal/metrics"
	"go.uber.org/zap"
)

// Job is one background trigger.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs registered jobs on their cron specs. Overlapping runs of the
// same job are skipped.
type Scheduler struct {
	cron    *cron.Cron
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// NewScheduler creates a stopped scheduler. timeout bounds a single run; zero
// means no bound.
func NewScheduler(logger *zap.Logger, timeout time.Duration) *Scheduler {
	cronLogger := logging.CronLogger(logger)
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger:  logger.Named("jobs"),
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
	}
}

// Register schedules job on spec.
func (s *Scheduler) Register(spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() { s.RunNow(job) }); err != nil {
		return fmt.Errorf("schedule %s %q: %w", job.Name(), spec, err)
	}
	s.logger.Info("job scheduled", zap.String("job", job.Name()), zap.String("spec", spec))
	return nil
}

// RunNow runs job once on the calling goroutine and records the outcome.
func (s *Scheduler) RunNow(job Job) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := job.Run(ctx)
	duration := time.Since(start)

	if err != nil {
		metrics.RecordJobRun(job.Name(), metrics.OutcomeFailure, duration)
		s.logger.Error("job failed", zap.String("job", job.Name()), zap.Duration("duration", duration), zap.Error(err))
		return
	}
	metrics.RecordJobRun(job.Name(), metrics.OutcomeSuccess, duration)
	s.logger.Debug("job finished", zap.String("job", job.Name()), zap.Duration("duration", duration))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling, cancels running jobs and waits for them to return
// or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
