package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"evs-comms/backend/internal/logging"
)

// DefaultInterval is how often the analysis runs when none is configured.
const DefaultInterval = 30 * time.Second

// Scheduler runs a job on a fixed interval. A run still in progress when the
// next tick fires causes that tick to be skipped.
type Scheduler struct {
	cron     *cron.Cron
	interval time.Duration
	job      func(context.Context)
	logger   *logging.Logger
	cancel   context.CancelFunc
}

// NewScheduler creates a scheduler for job. It does nothing until Start.
func NewScheduler(interval time.Duration, job func(context.Context), logger *logging.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		interval: interval,
		job:      job,
		logger:   logger,
	}
}

// Start schedules the job. Runs receive a context derived from ctx that is
// canceled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() { s.job(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule analysis %q: %w", spec, err)
	}
	s.cancel = cancel
	s.cron.Start()
	s.logger.Info("Analysis scheduler started", "interval", s.interval.String())
	return nil
}

// Stop cancels in-flight runs and waits for them to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.logger.Info("Analysis scheduler stopped")
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	l *logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
