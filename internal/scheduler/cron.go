package scheduler

import (
	"context"

	xlogger "MacroPulse/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler fires the refresh trigger at each checkpoint.
type Scheduler struct {
	cron   *cron.Cron
	logger *xlogger.Logger
}

// New registers run on the checkpoint schedule. The job runs in cron's own
// goroutine; coalescing with manual triggers happens inside the Trigger.
func New(cp *Checkpoints, run func(), logger *xlogger.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(cp.Location()))
	if _, err := c.AddFunc(cp.CronSpec(), run); err != nil {
		return nil, err
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins firing checkpoints.
func (s *Scheduler) Start() {
	s.logger.Info("scheduler started")
	s.cron.Start()
}

// Stop halts the schedule and waits for a running job to finish or ctx to
// expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}
