// Package scheduler runs the automated verification pass on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/claimsuite/claimflow/internal/application/engine"
)

// Scheduler drives periodic automated passes over the coordinator queue.
// The schedule is a standard 5-field cron expression
// (minute hour day-of-month month day-of-week).
type Scheduler struct {
	cron     *cron.Cron
	engine   engine.Engine
	schedule string
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates a scheduler for the given cron expression
func New(eng engine.Engine, schedule string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		engine:   eng,
		schedule: schedule,
		timeout:  10 * time.Minute,
		logger:   logger,
	}
}

// Start validates the schedule and begins running passes in the background
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runPass); err != nil {
		return fmt.Errorf("invalid batch schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("Automated pass scheduled", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts scheduling and waits for an in-flight pass to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Automated pass scheduler stopped")
}

func (s *Scheduler) runPass() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	summary, err := s.engine.RunAutomatedPass(ctx)
	if err != nil {
		s.logger.Error("Automated pass failed", zap.Error(err))
		return
	}

	s.logger.Info("Automated pass complete",
		zap.Int("processed", summary.Processed),
		zap.Int("approved", summary.Approved),
		zap.Int("rejected", summary.Rejected))
}
