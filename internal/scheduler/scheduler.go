package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"StockAnalyzerView/internal/model"
)

// Refresher re-runs the current render cycle.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler periodically re-requests the chart being shown. Each tick starts
// a new render cycle on a freshly fetched series.
type Scheduler struct {
	Cron   *cron.Cron
	Target Refresher
	Ctx    context.Context
	log    *logrus.Entry
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, target Refresher, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Target: target,
		Ctx:    ctx,
		log:    logger.WithField("component", "scheduler"),
	}
}

// Register adds the refresh task on spec (six fields, with seconds).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	s.log.WithField("cron", spec).Info("refresh task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow executes the refresh task immediately.
func (s *Scheduler) RunNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	if s.Ctx.Err() != nil {
		return
	}
	s.log.Debug("refreshing chart")
	err := s.Target.Refresh(s.Ctx)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrStaleRequest):
		// A user request overtook the refresh; nothing to do.
	default:
		s.log.WithError(err).Warn("chart refresh failed")
	}
}
