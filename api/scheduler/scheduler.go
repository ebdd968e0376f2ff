package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/civicsetu/civic-voice-api/api/handlers"
)

const sweepBatchLimit = 100

// Scheduler runs the periodic reprioritization sweep over complaints that
// never received a priority score, typically because the AI path was down at
// submission time and no one triggered a manual sweep since.
type Scheduler struct {
	cron      *cron.Cron
	Complaint handlers.Complaint
	Schedule  string
}

// NewScheduler builds a scheduler around the complaint sweep. Schedule takes
// any cron expression robfig/cron accepts, including @every shorthands.
func NewScheduler(complaint handlers.Complaint, schedule string) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		Complaint: complaint,
		Schedule:  schedule,
	}
}

// Start registers the sweep job and begins the cron loop
func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc(s.Schedule, s.runSweep)
	if err != nil {
		zap.S().Errorw("failed to register reprioritize sweep job",
			"schedule", s.Schedule,
			"error", err.Error(),
		)
		return
	}

	s.cron.Start()
	zap.S().Infow("reprioritize scheduler started", "schedule", s.Schedule)
}

// Stop waits for a running sweep to finish and stops the cron loop
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("reprioritize scheduler stopped")
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	scanned, updated, failed, err := s.Complaint.Sweep(ctx, sweepBatchLimit)
	if err != nil {
		zap.S().Errorw("scheduled reprioritize sweep failed", "error", err.Error())
		return
	}
	zap.S().Infow("scheduled reprioritize sweep complete",
		"scanned", scanned,
		"updated", updated,
		"failed", failed,
	)
}
