package scheduler

import (
	"context"
	"time"

	"github.com/abrezinsky/ownervote/internal/logger"
	"github.com/abrezinsky/ownervote/internal/services"
)

// Sweeper runs one lifecycle pass: activate due votes, close expired ones
type Sweeper interface {
	Sweep(ctx context.Context) (*services.SweepResult, error)
}

// Scheduler drives the lifecycle sweep on a fixed interval
type Scheduler struct {
	log      logger.Logger
	sweeper  Sweeper
	interval time.Duration
}

// New creates a Scheduler
func New(log logger.Logger, sweeper Sweeper, interval time.Duration) *Scheduler {
	return &Scheduler{log: log, sweeper: sweeper, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is done
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Lifecycle scheduler stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single pass and logs what happened. A failed pass is logged
// and retried on the next tick.
func (s *Scheduler) Sweep(ctx context.Context) *services.SweepResult {
	result, err := s.sweeper.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error("Lifecycle sweep failed", "error", err)
		}
		return nil
	}

	for _, o := range result.Closed {
		if o.Error != "" {
			s.log.Warn("Vote not closed", "vote_id", o.VoteID, "error", o.Error)
		}
	}
	if len(result.Activated) > 0 || len(result.Closed) > 0 {
		s.log.Info("Lifecycle sweep", "activated", len(result.Activated), "closed", len(result.Closed), "failed", result.Failed)
	} else {
		s.log.Debug("Lifecycle sweep: nothing due")
	}
	return result
}
