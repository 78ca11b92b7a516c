package infra

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper is the stop-trigger monitor's sweep entry point.
type Sweeper interface {
	CheckPositions(ctx context.Context) error
}

// Scheduler runs the stop-trigger monitor on a fixed interval.
type Scheduler struct {
	cron     *cron.Cron
	monitor  Sweeper
	interval time.Duration
}

// NewScheduler creates a scheduler that sweeps every interval.
func NewScheduler(monitor Sweeper, interval time.Duration) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		monitor:  monitor,
		interval: interval,
	}
}

// Start registers the sweep job and starts the timer. Call only after the
// catch-up reconciler has finished, so retroactive closes land before the
// first live sweep.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cron.AddFunc(spec, func() {
		ctx := context.Background()
		if err := s.monitor.CheckPositions(ctx); err != nil {
			log.Printf("ERROR: Stop-trigger sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("[OK] Stop-trigger monitor scheduled every %s", s.interval)
	return nil
}

// Stop stops the scheduler gracefully
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	s.cron.Stop()
	log.Println("[OK] Scheduler stopped")
}
