package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/amo-ladoja/neriah/internal/sync/usecase"
)

// Scheduler runs the background sweep that keeps every opted-in user's
// items fresh without manual syncs.
type Scheduler struct {
	orchestrator *usecase.SyncOrchestrator
	interval     time.Duration
	stopChan     chan struct{}
}

// NewScheduler creates a new scheduler
func NewScheduler(orchestrator *usecase.SyncOrchestrator, interval time.Duration) *Scheduler {
	return &Scheduler{
		orchestrator: orchestrator,
		interval:     interval,
		stopChan:     make(chan struct{}),
	}
}

// Start begins the periodic sweep loop in a goroutine
func (s *Scheduler) Start() {
	log.Printf("[Scheduler] Starting scheduled sync every %s", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runSweep()
			case <-s.stopChan:
				log.Println("[Scheduler] Stopped")
				return
			}
		}
	}()
}

// Stop signals the loop to exit
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) runSweep() {
	report, err := s.orchestrator.RunScheduledSweep(context.Background())
	if err != nil {
		log.Printf("[Scheduler] Sweep failed: %v", err)
		return
	}
	log.Printf("[Scheduler] Sweep complete: %d users, %d items extracted", report.UsersProcessed, report.TotalItemsExtracted)
}
