package worker

import (
	"context"
	"time"

	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/domain/usecase/payout"
)

// SweepWorker periodically drives the payout scheduler. Each tick
// reclaims stale claims, promotes shipped orders past their delivery
// estimate, auto-releases expired release requests and executes
// payouts that have come due.
type SweepWorker struct {
	scheduler *payout.Scheduler
	logger    coreport.Logger
	interval  time.Duration
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewSweepWorker creates a worker that runs a sweep every interval.
func NewSweepWorker(scheduler *payout.Scheduler, interval time.Duration, logger coreport.Logger) *SweepWorker {
	return &SweepWorker{
		scheduler: scheduler,
		logger:    logger,
		interval:  interval,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (w *SweepWorker) Start() {
	go w.run()
}

// Stop signals the loop to exit and waits for the in-flight sweep to finish.
func (w *SweepWorker) Stop() {
	close(w.stopChan)
	<-w.doneChan
}

func (w *SweepWorker) run() {
	defer close(w.doneChan)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Payout sweep worker started", map[string]any{
		"interval": w.interval.String(),
	})

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Payout sweep worker stopped", nil)
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *SweepWorker) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	w.scheduler.Sweep(ctx)
}
