package payout

import (
	"context"
	"time"

	errs "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/domain/port/persistence"
	"github.com/fairwaymarket/escrow-processor/internal/domain/usecase/escrow"
)

// SweepResult summarizes one sweep pass
type SweepResult struct {
	Reclaimed    int // stale claims reverted to scheduled
	Promoted     int // shipped transactions promoted to delivered
	AutoReleased int // holds released after buyer silence
	Processed    int // payouts attempted
	Successful   int
	Failed       int
	Skipped      int // claims lost to a concurrent sweep
}

// Scheduler runs the periodic sweep that drives every time-based transition.
// All deadlines it evaluates are persisted on the rows themselves, so a
// restart loses nothing; the next sweep picks up exactly where the engine
// left off.
type Scheduler struct {
	transactions persistence.TransactionRepository
	holds        persistence.HoldRepository
	escrow       *escrow.Service
	executor     *Executor
	timeProvider coreport.TimeProvider
	logger       coreport.Logger

	batchSize       int
	staleClaimAfter time.Duration
}

// NewScheduler creates the sweep scheduler
func NewScheduler(
	transactions persistence.TransactionRepository,
	holds persistence.HoldRepository,
	escrowService *escrow.Service,
	executor *Executor,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	batchSize int,
	staleClaimAfter time.Duration,
) *Scheduler {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Scheduler{
		transactions:    transactions,
		holds:           holds,
		escrow:          escrowService,
		executor:        executor,
		timeProvider:    timeProvider,
		logger:          logger,
		batchSize:       batchSize,
		staleClaimAfter: staleClaimAfter,
	}
}

// Sweep runs one full pass: recover stale claims, promote overdue
// deliveries, auto-release lapsed release requests, then claim and execute
// every due payout. Errors on individual rows are logged and counted, never
// fatal to the pass.
func (s *Scheduler) Sweep(ctx context.Context) *SweepResult {
	result := &SweepResult{}
	now := s.timeProvider.Now()

	s.reclaimStale(ctx, now, result)
	s.promoteDelivered(ctx, now, result)
	s.autoRelease(ctx, now, result)
	s.executeDue(ctx, now, result)

	s.logger.Info("Sweep finished", map[string]any{
		"reclaimed":     result.Reclaimed,
		"promoted":      result.Promoted,
		"auto_released": result.AutoReleased,
		"processed":     result.Processed,
		"successful":    result.Successful,
		"failed":        result.Failed,
		"skipped":       result.Skipped,
	})
	return result
}

// reclaimStale reverts claims abandoned by a crashed executor. If the crash
// happened after the rail call, the completed payout row makes the retry a
// bookkeeping-only pass.
func (s *Scheduler) reclaimStale(ctx context.Context, now time.Time, result *SweepResult) {
	cutoff := now.Add(-s.staleClaimAfter)
	stale, err := s.holds.ListStaleClaims(ctx, cutoff, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to list stale claims", map[string]any{"error": err.Error()})
		return
	}
	for _, hold := range stale {
		if err := s.holds.ReleaseClaim(ctx, hold.ID); err != nil {
			s.logger.Error("Failed to reclaim stale hold", map[string]any{
				"hold_id": hold.ID,
				"error":   err.Error(),
			})
			continue
		}
		s.logger.Warn("Reclaimed stale payout claim", map[string]any{
			"hold_id":        hold.ID,
			"transaction_id": hold.TransactionID,
			"claimed_at":     hold.Payout.ClaimedAt,
		})
		result.Reclaimed++
	}
}

func (s *Scheduler) promoteDelivered(ctx context.Context, now time.Time, result *SweepResult) {
	due, err := s.transactions.ListShippedDueForDelivery(ctx, now, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to list transactions due for delivery", map[string]any{"error": err.Error()})
		return
	}
	for _, txn := range due {
		if err := s.escrow.MarkDelivered(ctx, txn); err != nil {
			if !errs.IsPreconditionError(err) {
				s.logger.Error("Failed to promote transaction to delivered", map[string]any{
					"transaction_id": txn.ID,
					"error":          err.Error(),
				})
			}
			continue
		}
		result.Promoted++
	}
}

func (s *Scheduler) autoRelease(ctx context.Context, now time.Time, result *SweepResult) {
	due, err := s.holds.ListAutoReleaseDue(ctx, now, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to list auto-release candidates", map[string]any{"error": err.Error()})
		return
	}
	for _, hold := range due {
		if err := s.escrow.AutoRelease(ctx, hold); err != nil {
			if !errs.IsPreconditionError(err) {
				s.logger.Error("Auto-release failed", map[string]any{
					"transaction_id": hold.TransactionID,
					"error":          err.Error(),
				})
			}
			continue
		}
		result.AutoReleased++
	}
}

func (s *Scheduler) executeDue(ctx context.Context, now time.Time, result *SweepResult) {
	due, err := s.holds.ListPayoutDue(ctx, now, s.batchSize)
	if err != nil {
		s.logger.Error("Failed to list due payouts", map[string]any{"error": err.Error()})
		return
	}
	for _, hold := range due {
		if err := s.holds.ClaimPayout(ctx, hold.ID, s.timeProvider.Now()); err != nil {
			if errs.IsHoldClaimedError(err) {
				result.Skipped++
				continue
			}
			s.logger.Error("Failed to claim payout", map[string]any{
				"hold_id": hold.ID,
				"error":   err.Error(),
			})
			continue
		}

		result.Processed++
		if err := s.executor.Execute(ctx, hold); err != nil {
			result.Failed++
			continue
		}
		result.Successful++
	}
}
