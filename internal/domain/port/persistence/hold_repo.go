package persistence

import (
	"context"
	"time"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
)

// DisputeRecord carries the fields written by a dispute transition
type DisputeRecord struct {
	RaisedBy string
	Reason   string
	RaisedAt time.Time
}

// HoldRepository owns the custody records of captured funds. Every write is a
// scoped partial update keyed by hold id: each transition touches only the
// fields it owns, so a payout envelope written by the scheduler survives a
// later unrelated update.
type HoldRepository interface {
	// Create inserts a new hold. Exactly one hold may exist per transaction;
	// the unique index on transaction_id enforces it.
	//
	// Possible errors:
	// - ErrConstraintViolation: a hold already exists for the transaction
	// - ErrDatabaseConnection
	Create(ctx context.Context, hold *entity.PaymentHold) error

	// GetByTransactionID retrieves the hold for a transaction
	//
	// Possible errors:
	// - ErrHoldNotFound
	// - ErrDatabaseConnection
	GetByTransactionID(ctx context.Context, transactionID string) (*entity.PaymentHold, error)

	// UpdateReason rewrites the free-text transition cause on a held hold
	//
	// Possible errors:
	// - ErrHoldNotFound
	// - ErrDatabaseConnection
	UpdateReason(ctx context.Context, holdID, reason string) error

	// MarkDisputed moves a held hold to disputed. Conditioned on status=held;
	// a hold that already released or disputed rejects with ErrPrecondition.
	//
	// Possible errors:
	// - ErrHoldNotFound
	// - ErrPrecondition
	// - ErrDatabaseConnection
	MarkDisputed(ctx context.Context, holdID string, dispute DisputeRecord) error

	// Release moves a held hold to released with the given reason and writes
	// the payout envelope in the same scoped update. Conditioned on status=held.
	//
	// Possible errors:
	// - ErrHoldNotFound
	// - ErrPrecondition
	// - ErrDatabaseConnection
	Release(ctx context.Context, holdID, reason string, releasedAt time.Time, schedule entity.PayoutSchedule) error

	// RecordReleaseRequest stamps the seller's release request and the
	// auto-release deadline. Conditioned on status=held.
	//
	// Possible errors:
	// - ErrHoldNotFound
	// - ErrPrecondition
	// - ErrDatabaseConnection
	RecordReleaseRequest(ctx context.Context, holdID string, requestedAt, autoReleaseEligibleAt time.Time) error

	// ClaimPayout flips the payout envelope scheduled|failed -> processing,
	// stamping the claim time. The compare-and-set is the concurrency guard:
	// of two overlapping sweeps, exactly one wins the claim.
	//
	// Possible errors:
	// - ErrHoldClaimed: another sweep owns the hold, or it is not claimable
	// - ErrDatabaseConnection
	ClaimPayout(ctx context.Context, holdID string, claimedAt time.Time) error

	// ReleaseClaim reverts processing -> scheduled so a future sweep retries
	//
	// Possible errors:
	// - ErrHoldNotFound
	// - ErrDatabaseConnection
	ReleaseClaim(ctx context.Context, holdID string) error

	// CompletePayout seals the envelope as completed with the provider
	// transfer reference. A completed envelope is never selectable again.
	//
	// Possible errors:
	// - ErrHoldNotFound
	// - ErrDatabaseConnection
	CompletePayout(ctx context.Context, holdID, transferRef string) error

	// FailPayout marks the envelope failed with the last error. Failed
	// envelopes stay selectable by later sweeps.
	//
	// Possible errors:
	// - ErrHoldNotFound
	// - ErrDatabaseConnection
	FailPayout(ctx context.Context, holdID, lastError string) error

	// ListPayoutDue returns released holds whose envelope is scheduled or
	// failed with a due schedule time
	//
	// Possible errors:
	// - ErrDatabaseConnection
	ListPayoutDue(ctx context.Context, now time.Time, limit int) ([]*entity.PaymentHold, error)

	// ListStaleClaims returns holds stuck in processing since before cutoff.
	// A crash between claim and outcome leaves the hold here; the recovery
	// pass reverts them to scheduled.
	//
	// Possible errors:
	// - ErrDatabaseConnection
	ListStaleClaims(ctx context.Context, cutoff time.Time, limit int) ([]*entity.PaymentHold, error)

	// ListAutoReleaseDue returns held holds whose auto-release deadline has
	// passed, for the sweep's auto-release pass
	//
	// Possible errors:
	// - ErrDatabaseConnection
	ListAutoReleaseDue(ctx context.Context, now time.Time, limit int) ([]*entity.PaymentHold, error)
}
