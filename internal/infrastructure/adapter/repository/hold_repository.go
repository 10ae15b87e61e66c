package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
	errs "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/domain/port/persistence"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/database"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// HoldRepository implements the HoldRepository port using GORM. Transition
// writes are conditional partial updates; the WHERE clause carries the state
// guard and RowsAffected tells us whether we won.
type HoldRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	timeProvider    coreport.TimeProvider
	errorClassifier *ErrorClassifier
}

// NewHoldRepository creates a new HoldRepository instance
func NewHoldRepository(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *HoldRepository {
	return &HoldRepository{
		db:              db,
		logger:          logger,
		timeProvider:    timeProvider,
		errorClassifier: NewErrorClassifier(),
	}
}

// entityToModel converts a hold entity to a database model
func (r *HoldRepository) entityToModel(hold *entity.PaymentHold) model.PaymentHold {
	return model.PaymentHold{
		ID:                       hold.ID,
		TransactionID:            hold.TransactionID,
		HeldAmount:               hold.HeldAmount,
		Currency:                 hold.Currency,
		Status:                   string(hold.Status),
		Reason:                   hold.Reason,
		CommissionHeld:           hold.CommissionHeld,
		ProcessingFeeHeld:        hold.ProcessingFeeHeld,
		HeldAt:                   hold.HeldAt,
		ReleasedAt:               hold.ReleasedAt,
		DisputeRaised:            hold.DisputeRaised,
		DisputeRaisedBy:          hold.DisputeRaisedBy,
		DisputeRaisedAt:          hold.DisputeRaisedAt,
		DisputeReason:            hold.DisputeReason,
		SellerReleaseRequested:   hold.SellerReleaseRequested,
		SellerReleaseRequestedAt: hold.SellerReleaseRequestedAt,
		AutoReleaseEligibleAt:    hold.AutoReleaseEligibleAt,
		PayoutScheduledAt:        hold.Payout.ScheduledAt,
		PayoutStatus:             string(hold.Payout.Status),
		PayoutMethod:             string(hold.Payout.Method),
		PayoutTransferRef:        hold.Payout.TransferRef,
		PayoutClaimedAt:          hold.Payout.ClaimedAt,
		PayoutLastError:          hold.Payout.LastError,
		CreatedAt:                hold.CreatedAt,
		UpdatedAt:                hold.UpdatedAt,
	}
}

// modelToEntity converts a database model to a hold entity
func (r *HoldRepository) modelToEntity(m model.PaymentHold) *entity.PaymentHold {
	return &entity.PaymentHold{
		ID:                       m.ID,
		TransactionID:            m.TransactionID,
		HeldAmount:               m.HeldAmount,
		Currency:                 m.Currency,
		Status:                   entity.HoldState(m.Status),
		Reason:                   m.Reason,
		CommissionHeld:           m.CommissionHeld,
		ProcessingFeeHeld:        m.ProcessingFeeHeld,
		HeldAt:                   m.HeldAt,
		ReleasedAt:               m.ReleasedAt,
		DisputeRaised:            m.DisputeRaised,
		DisputeRaisedBy:          m.DisputeRaisedBy,
		DisputeRaisedAt:          m.DisputeRaisedAt,
		DisputeReason:            m.DisputeReason,
		SellerReleaseRequested:   m.SellerReleaseRequested,
		SellerReleaseRequestedAt: m.SellerReleaseRequestedAt,
		AutoReleaseEligibleAt:    m.AutoReleaseEligibleAt,
		Payout: entity.PayoutSchedule{
			ScheduledAt: m.PayoutScheduledAt,
			Status:      entity.PayoutState(m.PayoutStatus),
			Method:      entity.RailKind(m.PayoutMethod),
			TransferRef: m.PayoutTransferRef,
			ClaimedAt:   m.PayoutClaimedAt,
			LastError:   m.PayoutLastError,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// Create inserts a new hold
func (r *HoldRepository) Create(ctx context.Context, hold *entity.PaymentHold) error {
	r.logger.Debug("Creating payment hold", map[string]any{
		"hold_id":        hold.ID,
		"transaction_id": hold.TransactionID,
	})

	holdModel := r.entityToModel(hold)

	result := r.db.WithContext(ctx).Create(&holdModel)
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			r.logger.Warn("Hold already exists for transaction", map[string]any{
				"transaction_id": hold.TransactionID,
			})
			return errs.ErrConstraintViolation
		}
		r.logger.Error("Failed to create payment hold", map[string]any{
			"hold_id": hold.ID,
			"error":   result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return nil
}

// GetByTransactionID retrieves the hold for a transaction
func (r *HoldRepository) GetByTransactionID(ctx context.Context, transactionID string) (*entity.PaymentHold, error) {
	var holdModel model.PaymentHold
	result := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&holdModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrHoldNotFound
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return r.modelToEntity(holdModel), nil
}

// UpdateReason rewrites the transition cause on a held hold
func (r *HoldRepository) UpdateReason(ctx context.Context, holdID, reason string) error {
	result := r.db.WithContext(ctx).Model(&model.PaymentHold{}).
		Where("id = ?", holdID).
		Updates(map[string]interface{}{
			"reason":     reason,
			"updated_at": r.timeProvider.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrHoldNotFound
	}
	return nil
}

// MarkDisputed moves a held hold to disputed, freezing the funds
func (r *HoldRepository) MarkDisputed(ctx context.Context, holdID string, dispute persistence.DisputeRecord) error {
	result := r.db.WithContext(ctx).Model(&model.PaymentHold{}).
		Where("id = ? AND status = ?", holdID, string(entity.HoldHeld)).
		Updates(map[string]interface{}{
			"status":            string(entity.HoldDisputed),
			"dispute_raised":    true,
			"dispute_raised_by": dispute.RaisedBy,
			"dispute_raised_at": dispute.RaisedAt,
			"dispute_reason":    dispute.Reason,
			"updated_at":        r.timeProvider.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return r.holdGuardFailure(ctx, holdID, "dispute")
	}
	return nil
}

// Release moves a held hold to released and writes the payout envelope in
// the same conditional update
func (r *HoldRepository) Release(ctx context.Context, holdID, reason string, releasedAt time.Time, schedule entity.PayoutSchedule) error {
	result := r.db.WithContext(ctx).Model(&model.PaymentHold{}).
		Where("id = ? AND status = ?", holdID, string(entity.HoldHeld)).
		Updates(map[string]interface{}{
			"status":              string(entity.HoldReleased),
			"reason":              reason,
			"released_at":         releasedAt,
			"payout_scheduled_at": schedule.ScheduledAt,
			"payout_status":       string(schedule.Status),
			"payout_method":       string(schedule.Method),
			"updated_at":          r.timeProvider.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return r.holdGuardFailure(ctx, holdID, "release")
	}

	r.logger.Info("Hold released, payout scheduled", map[string]any{
		"hold_id":      holdID,
		"reason":       reason,
		"scheduled_at": schedule.ScheduledAt,
	})
	return nil
}

// RecordReleaseRequest stamps the seller's release request and the
// auto-release deadline
func (r *HoldRepository) RecordReleaseRequest(ctx context.Context, holdID string, requestedAt, autoReleaseEligibleAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.PaymentHold{}).
		Where("id = ? AND status = ?", holdID, string(entity.HoldHeld)).
		Updates(map[string]interface{}{
			"reason":                      entity.ReasonSellerRequested,
			"seller_release_requested":    true,
			"seller_release_requested_at": requestedAt,
			"auto_release_eligible_at":    autoReleaseEligibleAt,
			"updated_at":                  r.timeProvider.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return r.holdGuardFailure(ctx, holdID, "record release request")
	}
	return nil
}

// ClaimPayout flips the payout envelope scheduled|failed -> processing. The
// conditional update is the whole concurrency story: of two sweeps racing on
// the same hold, exactly one update matches a row.
func (r *HoldRepository) ClaimPayout(ctx context.Context, holdID string, claimedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.PaymentHold{}).
		Where("id = ? AND status = ? AND payout_status IN ?",
			holdID, string(entity.HoldReleased),
			[]string{string(entity.PayoutScheduled), string(entity.PayoutFailed)}).
		Updates(map[string]interface{}{
			"payout_status":     string(entity.PayoutProcessing),
			"payout_claimed_at": claimedAt,
			"updated_at":        r.timeProvider.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrHoldClaimed
	}

	r.logger.Debug("Payout claim acquired", map[string]any{
		"hold_id":    holdID,
		"claimed_at": claimedAt,
	})
	return nil
}

// ReleaseClaim reverts processing -> scheduled so a future sweep retries
func (r *HoldRepository) ReleaseClaim(ctx context.Context, holdID string) error {
	result := r.db.WithContext(ctx).Model(&model.PaymentHold{}).
		Where("id = ? AND payout_status = ?", holdID, string(entity.PayoutProcessing)).
		Updates(map[string]interface{}{
			"payout_status":     string(entity.PayoutScheduled),
			"payout_claimed_at": nil,
			"updated_at":        r.timeProvider.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrHoldNotFound
	}
	return nil
}

// CompletePayout seals the envelope as completed with the provider transfer
// reference. A completed envelope never matches the sweep's due query again.
func (r *HoldRepository) CompletePayout(ctx context.Context, holdID, transferRef string) error {
	result := r.db.WithContext(ctx).Model(&model.PaymentHold{}).
		Where("id = ?", holdID).
		Updates(map[string]interface{}{
			"payout_status":       string(entity.PayoutCompleted),
			"payout_transfer_ref": transferRef,
			"payout_claimed_at":   nil,
			"payout_last_error":   "",
			"updated_at":          r.timeProvider.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrHoldNotFound
	}
	return nil
}

// FailPayout marks the envelope failed with the last error
func (r *HoldRepository) FailPayout(ctx context.Context, holdID, lastError string) error {
	result := r.db.WithContext(ctx).Model(&model.PaymentHold{}).
		Where("id = ?", holdID).
		Updates(map[string]interface{}{
			"payout_status":     string(entity.PayoutFailed),
			"payout_claimed_at": nil,
			"payout_last_error": lastError,
			"updated_at":        r.timeProvider.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrHoldNotFound
	}
	return nil
}

// ListPayoutDue returns released holds whose envelope is scheduled or failed
// with a due schedule time
func (r *HoldRepository) ListPayoutDue(ctx context.Context, now time.Time, limit int) ([]*entity.PaymentHold, error) {
	var models []model.PaymentHold
	err := database.RetryOnTransientError(ctx, database.DefaultRetryConfig(), func() error {
		return r.db.WithContext(ctx).
			Where("status = ? AND payout_status IN ? AND payout_scheduled_at <= ?",
				string(entity.HoldReleased),
				[]string{string(entity.PayoutScheduled), string(entity.PayoutFailed)},
				now).
			Order("payout_scheduled_at asc").
			Limit(limit).
			Find(&models).Error
	}, r.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	return r.modelsToEntities(models), nil
}

// ListStaleClaims returns holds stuck in processing since before cutoff
func (r *HoldRepository) ListStaleClaims(ctx context.Context, cutoff time.Time, limit int) ([]*entity.PaymentHold, error) {
	var models []model.PaymentHold
	err := database.RetryOnTransientError(ctx, database.DefaultRetryConfig(), func() error {
		return r.db.WithContext(ctx).
			Where("payout_status = ? AND payout_claimed_at <= ?", string(entity.PayoutProcessing), cutoff).
			Order("payout_claimed_at asc").
			Limit(limit).
			Find(&models).Error
	}, r.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	return r.modelsToEntities(models), nil
}

// ListAutoReleaseDue returns held holds whose auto-release deadline has passed
func (r *HoldRepository) ListAutoReleaseDue(ctx context.Context, now time.Time, limit int) ([]*entity.PaymentHold, error) {
	var models []model.PaymentHold
	err := database.RetryOnTransientError(ctx, database.DefaultRetryConfig(), func() error {
		return r.db.WithContext(ctx).
			Where("status = ? AND seller_release_requested = ? AND auto_release_eligible_at <= ?",
				string(entity.HoldHeld), true, now).
			Order("auto_release_eligible_at asc").
			Limit(limit).
			Find(&models).Error
	}, r.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	return r.modelsToEntities(models), nil
}

func (r *HoldRepository) modelsToEntities(models []model.PaymentHold) []*entity.PaymentHold {
	holds := make([]*entity.PaymentHold, 0, len(models))
	for _, m := range models {
		holds = append(holds, r.modelToEntity(m))
	}
	return holds
}

// holdGuardFailure distinguishes a missing hold from a lost state guard
func (r *HoldRepository) holdGuardFailure(ctx context.Context, holdID, transition string) error {
	var holdModel model.PaymentHold
	result := r.db.WithContext(ctx).Select("id", "transaction_id", "status").
		Where("id = ?", holdID).First(&holdModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return errs.ErrHoldNotFound
		}
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return errs.NewPreconditionError(holdModel.TransactionID, transition, holdModel.Status,
		"hold is not in the held state")
}
