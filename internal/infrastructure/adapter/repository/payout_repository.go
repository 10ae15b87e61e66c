package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
	errs "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// PayoutRepository implements the PayoutRepository port using GORM
type PayoutRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewPayoutRepository creates a new PayoutRepository instance
func NewPayoutRepository(db *gorm.DB, logger coreport.Logger) *PayoutRepository {
	return &PayoutRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// entityToModel converts a payout entity to a database model
func (r *PayoutRepository) entityToModel(payout *entity.Payout) model.Payout {
	return model.Payout{
		ID:               payout.ID,
		TransactionID:    payout.TransactionID,
		SellerID:         payout.SellerID,
		Rail:             string(payout.Rail),
		GrossAmount:      payout.GrossAmount,
		CommissionAmount: payout.CommissionAmount,
		ProcessingFee:    payout.ProcessingFee,
		NetAmount:        payout.NetAmount,
		Currency:         payout.Currency,
		Status:           string(payout.Status),
		TransferID:       payout.TransferID,
		FailureReason:    payout.FailureReason,
		CreatedAt:        payout.CreatedAt,
		ProcessedAt:      payout.ProcessedAt,
	}
}

// modelToEntity converts a database model to a payout entity
func (r *PayoutRepository) modelToEntity(m model.Payout) *entity.Payout {
	return &entity.Payout{
		ID:               m.ID,
		TransactionID:    m.TransactionID,
		SellerID:         m.SellerID,
		Rail:             entity.RailKind(m.Rail),
		GrossAmount:      m.GrossAmount,
		CommissionAmount: m.CommissionAmount,
		ProcessingFee:    m.ProcessingFee,
		NetAmount:        m.NetAmount,
		Currency:         m.Currency,
		Status:           entity.PayoutStatus(m.Status),
		TransferID:       m.TransferID,
		FailureReason:    m.FailureReason,
		CreatedAt:        m.CreatedAt,
		ProcessedAt:      m.ProcessedAt,
	}
}

// Create saves a new payout attempt. A completed payout already on record
// for the transaction rejects the insert.
func (r *PayoutRepository) Create(ctx context.Context, payout *entity.Payout) error {
	r.logger.Debug("Creating payout record", map[string]any{
		"payout_id":      payout.ID,
		"transaction_id": payout.TransactionID,
		"rail":           string(payout.Rail),
	})

	if existing, err := r.GetCompletedByTransactionID(ctx, payout.TransactionID); err == nil {
		return errs.NewPayoutConflictError(payout.TransactionID, existing.ID)
	} else if !errors.Is(err, errs.ErrPayoutNotFound) {
		return err
	}

	payoutModel := r.entityToModel(payout)

	result := r.db.WithContext(ctx).Create(&payoutModel)
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			return errs.ErrPayoutAlreadyCompleted
		}
		r.logger.Error("Failed to create payout record", map[string]any{
			"payout_id": payout.ID,
			"error":     result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return nil
}

// Update writes the outcome of an attempt. Once a row is completed it is
// immutable; the guard below refuses to touch it.
func (r *PayoutRepository) Update(ctx context.Context, payout *entity.Payout) error {
	payoutModel := r.entityToModel(payout)

	result := r.db.WithContext(ctx).Model(&model.Payout{}).
		Where("id = ? AND status <> ?", payout.ID, string(entity.PayoutStatusCompleted)).
		Updates(map[string]interface{}{
			"status":         payoutModel.Status,
			"transfer_id":    payoutModel.TransferID,
			"failure_reason": payoutModel.FailureReason,
			"processed_at":   payoutModel.ProcessedAt,
		})
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			return errs.ErrPayoutAlreadyCompleted
		}
		r.logger.Error("Failed to update payout record", map[string]any{
			"payout_id": payout.ID,
			"error":     result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrPayoutNotFound
	}
	return nil
}

// GetCompletedByTransactionID returns the completed payout for a transaction, if any
func (r *PayoutRepository) GetCompletedByTransactionID(ctx context.Context, transactionID string) (*entity.Payout, error) {
	var payoutModel model.Payout
	result := r.db.WithContext(ctx).
		Where("transaction_id = ? AND status = ?", transactionID, string(entity.PayoutStatusCompleted)).
		First(&payoutModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrPayoutNotFound
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return r.modelToEntity(payoutModel), nil
}
