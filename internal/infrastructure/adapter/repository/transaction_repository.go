package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
	errs "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/database"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// TransactionRepository implements the TransactionRepository port using GORM
type TransactionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// entityToModel converts a transaction entity to a database model
func (r *TransactionRepository) entityToModel(transaction *entity.Transaction) model.Transaction {
	return model.Transaction{
		ID:                  transaction.ID,
		CorrelationID:       transaction.CorrelationID,
		ProductID:           transaction.ProductID,
		SellerID:            transaction.SellerID,
		BuyerEmail:          transaction.BuyerEmail,
		Amount:              transaction.Amount,
		CommissionRate:      transaction.CommissionRate,
		CommissionAmount:    transaction.CommissionAmount,
		SellerAmount:        transaction.SellerAmount,
		Currency:            transaction.Currency,
		HoldStatus:          string(transaction.HoldStatus),
		Carrier:             transaction.Carrier,
		TrackingNumber:      transaction.TrackingNumber,
		PaidAt:              transaction.PaidAt,
		ShippedAt:           transaction.ShippedAt,
		EstimatedDeliveryAt: transaction.EstimatedDeliveryAt,
		DeliveredAt:         transaction.DeliveredAt,
		DeliveryConfirmedAt: transaction.DeliveryConfirmedAt,
		DisputedAt:          transaction.DisputedAt,
		ReleaseRequestedAt:  transaction.ReleaseRequestedAt,
		ReleasedAt:          transaction.ReleasedAt,
		TransferredAt:       transaction.TransferredAt,
		FailedAt:            transaction.FailedAt,
		CreatedAt:           transaction.CreatedAt,
		UpdatedAt:           transaction.UpdatedAt,
	}
}

// modelToEntity converts a database model to a transaction entity
func (r *TransactionRepository) modelToEntity(m model.Transaction) *entity.Transaction {
	return &entity.Transaction{
		ID:                  m.ID,
		CorrelationID:       m.CorrelationID,
		ProductID:           m.ProductID,
		SellerID:            m.SellerID,
		BuyerEmail:          m.BuyerEmail,
		Amount:              m.Amount,
		CommissionRate:      m.CommissionRate,
		CommissionAmount:    m.CommissionAmount,
		SellerAmount:        m.SellerAmount,
		Currency:            m.Currency,
		HoldStatus:          entity.HoldStatus(m.HoldStatus),
		Carrier:             m.Carrier,
		TrackingNumber:      m.TrackingNumber,
		PaidAt:              m.PaidAt,
		ShippedAt:           m.ShippedAt,
		EstimatedDeliveryAt: m.EstimatedDeliveryAt,
		DeliveredAt:         m.DeliveredAt,
		DeliveryConfirmedAt: m.DeliveryConfirmedAt,
		DisputedAt:          m.DisputedAt,
		ReleaseRequestedAt:  m.ReleaseRequestedAt,
		ReleasedAt:          m.ReleasedAt,
		TransferredAt:       m.TransferredAt,
		FailedAt:            m.FailedAt,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// Create saves a new transaction
func (r *TransactionRepository) Create(ctx context.Context, transaction *entity.Transaction) error {
	r.logger.Debug("Creating transaction", map[string]any{
		"transaction_id": transaction.ID,
		"correlation_id": transaction.CorrelationID,
	})

	transactionModel := r.entityToModel(transaction)

	result := r.db.WithContext(ctx).Create(&transactionModel)
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			r.logger.Warn("Duplicate capture event detected", map[string]any{
				"correlation_id": transaction.CorrelationID,
			})
			return errs.ErrDuplicateEvent
		}

		r.logger.Error("Failed to create transaction", map[string]any{
			"transaction_id": transaction.ID,
			"error":          result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	r.logger.Info("Transaction created successfully", map[string]any{
		"transaction_id": transaction.ID,
		"correlation_id": transaction.CorrelationID,
	})
	return nil
}

// GetByID retrieves a transaction by its id
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	var transactionModel model.Transaction
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&transactionModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return r.modelToEntity(transactionModel), nil
}

// GetByCorrelationID retrieves a transaction by the provider's capture id
func (r *TransactionRepository) GetByCorrelationID(ctx context.Context, correlationID string) (*entity.Transaction, error) {
	var transactionModel model.Transaction
	result := r.db.WithContext(ctx).Where("correlation_id = ?", correlationID).First(&transactionModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return r.modelToEntity(transactionModel), nil
}

// UpdateStatus applies a state transition guarded by the expected current
// status. Zero rows affected means the row moved under us; the caller gets
// ErrPrecondition and the transition is lost, not silently reapplied.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, transaction *entity.Transaction, expectedStatus entity.HoldStatus) error {
	r.logger.Debug("Updating transaction status", map[string]any{
		"transaction_id": transaction.ID,
		"from":           string(expectedStatus),
		"to":             string(transaction.HoldStatus),
	})

	transactionModel := r.entityToModel(transaction)

	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ? AND hold_status = ?", transaction.ID, string(expectedStatus)).
		Updates(map[string]interface{}{
			"hold_status":           transactionModel.HoldStatus,
			"carrier":               transactionModel.Carrier,
			"tracking_number":       transactionModel.TrackingNumber,
			"shipped_at":            transactionModel.ShippedAt,
			"estimated_delivery_at": transactionModel.EstimatedDeliveryAt,
			"delivered_at":          transactionModel.DeliveredAt,
			"delivery_confirmed_at": transactionModel.DeliveryConfirmedAt,
			"disputed_at":           transactionModel.DisputedAt,
			"release_requested_at":  transactionModel.ReleaseRequestedAt,
			"released_at":           transactionModel.ReleasedAt,
			"transferred_at":        transactionModel.TransferredAt,
			"failed_at":             transactionModel.FailedAt,
			"updated_at":            transactionModel.UpdatedAt,
		})

	if result.Error != nil {
		r.logger.Error("Failed to update transaction status", map[string]any{
			"transaction_id": transaction.ID,
			"error":          result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Transaction{}).
			Where("id = ?", transaction.ID).Count(&count).Error; err == nil && count == 0 {
			return errs.ErrTransactionNotFound
		}
		return errs.NewPreconditionError(transaction.ID, "update status",
			string(expectedStatus), "transaction state changed concurrently")
	}

	return nil
}

// ListShippedDueForDelivery returns shipped transactions whose estimated
// delivery time has passed
func (r *TransactionRepository) ListShippedDueForDelivery(ctx context.Context, now time.Time, limit int) ([]*entity.Transaction, error) {
	var models []model.Transaction
	err := database.RetryOnTransientError(ctx, database.DefaultRetryConfig(), func() error {
		return r.db.WithContext(ctx).
			Where("hold_status = ? AND estimated_delivery_at <= ?", string(entity.StatusShipped), now).
			Order("estimated_delivery_at asc").
			Limit(limit).
			Find(&models).Error
	}, r.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	transactions := make([]*entity.Transaction, 0, len(models))
	for _, m := range models {
		transactions = append(transactions, r.modelToEntity(m))
	}
	return transactions, nil
}
