package repository

import (
	"context"
	"fmt"
	"time"

	errs "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// ProductRepository implements the ProductCatalog port. The engine only ever
// flips a product's listing status.
type ProductRepository struct {
	db           *gorm.DB
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
}

// NewProductRepository creates a new ProductRepository instance
func NewProductRepository(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *ProductRepository {
	return &ProductRepository{
		db:           db,
		logger:       logger,
		timeProvider: timeProvider,
	}
}

// SetStatus flips a product's listing status
func (r *ProductRepository) SetStatus(ctx context.Context, productID, status string) error {
	var now time.Time
	if r.timeProvider != nil {
		now = r.timeProvider.Now()
	} else {
		now = time.Now()
	}

	result := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": now,
		})
	if result.Error != nil {
		r.logger.Error("Failed to update product status", map[string]any{
			"product_id": productID,
			"status":     status,
			"error":      result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrProductNotFound
	}

	return nil
}
