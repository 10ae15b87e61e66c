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

// SellerRepository implements the SellerDirectory port as a read-only lookup
// against the sellers projection
type SellerRepository struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewSellerRepository creates a new SellerRepository instance
func NewSellerRepository(db *gorm.DB, logger coreport.Logger) *SellerRepository {
	return &SellerRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a seller
func (r *SellerRepository) GetByID(ctx context.Context, id string) (*entity.Seller, error) {
	var sellerModel model.Seller
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&sellerModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrSellerNotFound
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return &entity.Seller{
		ID:             sellerModel.ID,
		Email:          sellerModel.Email,
		Tier:           entity.SellerTier(sellerModel.Tier),
		BankAccountRef: sellerModel.BankAccountRef,
		WalletHandle:   sellerModel.WalletHandle,
	}, nil
}
