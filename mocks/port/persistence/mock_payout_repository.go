package persistence

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
)

// MockPayoutRepository is a testify mock for persistence.PayoutRepository
type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) Create(ctx context.Context, payout *entity.Payout) error {
	args := m.Called(ctx, payout)
	return args.Error(0)
}

func (m *MockPayoutRepository) Update(ctx context.Context, payout *entity.Payout) error {
	args := m.Called(ctx, payout)
	return args.Error(0)
}

func (m *MockPayoutRepository) GetCompletedByTransactionID(ctx context.Context, transactionID string) (*entity.Payout, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Payout), args.Error(1)
}

// MockActivityRepository is a testify mock for persistence.ActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Append(ctx context.Context, activity *entity.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

// MockSellerDirectory is a testify mock for persistence.SellerDirectory
type MockSellerDirectory struct {
	mock.Mock
}

func (m *MockSellerDirectory) GetByID(ctx context.Context, id string) (*entity.Seller, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Seller), args.Error(1)
}

// MockProductCatalog is a testify mock for persistence.ProductCatalog
type MockProductCatalog struct {
	mock.Mock
}

func (m *MockProductCatalog) SetStatus(ctx context.Context, productID, status string) error {
	args := m.Called(ctx, productID, status)
	return args.Error(0)
}
