package persistence

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
)

// MockTransactionRepository is a testify mock for persistence.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, transaction *entity.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByCorrelationID(ctx context.Context, correlationID string) (*entity.Transaction, error) {
	args := m.Called(ctx, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, transaction *entity.Transaction, expectedStatus entity.HoldStatus) error {
	args := m.Called(ctx, transaction, expectedStatus)
	return args.Error(0)
}

func (m *MockTransactionRepository) ListShippedDueForDelivery(ctx context.Context, now time.Time, limit int) ([]*entity.Transaction, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Transaction), args.Error(1)
}
