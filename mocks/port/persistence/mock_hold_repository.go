package persistence

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
	"github.com/fairwaymarket/escrow-processor/internal/domain/port/persistence"
)

// MockHoldRepository is a testify mock for persistence.HoldRepository
type MockHoldRepository struct {
	mock.Mock
}

func (m *MockHoldRepository) Create(ctx context.Context, hold *entity.PaymentHold) error {
	args := m.Called(ctx, hold)
	return args.Error(0)
}

func (m *MockHoldRepository) GetByTransactionID(ctx context.Context, transactionID string) (*entity.PaymentHold, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PaymentHold), args.Error(1)
}

func (m *MockHoldRepository) UpdateReason(ctx context.Context, holdID, reason string) error {
	args := m.Called(ctx, holdID, reason)
	return args.Error(0)
}

func (m *MockHoldRepository) MarkDisputed(ctx context.Context, holdID string, dispute persistence.DisputeRecord) error {
	args := m.Called(ctx, holdID, dispute)
	return args.Error(0)
}

func (m *MockHoldRepository) Release(ctx context.Context, holdID, reason string, releasedAt time.Time, schedule entity.PayoutSchedule) error {
	args := m.Called(ctx, holdID, reason, releasedAt, schedule)
	return args.Error(0)
}

func (m *MockHoldRepository) RecordReleaseRequest(ctx context.Context, holdID string, requestedAt, autoReleaseEligibleAt time.Time) error {
	args := m.Called(ctx, holdID, requestedAt, autoReleaseEligibleAt)
	return args.Error(0)
}

func (m *MockHoldRepository) ClaimPayout(ctx context.Context, holdID string, claimedAt time.Time) error {
	args := m.Called(ctx, holdID, claimedAt)
	return args.Error(0)
}

func (m *MockHoldRepository) ReleaseClaim(ctx context.Context, holdID string) error {
	args := m.Called(ctx, holdID)
	return args.Error(0)
}

func (m *MockHoldRepository) CompletePayout(ctx context.Context, holdID, transferRef string) error {
	args := m.Called(ctx, holdID, transferRef)
	return args.Error(0)
}

func (m *MockHoldRepository) FailPayout(ctx context.Context, holdID, lastError string) error {
	args := m.Called(ctx, holdID, lastError)
	return args.Error(0)
}

func (m *MockHoldRepository) ListPayoutDue(ctx context.Context, now time.Time, limit int) ([]*entity.PaymentHold, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.PaymentHold), args.Error(1)
}

func (m *MockHoldRepository) ListStaleClaims(ctx context.Context, cutoff time.Time, limit int) ([]*entity.PaymentHold, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.PaymentHold), args.Error(1)
}

func (m *MockHoldRepository) ListAutoReleaseDue(ctx context.Context, now time.Time, limit int) ([]*entity.PaymentHold, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.PaymentHold), args.Error(1)
}
