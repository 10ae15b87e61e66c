package payment

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
	"github.com/fairwaymarket/escrow-processor/internal/domain/port/payment"
)

// MockPayoutRail is a testify mock for payment.PayoutRail
type MockPayoutRail struct {
	mock.Mock

	RailKind entity.RailKind
}

func (m *MockPayoutRail) Kind() entity.RailKind {
	return m.RailKind
}

func (m *MockPayoutRail) Transfer(ctx context.Context, req payment.TransferRequest) (*payment.TransferResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.TransferResult), args.Error(1)
}

func (m *MockPayoutRail) VerifyAccount(ctx context.Context, destinationRef string) error {
	args := m.Called(ctx, destinationRef)
	return args.Error(0)
}

// MockNotifier is a testify mock for payment.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, recipientEmail string, template payment.TemplateKind, data map[string]any) error {
	args := m.Called(ctx, recipientEmail, template, data)
	return args.Error(0)
}
