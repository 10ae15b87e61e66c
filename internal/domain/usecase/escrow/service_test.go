package escrow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
	errs "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	paymentport "github.com/fairwaymarket/escrow-processor/internal/domain/port/payment"
	"github.com/fairwaymarket/escrow-processor/internal/domain/port/persistence"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/logger"
	coremocks "github.com/fairwaymarket/escrow-processor/mocks/port/core"
	paymentmocks "github.com/fairwaymarket/escrow-processor/mocks/port/payment"
	persistencemocks "github.com/fairwaymarket/escrow-processor/mocks/port/persistence"
)

type serviceFixture struct {
	service      *Service
	transactions *persistencemocks.MockTransactionRepository
	holds        *persistencemocks.MockHoldRepository
	activities   *persistencemocks.MockActivityRepository
	sellers      *persistencemocks.MockSellerDirectory
	products     *persistencemocks.MockProductCatalog
	notifier     *paymentmocks.MockNotifier
	clock        *coremocks.StubTimeProvider
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		transactions: new(persistencemocks.MockTransactionRepository),
		holds:        new(persistencemocks.MockHoldRepository),
		activities:   new(persistencemocks.MockActivityRepository),
		sellers:      new(persistencemocks.MockSellerDirectory),
		products:     new(persistencemocks.MockProductCatalog),
		notifier:     new(paymentmocks.MockNotifier),
		clock:        coremocks.NewStubTimeProvider(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}

	f.service = NewService(
		f.transactions,
		f.holds,
		f.activities,
		f.sellers,
		f.products,
		f.notifier,
		f.clock,
		logger.NewNoopLogger(),
		2*time.Hour,    // release delay
		24*time.Hour,   // auto release after a release request
		7*24*time.Hour, // buyer silence before seller may request release
	)

	// Audit and notification writes are best-effort everywhere.
	f.activities.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return f
}

func (f *serviceFixture) transaction(status entity.HoldStatus) *entity.Transaction {
	txn, _ := entity.NewTransaction(
		"txn-1", "cs_abc", "prod-1", "seller-1", "buyer@example.com",
		15000, "0.03", 450, 14550, "USD", f.clock,
	)
	txn.HoldStatus = status
	return txn
}

func (f *serviceFixture) hold() *entity.PaymentHold {
	return entity.NewPaymentHold("hold-1", "txn-1", 15000, "USD", 450, 20, f.clock)
}

func (f *serviceFixture) seller() *entity.Seller {
	return &entity.Seller{
		ID:             "seller-1",
		Email:          "seller@example.com",
		Tier:           entity.TierPro,
		BankAccountRef: "acct_123",
	}
}

var sellerActor = Actor{ID: "seller-1", Role: RoleSeller}
var buyerActor = Actor{ID: "buyer@example.com", Role: RoleBuyer}

func TestService_GetTransaction(t *testing.T) {
	t.Run("party can read", func(t *testing.T) {
		f := newServiceFixture(t)
		txn := f.transaction(entity.StatusShipped)
		f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)

		result, err := f.service.GetTransaction(context.Background(), sellerActor, "txn-1")

		require.NoError(t, err)
		assert.Equal(t, txn, result)
	})

	t.Run("stranger is rejected", func(t *testing.T) {
		f := newServiceFixture(t)
		f.transactions.On("GetByID", mock.Anything, "txn-1").Return(f.transaction(entity.StatusShipped), nil)

		_, err := f.service.GetTransaction(context.Background(), Actor{ID: "other", Role: RoleSeller}, "txn-1")

		assert.True(t, errs.IsAuthorizationError(err))
	})
}

func TestService_MarkShipped(t *testing.T) {
	t.Run("seller ships a held order", func(t *testing.T) {
		f := newServiceFixture(t)
		txn := f.transaction(entity.StatusPaymentHeld)
		f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
		f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusPaymentHeld).Return(nil)
		f.holds.On("GetByTransactionID", mock.Anything, "txn-1").Return(f.hold(), nil)
		f.holds.On("UpdateReason", mock.Anything, "hold-1", entity.ReasonAwaitingDelivery).Return(nil)

		result, err := f.service.MarkShipped(context.Background(), sellerActor, "txn-1", "UPS", "1Z999", nil)

		require.NoError(t, err)
		assert.Equal(t, entity.StatusShipped, result.HoldStatus)
		assert.Equal(t, "UPS", result.Carrier)
		require.NotNil(t, result.EstimatedDeliveryAt)
		assert.Equal(t, f.clock.Current.Add(72*time.Hour), *result.EstimatedDeliveryAt)
		f.notifier.AssertCalled(t, "Send", mock.Anything, "buyer@example.com", paymentport.TemplateOrderShipped, mock.Anything)
	})

	t.Run("buyer cannot ship", func(t *testing.T) {
		f := newServiceFixture(t)
		f.transactions.On("GetByID", mock.Anything, "txn-1").Return(f.transaction(entity.StatusPaymentHeld), nil)

		_, err := f.service.MarkShipped(context.Background(), buyerActor, "txn-1", "UPS", "1Z999", nil)

		assert.True(t, errs.IsAuthorizationError(err))
		f.transactions.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already shipped order rejects", func(t *testing.T) {
		f := newServiceFixture(t)
		f.transactions.On("GetByID", mock.Anything, "txn-1").Return(f.transaction(entity.StatusShipped), nil)

		_, err := f.service.MarkShipped(context.Background(), sellerActor, "txn-1", "UPS", "1Z999", nil)

		assert.True(t, errs.IsPreconditionError(err))
	})
}

func TestService_ConfirmDelivery_Satisfied(t *testing.T) {
	f := newServiceFixture(t)
	txn := f.transaction(entity.StatusDelivered)
	deliveredAt := f.clock.Current.Add(-time.Hour)
	txn.DeliveredAt = &deliveredAt

	f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
	f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusDelivered).Return(nil)
	f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusConfirmed).Return(nil)
	f.holds.On("GetByTransactionID", mock.Anything, "txn-1").Return(f.hold(), nil)
	f.sellers.On("GetByID", mock.Anything, "seller-1").Return(f.seller(), nil)
	f.holds.On("Release", mock.Anything, "hold-1", entity.ReasonBuyerConfirmed, f.clock.Current,
		mock.MatchedBy(func(schedule entity.PayoutSchedule) bool {
			return schedule.Status == entity.PayoutScheduled &&
				schedule.Method == entity.RailBankTransfer &&
				schedule.ScheduledAt != nil &&
				schedule.ScheduledAt.Equal(f.clock.Current.Add(2*time.Hour))
		})).Return(nil)
	f.products.On("SetStatus", mock.Anything, "prod-1", entity.ProductSold).Return(nil)

	result, err := f.service.ConfirmDelivery(context.Background(), buyerActor, "txn-1", true, "")

	require.NoError(t, err)
	assert.Equal(t, entity.StatusReleased, result.HoldStatus)
	f.holds.AssertExpectations(t)
	f.notifier.AssertCalled(t, "Send", mock.Anything, "seller@example.com", paymentport.TemplatePayoutScheduled, mock.Anything)
	f.notifier.AssertCalled(t, "Send", mock.Anything, "buyer@example.com", paymentport.TemplateOrderComplete, mock.Anything)
}

func TestService_ConfirmDelivery_FromShippedStampsDelivery(t *testing.T) {
	f := newServiceFixture(t)
	txn := f.transaction(entity.StatusShipped)

	f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
	f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusShipped).Return(nil)
	f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusConfirmed).Return(nil)
	f.holds.On("GetByTransactionID", mock.Anything, "txn-1").Return(f.hold(), nil)
	f.sellers.On("GetByID", mock.Anything, "seller-1").Return(f.seller(), nil)
	f.holds.On("Release", mock.Anything, "hold-1", entity.ReasonBuyerConfirmed, mock.Anything, mock.Anything).Return(nil)
	f.products.On("SetStatus", mock.Anything, "prod-1", entity.ProductSold).Return(nil)

	result, err := f.service.ConfirmDelivery(context.Background(), buyerActor, "txn-1", true, "")

	require.NoError(t, err)
	require.NotNil(t, result.DeliveredAt)
	assert.Equal(t, f.clock.Current, *result.DeliveredAt)
}

func TestService_ConfirmDelivery_Dispute(t *testing.T) {
	f := newServiceFixture(t)
	txn := f.transaction(entity.StatusDelivered)

	f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
	f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusDelivered).Return(nil)
	f.holds.On("GetByTransactionID", mock.Anything, "txn-1").Return(f.hold(), nil)
	f.sellers.On("GetByID", mock.Anything, "seller-1").Return(f.seller(), nil)
	f.holds.On("MarkDisputed", mock.Anything, "hold-1",
		mock.MatchedBy(func(d persistence.DisputeRecord) bool {
			return d.RaisedBy == "buyer@example.com" && d.Reason == "item damaged"
		})).Return(nil)

	result, err := f.service.ConfirmDelivery(context.Background(), buyerActor, "txn-1", false, "item damaged")

	require.NoError(t, err)
	assert.True(t, result.IsDisputed())
	f.holds.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.notifier.AssertCalled(t, "Send", mock.Anything, "seller@example.com", paymentport.TemplateDisputeRaised, mock.Anything)
}

func TestService_RequestRelease(t *testing.T) {
	t.Run("rejected while the buyer still has time", func(t *testing.T) {
		f := newServiceFixture(t)
		txn := f.transaction(entity.StatusDelivered)
		deliveredAt := f.clock.Current.Add(-3 * 24 * time.Hour)
		txn.DeliveredAt = &deliveredAt
		f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)

		_, err := f.service.RequestRelease(context.Background(), sellerActor, "txn-1")

		assert.True(t, errs.IsPreconditionError(err))
		assert.Contains(t, err.Error(), "day(s) to respond")
		f.transactions.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejected one hour before the window closes", func(t *testing.T) {
		f := newServiceFixture(t)
		txn := f.transaction(entity.StatusDelivered)
		deliveredAt := f.clock.Current.Add(-(7*24*time.Hour - time.Hour))
		txn.DeliveredAt = &deliveredAt
		f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)

		_, err := f.service.RequestRelease(context.Background(), sellerActor, "txn-1")

		assert.True(t, errs.IsPreconditionError(err))
		assert.Contains(t, err.Error(), "1 day(s) to respond")
		f.transactions.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("accepted exactly when the window closes", func(t *testing.T) {
		f := newServiceFixture(t)
		txn := f.transaction(entity.StatusDelivered)
		deliveredAt := f.clock.Current.Add(-7 * 24 * time.Hour)
		txn.DeliveredAt = &deliveredAt

		f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
		f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusDelivered).Return(nil)
		f.holds.On("GetByTransactionID", mock.Anything, "txn-1").Return(f.hold(), nil)
		f.holds.On("RecordReleaseRequest", mock.Anything, "hold-1",
			f.clock.Current, f.clock.Current.Add(24*time.Hour)).Return(nil)

		result, err := f.service.RequestRelease(context.Background(), sellerActor, "txn-1")

		require.NoError(t, err)
		assert.Equal(t, entity.StatusReleaseRequested, result.HoldStatus)
		f.holds.AssertExpectations(t)
	})

	t.Run("opens the release request after the waiting window", func(t *testing.T) {
		f := newServiceFixture(t)
		txn := f.transaction(entity.StatusDelivered)
		deliveredAt := f.clock.Current.Add(-8 * 24 * time.Hour)
		txn.DeliveredAt = &deliveredAt

		f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
		f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusDelivered).Return(nil)
		f.holds.On("GetByTransactionID", mock.Anything, "txn-1").Return(f.hold(), nil)
		f.holds.On("RecordReleaseRequest", mock.Anything, "hold-1",
			f.clock.Current, f.clock.Current.Add(24*time.Hour)).Return(nil)

		result, err := f.service.RequestRelease(context.Background(), sellerActor, "txn-1")

		require.NoError(t, err)
		assert.Equal(t, entity.StatusReleaseRequested, result.HoldStatus)
		f.holds.AssertExpectations(t)
		f.notifier.AssertCalled(t, "Send", mock.Anything, "buyer@example.com", paymentport.TemplateReleaseRequested, mock.Anything)
	})

	t.Run("buyer cannot request release", func(t *testing.T) {
		f := newServiceFixture(t)
		f.transactions.On("GetByID", mock.Anything, "txn-1").Return(f.transaction(entity.StatusDelivered), nil)

		_, err := f.service.RequestRelease(context.Background(), buyerActor, "txn-1")

		assert.True(t, errs.IsAuthorizationError(err))
	})
}

func TestService_AutoRelease(t *testing.T) {
	t.Run("releases after buyer silence", func(t *testing.T) {
		f := newServiceFixture(t)
		txn := f.transaction(entity.StatusReleaseRequested)
		hold := f.hold()

		f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
		f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusReleaseRequested).Return(nil)
		f.holds.On("GetByTransactionID", mock.Anything, "txn-1").Return(hold, nil)
		f.sellers.On("GetByID", mock.Anything, "seller-1").Return(f.seller(), nil)
		f.holds.On("Release", mock.Anything, "hold-1", entity.ReasonAutoRelease, mock.Anything, mock.Anything).Return(nil)
		f.products.On("SetStatus", mock.Anything, "prod-1", entity.ProductSold).Return(nil)

		err := f.service.AutoRelease(context.Background(), hold)

		require.NoError(t, err)
		assert.Equal(t, entity.StatusReleased, txn.HoldStatus)
	})

	t.Run("rejects without a pending release request", func(t *testing.T) {
		f := newServiceFixture(t)
		txn := f.transaction(entity.StatusDelivered)
		hold := f.hold()

		f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)

		err := f.service.AutoRelease(context.Background(), hold)

		assert.True(t, errs.IsPreconditionError(err))
	})
}
