package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	coremocks "github.com/fairwaymarket/escrow-processor/mocks/port/core"
)

func TestNewTransaction(t *testing.T) {
	fixedTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := coremocks.NewStubTimeProvider(fixedTime)

	t.Run("valid transaction creation", func(t *testing.T) {
		txn, err := NewTransaction(
			"txn-1",
			"cs_abc123",
			"prod-1",
			"seller-1",
			"buyer@example.com",
			15000,
			"0.03",
			450,
			14550,
			"USD",
			clock,
		)

		require.NoError(t, err)
		assert.Equal(t, "txn-1", txn.ID)
		assert.Equal(t, "cs_abc123", txn.CorrelationID)
		assert.Equal(t, StatusPaymentHeld, txn.HoldStatus)
		assert.Equal(t, int64(15000), txn.Amount)
		assert.Equal(t, int64(450), txn.CommissionAmount)
		assert.Equal(t, int64(14550), txn.SellerAmount)
		require.NotNil(t, txn.PaidAt)
		assert.Equal(t, fixedTime, *txn.PaidAt)
		assert.Equal(t, fixedTime, txn.CreatedAt)
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		_, err := NewTransaction("txn-1", "cs_1", "prod-1", "seller-1", "b@x.com", -1, "0.03", 0, 0, "USD", clock)
		assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	})

	t.Run("split must cover the gross exactly", func(t *testing.T) {
		_, err := NewTransaction("txn-1", "cs_1", "prod-1", "seller-1", "b@x.com", 15000, "0.03", 450, 14549, "USD", clock)
		assert.ErrorIs(t, err, errs.ErrInvalidSplit)
	})
}

func newTestTransaction(t *testing.T, clock *coremocks.StubTimeProvider) *Transaction {
	t.Helper()
	txn, err := NewTransaction(
		"txn-1", "cs_abc123", "prod-1", "seller-1", "buyer@example.com",
		15000, "0.03", 450, 14550, "USD", clock,
	)
	require.NoError(t, err)
	return txn
}

func TestTransaction_MarkShipped(t *testing.T) {
	fixedTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("default delivery estimate is 72 hours", func(t *testing.T) {
		clock := coremocks.NewStubTimeProvider(fixedTime)
		txn := newTestTransaction(t, clock)

		txn.MarkShipped(clock, "UPS", "1Z999", nil)

		assert.Equal(t, StatusShipped, txn.HoldStatus)
		assert.Equal(t, "UPS", txn.Carrier)
		assert.Equal(t, "1Z999", txn.TrackingNumber)
		require.NotNil(t, txn.EstimatedDeliveryAt)
		assert.Equal(t, fixedTime.Add(72*time.Hour), *txn.EstimatedDeliveryAt)
	})

	t.Run("carrier estimate wins when supplied", func(t *testing.T) {
		clock := coremocks.NewStubTimeProvider(fixedTime)
		txn := newTestTransaction(t, clock)
		estimate := fixedTime.Add(48 * time.Hour)

		txn.MarkShipped(clock, "FedEx", "FX123", &estimate)

		require.NotNil(t, txn.EstimatedDeliveryAt)
		assert.Equal(t, estimate, *txn.EstimatedDeliveryAt)
	})
}

func TestTransaction_Transitions(t *testing.T) {
	fixedTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := coremocks.NewStubTimeProvider(fixedTime)

	txn := newTestTransaction(t, clock)
	assert.True(t, txn.CanShip())
	assert.False(t, txn.CanConfirmDelivery())
	assert.False(t, txn.CanRequestRelease())

	txn.MarkShipped(clock, "UPS", "1Z999", nil)
	assert.False(t, txn.CanShip())
	assert.True(t, txn.CanConfirmDelivery())
	assert.False(t, txn.CanRequestRelease())

	clock.Advance(72 * time.Hour)
	txn.MarkDelivered(clock)
	assert.Equal(t, StatusDelivered, txn.HoldStatus)
	assert.True(t, txn.CanConfirmDelivery())
	assert.True(t, txn.CanRequestRelease())

	txn.MarkConfirmed(clock)
	assert.Equal(t, StatusConfirmed, txn.HoldStatus)
	require.NotNil(t, txn.DeliveryConfirmedAt)
	assert.False(t, txn.CanConfirmDelivery())
	assert.False(t, txn.CanRequestRelease())

	txn.MarkReleased(clock)
	assert.Equal(t, StatusReleased, txn.HoldStatus)
	require.NotNil(t, txn.ReleasedAt)

	txn.MarkTransferred(clock)
	assert.Equal(t, StatusTransferred, txn.HoldStatus)
	require.NotNil(t, txn.TransferredAt)
}

func TestTransaction_Dispute(t *testing.T) {
	fixedTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := coremocks.NewStubTimeProvider(fixedTime)

	txn := newTestTransaction(t, clock)
	txn.MarkShipped(clock, "UPS", "1Z999", nil)
	txn.MarkDisputed(clock)

	assert.True(t, txn.IsDisputed())
	assert.Equal(t, StatusDisputed, txn.HoldStatus)
	require.NotNil(t, txn.DisputedAt)
	assert.False(t, txn.CanConfirmDelivery())
	assert.False(t, txn.CanRequestRelease())
}

func TestTransaction_MarkFailedKeepsStatus(t *testing.T) {
	fixedTime := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := coremocks.NewStubTimeProvider(fixedTime)

	txn := newTestTransaction(t, clock)
	txn.MarkShipped(clock, "UPS", "1Z999", nil)
	txn.MarkDelivered(clock)
	txn.MarkConfirmed(clock)
	txn.MarkReleased(clock)

	txn.MarkFailed(clock)

	// A failed payout attempt stamps the failure but the escrow state stays
	// released so later sweeps can retry.
	assert.Equal(t, StatusReleased, txn.HoldStatus)
	require.NotNil(t, txn.FailedAt)
}
