package payout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
	errs "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	paymentport "github.com/fairwaymarket/escrow-processor/internal/domain/port/payment"
	"github.com/fairwaymarket/escrow-processor/internal/domain/usecase/escrow"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/logger"
	coremocks "github.com/fairwaymarket/escrow-processor/mocks/port/core"
	paymentmocks "github.com/fairwaymarket/escrow-processor/mocks/port/payment"
	persistencemocks "github.com/fairwaymarket/escrow-processor/mocks/port/persistence"
)

type schedulerFixture struct {
	scheduler    *Scheduler
	transactions *persistencemocks.MockTransactionRepository
	holds        *persistencemocks.MockHoldRepository
	payouts      *persistencemocks.MockPayoutRepository
	sellers      *persistencemocks.MockSellerDirectory
	products     *persistencemocks.MockProductCatalog
	clock        *coremocks.StubTimeProvider
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()

	f := &schedulerFixture{
		transactions: new(persistencemocks.MockTransactionRepository),
		holds:        new(persistencemocks.MockHoldRepository),
		payouts:      new(persistencemocks.MockPayoutRepository),
		sellers:      new(persistencemocks.MockSellerDirectory),
		products:     new(persistencemocks.MockProductCatalog),
		clock:        coremocks.NewStubTimeProvider(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}

	activities := new(persistencemocks.MockActivityRepository)
	activities.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()
	notifier := new(paymentmocks.MockNotifier)
	notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	noop := logger.NewNoopLogger()

	escrowService := escrow.NewService(
		f.transactions, f.holds, activities, f.sellers, f.products,
		notifier, f.clock, noop,
		2*time.Hour, 24*time.Hour, 7*24*time.Hour,
	)
	executor := NewExecutor(
		f.transactions, f.holds, f.payouts, activities, f.sellers,
		[]paymentport.PayoutRail{&paymentmocks.MockPayoutRail{RailKind: entity.RailBankTransfer}},
		notifier, f.clock, noop,
	)
	f.scheduler = NewScheduler(
		f.transactions, f.holds, escrowService, executor,
		f.clock, noop, 50, 15*time.Minute,
	)

	return f
}

func (f *schedulerFixture) emptyPhases(except ...string) {
	skip := map[string]bool{}
	for _, name := range except {
		skip[name] = true
	}
	if !skip["stale"] {
		f.holds.On("ListStaleClaims", mock.Anything, mock.Anything, 50).Return([]*entity.PaymentHold{}, nil)
	}
	if !skip["delivery"] {
		f.transactions.On("ListShippedDueForDelivery", mock.Anything, mock.Anything, 50).Return([]*entity.Transaction{}, nil)
	}
	if !skip["autorelease"] {
		f.holds.On("ListAutoReleaseDue", mock.Anything, mock.Anything, 50).Return([]*entity.PaymentHold{}, nil)
	}
	if !skip["payout"] {
		f.holds.On("ListPayoutDue", mock.Anything, mock.Anything, 50).Return([]*entity.PaymentHold{}, nil)
	}
}

func dueHold(id, transactionID string, clock *coremocks.StubTimeProvider) *entity.PaymentHold {
	hold := entity.NewPaymentHold(id, transactionID, 15000, "USD", 450, 20, clock)
	hold.Status = entity.HoldReleased
	scheduledAt := clock.Current.Add(-time.Minute)
	hold.Payout = entity.PayoutSchedule{
		ScheduledAt: &scheduledAt,
		Status:      entity.PayoutScheduled,
		Method:      entity.RailBankTransfer,
	}
	return hold
}

func TestScheduler_Sweep_ReclaimsStaleClaims(t *testing.T) {
	f := newSchedulerFixture(t)
	stale := dueHold("hold-1", "txn-1", f.clock)
	claimedAt := f.clock.Current.Add(-time.Hour)
	stale.Payout.Status = entity.PayoutProcessing
	stale.Payout.ClaimedAt = &claimedAt

	f.holds.On("ListStaleClaims", mock.Anything, f.clock.Current.Add(-15*time.Minute), 50).
		Return([]*entity.PaymentHold{stale}, nil)
	f.holds.On("ReleaseClaim", mock.Anything, "hold-1").Return(nil)
	f.emptyPhases("stale")

	result := f.scheduler.Sweep(context.Background())

	assert.Equal(t, 1, result.Reclaimed)
	f.holds.AssertCalled(t, "ReleaseClaim", mock.Anything, "hold-1")
}

func TestScheduler_Sweep_PromotesOverdueDeliveries(t *testing.T) {
	f := newSchedulerFixture(t)
	txn, _ := entity.NewTransaction(
		"txn-1", "cs_abc", "prod-1", "seller-1", "buyer@example.com",
		15000, "0.03", 450, 14550, "USD", f.clock,
	)
	txn.MarkShipped(f.clock, "UPS", "1Z999", nil)
	f.clock.Advance(73 * time.Hour)

	f.transactions.On("ListShippedDueForDelivery", mock.Anything, f.clock.Current, 50).
		Return([]*entity.Transaction{txn}, nil)
	f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusShipped).Return(nil)
	f.emptyPhases("delivery")

	result := f.scheduler.Sweep(context.Background())

	assert.Equal(t, 1, result.Promoted)
	assert.Equal(t, entity.StatusDelivered, txn.HoldStatus)
}

func TestScheduler_Sweep_LostClaimRaceIsSkipped(t *testing.T) {
	f := newSchedulerFixture(t)
	winner := dueHold("hold-1", "txn-1", f.clock)
	loser := dueHold("hold-2", "txn-2", f.clock)

	f.holds.On("ListPayoutDue", mock.Anything, f.clock.Current, 50).
		Return([]*entity.PaymentHold{winner, loser}, nil)
	f.holds.On("ClaimPayout", mock.Anything, "hold-1", mock.Anything).Return(nil)
	f.holds.On("ClaimPayout", mock.Anything, "hold-2", mock.Anything).Return(errs.ErrHoldClaimed)
	f.emptyPhases("payout")

	// The claimed hold resolves through the crash-recovery path: a completed
	// payout already exists, so the executor only seals.
	txn, _ := entity.NewTransaction(
		"txn-1", "cs_abc", "prod-1", "seller-1", "buyer@example.com",
		15000, "0.03", 450, 14550, "USD", f.clock,
	)
	txn.HoldStatus = entity.StatusReleased
	f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
	f.payouts.On("GetCompletedByTransactionID", mock.Anything, "txn-1").
		Return(&entity.Payout{ID: "p0", TransactionID: "txn-1", Status: entity.PayoutStatusCompleted, TransferID: "tr_1"}, nil)
	f.holds.On("CompletePayout", mock.Anything, "hold-1", "tr_1").Return(nil)
	f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusReleased).Return(nil)

	result := f.scheduler.Sweep(context.Background())

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Failed)
}

func TestScheduler_Sweep_AutoReleaseSkipsResolvedTransactions(t *testing.T) {
	// The buyer confirmed between the deadline passing and the sweep running;
	// the precondition rejection is expected and not counted as a failure.
	f := newSchedulerFixture(t)
	hold := dueHold("hold-1", "txn-1", f.clock)
	txn, _ := entity.NewTransaction(
		"txn-1", "cs_abc", "prod-1", "seller-1", "buyer@example.com",
		15000, "0.03", 450, 14550, "USD", f.clock,
	)
	txn.HoldStatus = entity.StatusReleased

	f.holds.On("ListAutoReleaseDue", mock.Anything, f.clock.Current, 50).
		Return([]*entity.PaymentHold{hold}, nil)
	f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
	f.emptyPhases("autorelease")

	result := f.scheduler.Sweep(context.Background())

	assert.Equal(t, 0, result.AutoReleased)
}

func TestScheduler_Sweep_ListFailuresAreNotFatal(t *testing.T) {
	f := newSchedulerFixture(t)
	f.holds.On("ListStaleClaims", mock.Anything, mock.Anything, 50).
		Return(nil, errs.ErrDatabaseConnection)
	f.transactions.On("ListShippedDueForDelivery", mock.Anything, mock.Anything, 50).
		Return(nil, errs.ErrDatabaseConnection)
	f.holds.On("ListAutoReleaseDue", mock.Anything, mock.Anything, 50).
		Return(nil, errs.ErrDatabaseConnection)
	f.holds.On("ListPayoutDue", mock.Anything, mock.Anything, 50).
		Return(nil, errs.ErrDatabaseConnection)

	result := f.scheduler.Sweep(context.Background())

	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 0, result.Reclaimed)
}
