package payout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
	errs "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	paymentport "github.com/fairwaymarket/escrow-processor/internal/domain/port/payment"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/logger"
	coremocks "github.com/fairwaymarket/escrow-processor/mocks/port/core"
	paymentmocks "github.com/fairwaymarket/escrow-processor/mocks/port/payment"
	persistencemocks "github.com/fairwaymarket/escrow-processor/mocks/port/persistence"
)

type executorFixture struct {
	executor     *Executor
	transactions *persistencemocks.MockTransactionRepository
	holds        *persistencemocks.MockHoldRepository
	payouts      *persistencemocks.MockPayoutRepository
	activities   *persistencemocks.MockActivityRepository
	sellers      *persistencemocks.MockSellerDirectory
	bankRail     *paymentmocks.MockPayoutRail
	walletRail   *paymentmocks.MockPayoutRail
	notifier     *paymentmocks.MockNotifier
	clock        *coremocks.StubTimeProvider
}

func newExecutorFixture(t *testing.T) *executorFixture {
	t.Helper()

	f := &executorFixture{
		transactions: new(persistencemocks.MockTransactionRepository),
		holds:        new(persistencemocks.MockHoldRepository),
		payouts:      new(persistencemocks.MockPayoutRepository),
		activities:   new(persistencemocks.MockActivityRepository),
		sellers:      new(persistencemocks.MockSellerDirectory),
		bankRail:     &paymentmocks.MockPayoutRail{RailKind: entity.RailBankTransfer},
		walletRail:   &paymentmocks.MockPayoutRail{RailKind: entity.RailWallet},
		notifier:     new(paymentmocks.MockNotifier),
		clock:        coremocks.NewStubTimeProvider(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}

	f.executor = NewExecutor(
		f.transactions,
		f.holds,
		f.payouts,
		f.activities,
		f.sellers,
		[]paymentport.PayoutRail{f.bankRail, f.walletRail},
		f.notifier,
		f.clock,
		logger.NewNoopLogger(),
	)

	f.activities.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.notifier.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return f
}

func (f *executorFixture) releasedTransaction() *entity.Transaction {
	txn, _ := entity.NewTransaction(
		"txn-1", "cs_abc", "prod-1", "seller-1", "buyer@example.com",
		15000, "0.03", 450, 14550, "USD", f.clock,
	)
	txn.HoldStatus = entity.StatusReleased
	return txn
}

func (f *executorFixture) claimedHold() *entity.PaymentHold {
	hold := entity.NewPaymentHold("hold-1", "txn-1", 15000, "USD", 450, 20, f.clock)
	hold.Status = entity.HoldReleased
	scheduledAt := f.clock.Current.Add(-time.Minute)
	claimedAt := f.clock.Current
	hold.Payout = entity.PayoutSchedule{
		ScheduledAt: &scheduledAt,
		Status:      entity.PayoutProcessing,
		Method:      entity.RailBankTransfer,
		ClaimedAt:   &claimedAt,
	}
	return hold
}

func (f *executorFixture) bankSeller() *entity.Seller {
	return &entity.Seller{
		ID:             "seller-1",
		Email:          "seller@example.com",
		Tier:           entity.TierPro,
		BankAccountRef: "acct_123",
	}
}

func TestExecutor_Execute_Success(t *testing.T) {
	f := newExecutorFixture(t)
	txn := f.releasedTransaction()
	hold := f.claimedHold()

	f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
	f.payouts.On("GetCompletedByTransactionID", mock.Anything, "txn-1").Return(nil, errs.ErrPayoutNotFound)
	f.sellers.On("GetByID", mock.Anything, "seller-1").Return(f.bankSeller(), nil)
	f.bankRail.On("VerifyAccount", mock.Anything, "acct_123").Return(nil)

	var created *entity.Payout
	f.payouts.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*entity.Payout)
	}).Return(nil)

	f.bankRail.On("Transfer", mock.Anything, mock.MatchedBy(func(req paymentport.TransferRequest) bool {
		return req.DestinationRef == "acct_123" &&
			req.Amount == 14530 &&
			req.Currency == "USD" &&
			req.IdempotencyKey == "txn-1"
	})).Return(&paymentport.TransferResult{TransferID: "tr_987", Status: "sent"}, nil)

	f.payouts.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.holds.On("CompletePayout", mock.Anything, "hold-1", "tr_987").Return(nil)
	f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusReleased).Return(nil)

	err := f.executor.Execute(context.Background(), hold)

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, entity.PayoutStatusCompleted, created.Status)
	assert.Equal(t, "tr_987", created.TransferID)
	assert.Equal(t, entity.StatusTransferred, txn.HoldStatus)
	f.holds.AssertNotCalled(t, "ReleaseClaim", mock.Anything, mock.Anything)
	f.notifier.AssertCalled(t, "Send", mock.Anything, "seller@example.com", paymentport.TemplatePayoutCompleted, mock.Anything)
	f.notifier.AssertCalled(t, "Send", mock.Anything, "buyer@example.com", paymentport.TemplateOrderComplete, mock.Anything)
}

func TestExecutor_Execute_AlreadyCompletedSealsOnly(t *testing.T) {
	// Crash recovery: the transfer succeeded on an earlier attempt but the
	// process died before sealing the envelope.
	f := newExecutorFixture(t)
	txn := f.releasedTransaction()
	hold := f.claimedHold()
	completed := &entity.Payout{ID: "p0", TransactionID: "txn-1", Status: entity.PayoutStatusCompleted, TransferID: "tr_old"}

	f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
	f.payouts.On("GetCompletedByTransactionID", mock.Anything, "txn-1").Return(completed, nil)
	f.holds.On("CompletePayout", mock.Anything, "hold-1", "tr_old").Return(nil)
	f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusReleased).Return(nil)

	err := f.executor.Execute(context.Background(), hold)

	require.NoError(t, err)
	f.payouts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.bankRail.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
}

func TestExecutor_Execute_TransientFailureReleasesClaim(t *testing.T) {
	f := newExecutorFixture(t)
	txn := f.releasedTransaction()
	hold := f.claimedHold()

	f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
	f.payouts.On("GetCompletedByTransactionID", mock.Anything, "txn-1").Return(nil, errs.ErrPayoutNotFound)
	f.sellers.On("GetByID", mock.Anything, "seller-1").Return(f.bankSeller(), nil)
	f.bankRail.On("VerifyAccount", mock.Anything, "acct_123").Return(nil)
	f.payouts.On("Create", mock.Anything, mock.Anything).Return(nil)

	transient := errs.NewRailError("bank_transfer", "transfer", false, errors.New("gateway timeout"))
	f.bankRail.On("Transfer", mock.Anything, mock.Anything).Return(nil, transient)

	f.payouts.On("Update", mock.Anything, mock.MatchedBy(func(p *entity.Payout) bool {
		return p.Status == entity.PayoutStatusFailed
	})).Return(nil)
	f.holds.On("ReleaseClaim", mock.Anything, "hold-1").Return(nil)

	err := f.executor.Execute(context.Background(), hold)

	assert.ErrorIs(t, err, errs.ErrRailFailure)
	f.holds.AssertCalled(t, "ReleaseClaim", mock.Anything, "hold-1")
	f.holds.AssertNotCalled(t, "FailPayout", mock.Anything, mock.Anything, mock.Anything)
	f.notifier.AssertCalled(t, "Send", mock.Anything, "seller@example.com", paymentport.TemplatePayoutFailed, mock.Anything)
	f.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, paymentport.TemplatePayoutActionNeeded, mock.Anything)
}

func TestExecutor_Execute_PermanentFailureNotifiesSeller(t *testing.T) {
	f := newExecutorFixture(t)
	txn := f.releasedTransaction()
	hold := f.claimedHold()

	f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
	f.payouts.On("GetCompletedByTransactionID", mock.Anything, "txn-1").Return(nil, errs.ErrPayoutNotFound)
	f.sellers.On("GetByID", mock.Anything, "seller-1").Return(f.bankSeller(), nil)
	f.bankRail.On("VerifyAccount", mock.Anything, "acct_123").Return(nil)
	f.payouts.On("Create", mock.Anything, mock.Anything).Return(nil)

	permanent := errs.NewRailError("bank_transfer", "transfer", true, errors.New("account closed"))
	f.bankRail.On("Transfer", mock.Anything, mock.Anything).Return(nil, permanent)

	f.payouts.On("Update", mock.Anything, mock.Anything).Return(nil)
	f.holds.On("FailPayout", mock.Anything, "hold-1", mock.Anything).Return(nil)
	f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusReleased).Return(nil)

	err := f.executor.Execute(context.Background(), hold)

	assert.ErrorIs(t, err, errs.ErrRailFailure)
	f.holds.AssertCalled(t, "FailPayout", mock.Anything, "hold-1", mock.Anything)
	f.holds.AssertNotCalled(t, "ReleaseClaim", mock.Anything, mock.Anything)
	f.notifier.AssertCalled(t, "Send", mock.Anything, "seller@example.com", paymentport.TemplatePayoutActionNeeded, mock.Anything)
	require.NotNil(t, txn.FailedAt)
}

func TestExecutor_Execute_NoDestinationFailsPermanently(t *testing.T) {
	f := newExecutorFixture(t)
	txn := f.releasedTransaction()
	hold := f.claimedHold()

	f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
	f.payouts.On("GetCompletedByTransactionID", mock.Anything, "txn-1").Return(nil, errs.ErrPayoutNotFound)
	f.sellers.On("GetByID", mock.Anything, "seller-1").Return(&entity.Seller{
		ID: "seller-1", Email: "seller@example.com", Tier: entity.TierPro,
	}, nil)
	f.holds.On("FailPayout", mock.Anything, "hold-1", mock.Anything).Return(nil)
	f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusReleased).Return(nil)

	err := f.executor.Execute(context.Background(), hold)

	assert.ErrorIs(t, err, errs.ErrNoPayoutDestination)
	f.payouts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.notifier.AssertCalled(t, "Send", mock.Anything, "seller@example.com", paymentport.TemplatePayoutActionNeeded, mock.Anything)
}

func TestExecutor_Execute_DeadDestinationFailsBeforeTransfer(t *testing.T) {
	f := newExecutorFixture(t)
	txn := f.releasedTransaction()
	hold := f.claimedHold()

	f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
	f.payouts.On("GetCompletedByTransactionID", mock.Anything, "txn-1").Return(nil, errs.ErrPayoutNotFound)
	f.sellers.On("GetByID", mock.Anything, "seller-1").Return(f.bankSeller(), nil)

	dead := errs.NewRailError("bank_transfer", "verify_account", true, errors.New("account closed"))
	f.bankRail.On("VerifyAccount", mock.Anything, "acct_123").Return(dead)

	f.holds.On("FailPayout", mock.Anything, "hold-1", mock.Anything).Return(nil)
	f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusReleased).Return(nil)

	err := f.executor.Execute(context.Background(), hold)

	assert.ErrorIs(t, err, errs.ErrRailFailure)
	f.payouts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.bankRail.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
	f.notifier.AssertCalled(t, "Send", mock.Anything, "seller@example.com", paymentport.TemplatePayoutActionNeeded, mock.Anything)
}

func TestExecutor_Execute_VerifyOutageStaysRetryable(t *testing.T) {
	f := newExecutorFixture(t)
	txn := f.releasedTransaction()
	hold := f.claimedHold()

	f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
	f.payouts.On("GetCompletedByTransactionID", mock.Anything, "txn-1").Return(nil, errs.ErrPayoutNotFound)
	f.sellers.On("GetByID", mock.Anything, "seller-1").Return(f.bankSeller(), nil)

	outage := errs.NewRailError("bank_transfer", "verify_account", false, errors.New("gateway timeout"))
	f.bankRail.On("VerifyAccount", mock.Anything, "acct_123").Return(outage)
	f.holds.On("ReleaseClaim", mock.Anything, "hold-1").Return(nil)

	err := f.executor.Execute(context.Background(), hold)

	assert.ErrorIs(t, err, errs.ErrRailFailure)
	f.holds.AssertCalled(t, "ReleaseClaim", mock.Anything, "hold-1")
	f.holds.AssertNotCalled(t, "FailPayout", mock.Anything, mock.Anything, mock.Anything)
	f.bankRail.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
}

func TestExecutor_Execute_PayoutConflictResolvesToSeal(t *testing.T) {
	f := newExecutorFixture(t)
	txn := f.releasedTransaction()
	hold := f.claimedHold()
	completed := &entity.Payout{ID: "p0", TransactionID: "txn-1", Status: entity.PayoutStatusCompleted, TransferID: "tr_old"}

	f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
	f.payouts.On("GetCompletedByTransactionID", mock.Anything, "txn-1").
		Return(nil, errs.ErrPayoutNotFound).Once()
	f.sellers.On("GetByID", mock.Anything, "seller-1").Return(f.bankSeller(), nil)
	f.bankRail.On("VerifyAccount", mock.Anything, "acct_123").Return(nil)
	f.payouts.On("Create", mock.Anything, mock.Anything).Return(errs.NewPayoutConflictError("txn-1", "p0"))
	f.payouts.On("GetCompletedByTransactionID", mock.Anything, "txn-1").Return(completed, nil)
	f.holds.On("CompletePayout", mock.Anything, "hold-1", "tr_old").Return(nil)
	f.transactions.On("UpdateStatus", mock.Anything, txn, entity.StatusReleased).Return(nil)

	err := f.executor.Execute(context.Background(), hold)

	require.NoError(t, err)
	f.bankRail.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything)
}

func TestExecutor_Execute_MissingRailAdapterStaysRetryable(t *testing.T) {
	f := newExecutorFixture(t)
	executor := NewExecutor(
		f.transactions, f.holds, f.payouts, f.activities, f.sellers,
		[]paymentport.PayoutRail{f.walletRail}, // bank rail not deployed
		f.notifier, f.clock, logger.NewNoopLogger(),
	)
	txn := f.releasedTransaction()
	hold := f.claimedHold()

	f.transactions.On("GetByID", mock.Anything, "txn-1").Return(txn, nil)
	f.payouts.On("GetCompletedByTransactionID", mock.Anything, "txn-1").Return(nil, errs.ErrPayoutNotFound)
	f.sellers.On("GetByID", mock.Anything, "seller-1").Return(f.bankSeller(), nil)
	f.holds.On("ReleaseClaim", mock.Anything, "hold-1").Return(nil)

	err := executor.Execute(context.Background(), hold)

	require.Error(t, err)
	f.holds.AssertCalled(t, "ReleaseClaim", mock.Anything, "hold-1")
	f.holds.AssertNotCalled(t, "FailPayout", mock.Anything, mock.Anything, mock.Anything)
}
