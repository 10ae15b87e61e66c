package payout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
	errs "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/domain/port/payment"
	"github.com/fairwaymarket/escrow-processor/internal/domain/port/persistence"
)

// Executor moves money for one claimed hold. It must only be called on a
// hold whose payout envelope the caller has claimed; the claim guarantees
// at most one executor works a hold at a time.
//
// The outcome contract:
//   - success: payout row completed, envelope sealed, transaction transferred
//   - transient failure: claim released, envelope back to scheduled, next
//     sweep retries
//   - permanent failure: envelope failed with the cause; it stays selectable
//     but the seller is told to fix their destination
type Executor struct {
	transactions persistence.TransactionRepository
	holds        persistence.HoldRepository
	payouts      persistence.PayoutRepository
	activities   persistence.ActivityRepository
	sellers      persistence.SellerDirectory
	rails        map[entity.RailKind]payment.PayoutRail
	notifier     payment.Notifier
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewExecutor creates the payout executor with the available rails
func NewExecutor(
	transactions persistence.TransactionRepository,
	holds persistence.HoldRepository,
	payouts persistence.PayoutRepository,
	activities persistence.ActivityRepository,
	sellers persistence.SellerDirectory,
	rails []payment.PayoutRail,
	notifier payment.Notifier,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Executor {
	byKind := make(map[entity.RailKind]payment.PayoutRail, len(rails))
	for _, rail := range rails {
		byKind[rail.Kind()] = rail
	}
	return &Executor{
		transactions: transactions,
		holds:        holds,
		payouts:      payouts,
		activities:   activities,
		sellers:      sellers,
		rails:        byKind,
		notifier:     notifier,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Execute runs the payout for a claimed hold
func (e *Executor) Execute(ctx context.Context, hold *entity.PaymentHold) error {
	txn, err := e.transactions.GetByID(ctx, hold.TransactionID)
	if err != nil {
		e.releaseClaim(ctx, hold)
		return err
	}

	// Idempotency floor: if a completed payout already exists the money has
	// moved. A crash between the rail call and the envelope seal lands here
	// on the retry; just finish the bookkeeping.
	if existing, err := e.payouts.GetCompletedByTransactionID(ctx, txn.ID); err == nil {
		return e.seal(ctx, txn, hold, existing.TransferID)
	} else if !errs.IsNotFoundError(err) {
		e.releaseClaim(ctx, hold)
		return err
	}

	seller, err := e.sellers.GetByID(ctx, txn.SellerID)
	if err != nil {
		e.releaseClaim(ctx, hold)
		return err
	}

	railKind, ok := seller.PreferredRail()
	if !ok {
		return e.failPermanently(ctx, txn, hold, nil, seller.Email, errs.ErrNoPayoutDestination)
	}
	rail, ok := e.rails[railKind]
	if !ok {
		// Deployment problem, not a seller problem. Leave the hold retryable.
		e.releaseClaim(ctx, hold)
		return fmt.Errorf("no rail adapter registered for %q", railKind)
	}

	destination := seller.PayoutDestination(railKind)

	// Cheap pre-flight: a dead destination fails here before a payout row
	// is written or money is put in flight.
	if err := rail.VerifyAccount(ctx, destination); err != nil {
		if errs.IsPermanentRailError(err) {
			return e.failPermanently(ctx, txn, hold, nil, seller.Email, err)
		}
		return e.failTransiently(ctx, txn, hold, seller.Email, err)
	}

	net := hold.NetPayable()
	record := entity.NewPayout(
		uuid.NewString(),
		txn.ID,
		txn.SellerID,
		railKind,
		hold.HeldAmount,
		hold.CommissionHeld,
		hold.ProcessingFeeHeld,
		net,
		hold.Currency,
		e.timeProvider,
	)
	if err := e.payouts.Create(ctx, record); err != nil {
		if errs.IsPayoutConflictError(err) {
			if existing, lookupErr := e.payouts.GetCompletedByTransactionID(ctx, txn.ID); lookupErr == nil {
				return e.seal(ctx, txn, hold, existing.TransferID)
			}
		}
		e.releaseClaim(ctx, hold)
		return err
	}

	result, err := rail.Transfer(ctx, payment.TransferRequest{
		DestinationRef: destination,
		Amount:         net,
		Currency:       hold.Currency,
		Description:    fmt.Sprintf("Payout for order %s", txn.ID),
		IdempotencyKey: txn.ID,
	})
	if err != nil {
		record.Fail(e.timeProvider, err.Error())
		if updateErr := e.payouts.Update(ctx, record); updateErr != nil {
			e.logger.Error("Failed to record payout failure", map[string]any{
				"payout_id": record.ID,
				"error":     updateErr.Error(),
			})
		}
		if errs.IsPermanentRailError(err) {
			return e.failPermanently(ctx, txn, hold, record, seller.Email, err)
		}
		return e.failTransiently(ctx, txn, hold, seller.Email, err)
	}

	record.Complete(e.timeProvider, result.TransferID)
	if err := e.payouts.Update(ctx, record); err != nil {
		// The transfer went through; the completed payout row is what the
		// retry path keys on, so this must not pass silently.
		e.logger.Error("Transfer succeeded but payout record update failed", map[string]any{
			"payout_id":      record.ID,
			"transaction_id": txn.ID,
			"transfer_id":    result.TransferID,
			"error":          err.Error(),
		})
		e.releaseClaim(ctx, hold)
		return err
	}

	if err := e.seal(ctx, txn, hold, result.TransferID); err != nil {
		return err
	}

	e.recordActivity(ctx, entity.ActivityPayoutCompleted, txn.ID, map[string]any{
		"payout_id":   record.ID,
		"rail":        string(railKind),
		"net_amount":  net,
		"transfer_id": result.TransferID,
	})
	e.notify(ctx, seller.Email, payment.TemplatePayoutCompleted, map[string]any{
		"transaction_id": txn.ID,
		"net_amount":     net,
		"currency":       hold.Currency,
	})
	e.notify(ctx, txn.BuyerEmail, payment.TemplateOrderComplete, map[string]any{
		"transaction_id": txn.ID,
	})

	e.logger.Info("Payout completed", map[string]any{
		"transaction_id": txn.ID,
		"seller_id":      txn.SellerID,
		"rail":           string(railKind),
		"net_amount":     net,
	})
	return nil
}

// seal finishes the bookkeeping for a payout whose money has moved: the
// envelope is marked completed and the transaction transferred
func (e *Executor) seal(ctx context.Context, txn *entity.Transaction, hold *entity.PaymentHold, transferRef string) error {
	if err := e.holds.CompletePayout(ctx, hold.ID, transferRef); err != nil {
		return err
	}
	if txn.HoldStatus == entity.StatusReleased {
		txn.MarkTransferred(e.timeProvider)
		if err := e.transactions.UpdateStatus(ctx, txn, entity.StatusReleased); err != nil &&
			!errs.IsPreconditionError(err) {
			return err
		}
	}
	return nil
}

func (e *Executor) failTransiently(ctx context.Context, txn *entity.Transaction, hold *entity.PaymentHold, sellerEmail string, cause error) error {
	e.releaseClaim(ctx, hold)
	e.recordActivity(ctx, entity.ActivityPayoutFailed, txn.ID, map[string]any{
		"error":     cause.Error(),
		"permanent": false,
	})
	e.notify(ctx, sellerEmail, payment.TemplatePayoutFailed, map[string]any{
		"transaction_id": txn.ID,
		"will_retry":     true,
	})
	e.logger.Warn("Payout failed, will retry next sweep", map[string]any{
		"transaction_id": txn.ID,
		"error":          cause.Error(),
	})
	return cause
}

func (e *Executor) failPermanently(ctx context.Context, txn *entity.Transaction, hold *entity.PaymentHold, record *entity.Payout, sellerEmail string, cause error) error {
	if err := e.holds.FailPayout(ctx, hold.ID, cause.Error()); err != nil {
		e.logger.Error("Failed to mark payout envelope failed", map[string]any{
			"hold_id": hold.ID,
			"error":   err.Error(),
		})
	}
	txn.MarkFailed(e.timeProvider)
	if err := e.transactions.UpdateStatus(ctx, txn, txn.HoldStatus); err != nil && !errs.IsPreconditionError(err) {
		e.logger.Error("Failed to record payout failure on transaction", map[string]any{
			"transaction_id": txn.ID,
			"error":          err.Error(),
		})
	}

	meta := map[string]any{
		"error":     cause.Error(),
		"permanent": true,
	}
	if record != nil {
		meta["payout_id"] = record.ID
	}
	e.recordActivity(ctx, entity.ActivityPayoutFailed, txn.ID, meta)
	e.notify(ctx, sellerEmail, payment.TemplatePayoutActionNeeded, map[string]any{
		"transaction_id": txn.ID,
		"reason":         cause.Error(),
	})

	e.logger.Error("Payout failed permanently, seller action required", map[string]any{
		"transaction_id": txn.ID,
		"seller_id":      txn.SellerID,
		"error":          cause.Error(),
	})
	return cause
}

func (e *Executor) releaseClaim(ctx context.Context, hold *entity.PaymentHold) {
	if err := e.holds.ReleaseClaim(ctx, hold.ID); err != nil {
		e.logger.Error("Failed to release payout claim", map[string]any{
			"hold_id": hold.ID,
			"error":   err.Error(),
		})
	}
}

func (e *Executor) recordActivity(ctx context.Context, eventType, transactionID string, metadata map[string]any) {
	activity := entity.NewActivity(uuid.NewString(), "system", eventType, transactionID, metadata, e.timeProvider)
	if err := e.activities.Append(ctx, activity); err != nil {
		e.logger.Warn("Failed to append activity", map[string]any{
			"event_type":     eventType,
			"transaction_id": transactionID,
			"error":          err.Error(),
		})
	}
}

func (e *Executor) notify(ctx context.Context, recipient string, template payment.TemplateKind, data map[string]any) {
	if recipient == "" {
		return
	}
	if err := e.notifier.Send(ctx, recipient, template, data); err != nil {
		e.logger.Warn("Notification failed", map[string]any{
			"template":  string(template),
			"recipient": recipient,
			"error":     err.Error(),
		})
	}
}
