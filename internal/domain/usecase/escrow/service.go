package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
	errs "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/domain/port/payment"
	"github.com/fairwaymarket/escrow-processor/internal/domain/port/persistence"
)

// Service drives the escrow lifecycle of a transaction: shipping, delivery,
// buyer confirmation or dispute, and the seller-silence release path. Every
// transition is a guarded status update; concurrent transitions on the same
// transaction serialize on the repository's expected-status check.
type Service struct {
	transactions persistence.TransactionRepository
	holds        persistence.HoldRepository
	activities   persistence.ActivityRepository
	sellers      persistence.SellerDirectory
	products     persistence.ProductCatalog
	notifier     payment.Notifier
	timeProvider coreport.TimeProvider
	logger       coreport.Logger

	releaseDelay        time.Duration // buffer between release and payout eligibility
	autoReleaseAfter    time.Duration // buyer response window after a release request
	sellerReleaseWindow time.Duration // buyer silence required before a seller may request release
}

// NewService creates the escrow lifecycle service
func NewService(
	transactions persistence.TransactionRepository,
	holds persistence.HoldRepository,
	activities persistence.ActivityRepository,
	sellers persistence.SellerDirectory,
	products persistence.ProductCatalog,
	notifier payment.Notifier,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	releaseDelay time.Duration,
	autoReleaseAfter time.Duration,
	sellerReleaseWindow time.Duration,
) *Service {
	return &Service{
		transactions:        transactions,
		holds:               holds,
		activities:          activities,
		sellers:             sellers,
		products:            products,
		notifier:            notifier,
		timeProvider:        timeProvider,
		logger:              logger,
		releaseDelay:        releaseDelay,
		autoReleaseAfter:    autoReleaseAfter,
		sellerReleaseWindow: sellerReleaseWindow,
	}
}

// GetTransaction returns a transaction to one of its parties
func (s *Service) GetTransaction(ctx context.Context, actor Actor, transactionID string) (*entity.Transaction, error) {
	txn, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if actor.Role != RoleSystem && actor.ID != txn.SellerID && actor.ID != txn.BuyerEmail {
		return nil, errs.NewAuthorizationError(transactionID, actor.ID, "party")
	}

	return txn, nil
}

// MarkShipped records the seller's carrier handoff. Only the seller of the
// transaction may ship, and only from payment_held.
func (s *Service) MarkShipped(ctx context.Context, actor Actor, transactionID, carrier, trackingNumber string, estimatedDelivery *time.Time) (*entity.Transaction, error) {
	txn, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if err := authorize(actor, RoleSeller, txn.ID, txn.SellerID, txn.BuyerEmail); err != nil {
		return nil, err
	}

	if !txn.CanShip() {
		return nil, errs.NewPreconditionError(txn.ID, "ship", string(txn.HoldStatus),
			"shipping is only allowed while the payment is held")
	}

	txn.MarkShipped(s.timeProvider, carrier, trackingNumber, estimatedDelivery)
	if err := s.transactions.UpdateStatus(ctx, txn, entity.StatusPaymentHeld); err != nil {
		return nil, err
	}

	hold, err := s.holds.GetByTransactionID(ctx, txn.ID)
	if err != nil {
		return nil, err
	}
	if err := s.holds.UpdateReason(ctx, hold.ID, entity.ReasonAwaitingDelivery); err != nil {
		s.logger.Error("Failed to update hold reason after shipping", map[string]any{
			"transaction_id": txn.ID,
			"hold_id":        hold.ID,
			"error":          err.Error(),
		})
		return nil, err
	}

	s.recordActivity(ctx, actor.ID, entity.ActivityOrderShipped, txn.ID, map[string]any{
		"carrier":         carrier,
		"tracking_number": trackingNumber,
	})
	s.notify(ctx, txn.BuyerEmail, payment.TemplateOrderShipped, map[string]any{
		"transaction_id":  txn.ID,
		"carrier":         carrier,
		"tracking_number": trackingNumber,
	})

	s.logger.Info("Order shipped", map[string]any{
		"transaction_id": txn.ID,
		"carrier":        carrier,
	})
	return txn, nil
}

// MarkDelivered promotes a shipped transaction to delivered. Called by the
// sweep when the estimated delivery time has passed; carrier webhooks could
// call it too.
func (s *Service) MarkDelivered(ctx context.Context, txn *entity.Transaction) error {
	if txn.HoldStatus != entity.StatusShipped {
		return errs.NewPreconditionError(txn.ID, "mark delivered", string(txn.HoldStatus),
			"only shipped transactions can be delivered")
	}

	txn.MarkDelivered(s.timeProvider)
	if err := s.transactions.UpdateStatus(ctx, txn, entity.StatusShipped); err != nil {
		return err
	}

	s.recordActivity(ctx, SystemActor.ID, entity.ActivityOrderDelivered, txn.ID, nil)
	s.notify(ctx, txn.BuyerEmail, payment.TemplateOrderDelivered, map[string]any{
		"transaction_id": txn.ID,
	})
	return nil
}

// ConfirmDelivery records the buyer's verdict on the received goods. A
// satisfied buyer releases the escrow and schedules the payout; an
// unsatisfied one moves the transaction onto the dispute branch and freezes
// the funds.
func (s *Service) ConfirmDelivery(ctx context.Context, actor Actor, transactionID string, satisfied bool, disputeReason string) (*entity.Transaction, error) {
	txn, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if err := authorize(actor, RoleBuyer, txn.ID, txn.SellerID, txn.BuyerEmail); err != nil {
		return nil, err
	}

	if !txn.CanConfirmDelivery() {
		return nil, errs.NewPreconditionError(txn.ID, "confirm delivery", string(txn.HoldStatus),
			"the order must be shipped or delivered before the buyer can respond")
	}

	if !satisfied {
		return s.raiseDispute(ctx, actor, txn, disputeReason)
	}
	return s.releaseOnConfirmation(ctx, actor, txn)
}

func (s *Service) releaseOnConfirmation(ctx context.Context, actor Actor, txn *entity.Transaction) (*entity.Transaction, error) {
	previous := txn.HoldStatus
	if txn.DeliveredAt == nil {
		// Buyer confirmed straight from shipped; stamp delivery implicitly.
		now := s.timeProvider.Now()
		txn.DeliveredAt = &now
	}
	txn.MarkConfirmed(s.timeProvider)
	if err := s.transactions.UpdateStatus(ctx, txn, previous); err != nil {
		return nil, err
	}

	if err := s.releaseHold(ctx, txn, entity.ReasonBuyerConfirmed); err != nil {
		return nil, err
	}

	txn.MarkReleased(s.timeProvider)
	if err := s.transactions.UpdateStatus(ctx, txn, entity.StatusConfirmed); err != nil {
		return nil, err
	}

	if err := s.products.SetStatus(ctx, txn.ProductID, entity.ProductSold); err != nil {
		s.logger.Warn("Failed to mark product sold", map[string]any{
			"transaction_id": txn.ID,
			"product_id":     txn.ProductID,
			"error":          err.Error(),
		})
	}

	s.recordActivity(ctx, actor.ID, entity.ActivityDeliveryConfirmed, txn.ID, nil)
	s.recordActivity(ctx, actor.ID, entity.ActivityPayoutScheduled, txn.ID, map[string]any{
		"reason": entity.ReasonBuyerConfirmed,
	})
	s.notify(ctx, txn.BuyerEmail, payment.TemplateOrderComplete, map[string]any{
		"transaction_id": txn.ID,
	})

	s.logger.Info("Escrow released on buyer confirmation", map[string]any{
		"transaction_id": txn.ID,
		"seller_id":      txn.SellerID,
	})
	return txn, nil
}

func (s *Service) raiseDispute(ctx context.Context, actor Actor, txn *entity.Transaction, reason string) (*entity.Transaction, error) {
	previous := txn.HoldStatus
	txn.MarkDisputed(s.timeProvider)
	if err := s.transactions.UpdateStatus(ctx, txn, previous); err != nil {
		return nil, err
	}

	hold, err := s.holds.GetByTransactionID(ctx, txn.ID)
	if err != nil {
		return nil, err
	}
	if err := s.holds.MarkDisputed(ctx, hold.ID, persistence.DisputeRecord{
		RaisedBy: actor.ID,
		Reason:   reason,
		RaisedAt: s.timeProvider.Now(),
	}); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, actor.ID, entity.ActivityDisputeRaised, txn.ID, map[string]any{
		"reason": reason,
	})
	s.notify(ctx, sellerEmail(ctx, s.sellers, txn.SellerID), payment.TemplateDisputeRaised, map[string]any{
		"transaction_id": txn.ID,
		"reason":         reason,
	})

	s.logger.Warn("Dispute raised, funds frozen", map[string]any{
		"transaction_id": txn.ID,
		"raised_by":      actor.ID,
	})
	return txn, nil
}

// RequestRelease opens the seller-silence path: after the buyer has stayed
// silent for the full waiting window past delivery, the seller may request
// release, which starts the buyer's final response clock.
func (s *Service) RequestRelease(ctx context.Context, actor Actor, transactionID string) (*entity.Transaction, error) {
	txn, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if err := authorize(actor, RoleSeller, txn.ID, txn.SellerID, txn.BuyerEmail); err != nil {
		return nil, err
	}

	if !txn.CanRequestRelease() {
		return nil, errs.NewPreconditionError(txn.ID, "request release", string(txn.HoldStatus),
			"the order must be delivered and unconfirmed before requesting release")
	}

	now := s.timeProvider.Now()
	eligibleAt := txn.DeliveredAt.Add(s.sellerReleaseWindow)
	if now.Before(eligibleAt) {
		remaining := eligibleAt.Sub(now)
		days := int(remaining.Hours()/24) + 1
		return nil, errs.NewPreconditionError(txn.ID, "request release", string(txn.HoldStatus),
			fmt.Sprintf("the buyer still has %d day(s) to respond", days))
	}

	txn.MarkReleaseRequested(s.timeProvider)
	if err := s.transactions.UpdateStatus(ctx, txn, entity.StatusDelivered); err != nil {
		return nil, err
	}

	hold, err := s.holds.GetByTransactionID(ctx, txn.ID)
	if err != nil {
		return nil, err
	}
	autoReleaseAt := now.Add(s.autoReleaseAfter)
	if err := s.holds.RecordReleaseRequest(ctx, hold.ID, now, autoReleaseAt); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, actor.ID, entity.ActivityReleaseRequested, txn.ID, map[string]any{
		"auto_release_at": autoReleaseAt,
	})
	s.notify(ctx, txn.BuyerEmail, payment.TemplateReleaseRequested, map[string]any{
		"transaction_id": txn.ID,
		"respond_by":     autoReleaseAt,
	})

	s.logger.Info("Seller requested release", map[string]any{
		"transaction_id":  txn.ID,
		"auto_release_at": autoReleaseAt,
	})
	return txn, nil
}

// AutoRelease releases the escrow after the buyer let the release-request
// window lapse. Called by the sweep; the hold's auto-release deadline must
// already have passed.
func (s *Service) AutoRelease(ctx context.Context, hold *entity.PaymentHold) error {
	txn, err := s.transactions.GetByID(ctx, hold.TransactionID)
	if err != nil {
		return err
	}
	if txn.HoldStatus != entity.StatusReleaseRequested {
		return errs.NewPreconditionError(txn.ID, "auto release", string(txn.HoldStatus),
			"no pending release request")
	}

	txn.MarkReleased(s.timeProvider)
	if err := s.transactions.UpdateStatus(ctx, txn, entity.StatusReleaseRequested); err != nil {
		return err
	}

	if err := s.releaseHold(ctx, txn, entity.ReasonAutoRelease); err != nil {
		return err
	}

	if err := s.products.SetStatus(ctx, txn.ProductID, entity.ProductSold); err != nil {
		s.logger.Warn("Failed to mark product sold", map[string]any{
			"transaction_id": txn.ID,
			"product_id":     txn.ProductID,
			"error":          err.Error(),
		})
	}

	s.recordActivity(ctx, SystemActor.ID, entity.ActivityAutoReleased, txn.ID, nil)
	s.notify(ctx, txn.BuyerEmail, payment.TemplateOrderComplete, map[string]any{
		"transaction_id": txn.ID,
	})

	s.logger.Info("Escrow auto-released after buyer silence", map[string]any{
		"transaction_id": txn.ID,
		"seller_id":      txn.SellerID,
	})
	return nil
}

// releaseHold moves the hold to released and writes the payout envelope in
// the same update. The payout becomes eligible after the release delay; the
// deadline is persisted so it survives restarts.
func (s *Service) releaseHold(ctx context.Context, txn *entity.Transaction, reason string) error {
	hold, err := s.holds.GetByTransactionID(ctx, txn.ID)
	if err != nil {
		return err
	}

	method := entity.RailKind("")
	if seller, err := s.sellers.GetByID(ctx, txn.SellerID); err == nil {
		if rail, ok := seller.PreferredRail(); ok {
			method = rail
		}
	}

	now := s.timeProvider.Now()
	scheduledAt := now.Add(s.releaseDelay)
	schedule := entity.PayoutSchedule{
		ScheduledAt: &scheduledAt,
		Status:      entity.PayoutScheduled,
		Method:      method,
	}
	if err := s.holds.Release(ctx, hold.ID, reason, now, schedule); err != nil {
		return err
	}

	s.notify(ctx, sellerEmail(ctx, s.sellers, txn.SellerID), payment.TemplatePayoutScheduled, map[string]any{
		"transaction_id": txn.ID,
		"payout_at":      scheduledAt,
	})
	return nil
}

func (s *Service) recordActivity(ctx context.Context, actor, eventType, transactionID string, metadata map[string]any) {
	activity := entity.NewActivity(uuid.NewString(), actor, eventType, transactionID, metadata, s.timeProvider)
	if err := s.activities.Append(ctx, activity); err != nil {
		s.logger.Warn("Failed to append activity", map[string]any{
			"event_type":     eventType,
			"transaction_id": transactionID,
			"error":          err.Error(),
		})
	}
}

func (s *Service) notify(ctx context.Context, recipient string, template payment.TemplateKind, data map[string]any) {
	if recipient == "" {
		return
	}
	if err := s.notifier.Send(ctx, recipient, template, data); err != nil {
		s.logger.Warn("Notification failed", map[string]any{
			"template":  string(template),
			"recipient": recipient,
			"error":     err.Error(),
		})
	}
}

func sellerEmail(ctx context.Context, sellers persistence.SellerDirectory, sellerID string) string {
	seller, err := sellers.GetByID(ctx, sellerID)
	if err != nil {
		return ""
	}
	return seller.Email
}
