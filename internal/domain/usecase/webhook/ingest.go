package webhook

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
	errs "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/domain/port/payment"
	"github.com/fairwaymarket/escrow-processor/internal/domain/port/persistence"
)

// CaptureEvent is a payment-captured notification from the payment provider.
// CorrelationID is the provider's capture/session id and is the idempotency
// key for the whole ingestion.
type CaptureEvent struct {
	CorrelationID string
	ProductID     string
	SellerID      string
	BuyerEmail    string
	Amount        int64 // gross, minor units
	Currency      string
}

// IngestResult reports the outcome of one capture event
type IngestResult struct {
	TransactionID string
	Duplicate     bool
}

// Ingestor turns confirmed capture events into a transaction plus a payment
// hold. Ingestion is idempotent on the correlation id: redelivered events
// succeed without creating anything.
type Ingestor struct {
	transactions persistence.TransactionRepository
	holds        persistence.HoldRepository
	activities   persistence.ActivityRepository
	sellers      persistence.SellerDirectory
	products     persistence.ProductCatalog
	calculator   *entity.Calculator
	notifier     payment.Notifier
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewIngestor creates the capture-event ingestor
func NewIngestor(
	transactions persistence.TransactionRepository,
	holds persistence.HoldRepository,
	activities persistence.ActivityRepository,
	sellers persistence.SellerDirectory,
	products persistence.ProductCatalog,
	calculator *entity.Calculator,
	notifier payment.Notifier,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Ingestor {
	return &Ingestor{
		transactions: transactions,
		holds:        holds,
		activities:   activities,
		sellers:      sellers,
		products:     products,
		calculator:   calculator,
		notifier:     notifier,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Ingest processes one capture event. A duplicate correlation id returns the
// existing transaction with Duplicate set so the provider sees success and
// stops redelivering.
func (i *Ingestor) Ingest(ctx context.Context, event CaptureEvent) (*IngestResult, error) {
	if err := i.validate(event); err != nil {
		return nil, err
	}

	// Fast idempotency check before any writes. The unique index on
	// correlation_id closes the race between two concurrent deliveries.
	if existing, err := i.transactions.GetByCorrelationID(ctx, event.CorrelationID); err == nil {
		i.logger.Info("Duplicate capture event ignored", map[string]any{
			"correlation_id": event.CorrelationID,
			"transaction_id": existing.ID,
		})
		return &IngestResult{TransactionID: existing.ID, Duplicate: true}, nil
	} else if !errs.IsNotFoundError(err) {
		return nil, err
	}

	seller, err := i.sellers.GetByID(ctx, event.SellerID)
	if err != nil {
		return nil, err
	}

	// The commission split is frozen here, at capture time. A later tier
	// change must not move money on an already-held transaction.
	rail, _ := seller.PreferredRail()
	breakdown := i.calculator.Calculate(event.Amount, seller.Tier, rail)

	txn, err := entity.NewTransaction(
		uuid.NewString(),
		event.CorrelationID,
		event.ProductID,
		event.SellerID,
		event.BuyerEmail,
		breakdown.GrossAmount,
		breakdown.CommissionRate,
		breakdown.CommissionAmount,
		breakdown.GrossAmount-breakdown.CommissionAmount,
		event.Currency,
		i.timeProvider,
	)
	if err != nil {
		return nil, err
	}
	if err := i.transactions.Create(ctx, txn); err != nil {
		if errs.IsDuplicateEventError(err) {
			// Lost the insert race to a concurrent delivery.
			if existing, lookupErr := i.transactions.GetByCorrelationID(ctx, event.CorrelationID); lookupErr == nil {
				return &IngestResult{TransactionID: existing.ID, Duplicate: true}, nil
			}
		}
		return nil, err
	}

	hold := entity.NewPaymentHold(
		uuid.NewString(),
		txn.ID,
		breakdown.GrossAmount,
		event.Currency,
		breakdown.CommissionAmount,
		breakdown.RailFee,
		i.timeProvider,
	)
	if err := i.holds.Create(ctx, hold); err != nil {
		return nil, err
	}

	if err := i.products.SetStatus(ctx, event.ProductID, entity.ProductPending); err != nil {
		i.logger.Warn("Failed to mark product pending", map[string]any{
			"transaction_id": txn.ID,
			"product_id":     event.ProductID,
			"error":          err.Error(),
		})
	}

	i.recordActivity(ctx, txn.ID, event, breakdown)
	i.notify(ctx, seller.Email, txn, breakdown)

	i.logger.Info("Payment captured, escrow hold created", map[string]any{
		"transaction_id": txn.ID,
		"correlation_id": event.CorrelationID,
		"amount":         breakdown.GrossAmount,
		"commission":     breakdown.CommissionAmount,
	})
	return &IngestResult{TransactionID: txn.ID}, nil
}

func (i *Ingestor) validate(event CaptureEvent) error {
	if strings.TrimSpace(event.CorrelationID) == "" ||
		strings.TrimSpace(event.ProductID) == "" ||
		strings.TrimSpace(event.SellerID) == "" ||
		strings.TrimSpace(event.BuyerEmail) == "" {
		return errs.ErrInvalidRequest
	}
	if event.Amount <= 0 {
		return errs.ErrInvalidAmount
	}
	if len(event.Currency) != 3 {
		return errs.ErrInvalidRequest
	}
	return nil
}

func (i *Ingestor) recordActivity(ctx context.Context, transactionID string, event CaptureEvent, breakdown entity.PayoutBreakdown) {
	activity := entity.NewActivity(uuid.NewString(), event.BuyerEmail, entity.ActivityPaymentCaptured, transactionID, map[string]any{
		"correlation_id": event.CorrelationID,
		"amount":         breakdown.GrossAmount,
		"commission":     breakdown.CommissionAmount,
		"rail_fee":       breakdown.RailFee,
	}, i.timeProvider)
	if err := i.activities.Append(ctx, activity); err != nil {
		i.logger.Warn("Failed to append activity", map[string]any{
			"transaction_id": transactionID,
			"error":          err.Error(),
		})
	}
}

func (i *Ingestor) notify(ctx context.Context, sellerEmail string, txn *entity.Transaction, breakdown entity.PayoutBreakdown) {
	if sellerEmail == "" {
		return
	}
	if err := i.notifier.Send(ctx, sellerEmail, payment.TemplateSaleCaptured, map[string]any{
		"transaction_id": txn.ID,
		"amount":         breakdown.GrossAmount,
		"net_amount":     breakdown.NetAmount,
		"currency":       txn.Currency,
	}); err != nil {
		i.logger.Warn("Notification failed", map[string]any{
			"transaction_id": txn.ID,
			"error":          err.Error(),
		})
	}
}
