package entity

import (
	"time"

	errs "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
)

// HoldStatus represents where a transaction sits in the escrow lifecycle
type HoldStatus string

// Escrow lifecycle states. The happy path runs payment_held -> shipped ->
// delivered -> confirmed -> released; disputed is a terminal branch, and
// release_requested is the seller-initiated path after buyer silence.
const (
	StatusPaymentHeld      HoldStatus = "payment_held"
	StatusShipped          HoldStatus = "shipped"
	StatusDelivered        HoldStatus = "delivered"
	StatusConfirmed        HoldStatus = "confirmed"
	StatusReleaseRequested HoldStatus = "release_requested"
	StatusReleased         HoldStatus = "released"
	StatusDisputed         HoldStatus = "disputed"
	StatusTransferred      HoldStatus = "transferred"
	StatusFailed           HoldStatus = "failed"
)

// DefaultDeliveryEstimate is applied when the carrier does not supply an
// estimated delivery time at shipping
const DefaultDeliveryEstimate = 72 * time.Hour

// Transaction represents one purchase of one product by one buyer from one
// seller. It is the audit record of the sale and is never deleted.
type Transaction struct {
	ID               string
	ProductID        string
	SellerID         string
	BuyerEmail       string
	CorrelationID    string // capture/session id from the payment provider
	Amount           int64  // gross, minor units
	CommissionRate   string
	CommissionAmount int64
	SellerAmount     int64 // net of commission; rail fee is tracked on the hold
	Currency         string
	HoldStatus       HoldStatus

	Carrier        string
	TrackingNumber string

	PaidAt              *time.Time
	ShippedAt           *time.Time
	EstimatedDeliveryAt *time.Time
	DeliveredAt         *time.Time
	DeliveryConfirmedAt *time.Time
	DisputedAt          *time.Time
	ReleaseRequestedAt  *time.Time
	ReleasedAt          *time.Time
	TransferredAt       *time.Time
	FailedAt            *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTransaction creates a transaction in payment_held state from a confirmed
// capture. The commission split must cover the gross amount exactly.
func NewTransaction(
	id string,
	correlationID string,
	productID string,
	sellerID string,
	buyerEmail string,
	amount int64,
	commissionRate string,
	commissionAmount int64,
	sellerAmount int64,
	currency string,
	timeProvider coreport.TimeProvider,
) (*Transaction, error) {
	if amount < 0 || commissionAmount < 0 || sellerAmount < 0 {
		return nil, errs.ErrInvalidAmount
	}
	if commissionAmount+sellerAmount != amount {
		return nil, errs.ErrInvalidSplit
	}

	now := timeProvider.Now()
	return &Transaction{
		ID:               id,
		CorrelationID:    correlationID,
		ProductID:        productID,
		SellerID:         sellerID,
		BuyerEmail:       buyerEmail,
		Amount:           amount,
		CommissionRate:   commissionRate,
		CommissionAmount: commissionAmount,
		SellerAmount:     sellerAmount,
		Currency:         currency,
		HoldStatus:       StatusPaymentHeld,
		PaidAt:           &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// MarkShipped records the carrier handoff and the delivery estimate
func (t *Transaction) MarkShipped(timeProvider coreport.TimeProvider, carrier, tracking string, estimatedDelivery *time.Time) {
	now := timeProvider.Now()
	t.HoldStatus = StatusShipped
	t.Carrier = carrier
	t.TrackingNumber = tracking
	t.ShippedAt = &now
	if estimatedDelivery != nil {
		t.EstimatedDeliveryAt = estimatedDelivery
	} else {
		est := now.Add(DefaultDeliveryEstimate)
		t.EstimatedDeliveryAt = &est
	}
	t.UpdatedAt = now
}

// MarkDelivered stamps the actual delivery time
func (t *Transaction) MarkDelivered(timeProvider coreport.TimeProvider) {
	now := timeProvider.Now()
	t.HoldStatus = StatusDelivered
	t.DeliveredAt = &now
	t.UpdatedAt = now
}

// MarkConfirmed records the buyer's satisfaction confirmation
func (t *Transaction) MarkConfirmed(timeProvider coreport.TimeProvider) {
	now := timeProvider.Now()
	t.HoldStatus = StatusConfirmed
	t.DeliveryConfirmedAt = &now
	t.UpdatedAt = now
}

// MarkDisputed moves the transaction onto the terminal dispute branch
func (t *Transaction) MarkDisputed(timeProvider coreport.TimeProvider) {
	now := timeProvider.Now()
	t.HoldStatus = StatusDisputed
	t.DisputedAt = &now
	t.UpdatedAt = now
}

// MarkReleaseRequested records a seller release request after buyer silence
func (t *Transaction) MarkReleaseRequested(timeProvider coreport.TimeProvider) {
	now := timeProvider.Now()
	t.HoldStatus = StatusReleaseRequested
	t.ReleaseRequestedAt = &now
	t.UpdatedAt = now
}

// MarkReleased records the escrow release
func (t *Transaction) MarkReleased(timeProvider coreport.TimeProvider) {
	now := timeProvider.Now()
	t.HoldStatus = StatusReleased
	t.ReleasedAt = &now
	t.UpdatedAt = now
}

// MarkTransferred records the completed money movement to the seller
func (t *Transaction) MarkTransferred(timeProvider coreport.TimeProvider) {
	now := timeProvider.Now()
	t.HoldStatus = StatusTransferred
	t.TransferredAt = &now
	t.UpdatedAt = now
}

// MarkFailed records a failed payout attempt
func (t *Transaction) MarkFailed(timeProvider coreport.TimeProvider) {
	now := timeProvider.Now()
	t.FailedAt = &now
	t.UpdatedAt = now
}

// CanShip reports whether the transaction is in a state the seller may ship from
func (t *Transaction) CanShip() bool {
	return t.HoldStatus == StatusPaymentHeld
}

// CanConfirmDelivery reports whether the buyer may confirm (or dispute) delivery
func (t *Transaction) CanConfirmDelivery() bool {
	return t.HoldStatus == StatusShipped || t.HoldStatus == StatusDelivered
}

// CanRequestRelease reports whether the seller-silence release path is open.
// The 7-day waiting window is checked separately against DeliveredAt.
func (t *Transaction) CanRequestRelease() bool {
	return t.HoldStatus == StatusDelivered && t.DeliveredAt != nil
}

// IsDisputed reports whether the transaction sits on the terminal dispute branch
func (t *Transaction) IsDisputed() bool {
	return t.HoldStatus == StatusDisputed
}
