package entity

import (
	"time"

	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
)

// HoldState represents the custody state of captured funds
type HoldState string

// Hold states. A hold may only move held -> released or held -> disputed;
// disputed is terminal for this engine, resolution is a manual process.
const (
	HoldHeld     HoldState = "held"
	HoldReleased HoldState = "released"
	HoldDisputed HoldState = "disputed"
	HoldRefunded HoldState = "refunded"
)

// Hold transition reasons
const (
	ReasonPaymentCaptured  = "payment_captured"
	ReasonAwaitingDelivery = "awaiting_delivery"
	ReasonBuyerConfirmed   = "buyer_confirmed"
	ReasonAutoRelease      = "auto_release"
	ReasonSellerRequested  = "seller_requested"
)

// PayoutState tracks the scheduled-payout envelope on a hold
type PayoutState string

// Payout envelope states. Once completed, a hold must never be selected by
// the sweep again.
const (
	PayoutScheduled  PayoutState = "scheduled"
	PayoutProcessing PayoutState = "processing"
	PayoutCompleted  PayoutState = "completed"
	PayoutFailed     PayoutState = "failed"
)

// PayoutSchedule is the typed scheduled-payout envelope carried by a hold.
// ScheduledAt is a persisted deadline evaluated by the sweep, not an
// in-memory timer, so it survives process restarts.
type PayoutSchedule struct {
	ScheduledAt *time.Time
	Status      PayoutState
	Method      RailKind
	TransferRef string
	ClaimedAt   *time.Time
	LastError   string
}

// Due reports whether the envelope is eligible for a sweep pass at the given
// instant. Scheduled and failed envelopes are both retryable; processing and
// completed are not.
func (s PayoutSchedule) Due(now time.Time) bool {
	if s.ScheduledAt == nil {
		return false
	}
	if s.Status != PayoutScheduled && s.Status != PayoutFailed {
		return false
	}
	return !now.Before(*s.ScheduledAt)
}

// PaymentHold is the custody record of the captured funds for exactly one
// transaction. Created the instant a capture is confirmed, mutated by every
// subsequent transition, never deleted.
type PaymentHold struct {
	ID            string
	TransactionID string
	HeldAmount    int64 // minor units
	Currency      string
	Status        HoldState
	Reason        string

	CommissionHeld    int64
	ProcessingFeeHeld int64

	HeldAt     time.Time
	ReleasedAt *time.Time

	DisputeRaised   bool
	DisputeRaisedBy string
	DisputeRaisedAt *time.Time
	DisputeReason   string

	SellerReleaseRequested   bool
	SellerReleaseRequestedAt *time.Time
	AutoReleaseEligibleAt    *time.Time

	Payout PayoutSchedule

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPaymentHold creates a hold in held state with reason payment_captured
func NewPaymentHold(
	id string,
	transactionID string,
	heldAmount int64,
	currency string,
	commissionHeld int64,
	processingFeeHeld int64,
	timeProvider coreport.TimeProvider,
) *PaymentHold {
	now := timeProvider.Now()
	return &PaymentHold{
		ID:                id,
		TransactionID:     transactionID,
		HeldAmount:        heldAmount,
		Currency:          currency,
		Status:            HoldHeld,
		Reason:            ReasonPaymentCaptured,
		CommissionHeld:    commissionHeld,
		ProcessingFeeHeld: processingFeeHeld,
		HeldAt:            now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// NetPayable returns the amount owed to the seller once the hold releases:
// heldAmount less the commission and processing fee retained by the platform
func (h *PaymentHold) NetPayable() int64 {
	net := h.HeldAmount - h.CommissionHeld - h.ProcessingFeeHeld
	if net < 0 {
		return 0
	}
	return net
}

// IsTerminal reports whether the hold can no longer transition in this engine
func (h *PaymentHold) IsTerminal() bool {
	return h.Status == HoldDisputed || h.Status == HoldRefunded
}
