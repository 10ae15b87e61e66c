package entity

import (
	"time"

	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
)

// Activity event types written by the engine
const (
	ActivityPaymentCaptured   = "payment_captured"
	ActivityOrderShipped      = "order_shipped"
	ActivityOrderDelivered    = "order_delivered"
	ActivityDeliveryConfirmed = "delivery_confirmed"
	ActivityDisputeRaised     = "dispute_raised"
	ActivityReleaseRequested  = "release_requested"
	ActivityAutoReleased      = "auto_released"
	ActivityPayoutScheduled   = "payout_scheduled"
	ActivityPayoutCompleted   = "payout_completed"
	ActivityPayoutFailed      = "payout_failed"
)

// Activity is an append-only audit entry tied to an actor and an event type.
// Written on every state transition; never read by the core logic.
type Activity struct {
	ID            string
	Actor         string
	EventType     string
	TransactionID string
	Metadata      map[string]any
	CreatedAt     time.Time
}

// NewActivity creates an audit entry stamped at the current time
func NewActivity(id, actor, eventType, transactionID string, metadata map[string]any, timeProvider coreport.TimeProvider) *Activity {
	return &Activity{
		ID:            id,
		Actor:         actor,
		EventType:     eventType,
		TransactionID: transactionID,
		Metadata:      metadata,
		CreatedAt:     timeProvider.Now(),
	}
}
