package payment

import "context"

// TemplateKind names a notification template
type TemplateKind string

// Notification templates sent by the engine
const (
	TemplateOrderShipped       TemplateKind = "order_shipped"
	TemplateOrderDelivered     TemplateKind = "order_delivered"
	TemplateDisputeRaised      TemplateKind = "dispute_raised"
	TemplateReleaseRequested   TemplateKind = "release_requested"
	TemplatePayoutScheduled    TemplateKind = "payout_scheduled"
	TemplatePayoutCompleted    TemplateKind = "payout_completed"
	TemplatePayoutFailed       TemplateKind = "payout_failed"
	TemplatePayoutActionNeeded TemplateKind = "payout_action_required"
	TemplateOrderComplete      TemplateKind = "order_complete"
	TemplateSaleCaptured       TemplateKind = "sale_captured"
)

// Notifier sends transactional email. Strictly best-effort: callers log a
// failed send and move on, a notification failure never rolls back the
// transition that triggered it.
type Notifier interface {
	Send(ctx context.Context, recipientEmail string, template TemplateKind, data map[string]any) error
}
