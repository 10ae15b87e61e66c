package payment

import (
	"context"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
)

// TransferRequest describes one money movement to a seller destination.
// Amount is in minor units; IdempotencyKey lets the provider deduplicate a
// retried call on its side.
type TransferRequest struct {
	DestinationRef string
	Amount         int64
	Currency       string
	Description    string
	IdempotencyKey string
}

// TransferResult is the provider's acknowledgement of a transfer
type TransferResult struct {
	TransferID string
	Status     string
}

// PayoutRail is one external money-movement mechanism. Implementations do
// not retry internally; retry is the sweep's responsibility on its next
// pass. Failures are reported as *error.RailError so the executor can
// distinguish transient from permanent causes.
type PayoutRail interface {
	// Kind identifies the rail for selection and bookkeeping
	Kind() entity.RailKind

	// Transfer moves funds to the destination. At most one provider call per
	// invocation.
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)

	// VerifyAccount checks that a destination reference is payable
	VerifyAccount(ctx context.Context, destinationRef string) error
}
