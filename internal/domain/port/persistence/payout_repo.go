package persistence

import (
	"context"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
)

// PayoutRepository persists money-movement attempts. The idempotency floor
// for the whole engine is the partial unique index on transaction_id where
// status=completed: a second completed payout for a transaction cannot be
// written, whatever the caller does.
type PayoutRepository interface {
	// Create saves a new payout attempt
	//
	// Possible errors:
	// - ErrPayoutAlreadyCompleted: a completed payout exists for the transaction
	// - ErrDatabaseConnection
	Create(ctx context.Context, payout *entity.Payout) error

	// Update writes the outcome of an attempt (completed or failed fields only)
	//
	// Possible errors:
	// - ErrPayoutNotFound
	// - ErrDatabaseConnection
	Update(ctx context.Context, payout *entity.Payout) error

	// GetCompletedByTransactionID returns the completed payout for a
	// transaction, if any. Checked before any rail call is attempted.
	//
	// Possible errors:
	// - ErrPayoutNotFound: no completed payout exists
	// - ErrDatabaseConnection
	GetCompletedByTransactionID(ctx context.Context, transactionID string) (*entity.Payout, error)
}

// ActivityRepository appends audit entries. Append-only; nothing in the
// engine reads them back.
type ActivityRepository interface {
	// Append writes one audit entry
	//
	// Possible errors:
	// - ErrDatabaseConnection
	Append(ctx context.Context, activity *entity.Activity) error
}

// SellerDirectory is the read-only seller lookup: subscription tier and
// payout destinations. Owned by the account subsystem; consumed here as a
// key-value lookup by id.
type SellerDirectory interface {
	// GetByID retrieves a seller
	//
	// Possible errors:
	// - ErrSellerNotFound
	// - ErrDatabaseConnection
	GetByID(ctx context.Context, id string) (*entity.Seller, error)
}

// ProductCatalog is the catalog boundary: this engine only flips a product's
// status, never touches the catalog's internals
type ProductCatalog interface {
	// SetStatus flips a product's listing status
	//
	// Possible errors:
	// - ErrProductNotFound
	// - ErrDatabaseConnection
	SetStatus(ctx context.Context, productID, status string) error
}
