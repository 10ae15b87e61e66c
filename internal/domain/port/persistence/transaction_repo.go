package persistence

import (
	"context"
	"time"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
)

// TransactionRepository defines persistence for the transaction audit record
type TransactionRepository interface {
	// Create saves a new transaction
	//
	// Possible errors:
	// - ErrDuplicateEvent: if a transaction with the same correlation id exists
	// - ErrDatabaseConnection: if the database is unreachable
	Create(ctx context.Context, transaction *entity.Transaction) error

	// GetByID retrieves a transaction by its id
	//
	// Possible errors:
	// - ErrTransactionNotFound
	// - ErrDatabaseConnection
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)

	// GetByCorrelationID retrieves a transaction by the provider's capture id.
	// Used for webhook idempotency checking.
	//
	// Possible errors:
	// - ErrTransactionNotFound
	// - ErrDatabaseConnection
	GetByCorrelationID(ctx context.Context, correlationID string) (*entity.Transaction, error)

	// UpdateStatus applies a state transition guarded by the expected current
	// status. Returns ErrPrecondition when the row is no longer in
	// expectedStatus, which is how concurrent transitions on the same
	// transaction serialize.
	//
	// Only the fields owned by the transition are written.
	//
	// Possible errors:
	// - ErrTransactionNotFound
	// - ErrPrecondition: status changed under us
	// - ErrDatabaseConnection
	UpdateStatus(ctx context.Context, transaction *entity.Transaction, expectedStatus entity.HoldStatus) error

	// ListShippedDueForDelivery returns shipped transactions whose estimated
	// delivery time has passed, for the sweep to promote to delivered
	//
	// Possible errors:
	// - ErrDatabaseConnection
	ListShippedDueForDelivery(ctx context.Context, now time.Time, limit int) ([]*entity.Transaction, error)
}
