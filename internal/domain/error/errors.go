package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeNotAuthorized       = 4010
	CodePreconditionFailed  = 4120
	CodeDuplicateEvent      = 4090
	CodePayoutConflict      = 4091
	CodeInvalidAmount       = 4002
	CodeInvalidSignature    = 4003
	CodeTransactionNotFound = 4040
	CodeHoldNotFound        = 4041
	CodeSellerNotFound      = 4042
	CodeHoldClaimed         = 4230

	// 5xxx - Server errors
	CodeRailFailure    = 5020
	CodeInternalServer = 5000
)

// Base error types
var (
	// ErrNotAuthorized is returned when the acting party does not match the
	// identity a transition requires
	ErrNotAuthorized = errors.New("not authorized")

	// ErrPrecondition is returned when a transition is attempted from the wrong
	// state or before its deadline
	ErrPrecondition = errors.New("precondition failed")

	// ErrDuplicateEvent is returned when a capture event for the same
	// correlation id has already been ingested
	ErrDuplicateEvent = errors.New("capture event already processed")

	// ErrPayoutAlreadyCompleted is returned when a payout is attempted for a
	// transaction that already has a completed payout
	ErrPayoutAlreadyCompleted = errors.New("payout already completed for transaction")

	// ErrHoldClaimed is returned when a hold is already claimed by another sweep
	ErrHoldClaimed = errors.New("hold is claimed by another sweep")

	// ErrHoldDisputed is returned when an operation is attempted on a disputed hold
	ErrHoldDisputed = errors.New("hold is disputed")

	// ErrInvalidAmount is returned when an amount is negative or malformed
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidSplit is returned when commission + seller amount does not equal
	// the gross amount
	ErrInvalidSplit = errors.New("commission and seller amounts do not sum to gross")

	// ErrInvalidSignature is returned when a webhook signature does not verify
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrTransactionNotFound is returned when the requested transaction doesn't exist
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrHoldNotFound is returned when no payment hold exists for a transaction
	ErrHoldNotFound = errors.New("payment hold not found")

	// ErrPayoutNotFound is returned when the requested payout doesn't exist
	ErrPayoutNotFound = errors.New("payout not found")

	// ErrSellerNotFound is returned when the seller lookup fails
	ErrSellerNotFound = errors.New("seller not found")

	// ErrProductNotFound is returned when the product lookup fails
	ErrProductNotFound = errors.New("product not found")

	// ErrNoPayoutDestination is returned when a seller has neither a connected
	// payout account nor a wallet handle
	ErrNoPayoutDestination = errors.New("seller has no payout destination configured")

	// ErrRailFailure is returned when a payout rail call fails
	ErrRailFailure = errors.New("payout rail failure")

	// ErrInvalidRequest is returned when the request format is invalid
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")

	// ErrDatabaseConnection is returned when there's a problem connecting to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrConstraintViolation is returned when a database constraint is violated
	ErrConstraintViolation = errors.New("database constraint violation")

	// ErrNotFound is returned when a generic resource is not found
	ErrNotFound = errors.New("resource not found")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return CodeNotAuthorized
	case errors.Is(err, ErrPrecondition), errors.Is(err, ErrHoldDisputed):
		return CodePreconditionFailed
	case errors.Is(err, ErrDuplicateEvent):
		return CodeDuplicateEvent
	case errors.Is(err, ErrPayoutAlreadyCompleted):
		return CodePayoutConflict
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidSplit):
		return CodeInvalidAmount
	case errors.Is(err, ErrInvalidSignature):
		return CodeInvalidSignature
	case errors.Is(err, ErrTransactionNotFound):
		return CodeTransactionNotFound
	case errors.Is(err, ErrHoldNotFound):
		return CodeHoldNotFound
	case errors.Is(err, ErrSellerNotFound):
		return CodeSellerNotFound
	case errors.Is(err, ErrHoldClaimed):
		return CodeHoldClaimed
	case errors.Is(err, ErrRailFailure):
		return CodeRailFailure
	default:
		return CodeInternalServer
	}
}

// AuthorizationError carries the identity comparison that failed on an
// actor-gated transition
type AuthorizationError struct {
	TransactionID string
	Actor         string
	RequiredRole  string
}

// Error implements the error interface
func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("actor %q is not the %s of transaction %s",
		e.Actor, e.RequiredRole, e.TransactionID)
}

// Is checks if the target error is an ErrNotAuthorized
func (e *AuthorizationError) Is(target error) bool {
	return target == ErrNotAuthorized
}

// LogFields returns a map of fields for structured logging
func (e *AuthorizationError) LogFields() map[string]any {
	return map[string]any{
		"error_type":     "authorization_error",
		"transaction_id": e.TransactionID,
		"actor":          e.Actor,
		"required_role":  e.RequiredRole,
		"error_code":     CodeNotAuthorized,
	}
}

// NewAuthorizationError creates a new detailed authorization error
func NewAuthorizationError(transactionID, actor, requiredRole string) error {
	return &AuthorizationError{
		TransactionID: transactionID,
		Actor:         actor,
		RequiredRole:  requiredRole,
	}
}

// PreconditionError describes a transition rejected because the transaction
// is in the wrong state or a deadline has not yet been reached. Reason is a
// user-visible explanation telling the counterpart what to do next.
type PreconditionError struct {
	TransactionID string
	Transition    string
	CurrentState  string
	Reason        string
}

// Error implements the error interface
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot %s transaction %s (state %s): %s",
		e.Transition, e.TransactionID, e.CurrentState, e.Reason)
}

// Is checks if the target error is an ErrPrecondition
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// LogFields returns a map of fields for structured logging
func (e *PreconditionError) LogFields() map[string]any {
	return map[string]any{
		"error_type":     "precondition_error",
		"transaction_id": e.TransactionID,
		"transition":     e.Transition,
		"current_state":  e.CurrentState,
		"reason":         e.Reason,
		"error_code":     CodePreconditionFailed,
	}
}

// NewPreconditionError creates a detailed precondition error
func NewPreconditionError(transactionID, transition, currentState, reason string) error {
	return &PreconditionError{
		TransactionID: transactionID,
		Transition:    transition,
		CurrentState:  currentState,
		Reason:        reason,
	}
}

// RailError describes a failed payout rail call. Permanent marks destination
// problems the seller must fix (invalid account) as opposed to transient
// provider or network failures the next sweep can retry blindly.
type RailError struct {
	Rail      string
	Operation string
	Permanent bool
	Err       error
}

// Error implements the error interface
func (e *RailError) Error() string {
	kind := "transient"
	if e.Permanent {
		kind = "permanent"
	}
	return fmt.Sprintf("%s rail %s failed (%s): %v", e.Rail, e.Operation, kind, e.Err)
}

// Unwrap returns the underlying error
func (e *RailError) Unwrap() error {
	return e.Err
}

// Is checks if the target error is an ErrRailFailure
func (e *RailError) Is(target error) bool {
	return target == ErrRailFailure
}

// LogFields returns a map of fields for structured logging
func (e *RailError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "rail_error",
		"rail":       e.Rail,
		"operation":  e.Operation,
		"permanent":  e.Permanent,
		"error":      e.Err.Error(),
		"error_code": CodeRailFailure,
	}
}

// NewRailError creates a new detailed rail error
func NewRailError(rail, operation string, permanent bool, err error) error {
	return &RailError{
		Rail:      rail,
		Operation: operation,
		Permanent: permanent,
		Err:       err,
	}
}

// PayoutConflictError provides detail about a rejected duplicate payout attempt
type PayoutConflictError struct {
	TransactionID    string
	ExistingPayoutID string
}

// Error implements the error interface
func (e *PayoutConflictError) Error() string {
	return fmt.Sprintf("transaction %s already has completed payout %s",
		e.TransactionID, e.ExistingPayoutID)
}

// Is checks if the target error is an ErrPayoutAlreadyCompleted
func (e *PayoutConflictError) Is(target error) bool {
	return target == ErrPayoutAlreadyCompleted
}

// LogFields returns a map of fields for structured logging
func (e *PayoutConflictError) LogFields() map[string]any {
	return map[string]any{
		"error_type":         "payout_conflict",
		"transaction_id":     e.TransactionID,
		"existing_payout_id": e.ExistingPayoutID,
		"error_code":         CodePayoutConflict,
	}
}

// NewPayoutConflictError creates a new detailed payout conflict error
func NewPayoutConflictError(transactionID, existingPayoutID string) error {
	return &PayoutConflictError{
		TransactionID:    transactionID,
		ExistingPayoutID: existingPayoutID,
	}
}

// IsAuthorizationError checks if the error is an authorization failure
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrNotAuthorized)
}

// IsPreconditionError checks if the error is a precondition rejection
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// IsDuplicateEventError checks if the error is a duplicate webhook delivery
func IsDuplicateEventError(err error) bool {
	return errors.Is(err, ErrDuplicateEvent)
}

// IsPayoutConflictError checks if the error is a duplicate payout attempt
func IsPayoutConflictError(err error) bool {
	return errors.Is(err, ErrPayoutAlreadyCompleted)
}

// IsPermanentRailError checks if the error is a rail failure the next sweep
// cannot fix on its own
func IsPermanentRailError(err error) bool {
	var railErr *RailError
	if errors.As(err, &railErr) {
		return railErr.Permanent
	}
	return false
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrHoldNotFound) ||
		errors.Is(err, ErrPayoutNotFound) ||
		errors.Is(err, ErrSellerNotFound) ||
		errors.Is(err, ErrProductNotFound)
}

// IsHoldClaimedError checks if the error is a lost claim race
func IsHoldClaimedError(err error) bool {
	return errors.Is(err, ErrHoldClaimed)
}
