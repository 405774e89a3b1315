package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrAlreadyExists     = errors.New("entity already exists")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrAlreadyPurchased  = errors.New("course already purchased")
	ErrInvalidSignature  = errors.New("invalid provider signature")
	ErrNotApproved       = errors.New("provider did not approve the transaction")
	ErrPaymentNotPending = errors.New("payment is not pending")
	ErrProviderTimeout   = errors.New("provider request timed out")
	ErrReceiptMissing    = errors.New("bank transfer receipt not attached")
	ErrRateLimited       = errors.New("too many requests")

	// Repository-layer errors
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid database execution context")
)
