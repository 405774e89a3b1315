package repository

import "context"

// -----------------------------
// Notifications Log
// -----------------------------

type NotificationLogRepository interface {
	// Insert records that a notification of the given kind was dispatched for
	// the payment. The underlying unique constraint on (payment_id, kind)
	// makes the write idempotent; Insert reports whether this call created
	// the row, i.e. whether the caller owns the single dispatch.
	Insert(ctx context.Context, tx Tx, paymentID, userID, kind string) (bool, error)
	Exists(ctx context.Context, tx Tx, paymentID, kind string) (bool, error)
}
