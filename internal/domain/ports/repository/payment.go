package repository

import (
	"context"
	"time"

	"course-marketplace/internal/domain/model"
)

// -----------------------------
// Payments
// -----------------------------

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByProviderRef(ctx context.Context, tx Tx, ref string) (*model.Payment, error)
	// SetProviderRef stores the provider session/transaction id. The write is
	// guarded on provider_ref IS NULL so the reference is set at most once.
	SetProviderRef(ctx context.Context, tx Tx, id, ref string) error
	SetReceiptRef(ctx context.Context, tx Tx, id, receiptRef string) error
	// UpdateStatusIfPending is the compare-and-swap transition: it flips the
	// record into a terminal status only while the current status is still
	// 'pending', and reports whether this call won the swap.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, providerRef, operatorID *string, approvedAt *time.Time) (bool, error)
	// HasApproved reports whether the user already paid for the course.
	HasApproved(ctx context.Context, tx Tx, userID, courseID string) (bool, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
	SumByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
}

// -----------------------------
// Purchases
// -----------------------------

type PurchaseRepository interface {
	// Upsert grants access for (UserID, CourseID). The write is an explicit
	// insert-or-upgrade on the unique key: a fresh row is inserted with
	// access granted, an existing ungranted row is upgraded, and an existing
	// granted row is left untouched. It reports whether this call performed
	// the first-time grant. Access is never downgraded.
	Upsert(ctx context.Context, tx Tx, pu *model.Purchase) (granted bool, err error)
	Find(ctx context.Context, tx Tx, userID, courseID string) (*model.Purchase, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Purchase, error)
}
