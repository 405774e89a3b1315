// File: internal/usecase/access_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
)

// Compile-time check
var _ AccessUseCase = (*accessUC)(nil)

// AccessUseCase materializes course entitlements from approved payments.
type AccessUseCase interface {
	// Grant upserts the purchase row for the payment's (user, course) pair.
	// Safe to call any number of times for the same payment; it reports
	// whether this call performed the first-time grant.
	Grant(ctx context.Context, tx repository.Tx, p *model.Payment) (bool, error)
	HasAccess(ctx context.Context, userID, courseID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Purchase, error)
}

type accessUC struct {
	purchases repository.PurchaseRepository
	log       *zerolog.Logger
}

func NewAccessUseCase(purchases repository.PurchaseRepository, logger *zerolog.Logger) *accessUC {
	return &accessUC{purchases: purchases, log: logger}
}

func (u *accessUC) Grant(ctx context.Context, tx repository.Tx, p *model.Payment) (bool, error) {
	if p.Status != model.PaymentStatusApproved {
		return false, domain.ErrInvalidArgument
	}
	pu := &model.Purchase{
		ID:            uuid.NewString(),
		UserID:        p.UserID,
		CourseID:      p.CourseID,
		PaymentID:     p.ID,
		AccessGranted: true,
		PurchaseDate:  time.Now(),
	}
	granted, err := u.purchases.Upsert(ctx, tx, pu)
	if err != nil {
		return false, err
	}
	if granted {
		u.log.Info().
			Str("payment_id", p.ID).
			Str("user_id", p.UserID).
			Str("course_id", p.CourseID).
			Msg("course access granted")
	}
	return granted, nil
}

func (u *accessUC) HasAccess(ctx context.Context, userID, courseID string) (bool, error) {
	pu, err := u.purchases.Find(ctx, repository.NoTX, userID, courseID)
	if err != nil {
		if err == domain.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return pu.AccessGranted, nil
}

func (u *accessUC) ListByUser(ctx context.Context, userID string) ([]*model.Purchase, error) {
	return u.purchases.ListByUser(ctx, repository.NoTX, userID)
}
