// File: internal/infra/db/postgres/postgres_purchase_repo.go
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
)

var _ repository.PurchaseRepository = (*purchaseRepo)(nil)

type purchaseRepo struct{ pool *pgxpool.Pool }

func NewPurchaseRepo(pool *pgxpool.Pool) *purchaseRepo {
	return &purchaseRepo{pool: pool}
}

// Upsert inserts the grant or upgrades an ungranted row. The unique key on
// (user_id, course_id) closes the race between concurrent grant attempts in
// the store itself, and the WHERE guard makes the write monotonic: access is
// never taken away by this statement. RowsAffected()==1 identifies the one
// caller that performed the first-time grant.
func (r *purchaseRepo) Upsert(ctx context.Context, tx repository.Tx, pu *model.Purchase) (bool, error) {
	if pu.PurchaseDate.IsZero() {
		pu.PurchaseDate = time.Now().UTC()
	}
	const q = `
INSERT INTO purchases (id, user_id, course_id, payment_id, access_granted, purchase_date)
VALUES ($1,$2,$3,$4,TRUE,$5)
ON CONFLICT (user_id, course_id) DO UPDATE
   SET access_granted = TRUE, payment_id = EXCLUDED.payment_id
 WHERE purchases.access_granted = FALSE;`

	cmd, err := execSQL(ctx, r.pool, tx, q, pu.ID, pu.UserID, pu.CourseID, pu.PaymentID, pu.PurchaseDate)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *purchaseRepo) Find(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Purchase, error) {
	const q = `SELECT id, user_id, course_id, payment_id, access_granted, purchase_date FROM purchases WHERE user_id=$1 AND course_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID)
	if err != nil {
		return nil, err
	}
	pu := &model.Purchase{}
	if err := row.Scan(&pu.ID, &pu.UserID, &pu.CourseID, &pu.PaymentID, &pu.AccessGranted, &pu.PurchaseDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return pu, nil
}

func (r *purchaseRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Purchase, error) {
	const q = `SELECT id, user_id, course_id, payment_id, access_granted, purchase_date FROM purchases WHERE user_id=$1 ORDER BY purchase_date DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Purchase
	for rows.Next() {
		pu := &model.Purchase{}
		if err := rows.Scan(&pu.ID, &pu.UserID, &pu.CourseID, &pu.PaymentID, &pu.AccessGranted, &pu.PurchaseDate); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, pu)
	}
	return out, rows.Err()
}
