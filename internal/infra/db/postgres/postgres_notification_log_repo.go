// File: internal/infra/db/postgres/postgres_notification_log_repo.go
package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/ports/repository"
)

var _ repository.NotificationLogRepository = (*notificationLogRepo)(nil)

type notificationLogRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationLogRepo(pool *pgxpool.Pool) repository.NotificationLogRepository {
	return &notificationLogRepo{pool: pool}
}

// Insert claims the single dispatch slot for (payment_id, kind). The UNIQUE
// constraint does the dedup; RowsAffected tells the caller whether it won.
func (r *notificationLogRepo) Insert(ctx context.Context, tx repository.Tx, paymentID, userID, kind string) (bool, error) {
	const q = `
INSERT INTO payment_notifications (id, payment_id, user_id, kind)
VALUES ($1, $2, $3, $4)
ON CONFLICT (payment_id, kind) DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, q, uuid.NewString(), paymentID, userID, kind)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *notificationLogRepo) Exists(ctx context.Context, tx repository.Tx, paymentID, kind string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM payment_notifications WHERE payment_id=$1 AND kind=$2);`
	row, err := pickRow(ctx, r.pool, tx, q, paymentID, kind)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}
