// File: internal/infra/db/postgres/postgres_payment_repo.go
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

var _ repository.PaymentRepository = (*paymentRepo)(nil)

const paymentColumns = `id, user_id, course_id, amount, currency, method, status, provider_ref, receipt_ref, approved_by, created_at, updated_at, approved_at`

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.UserID, &p.CourseID, &p.Amount, &p.Currency, &p.Method, &p.Status,
		&p.ProviderRef, &p.ReceiptRef, &p.ApprovedBy, &p.CreatedAt, &p.UpdatedAt, &p.ApprovedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (` + paymentColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  receipt_ref=$9, approved_by=$10, updated_at=$12, approved_at=$13;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.CourseID, p.Amount, p.Currency, p.Method, p.Status,
		p.ProviderRef, p.ReceiptRef, p.ApprovedBy, p.CreatedAt, p.UpdatedAt, p.ApprovedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByProviderRef(ctx context.Context, tx repository.Tx, ref string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE provider_ref=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, ref)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

// SetProviderRef stores the provider session id. Guarded on provider_ref IS
// NULL: the reference is written once and stable thereafter.
func (r *paymentRepo) SetProviderRef(ctx context.Context, tx repository.Tx, id, ref string) error {
	const q = `UPDATE payments SET provider_ref=$2, updated_at=NOW() WHERE id=$1 AND provider_ref IS NULL;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, ref)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (r *paymentRepo) SetReceiptRef(ctx context.Context, tx repository.Tx, id, receiptRef string) error {
	const q = `UPDATE payments SET receipt_ref=$2, updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, receiptRef)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// UpdateStatusIfPending atomically moves a pending payment into a terminal
// status. The WHERE clause is the compare-and-swap: of two concurrent
// deliveries only one sees RowsAffected()==1 and owns the side effects.
func (r *paymentRepo) UpdateStatusIfPending(
	ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, providerRef, operatorID *string, approvedAt *time.Time,
) (bool, error) {
	const q = `
UPDATE payments
   SET status = $2,
       provider_ref = COALESCE(provider_ref, $3),
       approved_by = COALESCE($4, approved_by),
       approved_at = COALESCE($5, approved_at),
       updated_at = NOW()
 WHERE id = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), providerRef, operatorID, approvedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) HasApproved(ctx context.Context, tx repository.Tx, userID, courseID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM payments WHERE user_id=$1 AND course_id=$2 AND status='approved');`
	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *paymentRepo) SumByPeriod(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM payments WHERE status='approved' AND approved_at >= DATE_TRUNC($1, NOW());`
	row, err := pickRow(ctx, r.pool, tx, q, period)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}
