// File: internal/infra/db/postgres/postgres_course_repo.go
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
)

var _ repository.CourseRepository = (*courseRepo)(nil)

const courseColumns = `id, title, description, price, published, created_at, updated_at`

type courseRepo struct{ pool *pgxpool.Pool }

func NewCourseRepo(pool *pgxpool.Pool) *courseRepo {
	return &courseRepo{pool: pool}
}

func scanCourse(row pgx.Row) (*model.Course, error) {
	c := &model.Course{}
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Price, &c.Published, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

func (r *courseRepo) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	const q = `
INSERT INTO courses (` + courseColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  title=$2, description=$3, price=$4, published=$5, updated_at=$7;`

	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.Title, c.Description, c.Price, c.Published, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *courseRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	const q = `DELETE FROM courses WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *courseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	const q = `SELECT ` + courseColumns + ` FROM courses WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanCourse(row)
}

func (r *courseRepo) ListPublished(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Course, error) {
	const q = `SELECT ` + courseColumns + ` FROM courses WHERE published ORDER BY created_at DESC OFFSET $1 LIMIT $2;`
	return r.list(ctx, tx, q, offset, limit)
}

func (r *courseRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Course, error) {
	const q = `SELECT ` + courseColumns + ` FROM courses ORDER BY created_at DESC;`
	return r.list(ctx, tx, q)
}

func (r *courseRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Course, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
