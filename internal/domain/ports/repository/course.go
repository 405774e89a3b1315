package repository

import (
	"context"

	"course-marketplace/internal/domain/model"
)

type CourseRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Course) error
	Delete(ctx context.Context, tx Tx, id string) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Course, error)
	ListPublished(ctx context.Context, tx Tx, offset, limit int) ([]*model.Course, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Course, error)
}
