// File: internal/usecase/course_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
)

// Compile-time check
var _ CourseUseCase = (*courseUC)(nil)

// CourseUseCase manages the sellable catalog.
type CourseUseCase interface {
	Create(ctx context.Context, title, description string, price int64) (*model.Course, error)
	Update(ctx context.Context, id, title, description string, price int64, published bool) (*model.Course, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.Course, error)
	ListPublished(ctx context.Context, offset, limit int) ([]*model.Course, error)
	ListAll(ctx context.Context) ([]*model.Course, error)
}

type courseUC struct {
	courses repository.CourseRepository
	log     *zerolog.Logger
}

func NewCourseUseCase(courses repository.CourseRepository, logger *zerolog.Logger) *courseUC {
	return &courseUC{courses: courses, log: logger}
}

func (u *courseUC) Create(ctx context.Context, title, description string, price int64) (*model.Course, error) {
	c, err := model.NewCourse("", title, description, price)
	if err != nil {
		return nil, err
	}
	if err := u.courses.Save(ctx, repository.NoTX, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (u *courseUC) Update(ctx context.Context, id, title, description string, price int64, published bool) (*model.Course, error) {
	c, err := u.courses.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	upd, err := model.NewCourse(c.ID, title, description, price)
	if err != nil {
		return nil, err
	}
	upd.Published = published
	upd.CreatedAt = c.CreatedAt
	upd.UpdatedAt = time.Now()
	if err := u.courses.Save(ctx, repository.NoTX, upd); err != nil {
		return nil, err
	}
	return upd, nil
}

func (u *courseUC) Delete(ctx context.Context, id string) error {
	return u.courses.Delete(ctx, repository.NoTX, id)
}

func (u *courseUC) Get(ctx context.Context, id string) (*model.Course, error) {
	return u.courses.FindByID(ctx, repository.NoTX, id)
}

func (u *courseUC) ListPublished(ctx context.Context, offset, limit int) ([]*model.Course, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return u.courses.ListPublished(ctx, repository.NoTX, offset, limit)
}

func (u *courseUC) ListAll(ctx context.Context) ([]*model.Course, error) {
	return u.courses.ListAll(ctx, repository.NoTX)
}
