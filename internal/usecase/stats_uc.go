// File: internal/usecase/stats_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"course-marketplace/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	Totals(ctx context.Context) (users int, courses int, err error)
	Revenue(ctx context.Context) (week int64, month int64, year int64, err error)
}

type statsUC struct {
	users    repository.UserRepository
	courses  repository.CourseRepository
	payments repository.PaymentRepository

	log *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, courses repository.CourseRepository, payments repository.PaymentRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, courses: courses, payments: payments, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (int, int, error) {
	users, err := s.users.CountUsers(ctx, repository.NoTX)
	if err != nil {
		return 0, 0, err
	}
	all, err := s.courses.ListAll(ctx, repository.NoTX)
	if err != nil {
		return 0, 0, err
	}
	return users, len(all), nil
}

func (s *statsUC) Revenue(ctx context.Context) (int64, int64, int64, error) {
	w, err := s.payments.SumByPeriod(ctx, repository.NoTX, "week")
	if err != nil {
		return 0, 0, 0, err
	}
	m, err := s.payments.SumByPeriod(ctx, repository.NoTX, "month")
	if err != nil {
		return 0, 0, 0, err
	}
	y, err := s.payments.SumByPeriod(ctx, repository.NoTX, "year")
	if err != nil {
		return 0, 0, 0, err
	}
	return w, m, y, nil
}
