// File: internal/usecase/user_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
	"course-marketplace/internal/infra/logging"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes the user operations the storefront and admin screens need.
type UserUseCase interface {
	RegisterOrFetch(ctx context.Context, email, fullName string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, offset, limit int) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
}

type userUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, logger *zerolog.Logger) *userUC {
	return &userUC{users: users, log: logger}
}

func (u *userUC) RegisterOrFetch(ctx context.Context, email, fullName string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.RegisterOrFetch")()

	if existing, err := u.users.FindByEmail(ctx, repository.NoTX, email); err == nil {
		return existing, nil
	} else if err != domain.ErrNotFound {
		return nil, err
	}

	user, err := model.NewUser("", email, fullName)
	if err != nil {
		return nil, err
	}
	if err := u.users.Save(ctx, repository.NoTX, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userUC) FindByID(ctx context.Context, id string) (*model.User, error) {
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return u.users.List(ctx, repository.NoTX, offset, limit)
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.Count")()
	return u.users.CountUsers(ctx, repository.NoTX)
}
