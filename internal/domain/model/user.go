package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"course-marketplace/internal/domain"
)

type User struct {
	ID           string // UUID
	Email        string
	FullName     string
	RegisteredAt time.Time
}

func NewUser(id, email, fullName string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidArgument
	}
	if id == "" {
		id = uuid.NewString()
	}
	return &User{
		ID:           id,
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		RegisteredAt: time.Now(),
	}, nil
}
