package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"course-marketplace/internal/domain"
)

// Course is a sellable catalog entry. Lesson content itself lives behind the
// delivery frontend and is out of scope here; the marketplace only needs the
// price and publication state to sell access.
type Course struct {
	ID          string // UUID
	Title       string
	Description string
	Price       int64 // integer amount in the platform base unit
	Published   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewCourse(id, title, description string, price int64) (*Course, error) {
	if strings.TrimSpace(title) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if price < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	return &Course{
		ID:          id,
		Title:       title,
		Description: description,
		Price:       price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
