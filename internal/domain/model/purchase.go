package model

import "time"

// Purchase marks a user as entitled to a course. Exactly one row exists per
// (UserID, CourseID); the row is written only after the backing payment
// reached approved, and AccessGranted never reverts to false.
type Purchase struct {
	ID            string // UUID
	UserID        string // UUID
	CourseID      string // UUID
	PaymentID     string // Payment that authorized the grant
	AccessGranted bool
	PurchaseDate  time.Time
}
