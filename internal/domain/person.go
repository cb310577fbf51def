package domain

import "time"

// Person is anyone who interacts with tickets: reporters, technicians and
// approvers alike. Authority comes from approval grants, not from the
// person record itself.
type Person struct {
	ID           int64
	Name         string
	Email        string
	LineUserID   *string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
