package models

import "time"

// User is never hard-deleted. Deactivation flips IsActive and the row
// stays behind for tasks and comments that reference it.
type User struct {
	ID        string
	Name      string
	Email     string
	Password  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
