package domain

import "time"

// Unit represents an organizational unit that handles complaints.
type Unit struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
