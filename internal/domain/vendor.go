package domain

import "time"

// Vendor is an external contractor that can take assignments instead of an
// internal technician.
type Vendor struct {
	ID        string
	Name      string
	Phone     string
	Email     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
