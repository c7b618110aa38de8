package domain

import "time"

// Equipment is a serviceable machine installed at a branch. Category feeds
// the default category of maintenance requests filed against it.
type Equipment struct {
	ID           string
	BranchID     string
	Name         string
	Category     string
	SerialNumber string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
