package domain

import "time"

// Branch represents one retail store location.
type Branch struct {
	ID        string
	Name      string
	Address   string
	Timezone  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
