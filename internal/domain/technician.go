package domain

import "time"

// TechnicianProfile models an internal repair technician.
type TechnicianProfile struct {
	ID    string
	Name  string
	Email string
	// BranchID restricts the technician to one branch; nil means
	// unrestricted across the chain.
	BranchID    *string
	Active      bool
	OnLeave     bool
	MaxWorkload int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TechnicianSkill links a technician to an equipment category with a
// proficiency weight between 1 and 5.
type TechnicianSkill struct {
	ProfileID  string
	Category   string
	SkillLevel int
}

// ValidSkillLevel reports whether the proficiency weight is in range.
func ValidSkillLevel(level int) bool {
	return level >= 1 && level <= 5
}
