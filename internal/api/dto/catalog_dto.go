package dto

import (
	"time"

	"github.com/hey-coffee/maintenance-service/internal/domain"
)

// BranchRequest payload.
type BranchRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Timezone string `json:"timezone"`
	IsActive *bool  `json:"is_active"`
}

// BranchResponse response.
type BranchResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Timezone  string    `json:"timezone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkingHoursRequest payload for one weekday window.
type WorkingHoursRequest struct {
	DayOfWeek int    `json:"day_of_week"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
	IsClosed  bool   `json:"is_closed"`
}

// WorkingHoursResponse response.
type WorkingHoursResponse struct {
	ID        string `json:"id"`
	BranchID  string `json:"branch_id"`
	DayOfWeek int    `json:"day_of_week"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
	IsClosed  bool   `json:"is_closed"`
}

// HolidayRequest payload.
type HolidayRequest struct {
	BranchID    *string `json:"branch_id"`
	Name        string  `json:"name"`
	Date        string  `json:"date"`
	IsRecurring bool    `json:"is_recurring"`
}

// HolidayResponse response.
type HolidayResponse struct {
	ID          string    `json:"id"`
	BranchID    *string   `json:"branch_id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	IsRecurring bool      `json:"is_recurring"`
}

// EquipmentRequest payload.
type EquipmentRequest struct {
	BranchID     string `json:"branch_id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	SerialNumber string `json:"serial_number"`
	IsActive     *bool  `json:"is_active"`
}

// EquipmentResponse response.
type EquipmentResponse struct {
	ID           string    `json:"id"`
	BranchID     string    `json:"branch_id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	SerialNumber string    `json:"serial_number"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// VendorRequest payload.
type VendorRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	IsActive *bool  `json:"is_active"`
}

// VendorResponse response.
type VendorResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TechnicianRequest payload.
type TechnicianRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	BranchID    *string `json:"branch_id"`
	Active      *bool   `json:"active"`
	OnLeave     *bool   `json:"on_leave"`
	MaxWorkload int     `json:"max_workload"`
}

// TechnicianResponse response.
type TechnicianResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	BranchID    *string         `json:"branch_id"`
	Active      bool            `json:"active"`
	OnLeave     bool            `json:"on_leave"`
	MaxWorkload int             `json:"max_workload"`
	Skills      []SkillResponse `json:"skills,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SkillRequest payload.
type SkillRequest struct {
	Category   string `json:"category"`
	SkillLevel int    `json:"skill_level"`
}

// SkillResponse response.
type SkillResponse struct {
	Category   string `json:"category"`
	SkillLevel int    `json:"skill_level"`
}

// SkillsUpdateRequest replaces a technician's full skill set.
type SkillsUpdateRequest struct {
	Skills []SkillRequest `json:"skills"`
}

// Convenience converters shared by handlers.

// NewSkillResponses maps domain skills.
func NewSkillResponses(skills []domain.TechnicianSkill) []SkillResponse {
	out := make([]SkillResponse, 0, len(skills))
	for _, skill := range skills {
		out = append(out, SkillResponse{Category: skill.Category, SkillLevel: skill.SkillLevel})
	}
	return out
}
