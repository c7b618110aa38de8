package dto

import (
	"time"

	"github.com/hey-coffee/maintenance-service/internal/domain"
)

// CreateRequestRequest payload.
type CreateRequestRequest struct {
	BranchID    string                 `json:"branch_id"`
	EquipmentID *string                `json:"equipment_id"`
	ReporterID  string                 `json:"reporter_id"`
	Category    string                 `json:"category"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Priority    domain.RequestPriority `json:"priority"`
	SLAHours    *float64               `json:"sla_hours"`
	SLAMode     *domain.SLAMode        `json:"sla_mode"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  domain.RequestStatus `json:"status"`
	Comment string               `json:"comment"`
}

// PauseRequest payload.
type PauseRequest struct {
	Reason domain.PauseReason `json:"reason"`
}

// RequestSummary response.
type RequestSummary struct {
	ID               string                 `json:"id"`
	ExternalKey      string                 `json:"external_key"`
	BranchID         string                 `json:"branch_id"`
	EquipmentID      *string                `json:"equipment_id"`
	Category         string                 `json:"category"`
	Title            string                 `json:"title"`
	Status           domain.RequestStatus   `json:"status"`
	Priority         domain.RequestPriority `json:"priority"`
	SLAHours         float64                `json:"sla_hours"`
	SLAMode          domain.SLAMode         `json:"sla_mode"`
	DueAt            time.Time              `json:"due_at"`
	IsPaused         bool                   `json:"is_paused"`
	AssignedUserID   *string                `json:"assigned_user_id"`
	AssignedVendorID *string                `json:"assigned_vendor_id"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	CompletedAt      *time.Time             `json:"completed_at"`
}

// RequestDetailResponse provides full request info including trails.
type RequestDetailResponse struct {
	RequestSummary
	ReporterID  string                  `json:"reporter_id"`
	Description string                  `json:"description"`
	Pauses      []PauseIntervalResponse `json:"pauses"`
	History     []HistoryEntryResponse  `json:"history"`
}

// PauseIntervalResponse represents one pause/resume cycle.
type PauseIntervalResponse struct {
	ID        string             `json:"id"`
	Reason    domain.PauseReason `json:"reason"`
	StartedAt time.Time          `json:"started_at"`
	EndedAt   *time.Time         `json:"ended_at"`
}

// HistoryEntryResponse represents one audit trail entry.
type HistoryEntryResponse struct {
	ID            string                   `json:"id"`
	ChangedByType domain.ActorType         `json:"changed_by_type"`
	ChangedByID   *string                  `json:"changed_by_id"`
	ChangeType    domain.RequestChangeType `json:"change_type"`
	OldValue      map[string]any           `json:"old_value,omitempty"`
	NewValue      map[string]any           `json:"new_value,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

// SLAStatusResponse reports the request's standing against its deadline.
type SLAStatusResponse struct {
	RequestID       string    `json:"request_id"`
	Status          string    `json:"status"`
	ElapsedFraction float64   `json:"elapsed_fraction"`
	DueAt           time.Time `json:"due_at"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}
