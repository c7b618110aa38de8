package domain

import "time"

// RequestStatus enumerates lifecycle states for maintenance requests.
type RequestStatus string

const (
	RequestStatusPending       RequestStatus = "PENDING"
	RequestStatusAssigned      RequestStatus = "ASSIGNED"
	RequestStatusInProgress    RequestStatus = "IN_PROGRESS"
	RequestStatusPendingReview RequestStatus = "PENDING_REVIEW"
	RequestStatusCompleted     RequestStatus = "COMPLETED"
	RequestStatusCancelled     RequestStatus = "CANCELLED"
)

// IsTerminal reports whether no further work happens on the request.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// RequestPriority enumerates urgency levels.
type RequestPriority string

const (
	RequestPriorityLow      RequestPriority = "LOW"
	RequestPriorityMedium   RequestPriority = "MEDIUM"
	RequestPriorityHigh     RequestPriority = "HIGH"
	RequestPriorityCritical RequestPriority = "CRITICAL"
)

// SLAMode selects how SLA duration is counted against the clock.
type SLAMode string

const (
	// SLAModeCalendar counts continuous wall-clock time, nights and
	// holidays included.
	SLAModeCalendar SLAMode = "CALENDAR"
	// SLAModeWorkingHours counts only minutes inside the branch's
	// configured opening hours, excluding holidays.
	SLAModeWorkingHours SLAMode = "WORKING_HOURS"
)

// MaintenanceRequest is the aggregate for repair tickets filed by branch staff.
type MaintenanceRequest struct {
	ID          string
	ExternalKey string
	BranchID    string
	EquipmentID *string
	ReporterID  string
	Category    string
	Title       string
	Description string
	Status      RequestStatus
	Priority    RequestPriority

	SLAHours float64
	SLAMode  SLAMode
	DueAt    time.Time

	// IsPaused acts as the single-slot lock for pause intervals; PausedAt
	// mirrors the started_at of the open interval while paused.
	IsPaused bool
	PausedAt *time.Time

	// AssignedUserID and AssignedVendorID are mutually exclusive.
	AssignedUserID   *string
	AssignedVendorID *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}
