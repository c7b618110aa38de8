package events

import (
	"time"

	"github.com/hey-coffee/maintenance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated       EventType = "request_created"
	EventRequestStatusChanged EventType = "request_status_changed"
	EventRequestAssigned      EventType = "request_assigned"
	EventRequestPaused        EventType = "request_paused"
	EventRequestResumed       EventType = "request_resumed"
	EventSLAStatusChanged     EventType = "sla_status_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type domain.ActorType `json:"type"`
	ID   *string          `json:"id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	BranchID string                 `json:"branch_id"`
	Category string                 `json:"category"`
	Priority domain.RequestPriority `json:"priority"`
	DueAt    time.Time              `json:"due_at"`
}

// RequestStatusChangedPayload payload.
type RequestStatusChangedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
	Comment   string               `json:"comment,omitempty"`
}

// RequestAssignedPayload payload.
type RequestAssignedPayload struct {
	AssignedUserID   *string `json:"assigned_user_id,omitempty"`
	AssignedVendorID *string `json:"assigned_vendor_id,omitempty"`
	Strategy         string  `json:"strategy,omitempty"`
}

// RequestPausedPayload payload.
type RequestPausedPayload struct {
	Reason    domain.PauseReason `json:"reason"`
	StartedAt time.Time          `json:"started_at"`
}

// RequestResumedPayload payload.
type RequestResumedPayload struct {
	PausedSeconds float64   `json:"paused_seconds"`
	NewDueAt      time.Time `json:"new_due_at"`
}

// SLAStatusChangedPayload payload.
type SLAStatusChangedPayload struct {
	OldStatus       string    `json:"old_status,omitempty"`
	NewStatus       string    `json:"new_status"`
	DueAt           time.Time `json:"due_at"`
	ElapsedFraction float64   `json:"elapsed_fraction"`
}
