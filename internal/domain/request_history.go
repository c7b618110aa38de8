package domain

import "time"

// RequestChangeType captures what changed in a history entry.
type RequestChangeType string

const (
	ChangeTypeStatus   RequestChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee RequestChangeType = "ASSIGNEE_CHANGE"
	ChangeTypePriority RequestChangeType = "PRIORITY_CHANGE"
	ChangeTypePause    RequestChangeType = "PAUSE"
	ChangeTypeResume   RequestChangeType = "RESUME"
)

// RequestHistory is an immutable audit trail entry.
type RequestHistory struct {
	ID            string
	RequestID     string
	ChangedByType ActorType
	ChangedByID   *string
	ChangeType    RequestChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
