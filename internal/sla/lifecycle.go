package sla

import (
	"errors"
	"fmt"

	"github.com/hey-coffee/maintenance-service/internal/domain"
)

// State is the derived lifecycle state of a request. The persisted fields
// remain status plus the is_paused flag; the state machine validates every
// transition over this derived view and rejects anything not listed.
type State string

const (
	StateUnassigned State = "UNASSIGNED"
	StateAssigned   State = "ASSIGNED"
	StateRunning    State = "RUNNING"
	StatePaused     State = "PAUSED"
	StateCompleted  State = "COMPLETED"
	StateCancelled  State = "CANCELLED"
)

var (
	ErrAlreadyPaused      = errors.New("request is already paused")
	ErrNotPaused          = errors.New("request has no open pause interval")
	ErrTerminalState      = errors.New("request is in a terminal state")
	ErrPausedStatusFreeze = errors.New("request is paused; resume before changing status")
)

// StateOf derives the lifecycle state from the persisted fields.
func StateOf(status domain.RequestStatus, isPaused bool) State {
	switch status {
	case domain.RequestStatusCompleted:
		return StateCompleted
	case domain.RequestStatusCancelled:
		return StateCancelled
	}
	if isPaused {
		return StatePaused
	}
	switch status {
	case domain.RequestStatusPending:
		return StateUnassigned
	case domain.RequestStatusAssigned:
		return StateAssigned
	default:
		return StateRunning
	}
}

var allowedStatusTransitions = map[domain.RequestStatus][]domain.RequestStatus{
	domain.RequestStatusPending:       {domain.RequestStatusAssigned, domain.RequestStatusCancelled},
	domain.RequestStatusAssigned:      {domain.RequestStatusInProgress, domain.RequestStatusPending, domain.RequestStatusCancelled},
	domain.RequestStatusInProgress:    {domain.RequestStatusPendingReview, domain.RequestStatusCompleted, domain.RequestStatusCancelled},
	domain.RequestStatusPendingReview: {domain.RequestStatusInProgress, domain.RequestStatusCompleted, domain.RequestStatusCancelled},
	domain.RequestStatusCompleted:     {},
	domain.RequestStatusCancelled:     {},
}

// ValidateStatusChange checks a status transition against the lifecycle
// table. Paused requests must be resumed first; terminal states accept
// nothing.
func ValidateStatusChange(current domain.RequestStatus, isPaused bool, next domain.RequestStatus) error {
	if current.IsTerminal() {
		return ErrTerminalState
	}
	if isPaused {
		return ErrPausedStatusFreeze
	}
	for _, candidate := range allowedStatusTransitions[current] {
		if candidate == next {
			return nil
		}
	}
	return fmt.Errorf("illegal transition %s -> %s", current, next)
}

// ValidatePause checks that the SLA clock may be suspended. Pausing is a
// technician action on work in flight, so only a running, unpaused request
// qualifies; PAUSED -> PAUSED in particular is illegal.
func ValidatePause(status domain.RequestStatus, isPaused bool) error {
	if status.IsTerminal() {
		return ErrTerminalState
	}
	if isPaused {
		return ErrAlreadyPaused
	}
	if status != domain.RequestStatusInProgress {
		return fmt.Errorf("cannot pause request in status %s", status)
	}
	return nil
}

// ValidateResume checks that an open pause interval exists to close.
func ValidateResume(status domain.RequestStatus, isPaused bool) error {
	if status.IsTerminal() {
		return ErrTerminalState
	}
	if !isPaused {
		return ErrNotPaused
	}
	return nil
}
