package domain

import "time"

// PauseReason enumerates why a technician suspended the SLA clock.
type PauseReason string

const (
	PauseReasonWaitingParts        PauseReason = "WAITING_PARTS"
	PauseReasonWaitingApproval     PauseReason = "WAITING_APPROVAL"
	PauseReasonWaitingVendor       PauseReason = "WAITING_VENDOR"
	PauseReasonCustomerUnavailable PauseReason = "CUSTOMER_UNAVAILABLE"
	PauseReasonWeather             PauseReason = "WEATHER"
	PauseReasonOther               PauseReason = "OTHER"
)

// ValidPauseReason reports whether the reason is one of the known categories.
func ValidPauseReason(r PauseReason) bool {
	switch r {
	case PauseReasonWaitingParts, PauseReasonWaitingApproval, PauseReasonWaitingVendor,
		PauseReasonCustomerUnavailable, PauseReasonWeather, PauseReasonOther:
		return true
	}
	return false
}

// PauseInterval records one pause/resume cycle. EndedAt is nil while the
// interval is open; at most one open interval exists per request.
type PauseInterval struct {
	ID        string
	RequestID string
	Reason    PauseReason
	StartedAt time.Time
	EndedAt   *time.Time
	CreatedAt time.Time
}

// Duration returns the closed interval length, or the elapsed time up to now
// for an open interval.
func (p PauseInterval) Duration(now time.Time) time.Duration {
	end := now
	if p.EndedAt != nil {
		end = *p.EndedAt
	}
	if end.Before(p.StartedAt) {
		return 0
	}
	return end.Sub(p.StartedAt)
}
