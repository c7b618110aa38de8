package sla

import (
	"time"

	"go.uber.org/zap"

	"github.com/hey-coffee/maintenance-service/internal/domain"
)

// Classification thresholds as fractions of the SLA window. These cutover
// points are load-bearing for dashboard compatibility.
const (
	WarningThreshold  = 0.75
	CriticalThreshold = 0.90
)

// maxWalkDays bounds the working-hours walk. A calendar that yields no
// working time within this horizon is treated as unconfigured.
const maxWalkDays = 3700

// Status is the severity classification of a request against its SLA.
type Status string

const (
	StatusOnTrack   Status = "ON_TRACK"
	StatusWarning   Status = "WARNING"
	StatusCritical  Status = "CRITICAL"
	StatusBreached  Status = "BREACHED"
	StatusCompleted Status = "COMPLETED"
)

// Engine computes due timestamps and SLA classifications. It is pure
// computation; callers supply all timing data and the current time.
type Engine struct {
	logger *zap.Logger
}

// NewEngine constructs the engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// DueAt computes the deadline for a request created at createdAt with the
// given SLA duration. In working-hours mode a nil or unconfigured calendar
// falls back to calendar counting; the fallback is a recoverable
// configuration gap, flagged for operators via a warning log.
func (e *Engine) DueAt(createdAt time.Time, slaHours float64, mode domain.SLAMode, calendar *BranchCalendar) time.Time {
	total := durationFromHours(slaHours)
	if mode != domain.SLAModeWorkingHours {
		return createdAt.Add(total)
	}
	if !calendar.Configured() {
		e.logger.Warn("working-hours SLA requested for branch without configured hours; counting calendar time")
		return createdAt.Add(total)
	}
	return walkWorkingTime(e.logger, createdAt, total, calendar)
}

// walkWorkingTime advances from start, consuming only minutes that fall
// inside the calendar's opening windows and outside holidays. The walk runs
// in the calendar's timezone: an "09:00" window means 09:00 at the branch,
// not 09:00 wherever the caller's clock happens to live.
func walkWorkingTime(logger *zap.Logger, start time.Time, total time.Duration, calendar *BranchCalendar) time.Time {
	remaining := total
	cursor := start.In(calendar.Location())
	for i := 0; i < maxWalkDays; i++ {
		open, close, ok := calendar.windowFor(cursor)
		if !ok {
			cursor = nextMidnight(cursor)
			continue
		}
		dayStart := midnight(cursor).Add(time.Duration(open) * time.Minute)
		dayEnd := midnight(cursor).Add(time.Duration(close) * time.Minute)
		if cursor.Before(dayStart) {
			cursor = dayStart
		}
		if !cursor.Before(dayEnd) {
			cursor = nextMidnight(cursor)
			continue
		}
		available := dayEnd.Sub(cursor)
		if available >= remaining {
			return cursor.Add(remaining)
		}
		remaining -= available
		cursor = nextMidnight(cursor)
	}
	logger.Warn("working-hours walk found no opening time within horizon; counting calendar time")
	return start.Add(total)
}

// Snapshot carries the timing fields of a request needed for classification.
type Snapshot struct {
	CreatedAt time.Time
	DueAt     time.Time
	Status    domain.RequestStatus
	IsPaused  bool
	PausedAt  *time.Time
}

// SnapshotOf extracts a classification snapshot from a request record.
func SnapshotOf(req *domain.MaintenanceRequest) Snapshot {
	return Snapshot{
		CreatedAt: req.CreatedAt,
		DueAt:     req.DueAt,
		Status:    req.Status,
		IsPaused:  req.IsPaused,
		PausedAt:  req.PausedAt,
	}
}

// Classification is the SLA engine output for one request.
type Classification struct {
	Status          Status
	ElapsedFraction float64
	DueAt           time.Time
}

// Classify maps the snapshot onto the severity scale at the given instant.
// While the request is paused the elapsed fraction is frozen at the open
// pause's start, so the countdown does not advance until resume.
func Classify(snap Snapshot, now time.Time) Classification {
	if snap.Status.IsTerminal() {
		return Classification{Status: StatusCompleted, ElapsedFraction: 0, DueAt: snap.DueAt}
	}

	effectiveNow := now
	if snap.IsPaused && snap.PausedAt != nil && snap.PausedAt.Before(now) {
		effectiveNow = *snap.PausedAt
	}

	window := snap.DueAt.Sub(snap.CreatedAt)
	if window <= 0 {
		// Degenerate deadline; anything at or past it is a breach.
		if !effectiveNow.Before(snap.DueAt) {
			return Classification{Status: StatusBreached, ElapsedFraction: 1, DueAt: snap.DueAt}
		}
		return Classification{Status: StatusOnTrack, ElapsedFraction: 0, DueAt: snap.DueAt}
	}

	fraction := float64(effectiveNow.Sub(snap.CreatedAt)) / float64(window)
	if fraction < 0 {
		fraction = 0
	}

	return Classification{
		Status:          statusForFraction(fraction),
		ElapsedFraction: fraction,
		DueAt:           snap.DueAt,
	}
}

func statusForFraction(fraction float64) Status {
	switch {
	case fraction >= 1.0:
		return StatusBreached
	case fraction >= CriticalThreshold:
		return StatusCritical
	case fraction >= WarningThreshold:
		return StatusWarning
	default:
		return StatusOnTrack
	}
}

// ExtendDue pushes the deadline out by the paused duration. A negative
// duration is treated as zero so the deadline never moves backwards.
func ExtendDue(dueAt time.Time, pausedFor time.Duration) time.Time {
	if pausedFor < 0 {
		pausedFor = 0
	}
	return dueAt.Add(pausedFor)
}

func durationFromHours(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func nextMidnight(t time.Time) time.Time {
	return midnight(t).AddDate(0, 0, 1)
}
