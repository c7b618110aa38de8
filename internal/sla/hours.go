package sla

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rickar/cal/v2"

	"github.com/hey-coffee/maintenance-service/internal/domain"
)

// BranchCalendar resolves which instants count toward a working-hours SLA
// for one branch. It is built once per computation from the branch's
// WorkingHours rows and the applicable Holiday rows (branch plus
// organization-wide) and holds no external references afterwards. Opening
// windows and holidays are anchored to the branch's own timezone, so the
// same instant resolves to the same window no matter how a caller
// expresses it.
type BranchCalendar struct {
	loc        *time.Location
	days       [7]*dayWindow
	configured bool
	holidays   *cal.Calendar
}

// dayWindow is an opening window in minutes from midnight.
type dayWindow struct {
	open   int
	close  int
	closed bool
}

// NewBranchCalendar builds a calendar from persisted rows. loc is the
// branch's timezone; nil means UTC. Rows with an out-of-range day of week or
// a malformed clock value are rejected so that a misconfigured branch
// surfaces at write time, not mid-walk.
func NewBranchCalendar(loc *time.Location, hours []domain.WorkingHours, holidays []domain.Holiday) (*BranchCalendar, error) {
	if loc == nil {
		loc = time.UTC
	}
	bc := &BranchCalendar{
		loc:      loc,
		holidays: &cal.Calendar{Name: "branch", Cacheable: true},
	}
	for _, wh := range hours {
		if wh.DayOfWeek < 0 || wh.DayOfWeek > 6 {
			return nil, fmt.Errorf("day_of_week %d out of range", wh.DayOfWeek)
		}
		if wh.IsClosed {
			bc.days[wh.DayOfWeek] = &dayWindow{closed: true}
			bc.configured = true
			continue
		}
		open, err := ParseClock(wh.OpenTime)
		if err != nil {
			return nil, fmt.Errorf("open_time for day %d: %w", wh.DayOfWeek, err)
		}
		close, err := ParseClock(wh.CloseTime)
		if err != nil {
			return nil, fmt.Errorf("close_time for day %d: %w", wh.DayOfWeek, err)
		}
		if close <= open {
			return nil, fmt.Errorf("close_time must be after open_time for day %d", wh.DayOfWeek)
		}
		bc.days[wh.DayOfWeek] = &dayWindow{open: open, close: close}
		bc.configured = true
	}
	for _, h := range holidays {
		bc.holidays.AddHoliday(holidayDefinition(h))
	}
	return bc, nil
}

func holidayDefinition(h domain.Holiday) *cal.Holiday {
	def := &cal.Holiday{
		Name:  h.Name,
		Month: h.Date.Month(),
		Day:   h.Date.Day(),
		Func:  cal.CalcDayOfMonth,
	}
	if !h.IsRecurring {
		def.StartYear = h.Date.Year()
		def.EndYear = h.Date.Year()
	}
	return def
}

// Configured reports whether the branch has any WorkingHours rows at all.
// Unconfigured branches fall back to calendar-mode counting.
func (c *BranchCalendar) Configured() bool {
	return c != nil && c.configured
}

// Location is the branch timezone the opening windows are anchored to.
func (c *BranchCalendar) Location() *time.Location {
	if c == nil || c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// IsHoliday reports whether the given date is fully non-working.
func (c *BranchCalendar) IsHoliday(t time.Time) bool {
	if c == nil || c.holidays == nil {
		return false
	}
	actual, _, _ := c.holidays.IsHoliday(t)
	return actual
}

// windowFor returns the opening window for t's weekday. ok is false when the
// day is closed, unconfigured, or a holiday.
func (c *BranchCalendar) windowFor(t time.Time) (open, close int, ok bool) {
	if c == nil {
		return 0, 0, false
	}
	if c.IsHoliday(t) {
		return 0, 0, false
	}
	day := c.days[int(t.Weekday())]
	if day == nil || day.closed {
		return 0, 0, false
	}
	return day.open, day.close, true
}

// ParseClock converts an "HH:MM" value to minutes from midnight. "24:00" is
// accepted as end of day so that a branch can declare a round-the-clock
// window.
func ParseClock(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 24 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	if hh == 24 && mm != 0 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	return hh*60 + mm, nil
}
