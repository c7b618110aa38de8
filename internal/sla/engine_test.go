package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hey-coffee/maintenance-service/internal/domain"
)

func weekdayCalendar(t *testing.T) *BranchCalendar {
	t.Helper()
	hours := []domain.WorkingHours{
		{DayOfWeek: 1, OpenTime: "09:00", CloseTime: "17:00"},
		{DayOfWeek: 2, OpenTime: "09:00", CloseTime: "17:00"},
		{DayOfWeek: 3, OpenTime: "09:00", CloseTime: "17:00"},
		{DayOfWeek: 4, OpenTime: "09:00", CloseTime: "17:00"},
		{DayOfWeek: 5, OpenTime: "09:00", CloseTime: "17:00"},
		{DayOfWeek: 0, IsClosed: true},
		{DayOfWeek: 6, IsClosed: true},
	}
	calendar, err := NewBranchCalendar(time.UTC, hours, nil)
	require.NoError(t, err)
	return calendar
}

func TestDueAtCalendarMode(t *testing.T) {
	engine := NewEngine(nil)
	// 2024-01-01 is a Monday.
	createdAt := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	due := engine.DueAt(createdAt, 24, domain.SLAModeCalendar, nil)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), due)

	due = engine.DueAt(createdAt, 1.5, domain.SLAModeCalendar, nil)
	assert.Equal(t, createdAt.Add(90*time.Minute), due)
}

func TestDueAtWorkingHours(t *testing.T) {
	engine := NewEngine(nil)
	calendar := weekdayCalendar(t)

	t.Run("spans multiple business days", func(t *testing.T) {
		createdAt := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		due := engine.DueAt(createdAt, 24, domain.SLAModeWorkingHours, calendar)
		// 8h Monday, 8h Tuesday, 8h Wednesday.
		assert.Equal(t, time.Date(2024, 1, 3, 17, 0, 0, 0, time.UTC), due)
	})

	t.Run("created before opening", func(t *testing.T) {
		createdAt := time.Date(2024, 1, 1, 6, 30, 0, 0, time.UTC)
		due := engine.DueAt(createdAt, 2, domain.SLAModeWorkingHours, calendar)
		assert.Equal(t, time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC), due)
	})

	t.Run("created after closing rolls to next day", func(t *testing.T) {
		createdAt := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
		due := engine.DueAt(createdAt, 2, domain.SLAModeWorkingHours, calendar)
		assert.Equal(t, time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC), due)
	})

	t.Run("weekend is skipped", func(t *testing.T) {
		// Friday 16:00 with 2h SLA: 1h Friday, 1h Monday.
		createdAt := time.Date(2024, 1, 5, 16, 0, 0, 0, time.UTC)
		due := engine.DueAt(createdAt, 2, domain.SLAModeWorkingHours, calendar)
		assert.Equal(t, time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC), due)
	})

	t.Run("holiday is skipped", func(t *testing.T) {
		hours := []domain.WorkingHours{
			{DayOfWeek: 1, OpenTime: "09:00", CloseTime: "17:00"},
			{DayOfWeek: 2, OpenTime: "09:00", CloseTime: "17:00"},
		}
		holidays := []domain.Holiday{
			{Name: "New Year", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		}
		withHoliday, err := NewBranchCalendar(time.UTC, hours, holidays)
		require.NoError(t, err)

		createdAt := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		due := engine.DueAt(createdAt, 2, domain.SLAModeWorkingHours, withHoliday)
		assert.Equal(t, time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC), due)
	})

	t.Run("unconfigured calendar falls back to calendar counting", func(t *testing.T) {
		empty, err := NewBranchCalendar(nil, nil, nil)
		require.NoError(t, err)
		createdAt := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		due := engine.DueAt(createdAt, 24, domain.SLAModeWorkingHours, empty)
		assert.Equal(t, createdAt.Add(24*time.Hour), due)
	})

	t.Run("windows are anchored to the calendar's timezone", func(t *testing.T) {
		bangkok, err := time.LoadLocation("Asia/Bangkok")
		require.NoError(t, err)
		hours := []domain.WorkingHours{
			{DayOfWeek: 1, OpenTime: "09:00", CloseTime: "17:00"},
			{DayOfWeek: 2, OpenTime: "09:00", CloseTime: "17:00"},
		}
		local, err := NewBranchCalendar(bangkok, hours, nil)
		require.NoError(t, err)

		// Monday 02:00 UTC is 09:00 in Bangkok: the window has just opened.
		createdAt := time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC)
		due := engine.DueAt(createdAt, 8, domain.SLAModeWorkingHours, local)
		assert.Equal(t, time.Date(2024, 1, 1, 17, 0, 0, 0, bangkok).UTC(), due.UTC())

		// The same instant expressed in another zone lands on the same deadline.
		dueLocal := engine.DueAt(createdAt.In(bangkok), 8, domain.SLAModeWorkingHours, local)
		assert.True(t, due.Equal(dueLocal))
	})

	t.Run("round-the-clock hours match calendar counting", func(t *testing.T) {
		rows := make([]domain.WorkingHours, 0, 7)
		for day := 0; day < 7; day++ {
			rows = append(rows, domain.WorkingHours{DayOfWeek: day, OpenTime: "00:00", CloseTime: "24:00"})
		}
		always, err := NewBranchCalendar(time.UTC, rows, nil)
		require.NoError(t, err)

		createdAt := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
		for _, hours := range []float64{1, 7.5, 24, 100} {
			working := engine.DueAt(createdAt, hours, domain.SLAModeWorkingHours, always)
			calendar := engine.DueAt(createdAt, hours, domain.SLAModeCalendar, nil)
			assert.Equal(t, calendar, working, "hours=%v", hours)
		}
	})
}

func TestClassifyThresholds(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		CreatedAt: createdAt,
		DueAt:     createdAt.Add(100 * time.Hour),
		Status:    domain.RequestStatusInProgress,
	}

	cases := []struct {
		name    string
		elapsed time.Duration
		want    Status
	}{
		{"fresh", 0, StatusOnTrack},
		{"just under warning", 74*time.Hour + 59*time.Minute, StatusOnTrack},
		{"warning boundary inclusive", 75 * time.Hour, StatusWarning},
		{"just under critical", 89*time.Hour + 59*time.Minute, StatusWarning},
		{"critical boundary inclusive", 90 * time.Hour, StatusCritical},
		{"just under breach", 99*time.Hour + 59*time.Minute, StatusCritical},
		{"breach boundary inclusive", 100 * time.Hour, StatusBreached},
		{"past breach", 150 * time.Hour, StatusBreached},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(snap, createdAt.Add(tc.elapsed))
			assert.Equal(t, tc.want, got.Status)
		})
	}
}

func TestClassifyTerminal(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, status := range []domain.RequestStatus{domain.RequestStatusCompleted, domain.RequestStatusCancelled} {
		snap := Snapshot{CreatedAt: createdAt, DueAt: createdAt.Add(time.Hour), Status: status}
		got := Classify(snap, createdAt.Add(1000*time.Hour))
		assert.Equal(t, StatusCompleted, got.Status)
	}
}

func TestClassifyPausedFreezesClock(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pausedAt := createdAt.Add(80 * time.Hour)
	snap := Snapshot{
		CreatedAt: createdAt,
		DueAt:     createdAt.Add(100 * time.Hour),
		Status:    domain.RequestStatusInProgress,
		IsPaused:  true,
		PausedAt:  &pausedAt,
	}

	first := Classify(snap, createdAt.Add(90*time.Hour))
	second := Classify(snap, createdAt.Add(500*time.Hour))
	assert.Equal(t, StatusWarning, first.Status)
	assert.Equal(t, first, second, "classification must not advance while paused")
	assert.InDelta(t, 0.8, first.ElapsedFraction, 1e-9)
}

func TestClassifyIdempotent(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		CreatedAt: createdAt,
		DueAt:     createdAt.Add(24 * time.Hour),
		Status:    domain.RequestStatusAssigned,
	}
	now := createdAt.Add(20 * time.Hour)
	first := Classify(snap, now)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Classify(snap, now))
	}
}

func TestClassifyDegenerateWindow(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{CreatedAt: createdAt, DueAt: createdAt, Status: domain.RequestStatusPending}
	got := Classify(snap, createdAt)
	assert.Equal(t, StatusBreached, got.Status)
}

func TestExtendDue(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	dueAt := createdAt.Add(24 * time.Hour)

	extended := ExtendDue(dueAt, 3*time.Hour)
	assert.Equal(t, time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC), extended)

	assert.Equal(t, dueAt, ExtendDue(dueAt, 0))
	assert.Equal(t, dueAt, ExtendDue(dueAt, -time.Hour), "deadline never moves backwards")
}

func TestExtendDueAcrossRepeatedPauses(t *testing.T) {
	createdAt := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	due := createdAt.Add(24 * time.Hour)

	// Three pause cycles, each pushing the deadline out by its length.
	total := time.Duration(0)
	for _, pausedFor := range []time.Duration{time.Hour, 30 * time.Minute, 4 * time.Hour} {
		due = ExtendDue(due, pausedFor)
		total += pausedFor
	}
	assert.Equal(t, createdAt.Add(24*time.Hour+total), due)
}
