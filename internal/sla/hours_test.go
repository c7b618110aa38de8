package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hey-coffee/maintenance-service/internal/domain"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"17:30", 1050, false},
		{"23:59", 1439, false},
		{"24:00", 1440, false},
		{"24:01", 0, true},
		{"25:00", 0, true},
		{"9", 0, true},
		{"09:60", 0, true},
		{"-1:00", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.input)
		if tc.wantErr {
			assert.Error(t, err, "input=%q", tc.input)
			continue
		}
		require.NoError(t, err, "input=%q", tc.input)
		assert.Equal(t, tc.want, got, "input=%q", tc.input)
	}
}

func TestNewBranchCalendarValidation(t *testing.T) {
	t.Run("rejects out-of-range day", func(t *testing.T) {
		_, err := NewBranchCalendar(time.UTC, []domain.WorkingHours{{DayOfWeek: 7, OpenTime: "09:00", CloseTime: "17:00"}}, nil)
		assert.Error(t, err)
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		_, err := NewBranchCalendar(time.UTC, []domain.WorkingHours{{DayOfWeek: 1, OpenTime: "17:00", CloseTime: "09:00"}}, nil)
		assert.Error(t, err)
	})

	t.Run("rejects zero-length window", func(t *testing.T) {
		_, err := NewBranchCalendar(time.UTC, []domain.WorkingHours{{DayOfWeek: 1, OpenTime: "09:00", CloseTime: "09:00"}}, nil)
		assert.Error(t, err)
	})

	t.Run("closed day needs no times", func(t *testing.T) {
		calendar, err := NewBranchCalendar(time.UTC, []domain.WorkingHours{{DayOfWeek: 0, IsClosed: true}}, nil)
		require.NoError(t, err)
		assert.True(t, calendar.Configured())
	})

	t.Run("nil rows leave calendar unconfigured", func(t *testing.T) {
		calendar, err := NewBranchCalendar(nil, nil, nil)
		require.NoError(t, err)
		assert.False(t, calendar.Configured())
	})
}

func TestBranchCalendarHolidays(t *testing.T) {
	hours := []domain.WorkingHours{{DayOfWeek: 1, OpenTime: "09:00", CloseTime: "17:00"}}

	t.Run("one-off holiday only hits its year", func(t *testing.T) {
		calendar, err := NewBranchCalendar(time.UTC, hours, []domain.Holiday{
			{Name: "Grand opening", Date: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		})
		require.NoError(t, err)
		assert.True(t, calendar.IsHoliday(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)))
		assert.False(t, calendar.IsHoliday(time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)))
	})

	t.Run("recurring holiday repeats yearly", func(t *testing.T) {
		calendar, err := NewBranchCalendar(time.UTC, hours, []domain.Holiday{
			{Name: "Songkran", Date: time.Date(2024, 4, 13, 0, 0, 0, 0, time.UTC), IsRecurring: true},
		})
		require.NoError(t, err)
		assert.True(t, calendar.IsHoliday(time.Date(2024, 4, 13, 12, 0, 0, 0, time.UTC)))
		assert.True(t, calendar.IsHoliday(time.Date(2027, 4, 13, 12, 0, 0, 0, time.UTC)))
		assert.False(t, calendar.IsHoliday(time.Date(2024, 4, 14, 12, 0, 0, 0, time.UTC)))
	})

	t.Run("nil calendar has no holidays", func(t *testing.T) {
		var calendar *BranchCalendar
		assert.False(t, calendar.IsHoliday(time.Now()))
		assert.False(t, calendar.Configured())
	})
}
