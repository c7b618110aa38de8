package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hey-coffee/maintenance-service/internal/config"
	"github.com/hey-coffee/maintenance-service/internal/domain"
	"github.com/hey-coffee/maintenance-service/internal/events"
	"github.com/hey-coffee/maintenance-service/internal/sla"
	"github.com/hey-coffee/maintenance-service/pkg/util"
)

func testSLAConfig() config.SLAConfig {
	return config.SLAConfig{
		DefaultMode:   "CALENDAR",
		HoursLow:      72,
		HoursMedium:   24,
		HoursHigh:     8,
		HoursCritical: 4,
	}
}

type requestFixture struct {
	service  *RequestService
	requests *fakeRequestRepo
	pauses   *fakePauseRepo
	history  *fakeHistoryRepo
	calendar *fakeCalendarRepo
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()
	requests := newFakeRequestRepo()
	pauses := &fakePauseRepo{requests: requests}
	history := &fakeHistoryRepo{}
	calendar := newFakeCalendarRepo()
	branches := newFakeBranchRepo(&domain.Branch{ID: "branch-1", Name: "Silom", Timezone: "Asia/Bangkok", IsActive: true})

	svc := NewRequestService(RequestDependencies{
		RequestRepo:   requests,
		PauseRepo:     pauses,
		HistoryRepo:   history,
		CalendarRepo:  calendar,
		BranchRepo:    branches,
		EquipmentRepo: &fakeEquipmentRepo{},
		Engine:        sla.NewEngine(nil),
		Dispatcher:    events.NewInMemoryDispatcher(),
		SLAConfig:     testSLAConfig(),
	})
	return &requestFixture{service: svc, requests: requests, pauses: pauses, history: history, calendar: calendar}
}

func conflictCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *util.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %v", err)
	return domainErr.Code
}

func TestCreateRequestDefaults(t *testing.T) {
	fx := newRequestFixture(t)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	req, err := fx.service.CreateRequest(context.Background(), RequestCreateInput{
		BranchID:   "branch-1",
		ReporterID: "staff-1",
		Category:   "espresso_machine",
		Title:      "No pressure on group head",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.Equal(t, domain.RequestPriorityMedium, req.Priority)
	assert.Equal(t, 24.0, req.SLAHours)
	assert.Equal(t, domain.SLAModeCalendar, req.SLAMode)
	assert.Equal(t, now.Add(24*time.Hour), req.DueAt)
	assert.NotEmpty(t, req.ExternalKey)
}

func TestCreateRequestPriorityDefaults(t *testing.T) {
	fx := newRequestFixture(t)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		priority domain.RequestPriority
		hours    float64
	}{
		{domain.RequestPriorityCritical, 4},
		{domain.RequestPriorityHigh, 8},
		{domain.RequestPriorityMedium, 24},
		{domain.RequestPriorityLow, 72},
	}
	for _, tc := range cases {
		req, err := fx.service.CreateRequest(context.Background(), RequestCreateInput{
			BranchID:   "branch-1",
			ReporterID: "staff-1",
			Category:   "grinder",
			Title:      "Burrs worn",
			Priority:   tc.priority,
		}, now)
		require.NoError(t, err, "priority=%s", tc.priority)
		assert.Equal(t, tc.hours, req.SLAHours, "priority=%s", tc.priority)
		assert.Equal(t, now.Add(time.Duration(tc.hours)*time.Hour), req.DueAt)
	}
}

func TestCreateRequestWorkingHoursMode(t *testing.T) {
	fx := newRequestFixture(t)
	for day := 1; day <= 5; day++ {
		require.NoError(t, fx.calendar.UpsertWorkingHours(context.Background(), &domain.WorkingHours{
			BranchID: "branch-1", DayOfWeek: day, OpenTime: "09:00", CloseTime: "17:00",
		}))
	}
	bangkok, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)

	mode := domain.SLAModeWorkingHours
	hours := 16.0
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, bangkok) // Monday, opening time at the branch
	req, err := fx.service.CreateRequest(context.Background(), RequestCreateInput{
		BranchID:   "branch-1",
		ReporterID: "staff-1",
		Category:   "espresso_machine",
		Title:      "Boiler leak",
		SLAHours:   &hours,
		SLAMode:    &mode,
	}, now)
	require.NoError(t, err)
	// 8h Monday + 8h Tuesday, counted on the branch's clock.
	assert.Equal(t, time.Date(2024, 1, 2, 17, 0, 0, 0, bangkok).UTC(), req.DueAt.UTC())
}

func TestCreateRequestBranchTimezone(t *testing.T) {
	fx := newRequestFixture(t)
	for day := 1; day <= 5; day++ {
		require.NoError(t, fx.calendar.UpsertWorkingHours(context.Background(), &domain.WorkingHours{
			BranchID: "branch-1", DayOfWeek: day, OpenTime: "09:00", CloseTime: "17:00",
		}))
	}
	bangkok, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)

	mode := domain.SLAModeWorkingHours
	hours := 8.0
	// Monday 02:00 UTC is 09:00 at the branch: a full working day ahead.
	now := time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC)

	input := RequestCreateInput{
		BranchID:   "branch-1",
		ReporterID: "staff-1",
		Category:   "espresso_machine",
		Title:      "Boiler leak",
		SLAHours:   &hours,
		SLAMode:    &mode,
	}
	utcReq, err := fx.service.CreateRequest(context.Background(), input, now)
	require.NoError(t, err)
	localReq, err := fx.service.CreateRequest(context.Background(), input, now.In(bangkok))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 1, 17, 0, 0, 0, bangkok).UTC(), utcReq.DueAt.UTC(),
		"windows are anchored to the branch clock, not the server clock")
	assert.True(t, utcReq.DueAt.Equal(localReq.DueAt),
		"the deadline depends on the instant, not on how the caller expresses it")
}

func TestCreateRequestValidation(t *testing.T) {
	fx := newRequestFixture(t)
	now := time.Now()

	_, err := fx.service.CreateRequest(context.Background(), RequestCreateInput{
		BranchID: "missing", ReporterID: "staff-1", Category: "x", Title: "y",
	}, now)
	assert.Equal(t, "NOT_FOUND", conflictCode(t, err))

	_, err = fx.service.CreateRequest(context.Background(), RequestCreateInput{
		BranchID: "branch-1", ReporterID: "staff-1", Title: "y",
	}, now)
	assert.Equal(t, "VALIDATION_FAILED", conflictCode(t, err))

	bad := -1.0
	_, err = fx.service.CreateRequest(context.Background(), RequestCreateInput{
		BranchID: "branch-1", ReporterID: "staff-1", Category: "x", Title: "y", SLAHours: &bad,
	}, now)
	assert.Equal(t, "VALIDATION_FAILED", conflictCode(t, err))
}

func TestChangeStatusLifecycle(t *testing.T) {
	fx := newRequestFixture(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	actor := StaffActor("staff-1")

	req, err := fx.service.CreateRequest(ctx, RequestCreateInput{
		BranchID: "branch-1", ReporterID: "staff-1", Category: "grinder", Title: "Jammed",
	}, now)
	require.NoError(t, err)

	// PENDING cannot jump straight to IN_PROGRESS.
	_, err = fx.service.ChangeStatus(ctx, actor, req.ID, domain.RequestStatusInProgress, "", now)
	assert.Equal(t, "CONFLICT", conflictCode(t, err))

	updated, err := fx.service.ChangeStatus(ctx, actor, req.ID, domain.RequestStatusAssigned, "", now)
	require.NoError(t, err)
	updated, err = fx.service.ChangeStatus(ctx, actor, updated.ID, domain.RequestStatusInProgress, "", now)
	require.NoError(t, err)
	updated, err = fx.service.ChangeStatus(ctx, actor, updated.ID, domain.RequestStatusCompleted, "fixed", now.Add(time.Hour))
	require.NoError(t, err)

	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, now.Add(time.Hour), *updated.CompletedAt)

	// Terminal state rejects everything afterwards.
	_, err = fx.service.ChangeStatus(ctx, actor, updated.ID, domain.RequestStatusInProgress, "", now)
	assert.Equal(t, "CONFLICT", conflictCode(t, err))

	trail, err := fx.history.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, trail, 3)
}

func TestPauseResumeExtendsDeadline(t *testing.T) {
	fx := newRequestFixture(t)
	ctx := context.Background()
	actor := TechnicianActor("tech-1")
	createdAt := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	req, err := fx.service.CreateRequest(ctx, RequestCreateInput{
		BranchID: "branch-1", ReporterID: "staff-1", Category: "grinder", Title: "Jammed",
	}, createdAt)
	require.NoError(t, err)
	originalDue := req.DueAt

	_, err = fx.service.ChangeStatus(ctx, actor, req.ID, domain.RequestStatusAssigned, "", createdAt)
	require.NoError(t, err)
	_, err = fx.service.ChangeStatus(ctx, actor, req.ID, domain.RequestStatusInProgress, "", createdAt)
	require.NoError(t, err)

	pausedAt := createdAt.Add(10 * time.Hour)
	paused, err := fx.service.Pause(ctx, actor, req.ID, domain.PauseReasonWaitingParts, pausedAt)
	require.NoError(t, err)
	assert.True(t, paused.IsPaused)

	// A second pause while paused is rejected.
	_, err = fx.service.Pause(ctx, actor, req.ID, domain.PauseReasonWaitingParts, pausedAt.Add(time.Minute))
	assert.Equal(t, "CONFLICT", conflictCode(t, err))

	resumedAt := pausedAt.Add(3 * time.Hour)
	resumed, err := fx.service.Resume(ctx, actor, req.ID, resumedAt)
	require.NoError(t, err)

	assert.False(t, resumed.IsPaused)
	assert.Nil(t, resumed.PausedAt)
	assert.Equal(t, originalDue.Add(3*time.Hour), resumed.DueAt, "deadline extended by exactly the paused duration")
	assert.Equal(t, domain.RequestStatusInProgress, resumed.Status, "status survives the pause cycle")

	// Resume without an open pause is rejected.
	_, err = fx.service.Resume(ctx, actor, req.ID, resumedAt.Add(time.Minute))
	assert.Equal(t, "CONFLICT", conflictCode(t, err))

	intervals, err := fx.pauses.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, intervals, 1)
	require.NotNil(t, intervals[0].EndedAt)
	assert.Equal(t, 3*time.Hour, intervals[0].Duration(resumedAt))
}

func TestPauseOpensIntervalWithFlag(t *testing.T) {
	fx := newRequestFixture(t)
	ctx := context.Background()
	actor := TechnicianActor("tech-1")
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	req, err := fx.service.CreateRequest(ctx, RequestCreateInput{
		BranchID: "branch-1", ReporterID: "staff-1", Category: "grinder", Title: "Jammed",
	}, now)
	require.NoError(t, err)
	_, err = fx.service.ChangeStatus(ctx, actor, req.ID, domain.RequestStatusAssigned, "", now)
	require.NoError(t, err)
	_, err = fx.service.ChangeStatus(ctx, actor, req.ID, domain.RequestStatusInProgress, "", now)
	require.NoError(t, err)

	_, err = fx.service.Pause(ctx, actor, req.ID, domain.PauseReasonWaitingParts, now.Add(time.Hour))
	require.NoError(t, err)

	// The paused flag and its interval are written by one repository call;
	// there is no window where only one of them exists.
	stored, err := fx.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaused)
	intervals, err := fx.pauses.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, intervals, 1)
	assert.Nil(t, intervals[0].EndedAt)
	assert.Equal(t, domain.PauseReasonWaitingParts, intervals[0].Reason)
}

func TestResumeWithoutIntervalLeavesRequestUntouched(t *testing.T) {
	fx := newRequestFixture(t)
	ctx := context.Background()
	actor := TechnicianActor("tech-1")
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	req, err := fx.service.CreateRequest(ctx, RequestCreateInput{
		BranchID: "branch-1", ReporterID: "staff-1", Category: "grinder", Title: "Jammed",
	}, now)
	require.NoError(t, err)
	_, err = fx.service.ChangeStatus(ctx, actor, req.ID, domain.RequestStatusAssigned, "", now)
	require.NoError(t, err)
	_, err = fx.service.ChangeStatus(ctx, actor, req.ID, domain.RequestStatusInProgress, "", now)
	require.NoError(t, err)

	// Force a paused flag with no backing interval. Resume must refuse and
	// leave the request exactly as it found it rather than half-apply.
	stored, err := fx.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	pausedAt := now.Add(time.Hour)
	stored.IsPaused = true
	stored.PausedAt = &pausedAt
	require.NoError(t, fx.requests.Update(ctx, stored))

	_, err = fx.service.Resume(ctx, actor, req.ID, pausedAt.Add(2*time.Hour))
	assert.Equal(t, "CONFLICT", conflictCode(t, err))

	after, err := fx.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, after.IsPaused, "failed resume leaves the paused flag alone")
	assert.Equal(t, stored.DueAt, after.DueAt, "failed resume leaves the deadline alone")
}

func TestPauseRequiresInProgress(t *testing.T) {
	fx := newRequestFixture(t)
	ctx := context.Background()
	actor := TechnicianActor("tech-1")
	now := time.Now()

	req, err := fx.service.CreateRequest(ctx, RequestCreateInput{
		BranchID: "branch-1", ReporterID: "staff-1", Category: "grinder", Title: "Jammed",
	}, now)
	require.NoError(t, err)

	_, err = fx.service.Pause(ctx, actor, req.ID, domain.PauseReasonWaitingParts, now)
	assert.Equal(t, "CONFLICT", conflictCode(t, err))

	_, err = fx.service.Pause(ctx, actor, req.ID, domain.PauseReason("NAP"), now)
	assert.Equal(t, "VALIDATION_FAILED", conflictCode(t, err))
}

func TestClassifySLAWhilePaused(t *testing.T) {
	fx := newRequestFixture(t)
	ctx := context.Background()
	actor := TechnicianActor("tech-1")
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	req, err := fx.service.CreateRequest(ctx, RequestCreateInput{
		BranchID: "branch-1", ReporterID: "staff-1", Category: "grinder", Title: "Jammed",
	}, createdAt)
	require.NoError(t, err)

	_, err = fx.service.ChangeStatus(ctx, actor, req.ID, domain.RequestStatusAssigned, "", createdAt)
	require.NoError(t, err)
	_, err = fx.service.ChangeStatus(ctx, actor, req.ID, domain.RequestStatusInProgress, "", createdAt)
	require.NoError(t, err)

	// Fake repo stamps CreatedAt with wall time, so classify against that.
	stored, err := fx.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)

	pausedAt := stored.CreatedAt.Add(20 * time.Hour)
	_, err = fx.service.Pause(ctx, actor, req.ID, domain.PauseReasonWaitingVendor, pausedAt)
	require.NoError(t, err)

	_, early, err := fx.service.ClassifySLA(ctx, req.ID, pausedAt.Add(time.Hour))
	require.NoError(t, err)
	_, late, err := fx.service.ClassifySLA(ctx, req.ID, pausedAt.Add(300*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, early.Status, late.Status, "classification frozen while paused")
	assert.Equal(t, early.ElapsedFraction, late.ElapsedFraction)
}
