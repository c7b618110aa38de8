package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hey-coffee/maintenance-service/internal/config"
	"github.com/hey-coffee/maintenance-service/internal/domain"
	"github.com/hey-coffee/maintenance-service/internal/events"
	"github.com/hey-coffee/maintenance-service/internal/repository"
	"github.com/hey-coffee/maintenance-service/internal/sla"
	"github.com/hey-coffee/maintenance-service/pkg/util"
)

// RequestService coordinates the maintenance request workflow: intake, the
// status lifecycle, and the pause/resume mechanics that feed the SLA engine.
// Every operation that touches the clock takes an explicit now so behavior
// is reproducible in tests and in replays.
type RequestService struct {
	requests  repository.RequestRepository
	pauses    repository.PauseIntervalRepository
	history   repository.RequestHistoryRepository
	calendars repository.CalendarRepository
	branches  repository.BranchRepository
	equipment repository.EquipmentRepository

	engine     *sla.Engine
	dispatcher events.Dispatcher
	slaCfg     config.SLAConfig
	logger     *zap.Logger
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	RequestRepo   repository.RequestRepository
	PauseRepo     repository.PauseIntervalRepository
	HistoryRepo   repository.RequestHistoryRepository
	CalendarRepo  repository.CalendarRepository
	BranchRepo    repository.BranchRepository
	EquipmentRepo repository.EquipmentRepository
	Engine        *sla.Engine
	Dispatcher    events.Dispatcher
	SLAConfig     config.SLAConfig
	Logger        *zap.Logger
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requests:   deps.RequestRepo,
		pauses:     deps.PauseRepo,
		history:    deps.HistoryRepo,
		calendars:  deps.CalendarRepo,
		branches:   deps.BranchRepo,
		equipment:  deps.EquipmentRepo,
		engine:     deps.Engine,
		dispatcher: deps.Dispatcher,
		slaCfg:     deps.SLAConfig,
		logger:     logger,
	}
}

// RequestCreateInput describes the intake payload.
type RequestCreateInput struct {
	BranchID    string
	EquipmentID *string
	ReporterID  string
	Category    string
	Title       string
	Description string
	Priority    domain.RequestPriority
	SLAHours    *float64
	SLAMode     *domain.SLAMode
}

// RequestDetail is a request plus its pause and audit trails.
type RequestDetail struct {
	Request *domain.MaintenanceRequest
	Pauses  []domain.PauseInterval
	History []domain.RequestHistory
}

// CreateRequest files a request and stamps its SLA deadline. Defaults: medium
// priority, per-priority SLA hours from configuration, and the configured
// default counting mode. In working-hours mode the branch calendar decides
// which minutes count.
func (s *RequestService) CreateRequest(ctx context.Context, input RequestCreateInput, now time.Time) (*domain.MaintenanceRequest, error) {
	branch, err := s.branches.GetByID(ctx, input.BranchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("branch", map[string]any{"branch_id": input.BranchID})
		}
		return nil, err
	}
	if !branch.IsActive {
		return nil, util.NewValidationError("branch is inactive", map[string]any{"branch_id": branch.ID})
	}

	category := strings.TrimSpace(input.Category)
	if input.EquipmentID != nil {
		eq, err := s.equipment.GetByID(ctx, *input.EquipmentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, util.NewNotFound("equipment", map[string]any{"equipment_id": *input.EquipmentID})
			}
			return nil, err
		}
		if eq.BranchID != branch.ID {
			return nil, util.NewValidationError("equipment belongs to a different branch", map[string]any{
				"equipment_id": eq.ID,
				"branch_id":    branch.ID,
			})
		}
		if category == "" {
			category = eq.Category
		}
	}
	if category == "" {
		return nil, util.NewValidationError("category is required", nil)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, util.NewValidationError("title is required", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.RequestPriorityMedium
	}
	if !validPriority(priority) {
		return nil, util.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	mode := domain.SLAMode(s.slaCfg.DefaultMode)
	if input.SLAMode != nil {
		mode = *input.SLAMode
	}
	if mode != domain.SLAModeCalendar && mode != domain.SLAModeWorkingHours {
		return nil, util.NewValidationError("unknown sla mode", map[string]any{"sla_mode": mode})
	}

	hours := s.defaultSLAHours(priority)
	if input.SLAHours != nil {
		hours = *input.SLAHours
	}
	if hours <= 0 {
		return nil, util.NewValidationError("sla hours must be positive", map[string]any{"sla_hours": hours})
	}

	calendar, err := s.branchCalendar(ctx, branch)
	if err != nil {
		return nil, err
	}

	req := &domain.MaintenanceRequest{
		ExternalKey: generateRequestKey(),
		BranchID:    branch.ID,
		EquipmentID: input.EquipmentID,
		ReporterID:  input.ReporterID,
		Category:    category,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.RequestStatusPending,
		Priority:    priority,
		SLAHours:    hours,
		SLAMode:     mode,
		DueAt:       s.engine.DueAt(now, hours, mode, calendar),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: req.ID,
		Actor:     StaffActor(req.ReporterID),
		Payload: events.RequestCreatedPayload{
			BranchID: req.BranchID,
			Category: req.Category,
			Priority: req.Priority,
			DueAt:    req.DueAt,
		},
	})
	return req, nil
}

// ListRequests returns requests matching the filter, soonest deadline first.
func (s *RequestService) ListRequests(ctx context.Context, filter repository.RequestFilter) ([]domain.MaintenanceRequest, error) {
	return s.requests.ListWithFilter(ctx, filter)
}

// GetRequest loads a request with its pause intervals and audit trail.
func (s *RequestService) GetRequest(ctx context.Context, id string) (*RequestDetail, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("request", map[string]any{"request_id": id})
		}
		return nil, err
	}
	pauses, err := s.pauses.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	trail, err := s.history.ListByRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &RequestDetail{Request: req, Pauses: pauses, History: trail}, nil
}

// ClassifySLA reports the request's SLA standing at the given instant.
func (s *RequestService) ClassifySLA(ctx context.Context, id string, now time.Time) (*domain.MaintenanceRequest, sla.Classification, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sla.Classification{}, util.NewNotFound("request", map[string]any{"request_id": id})
		}
		return nil, sla.Classification{}, err
	}
	return req, sla.Classify(sla.SnapshotOf(req), now), nil
}

// ChangeStatus moves the request along the lifecycle. Terminal states accept
// nothing and a paused request must be resumed first.
func (s *RequestService) ChangeStatus(ctx context.Context, actor events.Actor, id string, next domain.RequestStatus, comment string, now time.Time) (*domain.MaintenanceRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("request", map[string]any{"request_id": id})
		}
		return nil, err
	}
	if err := sla.ValidateStatusChange(req.Status, req.IsPaused, next); err != nil {
		return nil, util.NewConflict(err.Error(), map[string]any{
			"current_status": req.Status,
			"next_status":    next,
		})
	}

	oldStatus := req.Status
	req.Status = next
	if next == domain.RequestStatusCompleted {
		completedAt := now
		req.CompletedAt = &completedAt
	}
	if next == domain.RequestStatusPending {
		// Unassign path: back to the queue.
		req.AssignedUserID = nil
		req.AssignedVendorID = nil
	}
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, actor, req.ID, domain.ChangeTypeStatus,
		map[string]any{"status": string(oldStatus)},
		map[string]any{"status": string(next), "comment": comment})
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestStatusChanged,
		RequestID: req.ID,
		Actor:     actor,
		Payload: events.RequestStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: next,
			Comment:   comment,
		},
	})
	return req, nil
}

// Pause suspends the SLA clock. Only a running, unpaused request qualifies;
// the conditional write is the arbiter under concurrency, so two racing
// pauses resolve to one winner and one conflict.
func (s *RequestService) Pause(ctx context.Context, actor events.Actor, id string, reason domain.PauseReason, now time.Time) (*domain.MaintenanceRequest, error) {
	if !domain.ValidPauseReason(reason) {
		return nil, util.NewValidationError("unknown pause reason", map[string]any{"reason": reason})
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("request", map[string]any{"request_id": id})
		}
		return nil, err
	}
	if err := sla.ValidatePause(req.Status, req.IsPaused); err != nil {
		return nil, util.NewConflict(err.Error(), map[string]any{"status": req.Status})
	}

	interval := &domain.PauseInterval{RequestID: req.ID, Reason: reason, StartedAt: now}
	if err := s.requests.MarkPaused(ctx, interval); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewConflict("request is not pausable in its current state", nil)
		}
		return nil, err
	}

	req.IsPaused = true
	pausedAt := now
	req.PausedAt = &pausedAt

	s.recordHistory(ctx, actor, req.ID, domain.ChangeTypePause,
		nil,
		map[string]any{"reason": string(reason), "started_at": now.Format(time.RFC3339)})
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestPaused,
		RequestID: req.ID,
		Actor:     actor,
		Payload:   events.RequestPausedPayload{Reason: reason, StartedAt: now},
	})
	return req, nil
}

// Resume closes the open pause interval and pushes the deadline out by
// exactly the paused wall-clock duration, so time spent paused never counts
// against the SLA. Closing the interval and extending the deadline happen in
// one repository transaction; a failure leaves both untouched.
func (s *RequestService) Resume(ctx context.Context, actor events.Actor, id string, now time.Time) (*domain.MaintenanceRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("request", map[string]any{"request_id": id})
		}
		return nil, err
	}
	if err := sla.ValidateResume(req.Status, req.IsPaused); err != nil {
		return nil, util.NewConflict(err.Error(), map[string]any{"status": req.Status})
	}

	interval, newDueAt, err := s.requests.MarkResumed(ctx, req.ID, now)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewConflict("request is not paused", nil)
		}
		return nil, err
	}
	pausedFor := interval.Duration(now)

	req.IsPaused = false
	req.PausedAt = nil
	req.DueAt = newDueAt

	s.recordHistory(ctx, actor, req.ID, domain.ChangeTypeResume,
		map[string]any{"reason": string(interval.Reason)},
		map[string]any{"paused_seconds": pausedFor.Seconds(), "new_due_at": newDueAt.Format(time.RFC3339)})
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestResumed,
		RequestID: req.ID,
		Actor:     actor,
		Payload:   events.RequestResumedPayload{PausedSeconds: pausedFor.Seconds(), NewDueAt: newDueAt},
	})
	return req, nil
}

// ListOpenForMonitor returns all non-terminal requests for the SLA sweep.
func (s *RequestService) ListOpenForMonitor(ctx context.Context, limit int) ([]domain.MaintenanceRequest, error) {
	return s.requests.ListOpen(ctx, limit)
}

func (s *RequestService) defaultSLAHours(priority domain.RequestPriority) float64 {
	switch priority {
	case domain.RequestPriorityCritical:
		return s.slaCfg.HoursCritical
	case domain.RequestPriorityHigh:
		return s.slaCfg.HoursHigh
	case domain.RequestPriorityLow:
		return s.slaCfg.HoursLow
	default:
		return s.slaCfg.HoursMedium
	}
}

// branchCalendar assembles the SLA calendar in the branch's own timezone.
// CreateBranch validates the timezone at write time; an unresolvable value
// here means the host is missing zoneinfo, so counting degrades to UTC
// instead of blocking intake.
func (s *RequestService) branchCalendar(ctx context.Context, branch *domain.Branch) (*sla.BranchCalendar, error) {
	loc, err := time.LoadLocation(branch.Timezone)
	if err != nil {
		s.logger.Warn("unresolvable branch timezone, counting in UTC",
			zap.String("branch_id", branch.ID),
			zap.String("timezone", branch.Timezone))
		loc = time.UTC
	}
	hours, err := s.calendars.ListWorkingHours(ctx, branch.ID)
	if err != nil {
		return nil, err
	}
	holidays, err := s.calendars.ListHolidays(ctx, branch.ID)
	if err != nil {
		return nil, err
	}
	calendar, err := sla.NewBranchCalendar(loc, hours, holidays)
	if err != nil {
		s.logger.Error("invalid branch calendar", zap.String("branch_id", branch.ID), zap.Error(err))
		return nil, util.NewInternalError(err)
	}
	return calendar, nil
}

func (s *RequestService) recordHistory(ctx context.Context, actor events.Actor, requestID string, change domain.RequestChangeType, oldValue, newValue map[string]any) {
	entry := &domain.RequestHistory{
		RequestID:     requestID,
		ChangedByType: actor.Type,
		ChangedByID:   actor.ID,
		ChangeType:    change,
		OldValue:      oldValue,
		NewValue:      newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record request history",
			zap.String("request_id", requestID),
			zap.String("change_type", string(change)),
			zap.Error(err))
	}
}

func (s *RequestService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateRequestKey() string {
	return "MRQ-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func validPriority(p domain.RequestPriority) bool {
	switch p {
	case domain.RequestPriorityLow, domain.RequestPriorityMedium,
		domain.RequestPriorityHigh, domain.RequestPriorityCritical:
		return true
	}
	return false
}

// StaffActor builds an event actor for a branch staff member.
func StaffActor(id string) events.Actor {
	return events.Actor{Type: domain.ActorTypeStaff, ID: &id}
}

// TechnicianActor builds an event actor for a technician.
func TechnicianActor(id string) events.Actor {
	return events.Actor{Type: domain.ActorTypeTechnician, ID: &id}
}

// SystemActor is the actor recorded for automated changes.
func SystemActor() events.Actor {
	return events.Actor{Type: domain.ActorTypeSystem}
}
