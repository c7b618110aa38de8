package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/hey-coffee/maintenance-service/internal/assignment"
	"github.com/hey-coffee/maintenance-service/internal/config"
	"github.com/hey-coffee/maintenance-service/internal/domain"
	"github.com/hey-coffee/maintenance-service/internal/events"
	"github.com/hey-coffee/maintenance-service/internal/repository"
	"github.com/hey-coffee/maintenance-service/pkg/util"
)

const rotationKeyPrefix = "assign:rotation:"

// RotationStore persists the per-category round-robin cursor. Satisfied by
// persistence.Redis in production.
type RotationStore interface {
	Get(ctx context.Context, key string) (string, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// AssignmentService produces technician recommendations and commits
// assignments. Recommendations are computed fresh on every call, never
// persisted, and read the round-robin cursor without advancing it, so asking
// twice yields the same answer. Only a committed assignment moves the cursor.
// The commit path re-checks eligibility and relies on a conditional write so
// concurrent assigns resolve to one winner.
type AssignmentService struct {
	requests    repository.RequestRepository
	technicians repository.TechnicianRepository
	vendors     repository.VendorRepository
	history     repository.RequestHistoryRepository
	dispatcher  events.Dispatcher
	redis       RotationStore
	cfg         config.AssignmentConfig
	logger      *zap.Logger
}

// AssignmentDependencies bundles collaborators for the assignment service.
type AssignmentDependencies struct {
	RequestRepo    repository.RequestRepository
	TechnicianRepo repository.TechnicianRepository
	VendorRepo     repository.VendorRepository
	HistoryRepo    repository.RequestHistoryRepository
	Dispatcher     events.Dispatcher
	Redis          RotationStore
	Config         config.AssignmentConfig
	Logger         *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		requests:    deps.RequestRepo,
		technicians: deps.TechnicianRepo,
		vendors:     deps.VendorRepo,
		history:     deps.HistoryRepo,
		dispatcher:  deps.Dispatcher,
		redis:       deps.Redis,
		cfg:         deps.Config,
		logger:      logger,
	}
}

// Recommend ranks the eligible roster for a pending request under the named
// strategy. An empty candidate list is a valid answer.
func (s *AssignmentService) Recommend(ctx context.Context, requestID, strategyName string) (*assignment.Recommendation, error) {
	req, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	strategy, err := s.resolveStrategy(strategyName)
	if err != nil {
		return nil, err
	}

	seeds, err := s.buildSeeds(ctx, req)
	if err != nil {
		return nil, err
	}

	var rotation uint64
	if strategy == assignment.StrategyRoundRobin {
		rotation = s.rotationCursor(ctx, req.Category)
	}

	rec := assignment.Rank(assignment.Request{Category: req.Category, BranchID: req.BranchID}, seeds, strategy, rotation)
	return &rec, nil
}

// AssignTechnician commits an assignment to an internal technician. The
// conditional update only succeeds while the request is still pending and
// unassigned; a lost race surfaces as a conflict, not a double assignment.
func (s *AssignmentService) AssignTechnician(ctx context.Context, actor events.Actor, requestID, profileID, strategyName string) (*domain.MaintenanceRequest, error) {
	req, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	profile, err := s.technicians.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("technician", map[string]any{"profile_id": profileID})
		}
		return nil, err
	}
	workload, err := s.technicians.CountActiveAssignments(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	seed := assignment.Seed{
		ProfileID:       profile.ID,
		BranchID:        profile.BranchID,
		Active:          profile.Active,
		CurrentWorkload: workload,
		MaxWorkload:     profile.MaxWorkload,
	}
	if !assignment.Eligible(seed, assignment.Request{Category: req.Category, BranchID: req.BranchID}) {
		return nil, util.NewConflict("technician is not eligible for this request", map[string]any{
			"profile_id":       profile.ID,
			"current_workload": workload,
			"max_workload":     profile.MaxWorkload,
		})
	}

	if err := s.requests.AssignUser(ctx, req.ID, profile.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewConflict("request already assigned", map[string]any{"request_id": req.ID})
		}
		return nil, err
	}
	req.Status = domain.RequestStatusAssigned
	req.AssignedUserID = &profile.ID
	req.AssignedVendorID = nil

	if strategy, err := s.resolveStrategy(strategyName); err == nil && strategy == assignment.StrategyRoundRobin {
		s.advanceRotation(ctx, req.Category)
	}

	s.recordAssignment(ctx, actor, req.ID, map[string]any{"assigned_user_id": profile.ID, "strategy": strategyName})
	s.publish(ctx, events.Event{
		Type:      events.EventRequestAssigned,
		RequestID: req.ID,
		Actor:     actor,
		Payload: events.RequestAssignedPayload{
			AssignedUserID: &profile.ID,
			Strategy:       strategyName,
		},
	})
	return req, nil
}

// AssignVendor commits an assignment to an external vendor.
func (s *AssignmentService) AssignVendor(ctx context.Context, actor events.Actor, requestID, vendorID string) (*domain.MaintenanceRequest, error) {
	req, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	vendor, err := s.vendors.GetByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("vendor", map[string]any{"vendor_id": vendorID})
		}
		return nil, err
	}
	if !vendor.IsActive {
		return nil, util.NewValidationError("vendor is inactive", map[string]any{"vendor_id": vendor.ID})
	}

	if err := s.requests.AssignVendor(ctx, req.ID, vendor.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewConflict("request already assigned", map[string]any{"request_id": req.ID})
		}
		return nil, err
	}
	req.Status = domain.RequestStatusAssigned
	req.AssignedVendorID = &vendor.ID
	req.AssignedUserID = nil

	s.recordAssignment(ctx, actor, req.ID, map[string]any{"assigned_vendor_id": vendor.ID})
	s.publish(ctx, events.Event{
		Type:      events.EventRequestAssigned,
		RequestID: req.ID,
		Actor:     actor,
		Payload:   events.RequestAssignedPayload{AssignedVendorID: &vendor.ID},
	})
	return req, nil
}

func (s *AssignmentService) pendingRequest(ctx context.Context, requestID string) (*domain.MaintenanceRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("request", map[string]any{"request_id": requestID})
		}
		return nil, err
	}
	if req.Status != domain.RequestStatusPending {
		return nil, util.NewConflict("request is not pending", map[string]any{"status": req.Status})
	}
	if req.AssignedUserID != nil || req.AssignedVendorID != nil {
		return nil, util.NewConflict("request already assigned", map[string]any{"request_id": req.ID})
	}
	return req, nil
}

func (s *AssignmentService) resolveStrategy(name string) (assignment.Strategy, error) {
	if name == "" {
		name = s.cfg.DefaultStrategy
	}
	strategy, err := assignment.ParseStrategy(name)
	if err != nil {
		return "", util.NewValidationError(err.Error(), map[string]any{"strategy": name})
	}
	return strategy, nil
}

// buildSeeds loads the branch roster with per-technician skills and live
// workload. Availability is derived from the leave flag: technicians on
// leave stay rankable but heavily discounted.
func (s *AssignmentService) buildSeeds(ctx context.Context, req *domain.MaintenanceRequest) ([]assignment.Seed, error) {
	roster, err := s.technicians.ListForBranch(ctx, req.BranchID)
	if err != nil {
		return nil, err
	}
	seeds := make([]assignment.Seed, 0, len(roster))
	for _, profile := range roster {
		skills, err := s.technicians.ListSkills(ctx, profile.ID)
		if err != nil {
			return nil, err
		}
		workload, err := s.technicians.CountActiveAssignments(ctx, profile.ID)
		if err != nil {
			return nil, err
		}
		availability := 1.0
		if profile.OnLeave {
			availability = 0.25
		}
		seeds = append(seeds, assignment.Seed{
			ProfileID:       profile.ID,
			Name:            profile.Name,
			BranchID:        profile.BranchID,
			Active:          profile.Active,
			Skills:          skills,
			CurrentWorkload: workload,
			MaxWorkload:     profile.MaxWorkload,
			Availability:    availability,
		})
	}
	return seeds, nil
}

// rotationCursor reads the per-category round-robin cursor without moving
// it. The cursor counts committed round-robin assignments; a missing key or
// an unreachable store degrades to a fixed cursor rather than failing the
// query.
func (s *AssignmentService) rotationCursor(ctx context.Context, category string) uint64 {
	if s.redis == nil {
		return 0
	}
	value, err := s.redis.Get(ctx, rotationKeyPrefix+category)
	if err != nil {
		s.logger.Warn("round-robin cursor unavailable, using fixed rotation",
			zap.String("category", category), zap.Error(err))
		return 0
	}
	if value == "" {
		return 0
	}
	cursor, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		s.logger.Warn("malformed round-robin cursor, using fixed rotation",
			zap.String("category", category), zap.String("value", value))
		return 0
	}
	return cursor
}

// advanceRotation moves the cursor forward after a committed round-robin
// assignment. A lost increment only delays the rotation, so failures are
// logged and swallowed.
func (s *AssignmentService) advanceRotation(ctx context.Context, category string) {
	if s.redis == nil {
		return
	}
	if _, err := s.redis.Incr(ctx, rotationKeyPrefix+category); err != nil {
		s.logger.Warn("failed to advance round-robin cursor",
			zap.String("category", category), zap.Error(err))
	}
}

func (s *AssignmentService) recordAssignment(ctx context.Context, actor events.Actor, requestID string, newValue map[string]any) {
	entry := &domain.RequestHistory{
		RequestID:     requestID,
		ChangedByType: actor.Type,
		ChangedByID:   actor.ID,
		ChangeType:    domain.ChangeTypeAssignee,
		NewValue:      newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record assignment history",
			zap.String("request_id", requestID), zap.Error(err))
	}
}

func (s *AssignmentService) publish(ctx context.Context, event events.Event) {
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
