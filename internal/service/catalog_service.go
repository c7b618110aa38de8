package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hey-coffee/maintenance-service/internal/domain"
	"github.com/hey-coffee/maintenance-service/internal/repository"
	"github.com/hey-coffee/maintenance-service/internal/sla"
	"github.com/hey-coffee/maintenance-service/pkg/util"
)

// CatalogService manages the reference data behind requests: branches,
// equipment, vendors, technicians, and the branch calendars the SLA engine
// reads. Calendar writes are validated here so a bad row never reaches the
// working-hours walk.
type CatalogService struct {
	branches    repository.BranchRepository
	equipment   repository.EquipmentRepository
	vendors     repository.VendorRepository
	technicians repository.TechnicianRepository
	calendars   repository.CalendarRepository
}

// CatalogDependencies bundles repositories for the catalog service.
type CatalogDependencies struct {
	BranchRepo     repository.BranchRepository
	EquipmentRepo  repository.EquipmentRepository
	VendorRepo     repository.VendorRepository
	TechnicianRepo repository.TechnicianRepository
	CalendarRepo   repository.CalendarRepository
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{
		branches:    deps.BranchRepo,
		equipment:   deps.EquipmentRepo,
		vendors:     deps.VendorRepo,
		technicians: deps.TechnicianRepo,
		calendars:   deps.CalendarRepo,
	}
}

// CreateBranch registers a store location. The timezone must resolve against
// the tz database.
func (s *CatalogService) CreateBranch(ctx context.Context, branch *domain.Branch) error {
	if strings.TrimSpace(branch.Name) == "" {
		return util.NewValidationError("branch name is required", nil)
	}
	if branch.Timezone == "" {
		branch.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(branch.Timezone); err != nil {
		return util.NewValidationError("unknown timezone", map[string]any{"timezone": branch.Timezone})
	}
	return s.branches.Create(ctx, branch)
}

// UpdateBranch updates a store location.
func (s *CatalogService) UpdateBranch(ctx context.Context, branch *domain.Branch) error {
	if strings.TrimSpace(branch.Name) == "" {
		return util.NewValidationError("branch name is required", nil)
	}
	if _, err := time.LoadLocation(branch.Timezone); err != nil {
		return util.NewValidationError("unknown timezone", map[string]any{"timezone": branch.Timezone})
	}
	if err := s.branches.Update(ctx, branch); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("branch", map[string]any{"branch_id": branch.ID})
		}
		return err
	}
	return nil
}

// GetBranch loads one branch.
func (s *CatalogService) GetBranch(ctx context.Context, id string) (*domain.Branch, error) {
	branch, err := s.branches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("branch", map[string]any{"branch_id": id})
		}
		return nil, err
	}
	return branch, nil
}

// ListBranches returns all branches.
func (s *CatalogService) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	return s.branches.List(ctx)
}

// SetWorkingHours replaces the opening window for one weekday. A closed day
// carries no times; an open day needs a well-formed window.
func (s *CatalogService) SetWorkingHours(ctx context.Context, hours *domain.WorkingHours) error {
	if _, err := s.GetBranch(ctx, hours.BranchID); err != nil {
		return err
	}
	if hours.DayOfWeek < 0 || hours.DayOfWeek > 6 {
		return util.NewValidationError("day_of_week must be between 0 and 6", map[string]any{"day_of_week": hours.DayOfWeek})
	}
	if !hours.IsClosed {
		open, err := sla.ParseClock(hours.OpenTime)
		if err != nil {
			return util.NewValidationError(err.Error(), map[string]any{"open_time": hours.OpenTime})
		}
		closeMin, err := sla.ParseClock(hours.CloseTime)
		if err != nil {
			return util.NewValidationError(err.Error(), map[string]any{"close_time": hours.CloseTime})
		}
		if closeMin <= open {
			return util.NewValidationError("close_time must be after open_time", nil)
		}
	}
	return s.calendars.UpsertWorkingHours(ctx, hours)
}

// ListWorkingHours returns the branch's configured weekly windows.
func (s *CatalogService) ListWorkingHours(ctx context.Context, branchID string) ([]domain.WorkingHours, error) {
	if _, err := s.GetBranch(ctx, branchID); err != nil {
		return nil, err
	}
	return s.calendars.ListWorkingHours(ctx, branchID)
}

// CreateHoliday registers a non-working date, branch-specific or
// organization-wide.
func (s *CatalogService) CreateHoliday(ctx context.Context, holiday *domain.Holiday) error {
	if strings.TrimSpace(holiday.Name) == "" {
		return util.NewValidationError("holiday name is required", nil)
	}
	if holiday.Date.IsZero() {
		return util.NewValidationError("holiday date is required", nil)
	}
	if holiday.BranchID != nil {
		if _, err := s.GetBranch(ctx, *holiday.BranchID); err != nil {
			return err
		}
	}
	return s.calendars.CreateHoliday(ctx, holiday)
}

// DeleteHoliday removes a holiday.
func (s *CatalogService) DeleteHoliday(ctx context.Context, id string) error {
	if err := s.calendars.DeleteHoliday(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("holiday", map[string]any{"holiday_id": id})
		}
		return err
	}
	return nil
}

// ListHolidays returns branch plus organization-wide holidays.
func (s *CatalogService) ListHolidays(ctx context.Context, branchID string) ([]domain.Holiday, error) {
	return s.calendars.ListHolidays(ctx, branchID)
}

// CreateEquipment registers a machine at a branch.
func (s *CatalogService) CreateEquipment(ctx context.Context, eq *domain.Equipment) error {
	if strings.TrimSpace(eq.Name) == "" {
		return util.NewValidationError("equipment name is required", nil)
	}
	if strings.TrimSpace(eq.Category) == "" {
		return util.NewValidationError("equipment category is required", nil)
	}
	if _, err := s.GetBranch(ctx, eq.BranchID); err != nil {
		return err
	}
	return s.equipment.Create(ctx, eq)
}

// UpdateEquipment updates a machine record.
func (s *CatalogService) UpdateEquipment(ctx context.Context, eq *domain.Equipment) error {
	if err := s.equipment.Update(ctx, eq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("equipment", map[string]any{"equipment_id": eq.ID})
		}
		return err
	}
	return nil
}

// ListEquipment returns the machines installed at a branch.
func (s *CatalogService) ListEquipment(ctx context.Context, branchID string) ([]domain.Equipment, error) {
	if _, err := s.GetBranch(ctx, branchID); err != nil {
		return nil, err
	}
	return s.equipment.ListByBranch(ctx, branchID)
}

// CreateVendor registers an external contractor.
func (s *CatalogService) CreateVendor(ctx context.Context, vendor *domain.Vendor) error {
	if strings.TrimSpace(vendor.Name) == "" {
		return util.NewValidationError("vendor name is required", nil)
	}
	return s.vendors.Create(ctx, vendor)
}

// UpdateVendor updates a contractor record.
func (s *CatalogService) UpdateVendor(ctx context.Context, vendor *domain.Vendor) error {
	if err := s.vendors.Update(ctx, vendor); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("vendor", map[string]any{"vendor_id": vendor.ID})
		}
		return err
	}
	return nil
}

// ListVendors returns all vendors.
func (s *CatalogService) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	return s.vendors.List(ctx)
}

// CreateTechnician registers an internal technician profile.
func (s *CatalogService) CreateTechnician(ctx context.Context, profile *domain.TechnicianProfile) error {
	if strings.TrimSpace(profile.Name) == "" {
		return util.NewValidationError("technician name is required", nil)
	}
	if profile.MaxWorkload <= 0 {
		return util.NewValidationError("max_workload must be positive", map[string]any{"max_workload": profile.MaxWorkload})
	}
	if profile.BranchID != nil {
		if _, err := s.GetBranch(ctx, *profile.BranchID); err != nil {
			return err
		}
	}
	return s.technicians.Create(ctx, profile)
}

// UpdateTechnician updates a technician profile.
func (s *CatalogService) UpdateTechnician(ctx context.Context, profile *domain.TechnicianProfile) error {
	if profile.MaxWorkload <= 0 {
		return util.NewValidationError("max_workload must be positive", map[string]any{"max_workload": profile.MaxWorkload})
	}
	if err := s.technicians.Update(ctx, profile); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("technician", map[string]any{"profile_id": profile.ID})
		}
		return err
	}
	return nil
}

// GetTechnician loads a profile with its skills.
func (s *CatalogService) GetTechnician(ctx context.Context, id string) (*domain.TechnicianProfile, []domain.TechnicianSkill, error) {
	profile, err := s.technicians.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, util.NewNotFound("technician", map[string]any{"profile_id": id})
		}
		return nil, nil, err
	}
	skills, err := s.technicians.ListSkills(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return profile, skills, nil
}

// ListTechnicians returns profiles matching the filter.
func (s *CatalogService) ListTechnicians(ctx context.Context, filter repository.TechnicianFilter) ([]domain.TechnicianProfile, error) {
	return s.technicians.List(ctx, filter)
}

// ReplaceSkills swaps the technician's full skill set in one transaction.
func (s *CatalogService) ReplaceSkills(ctx context.Context, profileID string, skills []domain.TechnicianSkill) error {
	if _, err := s.technicians.GetByID(ctx, profileID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return util.NewNotFound("technician", map[string]any{"profile_id": profileID})
		}
		return err
	}
	seen := map[string]bool{}
	for i := range skills {
		skills[i].ProfileID = profileID
		if strings.TrimSpace(skills[i].Category) == "" {
			return util.NewValidationError("skill category is required", nil)
		}
		if !domain.ValidSkillLevel(skills[i].SkillLevel) {
			return util.NewValidationError("skill_level must be between 1 and 5", map[string]any{
				"category":    skills[i].Category,
				"skill_level": skills[i].SkillLevel,
			})
		}
		if seen[skills[i].Category] {
			return util.NewValidationError("duplicate skill category", map[string]any{"category": skills[i].Category})
		}
		seen[skills[i].Category] = true
	}
	return s.technicians.ReplaceSkills(ctx, profileID, skills)
}
