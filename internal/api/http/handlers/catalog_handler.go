package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hey-coffee/maintenance-service/internal/api/dto"
	"github.com/hey-coffee/maintenance-service/internal/domain"
	"github.com/hey-coffee/maintenance-service/internal/repository"
	"github.com/hey-coffee/maintenance-service/internal/service"
	"github.com/hey-coffee/maintenance-service/pkg/util"
)

// CatalogHandler manages reference data endpoints: branches, calendars,
// equipment, vendors, and technicians.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: catalogService}
}

// CreateBranch POST /branches.
func (h *CatalogHandler) CreateBranch(c *fiber.Ctx) error {
	var req dto.BranchRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	branch := &domain.Branch{
		Name:     req.Name,
		Address:  req.Address,
		Timezone: req.Timezone,
		IsActive: boolOrDefault(req.IsActive, true),
	}
	if err := h.service.CreateBranch(c.UserContext(), branch); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": branchResponse(branch)})
}

// UpdateBranch PUT /branches/:id.
func (h *CatalogHandler) UpdateBranch(c *fiber.Ctx) error {
	var req dto.BranchRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	existing, err := h.service.GetBranch(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	existing.Name = req.Name
	existing.Address = req.Address
	if req.Timezone != "" {
		existing.Timezone = req.Timezone
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	if err := h.service.UpdateBranch(c.UserContext(), existing); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": branchResponse(existing)})
}

// ListBranches GET /branches.
func (h *CatalogHandler) ListBranches(c *fiber.Ctx) error {
	branches, err := h.service.ListBranches(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.BranchResponse, 0, len(branches))
	for i := range branches {
		out = append(out, branchResponse(&branches[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// SetWorkingHours PUT /branches/:id/working-hours.
func (h *CatalogHandler) SetWorkingHours(c *fiber.Ctx) error {
	var rows []dto.WorkingHoursRequest
	if err := c.BodyParser(&rows); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	branchID := c.Params("id")
	out := make([]dto.WorkingHoursResponse, 0, len(rows))
	for _, row := range rows {
		hours := &domain.WorkingHours{
			BranchID:  branchID,
			DayOfWeek: row.DayOfWeek,
			OpenTime:  row.OpenTime,
			CloseTime: row.CloseTime,
			IsClosed:  row.IsClosed,
		}
		if err := h.service.SetWorkingHours(c.UserContext(), hours); err != nil {
			return err
		}
		out = append(out, workingHoursResponse(hours))
	}
	return c.JSON(fiber.Map{"data": out})
}

// ListWorkingHours GET /branches/:id/working-hours.
func (h *CatalogHandler) ListWorkingHours(c *fiber.Ctx) error {
	rows, err := h.service.ListWorkingHours(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	out := make([]dto.WorkingHoursResponse, 0, len(rows))
	for i := range rows {
		out = append(out, workingHoursResponse(&rows[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// CreateHoliday POST /holidays.
func (h *CatalogHandler) CreateHoliday(c *fiber.Ctx) error {
	var req dto.HolidayRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return util.NewValidationError("date must be YYYY-MM-DD", map[string]any{"date": req.Date})
	}
	holiday := &domain.Holiday{
		BranchID:    req.BranchID,
		Name:        req.Name,
		Date:        date,
		IsRecurring: req.IsRecurring,
	}
	if err := h.service.CreateHoliday(c.UserContext(), holiday); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": holidayResponse(holiday)})
}

// DeleteHoliday DELETE /holidays/:id.
func (h *CatalogHandler) DeleteHoliday(c *fiber.Ctx) error {
	if err := h.service.DeleteHoliday(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListHolidays GET /branches/:id/holidays.
func (h *CatalogHandler) ListHolidays(c *fiber.Ctx) error {
	holidays, err := h.service.ListHolidays(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	out := make([]dto.HolidayResponse, 0, len(holidays))
	for i := range holidays {
		out = append(out, holidayResponse(&holidays[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// CreateEquipment POST /equipment.
func (h *CatalogHandler) CreateEquipment(c *fiber.Ctx) error {
	var req dto.EquipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	eq := &domain.Equipment{
		BranchID:     req.BranchID,
		Name:         req.Name,
		Category:     req.Category,
		SerialNumber: req.SerialNumber,
		IsActive:     boolOrDefault(req.IsActive, true),
	}
	if err := h.service.CreateEquipment(c.UserContext(), eq); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": equipmentResponse(eq)})
}

// ListEquipment GET /branches/:id/equipment.
func (h *CatalogHandler) ListEquipment(c *fiber.Ctx) error {
	items, err := h.service.ListEquipment(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	out := make([]dto.EquipmentResponse, 0, len(items))
	for i := range items {
		out = append(out, equipmentResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// CreateVendor POST /vendors.
func (h *CatalogHandler) CreateVendor(c *fiber.Ctx) error {
	var req dto.VendorRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	vendor := &domain.Vendor{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		IsActive: boolOrDefault(req.IsActive, true),
	}
	if err := h.service.CreateVendor(c.UserContext(), vendor); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": vendorResponse(vendor)})
}

// ListVendors GET /vendors.
func (h *CatalogHandler) ListVendors(c *fiber.Ctx) error {
	vendors, err := h.service.ListVendors(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.VendorResponse, 0, len(vendors))
	for i := range vendors {
		out = append(out, vendorResponse(&vendors[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// CreateTechnician POST /technicians.
func (h *CatalogHandler) CreateTechnician(c *fiber.Ctx) error {
	var req dto.TechnicianRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	profile := &domain.TechnicianProfile{
		Name:        req.Name,
		Email:       req.Email,
		BranchID:    req.BranchID,
		Active:      boolOrDefault(req.Active, true),
		OnLeave:     boolOrDefault(req.OnLeave, false),
		MaxWorkload: req.MaxWorkload,
	}
	if err := h.service.CreateTechnician(c.UserContext(), profile); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": technicianResponse(profile, nil)})
}

// UpdateTechnician PUT /technicians/:id.
func (h *CatalogHandler) UpdateTechnician(c *fiber.Ctx) error {
	var req dto.TechnicianRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	existing, _, err := h.service.GetTechnician(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	existing.Name = req.Name
	existing.Email = req.Email
	existing.BranchID = req.BranchID
	if req.Active != nil {
		existing.Active = *req.Active
	}
	if req.OnLeave != nil {
		existing.OnLeave = *req.OnLeave
	}
	if req.MaxWorkload > 0 {
		existing.MaxWorkload = req.MaxWorkload
	}
	if err := h.service.UpdateTechnician(c.UserContext(), existing); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": technicianResponse(existing, nil)})
}

// GetTechnician GET /technicians/:id.
func (h *CatalogHandler) GetTechnician(c *fiber.Ctx) error {
	profile, skills, err := h.service.GetTechnician(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": technicianResponse(profile, skills)})
}

// ListTechnicians GET /technicians.
func (h *CatalogHandler) ListTechnicians(c *fiber.Ctx) error {
	filter := repository.TechnicianFilter{}
	if branchID := c.Query("branch_id"); branchID != "" {
		filter.BranchID = &branchID
	}
	if activeStr := c.Query("active"); activeStr != "" {
		if active, err := strconv.ParseBool(activeStr); err == nil {
			filter.Active = &active
		}
	}
	profiles, err := h.service.ListTechnicians(c.UserContext(), filter)
	if err != nil {
		return err
	}
	out := make([]dto.TechnicianResponse, 0, len(profiles))
	for i := range profiles {
		out = append(out, technicianResponse(&profiles[i], nil))
	}
	return c.JSON(fiber.Map{"data": out})
}

// ReplaceSkills PUT /technicians/:id/skills.
func (h *CatalogHandler) ReplaceSkills(c *fiber.Ctx) error {
	var req dto.SkillsUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	skills := make([]domain.TechnicianSkill, 0, len(req.Skills))
	for _, skill := range req.Skills {
		skills = append(skills, domain.TechnicianSkill{Category: skill.Category, SkillLevel: skill.SkillLevel})
	}
	if err := h.service.ReplaceSkills(c.UserContext(), c.Params("id"), skills); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSkillResponses(skills)})
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func branchResponse(branch *domain.Branch) dto.BranchResponse {
	return dto.BranchResponse{
		ID:        branch.ID,
		Name:      branch.Name,
		Address:   branch.Address,
		Timezone:  branch.Timezone,
		IsActive:  branch.IsActive,
		CreatedAt: branch.CreatedAt,
		UpdatedAt: branch.UpdatedAt,
	}
}

func workingHoursResponse(hours *domain.WorkingHours) dto.WorkingHoursResponse {
	return dto.WorkingHoursResponse{
		ID:        hours.ID,
		BranchID:  hours.BranchID,
		DayOfWeek: hours.DayOfWeek,
		OpenTime:  hours.OpenTime,
		CloseTime: hours.CloseTime,
		IsClosed:  hours.IsClosed,
	}
}

func holidayResponse(holiday *domain.Holiday) dto.HolidayResponse {
	return dto.HolidayResponse{
		ID:          holiday.ID,
		BranchID:    holiday.BranchID,
		Name:        holiday.Name,
		Date:        holiday.Date,
		IsRecurring: holiday.IsRecurring,
	}
}

func equipmentResponse(eq *domain.Equipment) dto.EquipmentResponse {
	return dto.EquipmentResponse{
		ID:           eq.ID,
		BranchID:     eq.BranchID,
		Name:         eq.Name,
		Category:     eq.Category,
		SerialNumber: eq.SerialNumber,
		IsActive:     eq.IsActive,
		CreatedAt:    eq.CreatedAt,
	}
}

func vendorResponse(vendor *domain.Vendor) dto.VendorResponse {
	return dto.VendorResponse{
		ID:        vendor.ID,
		Name:      vendor.Name,
		Phone:     vendor.Phone,
		Email:     vendor.Email,
		IsActive:  vendor.IsActive,
		CreatedAt: vendor.CreatedAt,
	}
}

func technicianResponse(profile *domain.TechnicianProfile, skills []domain.TechnicianSkill) dto.TechnicianResponse {
	return dto.TechnicianResponse{
		ID:          profile.ID,
		Name:        profile.Name,
		Email:       profile.Email,
		BranchID:    profile.BranchID,
		Active:      profile.Active,
		OnLeave:     profile.OnLeave,
		MaxWorkload: profile.MaxWorkload,
		Skills:      dto.NewSkillResponses(skills),
		CreatedAt:   profile.CreatedAt,
	}
}
