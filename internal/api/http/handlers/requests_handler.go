package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hey-coffee/maintenance-service/internal/api/dto"
	"github.com/hey-coffee/maintenance-service/internal/domain"
	"github.com/hey-coffee/maintenance-service/internal/repository"
	"github.com/hey-coffee/maintenance-service/internal/service"
	"github.com/hey-coffee/maintenance-service/pkg/util"
)

// RequestsHandler manages maintenance request endpoints.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// Create POST /requests.
func (h *RequestsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.BranchID == "" || req.Title == "" || req.ReporterID == "" {
		return util.NewValidationError("branch_id, reporter_id, title required", nil)
	}

	input := service.RequestCreateInput{
		BranchID:    req.BranchID,
		EquipmentID: req.EquipmentID,
		ReporterID:  req.ReporterID,
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		SLAHours:    req.SLAHours,
		SLAMode:     req.SLAMode,
	}
	created, err := h.service.CreateRequest(c.UserContext(), input, time.Now())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": requestSummary(created)})
}

// List GET /requests.
func (h *RequestsHandler) List(c *fiber.Ctx) error {
	filter := parseRequestQuery(c)
	items, err := h.service.ListRequests(c.UserContext(), filter)
	if err != nil {
		return err
	}
	out := make([]dto.RequestSummary, 0, len(items))
	for i := range items {
		out = append(out, requestSummary(&items[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Get GET /requests/:id.
func (h *RequestsHandler) Get(c *fiber.Ctx) error {
	detail, err := h.service.GetRequest(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestDetail(detail)})
}

// UpdateStatus PATCH /requests/:id/status.
func (h *RequestsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return util.NewValidationError("status required", nil)
	}
	updated, err := h.service.ChangeStatus(c.UserContext(), actorFromHeaders(c), c.Params("id"), req.Status, req.Comment, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(updated)})
}

// Pause POST /requests/:id/pause.
func (h *RequestsHandler) Pause(c *fiber.Ctx) error {
	var req dto.PauseRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.Reason == "" {
		return util.NewValidationError("reason required", nil)
	}
	updated, err := h.service.Pause(c.UserContext(), actorFromHeaders(c), c.Params("id"), req.Reason, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(updated)})
}

// Resume POST /requests/:id/resume.
func (h *RequestsHandler) Resume(c *fiber.Ctx) error {
	updated, err := h.service.Resume(c.UserContext(), actorFromHeaders(c), c.Params("id"), time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(updated)})
}

// SLA GET /requests/:id/sla.
func (h *RequestsHandler) SLA(c *fiber.Ctx) error {
	now := evaluationTime(c)
	req, result, err := h.service.ClassifySLA(c.UserContext(), c.Params("id"), now)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SLAStatusResponse{
		RequestID:       req.ID,
		Status:          string(result.Status),
		ElapsedFraction: result.ElapsedFraction,
		DueAt:           result.DueAt,
		EvaluatedAt:     now,
	}})
}

func parseRequestQuery(c *fiber.Ctx) repository.RequestFilter {
	filter := repository.RequestFilter{}
	if branchID := c.Query("branch_id"); branchID != "" {
		filter.BranchID = &branchID
	}
	if assignee := c.Query("assigned_user_id"); assignee != "" {
		filter.AssignedUserID = &assignee
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.RequestStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.RequestPriority(strings.TrimSpace(part)))
		}
	}
	if pausedStr := c.Query("paused"); pausedStr != "" {
		if paused, err := strconv.ParseBool(pausedStr); err == nil {
			filter.Paused = &paused
		}
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	filter.DueFrom = parseTime(c.Query("due_from"))
	filter.DueTo = parseTime(c.Query("due_to"))

	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize
	return filter
}

func requestSummary(req *domain.MaintenanceRequest) dto.RequestSummary {
	return dto.RequestSummary{
		ID:               req.ID,
		ExternalKey:      req.ExternalKey,
		BranchID:         req.BranchID,
		EquipmentID:      req.EquipmentID,
		Category:         req.Category,
		Title:            req.Title,
		Status:           req.Status,
		Priority:         req.Priority,
		SLAHours:         req.SLAHours,
		SLAMode:          req.SLAMode,
		DueAt:            req.DueAt,
		IsPaused:         req.IsPaused,
		AssignedUserID:   req.AssignedUserID,
		AssignedVendorID: req.AssignedVendorID,
		CreatedAt:        req.CreatedAt,
		UpdatedAt:        req.UpdatedAt,
		CompletedAt:      req.CompletedAt,
	}
}

func requestDetail(detail *service.RequestDetail) dto.RequestDetailResponse {
	out := dto.RequestDetailResponse{
		RequestSummary: requestSummary(detail.Request),
		ReporterID:     detail.Request.ReporterID,
		Description:    detail.Request.Description,
		Pauses:         make([]dto.PauseIntervalResponse, 0, len(detail.Pauses)),
		History:        make([]dto.HistoryEntryResponse, 0, len(detail.History)),
	}
	for _, interval := range detail.Pauses {
		out.Pauses = append(out.Pauses, dto.PauseIntervalResponse{
			ID:        interval.ID,
			Reason:    interval.Reason,
			StartedAt: interval.StartedAt,
			EndedAt:   interval.EndedAt,
		})
	}
	for _, entry := range detail.History {
		out.History = append(out.History, dto.HistoryEntryResponse{
			ID:            entry.ID,
			ChangedByType: entry.ChangedByType,
			ChangedByID:   entry.ChangedByID,
			ChangeType:    entry.ChangeType,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return out
}
