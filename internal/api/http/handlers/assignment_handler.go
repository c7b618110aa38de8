package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hey-coffee/maintenance-service/internal/api/dto"
	"github.com/hey-coffee/maintenance-service/internal/assignment"
	"github.com/hey-coffee/maintenance-service/internal/service"
	"github.com/hey-coffee/maintenance-service/pkg/util"
)

// AssignmentHandler manages recommendation and assignment endpoints.
type AssignmentHandler struct {
	service *service.AssignmentService
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: assignmentService}
}

// Recommend GET /requests/:id/assignment/recommendation.
func (h *AssignmentHandler) Recommend(c *fiber.Ctx) error {
	rec, err := h.service.Recommend(c.UserContext(), c.Params("id"), c.Query("strategy"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": recommendationResponse(rec)})
}

// Assign POST /requests/:id/assign.
func (h *AssignmentHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if (req.ProfileID == "") == (req.VendorID == "") {
		return util.NewValidationError("exactly one of profile_id or vendor_id required", nil)
	}

	actor := actorFromHeaders(c)
	if req.ProfileID != "" {
		updated, err := h.service.AssignTechnician(c.UserContext(), actor, c.Params("id"), req.ProfileID, req.Strategy)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": requestSummary(updated)})
	}
	updated, err := h.service.AssignVendor(c.UserContext(), actor, c.Params("id"), req.VendorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(updated)})
}

func recommendationResponse(rec *assignment.Recommendation) dto.RecommendationResponse {
	out := dto.RecommendationResponse{
		Strategy:      string(rec.Strategy),
		RecommendedID: rec.RecommendedID,
		Candidates:    make([]dto.CandidateResponse, 0, len(rec.Candidates)),
	}
	for _, candidate := range rec.Candidates {
		out.Candidates = append(out.Candidates, dto.CandidateResponse{
			ProfileID:       candidate.ProfileID,
			Name:            candidate.Name,
			CurrentWorkload: candidate.CurrentWorkload,
			MaxWorkload:     candidate.MaxWorkload,
			SkillLevel:      candidate.SkillLevel,
			Score:           candidate.Score,
			Factors: dto.FactorsResponse{
				SkillMatch:   candidate.Factors.SkillMatch,
				Workload:     candidate.Factors.Workload,
				Availability: candidate.Factors.Availability,
			},
		})
	}
	return out
}
