package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/services"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Submit handles POST /api/reports.
func (h *ReportHandler) Submit(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.SubmitReportRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	report, billboard, err := h.reports.Submit(c.UserContext(), actor, &req)
	if err != nil {
		return serviceError(c, err, "submit_report")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SubmitReportResponse{
		Report:    report,
		Billboard: dto.NewBillboardResponse(billboard, false),
	})
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid report ID")
	}

	report, err := h.reports.Get(c.UserContext(), actor, id)
	if err != nil {
		return serviceError(c, err, "get_report")
	}
	return c.JSON(report)
}

// Edit handles PATCH /api/reports/:id.
func (h *ReportHandler) Edit(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid report ID")
	}

	var req dto.EditReportRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	report, err := h.reports.Edit(c.UserContext(), actor, id, &req)
	if err != nil {
		return serviceError(c, err, "edit_report")
	}
	return c.JSON(report)
}

func (h *ReportHandler) ListByUser(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	userID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	var filter dto.ReportFilter
	if err := c.QueryParser(&filter); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid query parameters")
	}

	page, err := h.reports.ListByUser(c.UserContext(), actor, userID, filter)
	if err != nil {
		return serviceError(c, err, "list_user_reports")
	}
	return c.JSON(page)
}

// Vote handles POST /api/reports/:id/vote.
func (h *ReportHandler) Vote(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid report ID")
	}

	var req dto.VoteRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	report, err := h.reports.Vote(c.UserContext(), actor, id, &req)
	if err != nil {
		return serviceError(c, err, "vote")
	}
	return c.JSON(fiber.Map{
		"report_id":             report.ID,
		"upvotes":               report.Upvotes,
		"downvotes":             report.Downvotes,
		"community_trust_score": report.CommunityTrustScore,
		"community_confidence":  services.CommunityConfidence(report.Upvotes, report.Downvotes),
	})
}
