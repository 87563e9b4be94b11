package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/services"
)

// AdminHandler serves the review console. Every route sits behind
// AdminRequired.
type AdminHandler struct {
	reports    *services.ReportService
	billboards *services.BillboardService
}

func NewAdminHandler(reports *services.ReportService, billboards *services.BillboardService) *AdminHandler {
	return &AdminHandler{reports: reports, billboards: billboards}
}

func (h *AdminHandler) ListReports(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var filter dto.ReportFilter
	if err := c.QueryParser(&filter); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid query parameters")
	}

	page, err := h.reports.ListAll(c.UserContext(), actor, filter)
	if err != nil {
		return serviceError(c, err, "admin_list_reports")
	}
	return c.JSON(page)
}

// Review handles PUT /api/admin/reports/:id/review.
func (h *AdminHandler) Review(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid report ID")
	}

	var req dto.ReviewReportRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	report, err := h.reports.Review(c.UserContext(), actor, id, &req)
	if err != nil {
		return serviceError(c, err, "review_report")
	}
	return c.JSON(report)
}

func (h *AdminHandler) Annotate(c *fiber.Ctx) error {
	actor, err := middleware.CurrentActor(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid report ID")
	}

	var req dto.AnnotateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	report, err := h.reports.Annotate(c.UserContext(), actor, id, &req)
	if err != nil {
		return serviceError(c, err, "annotate_report")
	}
	return c.JSON(report)
}

func (h *AdminHandler) ListBillboards(c *fiber.Ctx) error {
	page, err := h.billboards.ListAll(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		return serviceError(c, err, "admin_list_billboards")
	}
	return c.JSON(page)
}

// RecomputeBillboard handles POST /api/admin/billboards/:id/recompute.
func (h *AdminHandler) RecomputeBillboard(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid billboard ID")
	}

	billboard, err := h.billboards.Recompute(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err, "recompute_billboard")
	}
	return c.JSON(dto.NewBillboardResponse(billboard, true))
}
