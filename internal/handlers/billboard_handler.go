package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/services"
)

type BillboardHandler struct {
	billboards *services.BillboardService
}

func NewBillboardHandler(billboards *services.BillboardService) *BillboardHandler {
	return &BillboardHandler{billboards: billboards}
}

func (h *BillboardHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid billboard ID")
	}

	billboard, err := h.billboards.Get(c.UserContext(), id)
	if err != nil {
		return serviceError(c, err, "get_billboard")
	}
	return c.JSON(dto.NewBillboardResponse(billboard, true))
}

func (h *BillboardHandler) Feed(c *fiber.Ctx) error {
	feed, err := h.billboards.Feed(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", 20))
	if err != nil {
		return serviceError(c, err, "billboard_feed")
	}
	return c.JSON(feed)
}
