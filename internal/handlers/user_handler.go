package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	profile, err := h.users.Profile(c.UserContext(), userID)
	if err != nil {
		return serviceError(c, err, "profile")
	}
	return c.JSON(profile)
}

func (h *UserHandler) Leaderboard(c *fiber.Ctx) error {
	entries, err := h.users.Leaderboard(c.UserContext(), c.QueryInt("limit", 10))
	if err != nil {
		return serviceError(c, err, "leaderboard")
	}
	return c.JSON(fiber.Map{"data": entries})
}
