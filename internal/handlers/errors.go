package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/aggregation"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/services"
)

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: msg})
}

// serviceError maps domain errors to HTTP responses. Anything unrecognised is
// logged and reported as a bare 500.
func serviceError(c *fiber.Ctx, err error, action string) error {
	var verr *dto.ValidationError
	switch {
	case errors.As(err, &verr):
		return errorJSON(c, fiber.StatusBadRequest, verr.Error())
	case errors.Is(err, aggregation.ErrInvalidVote):
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, aggregation.ErrIdentityHash):
		return errorJSON(c, fiber.StatusUnprocessableEntity, "Could not fingerprint the report image")
	case errors.Is(err, aggregation.ErrConcurrencyConflict):
		return errorJSON(c, fiber.StatusConflict, "The billboard is being updated, please retry")
	case errors.Is(err, aggregation.ErrInvalidTransition):
		return errorJSON(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, aggregation.ErrForbidden):
		return errorJSON(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, aggregation.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrUserNotFound):
		return errorJSON(c, fiber.StatusNotFound, err.Error())
	}

	slog.Error("request failed",
		"action", action,
		"error", err.Error(),
		"request_id", requestID(c),
	)
	return errorJSON(c, fiber.StatusInternalServerError, "Internal server error")
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
