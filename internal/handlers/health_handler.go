package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/dto"
)

type HealthHandler struct {
	rdb   *redis.Client
	zones int
}

// NewHealthHandler takes a nil client when redis is not configured.
func NewHealthHandler(rdb *redis.Client, zones int) *HealthHandler {
	return &HealthHandler{rdb: rdb, zones: zones}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "ok"

	dbStatus := "ok"
	if err := database.Ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
		status = "degraded"
	}

	redisStatus := "disabled"
	if h.rdb != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		redisStatus = "ok"
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy: " + err.Error()
			status = "degraded"
		}
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Redis:     redisStatus,
		Zones:     h.zones,
	})
}
