package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/middleware"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Health    *handlers.HealthHandler
	Users     *handlers.UserHandler
	Reports   *handlers.ReportHandler
	Billboard *handlers.BillboardHandler
	Admin     *handlers.AdminHandler
}

func Setup(app *fiber.App, cfg *config.Config, db *gorm.DB, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)

	protected := middleware.JWTProtected(cfg)
	role := middleware.ResolveRole(db, cfg)

	api.Post("/auth/logout", protected, h.Auth.Logout)

	api.Get("/users/me", protected, h.Users.Me)
	api.Get("/leaderboard", protected, h.Users.Leaderboard)

	reports := api.Group("/reports", protected, role)
	reports.Post("/", h.Reports.Submit)
	reports.Get("/user/:userId", h.Reports.ListByUser)
	reports.Get("/:id", h.Reports.Get)
	reports.Patch("/:id", h.Reports.Edit)
	reports.Post("/:id/vote", h.Reports.Vote)

	billboards := api.Group("/billboards", protected, role)
	billboards.Get("/feed", h.Billboard.Feed)
	billboards.Get("/:id", h.Billboard.Get)

	admin := api.Group("/admin", protected, role, middleware.AdminRequired(db, cfg))
	admin.Get("/reports", h.Admin.ListReports)
	admin.Put("/reports/:id/review", h.Admin.Review)
	admin.Put("/reports/:id/notes", h.Admin.Annotate)
	admin.Get("/billboards", h.Admin.ListBillboards)
	admin.Post("/billboards/:id/recompute", h.Admin.RecomputeBillboard)
}
