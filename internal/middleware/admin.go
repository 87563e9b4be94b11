package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"
)

// ResolveRole decides once per request whether the caller is an admin and
// stores the answer for CurrentActor. The token's email must be listed in
// ADMIN_EMAILS or the user row must carry the admin role; the role claim is
// not trusted since tokens outlive role changes.
func ResolveRole(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mc, err := claims(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		c.Locals(adminLocal, isAdmin(c, mc, db, cfg))
		return c.Next()
	}
}

// AdminRequired rejects callers ResolveRole did not mark as admin. It resolves
// the role itself when ResolveRole has not run.
func AdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, resolved := c.Locals(adminLocal).(bool)
		if !resolved {
			mc, err := claims(c)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
					Error: true, Message: "Unauthorized",
				})
			}
			admin = isAdmin(c, mc, db, cfg)
			c.Locals(adminLocal, admin)
		}
		if !admin {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}
		return c.Next()
	}
}

func isAdmin(c *fiber.Ctx, mc map[string]interface{}, db *gorm.DB, cfg *config.Config) bool {
	email, _ := mc["email"].(string)
	if cfg.IsAdminEmail(email) {
		return true
	}

	sub, _ := mc["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return false
	}
	var user models.User
	if err := db.WithContext(c.UserContext()).Select("id", "role").First(&user, "id = ?", userID).Error; err != nil {
		return false
	}
	return user.IsAdmin()
}
