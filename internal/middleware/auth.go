package middleware

import (
	"errors"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/aggregation"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/dto"
)

const adminLocal = "is_admin"

func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})
}

func claims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("invalid token in context")
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return mc, nil
}

// UserID extracts the user UUID from the JWT sub claim.
func UserID(c *fiber.Ctx) (uuid.UUID, error) {
	mc, err := claims(c)
	if err != nil {
		return uuid.Nil, err
	}
	sub, ok := mc["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}
	return uuid.Parse(sub)
}

// CurrentActor builds the acting user from the token. Admin rights are only
// what ResolveRole or AdminRequired established for this request.
func CurrentActor(c *fiber.Ctx) (aggregation.Actor, error) {
	id, err := UserID(c)
	if err != nil {
		return aggregation.Actor{}, err
	}
	admin, _ := c.Locals(adminLocal).(bool)
	return aggregation.Actor{ID: id, Admin: admin}, nil
}
