package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Username   string `json:"username" validate:"required,min=2,max=100"`
	Department string `json:"department" validate:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID               uuid.UUID       `json:"id"`
	Email            string          `json:"email"`
	Username         string          `json:"username"`
	Role             string          `json:"role"`
	Department       string          `json:"department,omitempty"`
	XP               int             `json:"xp"`
	Level            int             `json:"level"`
	ReportsSubmitted int             `json:"reports_submitted"`
	ReportsVerified  int             `json:"reports_verified"`
	VerifiedReports  int             `json:"verified_reports,omitempty"`
	RejectedReports  int             `json:"rejected_reports,omitempty"`
	Badges           []BadgeResponse `json:"badges"`
}

type BadgeResponse struct {
	Name     string    `json:"name"`
	EarnedAt time.Time `json:"earned_at"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Redis     string `json:"redis"`
	Zones     int    `json:"restricted_zones"`
}
