package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Profile returns the user with earned badges.
func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Badges", func(db *gorm.DB) *gorm.DB { return db.Order("earned_at ASC") }).
		First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	resp := toUserResponse(&user)
	return &resp, nil
}

// Leaderboard ranks reporters by XP. Ties go to whoever registered first.
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error) {
	if limit < 1 {
		limit = defaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}

	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("role = ?", models.RoleUser).
		Order("xp DESC").Order("created_at ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	counts, err := s.badgeCounts(ctx, users)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.LeaderboardEntry, len(users))
	for i, u := range users {
		entries[i] = dto.LeaderboardEntry{
			Rank:             i + 1,
			UserID:           u.ID,
			Username:         u.Username,
			XP:               u.XP,
			Level:            u.Level,
			ReportsSubmitted: u.ReportsSubmitted,
			ReportsVerified:  u.ReportsVerified,
			BadgeCount:       counts[u.ID],
		}
	}
	return entries, nil
}

func (s *UserService) badgeCounts(ctx context.Context, users []models.User) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(users))
	if len(users) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}

	var rows []struct {
		UserID uuid.UUID
		Total  int
	}
	if err := s.db.WithContext(ctx).Model(&models.UserBadge{}).
		Select("user_id, COUNT(*) AS total").
		Where("user_id IN ?", ids).
		Group("user_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count badges: %w", err)
	}
	for _, r := range rows {
		out[r.UserID] = r.Total
	}
	return out, nil
}

func toUserResponse(u *models.User) dto.UserResponse {
	badges := make([]dto.BadgeResponse, len(u.Badges))
	for i, b := range u.Badges {
		badges[i] = dto.BadgeResponse{Name: b.Name, EarnedAt: b.EarnedAt}
	}
	return dto.UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		Username:         u.Username,
		Role:             u.Role,
		Department:       u.Department,
		XP:               u.XP,
		Level:            u.Level,
		ReportsSubmitted: u.ReportsSubmitted,
		ReportsVerified:  u.ReportsVerified,
		VerifiedReports:  u.VerifiedReports,
		RejectedReports:  u.RejectedReports,
		Badges:           badges,
	}
}
