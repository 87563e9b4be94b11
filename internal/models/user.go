package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a reporter or an admin reviewer. Reporter and admin counters live on
// the same row; only the ones matching Role are ever incremented.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email      string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Username   string    `gorm:"size:100" json:"username"`
	Password   string    `gorm:"not null" json:"-"`
	Role       string    `gorm:"size:20;default:'user'" json:"role"`
	Department string    `gorm:"size:100" json:"department,omitempty"`

	XP               int `gorm:"not null;default:0" json:"xp"`
	Level            int `gorm:"not null;default:1" json:"level"`
	ReportsSubmitted int `gorm:"not null;default:0" json:"reports_submitted"`
	ReportsVerified  int `gorm:"not null;default:0" json:"reports_verified"`
	VerifiedReports  int `gorm:"not null;default:0" json:"verified_reports"`
	RejectedReports  int `gorm:"not null;default:0" json:"rejected_reports"`

	Badges    []UserBadge    `gorm:"foreignKey:UserID" json:"badges,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserBadge records one earned badge. The (user_id, name) pair is unique so
// awarding an owned badge is a no-op.
type UserBadge struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_badges_user_name,priority:1" json:"-"`
	Name     string    `gorm:"size:100;not null;uniqueIndex:idx_user_badges_user_name,priority:2" json:"name"`
	EarnedAt time.Time `gorm:"not null" json:"earned_at"`
}

func (b *UserBadge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.EarnedAt.IsZero() {
		b.EarnedAt = time.Now().UTC()
	}
	return nil
}
