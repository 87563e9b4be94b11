package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Billboard aggregates every report of one physical structure. ImageHash is the
// perceptual hash of the first report's photo and is unique.
type Billboard struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ImageHash       string       `gorm:"size:128;not null;uniqueIndex" json:"image_hash"`
	Location        Location     `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	OCRText         string       `gorm:"type:text" json:"ocr_text"`
	VerifiedStatus  ReportStatus `gorm:"size:30;not null;default:'pending'" json:"verified_status"`
	VerifiedBy      *uuid.UUID   `gorm:"type:uuid" json:"verified_by,omitempty"`
	VerifiedAt      *time.Time   `json:"verified_at,omitempty"`
	CrowdConfidence int          `gorm:"not null;default:0" json:"crowd_confidence"`
	Version         int          `gorm:"not null;default:0" json:"-"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	Reports []Report `gorm:"foreignKey:BillboardID" json:"reports,omitempty"`
}

func (b *Billboard) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.VerifiedStatus == "" {
		b.VerifiedStatus = StatusPending
	}
	return nil
}

// IsSettled reports whether an admin verification already fixed the verdict.
func (b *Billboard) IsSettled() bool {
	return b.VerifiedStatus.IsVerified()
}
