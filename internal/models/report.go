package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReportStatus is the admin-review state of a report.
type ReportStatus string

const (
	StatusPending              ReportStatus = "pending"
	StatusVerifiedUnauthorized ReportStatus = "verified_unauthorized"
	StatusVerifiedAuthorized   ReportStatus = "verified_authorized"
	StatusRejected             ReportStatus = "rejected"
)

func (s ReportStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusVerifiedUnauthorized, StatusVerifiedAuthorized, StatusRejected:
		return true
	}
	return false
}

// IsVerified reports whether an admin confirmed the report either way.
func (s ReportStatus) IsVerified() bool {
	return s == StatusVerifiedUnauthorized || s == StatusVerifiedAuthorized
}

func (s ReportStatus) IsTerminal() bool {
	return s != StatusPending
}

// Verdict is the AI (or rule engine) opinion about a hoarding.
type Verdict string

const (
	VerdictUnauthorized Verdict = "unauthorized"
	VerdictAuthorized   Verdict = "authorized"
	VerdictUnsure       Verdict = "unsure"
)

var ViolationTypes = []string{
	"size_violation",
	"illegal_location",
	"structural_hazard",
	"missing_license",
	"obscene_content",
	"political_violation",
	"other",
}

type Location struct {
	Latitude  float64 `gorm:"type:decimal(10,7);not null" json:"latitude"`
	Longitude float64 `gorm:"type:decimal(10,7);not null" json:"longitude"`
	Address   string  `gorm:"size:500" json:"address"`
	ZoneID    string  `gorm:"size:100;index" json:"zone_id"`
}

// AIAnalysis is the model output attached to a report. A nil Confidence means
// no analysis was supplied.
type AIAnalysis struct {
	Verdict         Verdict                     `gorm:"size:20;default:'unsure'" json:"verdict"`
	Confidence      *float64                    `json:"confidence"`
	DetectedObjects datatypes.JSONSlice[string] `json:"detected_objects"`
	OCRText         datatypes.JSONSlice[string] `json:"ocr_text,omitempty"`
}

type Dimensions struct {
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

type Report struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BillboardID *uuid.UUID `gorm:"type:uuid;index" json:"billboard_id,omitempty"`
	ImageHash   string     `gorm:"size:128;index" json:"image_hash"`
	ReportedBy  uuid.UUID  `gorm:"type:uuid;not null;index" json:"reported_by"`

	ImageURL         string `gorm:"type:text;not null" json:"image_url"`
	AnnotatedURL     string `gorm:"type:text" json:"annotated_url"`
	VideoURL         string `gorm:"type:text" json:"video_url,omitempty"`
	IssueDescription string `gorm:"type:text;not null" json:"issue_description"`

	ViolationType       datatypes.JSONSlice[string] `gorm:"not null" json:"violation_type"`
	Violations          datatypes.JSONSlice[string] `json:"violations"`
	Location            Location                    `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	SuspectedDimensions Dimensions                  `gorm:"embedded;embeddedPrefix:suspected_" json:"suspected_dimensions"`
	QRCodeDetected      bool                        `gorm:"default:false" json:"qr_code_detected"`
	LicenseID           string                      `gorm:"size:100" json:"license_id,omitempty"`
	AIAnalysis          AIAnalysis                  `gorm:"embedded;embeddedPrefix:ai_" json:"ai_analysis"`

	Status     ReportStatus `gorm:"size:30;not null;default:'pending';index" json:"status"`
	ReviewedBy *uuid.UUID   `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time   `json:"reviewed_at,omitempty"`
	AdminNotes string       `gorm:"type:text" json:"admin_notes,omitempty"`

	XPAwarded           int `gorm:"not null;default:0" json:"xp_awarded"`
	Upvotes             int `gorm:"not null;default:0" json:"upvotes"`
	Downvotes           int `gorm:"not null;default:0" json:"downvotes"`
	CommunityTrustScore int `gorm:"not null;default:0" json:"community_trust_score"`

	SubmittedAt time.Time `gorm:"not null;index" json:"submitted_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	return nil
}
