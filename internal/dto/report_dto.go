package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/rules"
)

// SubmitReportRequest is the validated report draft. Either AIAnalysis (model
// output) or Hoardings (measurements for the rule engine) may be supplied;
// AIAnalysis wins when both are present.
type SubmitReportRequest struct {
	ImageURL            string           `json:"image_url" validate:"required,url"`
	AnnotatedURL        string           `json:"annotated_url" validate:"omitempty,url"`
	VideoURL            string           `json:"video_url" validate:"omitempty,url"`
	IssueDescription    string           `json:"issue_description" validate:"required,min=3,max=2000"`
	ViolationType       []string         `json:"violation_type" validate:"required,min=1,dive,oneof=size_violation illegal_location structural_hazard missing_license obscene_content political_violation other"`
	Location            LocationInput    `json:"location"`
	SuspectedDimensions *DimensionsInput `json:"suspected_dimensions,omitempty"`
	QRCodeDetected      bool             `json:"qr_code_detected"`
	LicenseID           string           `json:"license_id" validate:"max=100"`
	AIAnalysis          *AIAnalysisInput `json:"ai_analysis,omitempty"`
	Hoardings           []rules.Hoarding `json:"hoardings,omitempty" validate:"max=20"`
}

type LocationInput struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

type DimensionsInput struct {
	Width  *float64 `json:"width" validate:"omitempty,gt=0"`
	Height *float64 `json:"height" validate:"omitempty,gt=0"`
}

type AIAnalysisInput struct {
	Verdict         string   `json:"verdict" validate:"omitempty,oneof=unauthorized authorized unsure"`
	Confidence      *float64 `json:"confidence" validate:"omitempty,min=0,max=1"`
	DetectedObjects []string `json:"detected_objects" validate:"max=100"`
	OCRText         []string `json:"ocr_text" validate:"max=100"`
}

type ReviewReportRequest struct {
	Status     string `json:"status" validate:"required,oneof=pending verified_unauthorized verified_authorized rejected"`
	AdminNotes string `json:"admin_notes" validate:"max=5000"`
}

type AnnotateReportRequest struct {
	AdminNotes string `json:"admin_notes" validate:"max=5000"`
}

type EditReportRequest struct {
	IssueDescription string `json:"issue_description" validate:"required,min=3,max=2000"`
}

type VoteRequest struct {
	Value int `json:"value" validate:"oneof=1 -1"`
}

// ReportFilter is bound from query parameters.
type ReportFilter struct {
	Status        string `query:"status" validate:"omitempty,oneof=pending verified_unauthorized verified_authorized rejected"`
	ViolationType string `query:"violation_type" validate:"omitempty,oneof=size_violation illegal_location structural_hazard missing_license obscene_content political_violation other"`
	Verdict       string `query:"verdict" validate:"omitempty,oneof=unauthorized authorized unsure"`
	ZoneID        string `query:"zone_id" validate:"max=100"`
	StartDate     string `query:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate       string `query:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Page          int    `query:"page" validate:"omitempty,min=1"`
	Limit         int    `query:"limit" validate:"omitempty,min=1,max=100"`
}

func (f *ReportFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
}

type SubmitReportResponse struct {
	Report    *models.Report    `json:"report"`
	Billboard BillboardResponse `json:"billboard"`
}

type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
}

func NewPage[T any](data []T, total int64, page, limit int) PageResponse[T] {
	if data == nil {
		data = []T{}
	}
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PageResponse[T]{Data: data, Total: total, Page: page, TotalPages: pages}
}

type BillboardResponse struct {
	ID              uuid.UUID           `json:"id"`
	ImageHash       string              `json:"image_hash"`
	Location        models.Location     `json:"location"`
	OCRText         string              `json:"ocr_text"`
	VerifiedStatus  models.ReportStatus `json:"verified_status"`
	VerifiedBy      *uuid.UUID          `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time          `json:"verified_at,omitempty"`
	CrowdConfidence int                 `json:"crowd_confidence"`
	ReportCount     int                 `json:"report_count"`
	Reports         []models.Report     `json:"reports,omitempty"`
}

func NewBillboardResponse(b *models.Billboard, withReports bool) BillboardResponse {
	resp := BillboardResponse{
		ID:              b.ID,
		ImageHash:       b.ImageHash,
		Location:        b.Location,
		OCRText:         b.OCRText,
		VerifiedStatus:  b.VerifiedStatus,
		VerifiedBy:      b.VerifiedBy,
		VerifiedAt:      b.VerifiedAt,
		CrowdConfidence: b.CrowdConfidence,
		ReportCount:     len(b.Reports),
	}
	if withReports {
		resp.Reports = b.Reports
	}
	return resp
}

type FeedItem struct {
	ID                  uuid.UUID           `json:"id"`
	ImageURL            string              `json:"image_url"`
	Location            models.Location     `json:"location"`
	CrowdConfidence     int                 `json:"crowd_confidence"`
	CommunityConfidence *float64            `json:"community_confidence"`
	VerifiedStatus      models.ReportStatus `json:"verified_status"`
}

type LeaderboardEntry struct {
	Rank             int       `json:"rank"`
	UserID           uuid.UUID `json:"user_id"`
	Username         string    `json:"username"`
	XP               int       `json:"xp"`
	Level            int       `json:"level"`
	ReportsSubmitted int       `json:"reports_submitted"`
	ReportsVerified  int       `json:"reports_verified"`
	BadgeCount       int       `json:"badge_count"`
}
