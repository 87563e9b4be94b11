package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/aggregation"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/geocode"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/measure"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/rules"
)

// DimensionEstimator guesses board dimensions from the photo.
type DimensionEstimator interface {
	FromURL(ctx context.Context, imageURL string) (measure.Dimensions, error)
}

type ReportService struct {
	db        *gorm.DB
	agg       *aggregation.Aggregator
	lifecycle *aggregation.Lifecycle
	rules     *rules.Engine
	geocoder  geocode.Geocoder
	estimator DimensionEstimator
	log       *slog.Logger
}

func NewReportService(db *gorm.DB, agg *aggregation.Aggregator, lifecycle *aggregation.Lifecycle, engine *rules.Engine, geocoder geocode.Geocoder, estimator DimensionEstimator, log *slog.Logger) *ReportService {
	if geocoder == nil {
		geocoder = geocode.Static{Address: geocode.Unknown, ZoneID: geocode.Unknown}
	}
	if log == nil {
		log = slog.Default()
	}
	return &ReportService{
		db:        db,
		agg:       agg,
		lifecycle: lifecycle,
		rules:     engine,
		geocoder:  geocoder,
		estimator: estimator,
		log:       log,
	}
}

// Submit validates a draft, enriches it with address, rule verdict and
// estimated dimensions, and links it to its billboard.
func (s *ReportService) Submit(ctx context.Context, actor aggregation.Actor, req *dto.SubmitReportRequest) (*models.Report, *models.Billboard, error) {
	if actor.Admin {
		return nil, nil, fmt.Errorf("%w: admins cannot submit reports", aggregation.ErrForbidden)
	}
	if err := dto.Validate(req); err != nil {
		return nil, nil, err
	}

	report := newReport(actor.ID, req)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		place := s.geocoder.Reverse(gctx, report.Location.Latitude, report.Location.Longitude)
		report.Location.Address = place.Address
		report.Location.ZoneID = place.ZoneID
		return nil
	})
	if req.AIAnalysis == nil && len(req.Hoardings) > 0 && s.rules != nil {
		g.Go(func() error {
			res := rules.Combine(s.rules.EvaluateAll(gctx, withDefaultGPS(req.Hoardings, report.Location)))
			report.Violations = datatypes.JSONSlice[string](res.Violations)
			report.AIAnalysis.Verdict = res.Analysis.Verdict
			report.AIAnalysis.Confidence = res.Analysis.Confidence
			report.AIAnalysis.DetectedObjects = res.Analysis.DetectedObjects
			report.AIAnalysis.OCRText = ocrLines(req.Hoardings)
			return nil
		})
	}
	if report.SuspectedDimensions.Width == nil && report.SuspectedDimensions.Height == nil && s.estimator != nil {
		g.Go(func() error {
			dims, err := s.estimator.FromURL(gctx, report.ImageURL)
			if err != nil {
				s.log.Debug("dimension estimate unavailable", "error", err)
				return nil
			}
			report.SuspectedDimensions.Width = &dims.Width
			report.SuspectedDimensions.Height = &dims.Height
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var billboard *models.Billboard
	err := aggregation.Retry(ctx, aggregation.DefaultRetries, func() error {
		var err error
		billboard, err = s.agg.LinkReport(ctx, report)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return report, billboard, nil
}

func newReport(userID uuid.UUID, req *dto.SubmitReportRequest) *models.Report {
	r := &models.Report{
		ID:               uuid.New(),
		ReportedBy:       userID,
		ImageURL:         strings.TrimSpace(req.ImageURL),
		AnnotatedURL:     strings.TrimSpace(req.AnnotatedURL),
		VideoURL:         strings.TrimSpace(req.VideoURL),
		IssueDescription: strings.TrimSpace(req.IssueDescription),
		ViolationType:    datatypes.JSONSlice[string](dedupe(req.ViolationType)),
		Violations:       datatypes.JSONSlice[string]{},
		Location: models.Location{
			Latitude:  *req.Location.Latitude,
			Longitude: *req.Location.Longitude,
		},
		QRCodeDetected: req.QRCodeDetected,
		LicenseID:      strings.TrimSpace(req.LicenseID),
		Status:         models.StatusPending,
		AIAnalysis: models.AIAnalysis{
			Verdict:         models.VerdictUnsure,
			DetectedObjects: datatypes.JSONSlice[string]{},
		},
	}
	if d := req.SuspectedDimensions; d != nil {
		r.SuspectedDimensions = models.Dimensions{Width: d.Width, Height: d.Height}
	}
	if ai := req.AIAnalysis; ai != nil {
		if ai.Verdict != "" {
			r.AIAnalysis.Verdict = models.Verdict(ai.Verdict)
		}
		r.AIAnalysis.Confidence = ai.Confidence
		if ai.DetectedObjects != nil {
			r.AIAnalysis.DetectedObjects = datatypes.JSONSlice[string](ai.DetectedObjects)
		}
		r.AIAnalysis.OCRText = datatypes.JSONSlice[string](ai.OCRText)
	}
	return r
}

// withDefaultGPS fills boards without their own fix with the report location.
func withDefaultGPS(hs []rules.Hoarding, loc models.Location) []rules.Hoarding {
	out := make([]rules.Hoarding, len(hs))
	for i, h := range hs {
		if h.GPS == nil {
			h.GPS = &rules.GPS{Lat: loc.Latitude, Lon: loc.Longitude}
		}
		out[i] = h
	}
	return out
}

func ocrLines(hs []rules.Hoarding) datatypes.JSONSlice[string] {
	var lines []string
	for _, h := range hs {
		for _, item := range h.OCRText {
			if t := strings.TrimSpace(item.Text); t != "" {
				lines = append(lines, t)
			}
		}
	}
	return datatypes.JSONSlice[string](lines)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Review applies an admin decision and its notes atomically, retrying on lock
// contention.
func (s *ReportService) Review(ctx context.Context, actor aggregation.Actor, reportID uuid.UUID, req *dto.ReviewReportRequest) (*models.Report, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	var report *models.Report
	err := aggregation.Retry(ctx, aggregation.DefaultRetries, func() error {
		var err error
		report, err = s.lifecycle.Review(ctx, reportID, models.ReportStatus(req.Status), req.AdminNotes, actor)
		return err
	})
	return report, err
}

func (s *ReportService) Annotate(ctx context.Context, actor aggregation.Actor, reportID uuid.UUID, req *dto.AnnotateReportRequest) (*models.Report, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	return s.lifecycle.Annotate(ctx, reportID, req.AdminNotes, actor)
}

func (s *ReportService) Edit(ctx context.Context, actor aggregation.Actor, reportID uuid.UUID, req *dto.EditReportRequest) (*models.Report, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	return s.lifecycle.Edit(ctx, reportID, req.IssueDescription, actor)
}

func (s *ReportService) Vote(ctx context.Context, actor aggregation.Actor, reportID uuid.UUID, req *dto.VoteRequest) (*models.Report, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	var report *models.Report
	err := aggregation.Retry(ctx, aggregation.DefaultRetries, func() error {
		var err error
		report, err = s.agg.Vote(ctx, reportID, actor.ID, req.Value)
		return err
	})
	return report, err
}

// Get returns a report visible to its reporter and to admins.
func (s *ReportService) Get(ctx context.Context, actor aggregation.Actor, reportID uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, aggregation.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if report.ReportedBy != actor.ID && !actor.Admin {
		return nil, fmt.Errorf("%w: not the report owner", aggregation.ErrForbidden)
	}
	return &report, nil
}

// ListByUser pages through one reporter's reports, newest first.
func (s *ReportService) ListByUser(ctx context.Context, actor aggregation.Actor, userID uuid.UUID, filter dto.ReportFilter) (*dto.PageResponse[models.Report], error) {
	if userID != actor.ID && !actor.Admin {
		return nil, fmt.Errorf("%w: cannot list another user's reports", aggregation.ErrForbidden)
	}
	return s.list(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("reported_by = ?", userID)
	})
}

// ListAll is the admin view over every report.
func (s *ReportService) ListAll(ctx context.Context, actor aggregation.Actor, filter dto.ReportFilter) (*dto.PageResponse[models.Report], error) {
	if !actor.Admin {
		return nil, fmt.Errorf("%w: admin access required", aggregation.ErrForbidden)
	}
	return s.list(ctx, filter, nil)
}

func (s *ReportService) list(ctx context.Context, filter dto.ReportFilter, scope func(*gorm.DB) *gorm.DB) (*dto.PageResponse[models.Report], error) {
	if err := dto.Validate(&filter); err != nil {
		return nil, err
	}
	filter.Normalize()

	query := s.db.WithContext(ctx).Model(&models.Report{})
	if scope != nil {
		query = scope(query)
	}
	query, err := applyFilter(query, filter)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}

	var reports []models.Report
	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("submitted_at DESC").Offset(offset).Limit(filter.Limit).Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	page := dto.NewPage(reports, total, filter.Page, filter.Limit)
	return &page, nil
}

func applyFilter(q *gorm.DB, f dto.ReportFilter) (*gorm.DB, error) {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Verdict != "" {
		q = q.Where("ai_verdict = ?", f.Verdict)
	}
	if f.ZoneID != "" {
		q = q.Where("location_zone_id = ?", f.ZoneID)
	}
	if f.ViolationType != "" {
		q = q.Where(jsonTextColumn(q, "violation_type")+" LIKE ?", `%"`+f.ViolationType+`"%`)
	}
	if f.StartDate != "" {
		start, err := time.Parse(time.DateOnly, f.StartDate)
		if err != nil {
			return nil, &dto.ValidationError{Fields: []string{"start_date failed datetime"}}
		}
		q = q.Where("submitted_at >= ?", start)
	}
	if f.EndDate != "" {
		end, err := time.Parse(time.DateOnly, f.EndDate)
		if err != nil {
			return nil, &dto.ValidationError{Fields: []string{"end_date failed datetime"}}
		}
		q = q.Where("submitted_at < ?", end.AddDate(0, 0, 1))
	}
	return q, nil
}

// jsonTextColumn renders a JSON column as text for LIKE matching.
func jsonTextColumn(q *gorm.DB, column string) string {
	if q.Dialector.Name() == "postgres" {
		return column + "::text"
	}
	return column
}
