package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/aggregation"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"
)

type BillboardService struct {
	db  *gorm.DB
	agg *aggregation.Aggregator
}

func NewBillboardService(db *gorm.DB, agg *aggregation.Aggregator) *BillboardService {
	return &BillboardService{db: db, agg: agg}
}

func (s *BillboardService) Get(ctx context.Context, id uuid.UUID) (*models.Billboard, error) {
	return s.agg.GetBillboard(ctx, id)
}

// Recompute re-derives a billboard's crowd confidence, retrying on lock
// contention.
func (s *BillboardService) Recompute(ctx context.Context, id uuid.UUID) (*models.Billboard, error) {
	var b *models.Billboard
	err := aggregation.Retry(ctx, aggregation.DefaultRetries, func() error {
		var err error
		b, err = s.agg.Recompute(ctx, id)
		return err
	})
	return b, err
}

// Feed lists billboards, most recently touched first, each shown through its
// latest report.
func (s *BillboardService) Feed(ctx context.Context, page, limit int) (*dto.PageResponse[dto.FeedItem], error) {
	page, limit = pageBounds(page, limit)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Billboard{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count billboards: %w", err)
	}

	var billboards []models.Billboard
	if err := s.db.WithContext(ctx).
		Order("updated_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&billboards).Error; err != nil {
		return nil, fmt.Errorf("failed to list billboards: %w", err)
	}

	latest, err := s.latestReports(ctx, billboards)
	if err != nil {
		return nil, err
	}

	items := make([]dto.FeedItem, 0, len(billboards))
	for _, b := range billboards {
		item := dto.FeedItem{
			ID:              b.ID,
			Location:        b.Location,
			CrowdConfidence: b.CrowdConfidence,
			VerifiedStatus:  b.VerifiedStatus,
		}
		if r, ok := latest[b.ID]; ok {
			item.ImageURL = r.ImageURL
			item.CommunityConfidence = CommunityConfidence(r.Upvotes, r.Downvotes)
		}
		items = append(items, item)
	}

	resp := dto.NewPage(items, total, page, limit)
	return &resp, nil
}

func (s *BillboardService) latestReports(ctx context.Context, billboards []models.Billboard) (map[uuid.UUID]models.Report, error) {
	out := make(map[uuid.UUID]models.Report, len(billboards))
	if len(billboards) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(billboards))
	for i, b := range billboards {
		ids[i] = b.ID
	}

	var reports []models.Report
	if err := s.db.WithContext(ctx).
		Select("id", "billboard_id", "image_url", "upvotes", "downvotes", "submitted_at").
		Where("billboard_id IN ?", ids).
		Order("submitted_at DESC").
		Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to load feed reports: %w", err)
	}
	for _, r := range reports {
		if r.BillboardID == nil {
			continue
		}
		if _, seen := out[*r.BillboardID]; !seen {
			out[*r.BillboardID] = r
		}
	}
	return out, nil
}

// CommunityConfidence is the share of upvotes as a percentage, or nil when
// nobody voted.
func CommunityConfidence(up, down int) *float64 {
	if up+down == 0 {
		return nil
	}
	v := float64(up) / float64(up+down) * 100
	return &v
}

// ListAll is the admin view of billboards with their reports.
func (s *BillboardService) ListAll(ctx context.Context, page, limit int) (*dto.PageResponse[dto.BillboardResponse], error) {
	page, limit = pageBounds(page, limit)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Billboard{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count billboards: %w", err)
	}

	var billboards []models.Billboard
	if err := s.db.WithContext(ctx).
		Preload("Reports", func(db *gorm.DB) *gorm.DB { return db.Order("submitted_at ASC") }).
		Order("updated_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&billboards).Error; err != nil {
		return nil, fmt.Errorf("failed to list billboards: %w", err)
	}

	items := make([]dto.BillboardResponse, len(billboards))
	for i := range billboards {
		items[i] = dto.NewBillboardResponse(&billboards[i], true)
	}
	resp := dto.NewPage(items, total, page, limit)
	return &resp, nil
}

func pageBounds(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
