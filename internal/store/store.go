// Package store persists billboards, reports, votes and user progress with
// gorm. It implements aggregation.Store.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/aggregation"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/gamification"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/geocode"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"
)

const reportOrder = "submitted_at ASC, created_at ASC, id ASC"

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx aggregation.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Tx{db: tx})
	})
}

func (s *Store) GetBillboard(ctx context.Context, id uuid.UUID) (*models.Billboard, error) {
	var b models.Billboard
	err := s.db.WithContext(ctx).
		Preload("Reports", func(db *gorm.DB) *gorm.DB { return db.Order(reportOrder) }).
		First(&b, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "billboard")
	}
	return &b, nil
}

func (s *Store) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var r models.Report
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "report")
	}
	return &r, nil
}

// Tx is the transactional half of the store.
type Tx struct {
	db *gorm.DB
}

// forUpdate adds SELECT ... FOR UPDATE where the dialect has it. SQLite
// already serializes writers.
func (t *Tx) forUpdate() *gorm.DB {
	if t.db.Dialector.Name() == "postgres" {
		return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return t.db
}

func (t *Tx) UpsertBillboard(_ context.Context, candidate *models.Billboard) (*models.Billboard, bool, error) {
	row := *candidate
	row.Reports = nil
	res := t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "image_hash"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return nil, false, res.Error
	}

	var b models.Billboard
	if err := t.forUpdate().First(&b, "image_hash = ?", candidate.ImageHash).Error; err != nil {
		return nil, false, err
	}
	return &b, res.RowsAffected == 1, nil
}

func (t *Tx) LockBillboard(_ context.Context, id uuid.UUID) (*models.Billboard, error) {
	var b models.Billboard
	if err := t.forUpdate().First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "billboard")
	}
	return &b, nil
}

func (t *Tx) SaveBillboard(_ context.Context, b *models.Billboard) error {
	res := t.db.Model(&models.Billboard{}).
		Where("id = ? AND version = ?", b.ID, b.Version).
		Updates(map[string]interface{}{
			"verified_status":  b.VerifiedStatus,
			"verified_by":      b.VerifiedBy,
			"verified_at":      b.VerifiedAt,
			"crowd_confidence": b.CrowdConfidence,
			"version":          b.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: billboard %s changed since version %d", aggregation.ErrConcurrencyConflict, b.ID, b.Version)
	}
	b.Version++
	return nil
}

func (t *Tx) BillboardReports(_ context.Context, billboardID uuid.UUID) ([]models.Report, error) {
	var reports []models.Report
	err := t.db.Where("billboard_id = ?", billboardID).Order(reportOrder).Find(&reports).Error
	return reports, err
}

func (t *Tx) LockReport(_ context.Context, id uuid.UUID) (*models.Report, error) {
	var r models.Report
	if err := t.forUpdate().First(&r, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "report")
	}
	return &r, nil
}

func (t *Tx) CreateReport(_ context.Context, r *models.Report) error {
	return t.db.Create(r).Error
}

func (t *Tx) SaveReport(_ context.Context, r *models.Report) error {
	return t.db.Save(r).Error
}

func (t *Tx) UpsertVote(_ context.Context, v *models.ReportVote) error {
	return t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "report_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(v).Error
}

func (t *Tx) CountVotes(_ context.Context, reportID uuid.UUID) (int, int, error) {
	var rows []struct {
		Value int
		N     int
	}
	err := t.db.Model(&models.ReportVote{}).
		Select("value, COUNT(*) AS n").
		Where("report_id = ?", reportID).
		Group("value").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}

	var up, down int
	for _, r := range rows {
		if r.Value > 0 {
			up += r.N
		} else {
			down += r.N
		}
	}
	return up, down, nil
}

func (t *Tx) LoadProfile(_ context.Context, userID uuid.UUID) (gamification.Profile, error) {
	var u models.User
	if err := t.db.Preload("Badges").First(&u, "id = ?", userID).Error; err != nil {
		return gamification.Profile{}, notFound(err, "user")
	}

	var zones int64
	err := t.db.Model(&models.Report{}).
		Where("reported_by = ? AND location_zone_id <> '' AND location_zone_id <> ?", userID, geocode.Unknown).
		Distinct("location_zone_id").
		Count(&zones).Error
	if err != nil {
		return gamification.Profile{}, err
	}

	p := gamification.Profile{
		UserID:           u.ID,
		XP:               u.XP,
		ReportsSubmitted: u.ReportsSubmitted,
		ReportsVerified:  u.ReportsVerified,
		DistinctZones:    int(zones),
	}
	for _, b := range u.Badges {
		p.Badges = append(p.Badges, b.Name)
	}
	return p, nil
}

func (t *Tx) ApplyCommands(_ context.Context, cmds []gamification.Command) error {
	for _, c := range cmds {
		var err error
		switch c.Kind {
		case gamification.KindAddXP:
			err = t.addXP(c.UserID, c.Delta)
		case gamification.KindIncrementCounter:
			if !c.Counter.IsValid() {
				return fmt.Errorf("unknown counter %q", c.Counter)
			}
			col := string(c.Counter)
			err = t.updateUser(c.UserID, map[string]interface{}{
				col: gorm.Expr(col+" + ?", c.Delta),
			})
		case gamification.KindAwardBadge:
			err = t.db.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.UserBadge{UserID: c.UserID, Name: c.Badge}).Error
		default:
			return fmt.Errorf("unknown command %q", c.Kind)
		}
		if err != nil {
			return fmt.Errorf("%s for user %s: %w", c.Kind, c.UserID, err)
		}
	}
	return nil
}

// addXP bumps xp in place, then derives the level from the stored total.
func (t *Tx) addXP(id uuid.UUID, delta int) error {
	if err := t.updateUser(id, map[string]interface{}{"xp": gorm.Expr("xp + ?", delta)}); err != nil {
		return err
	}
	var xp int
	if err := t.db.Model(&models.User{}).Where("id = ?", id).Select("xp").Scan(&xp).Error; err != nil {
		return err
	}
	return t.db.Model(&models.User{}).Where("id = ?", id).
		Update("level", gamification.LevelForXP(xp)).Error
}

func (t *Tx) updateUser(id uuid.UUID, values map[string]interface{}) error {
	res := t.db.Model(&models.User{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, aggregation.ErrNotFound)
	}
	return nil
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, aggregation.ErrNotFound)
	}
	return err
}
