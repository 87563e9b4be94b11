// Package aggregation resolves reports to the physical billboard they show,
// keeps each billboard's crowd confidence derived from its reports, and drives
// the report review lifecycle together with its XP and badge side effects.
//
// The engine never touches user rows directly. Every user mutation is emitted
// as a gamification.Command and applied by the Store inside the transaction
// that produced it.
package aggregation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/gamification"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/imagehash"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/lock"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"
)

const defaultPersistTimeout = 10 * time.Second

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID    uuid.UUID
	Admin bool
}

type Aggregator struct {
	store          Store
	hasher         imagehash.Hasher
	locker         lock.Locker
	xp             gamification.XPCalculator
	badges         gamification.BadgeAwarder
	log            *slog.Logger
	now            func() time.Time
	persistTimeout time.Duration
}

type Option func(*Aggregator)

func WithXPCalculator(xp gamification.XPCalculator) Option {
	return func(a *Aggregator) { a.xp = xp }
}

func WithBadgeAwarder(b gamification.BadgeAwarder) Option {
	return func(a *Aggregator) { a.badges = b }
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithPersistTimeout bounds lock acquisition plus the database transaction.
func WithPersistTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.persistTimeout = d
		}
	}
}

func NewAggregator(store Store, hasher imagehash.Hasher, locker lock.Locker, log *slog.Logger, opts ...Option) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	a := &Aggregator{
		store:          store,
		hasher:         hasher,
		locker:         locker,
		xp:             gamification.DefaultXP{},
		badges:         gamification.DefaultCatalog(),
		log:            log,
		now:            func() time.Time { return time.Now().UTC() },
		persistTimeout: defaultPersistTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// LinkReport hashes the report photo, finds or creates the billboard with that
// hash and links the report to it in one transaction. A report that is not yet
// persisted is created. Linking an already linked report returns its billboard
// unchanged. On success report holds the persisted state.
func (a *Aggregator) LinkReport(ctx context.Context, report *models.Report) (*models.Billboard, error) {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}

	hash, err := a.hasher.Hash(ctx, report.ImageURL)
	if err != nil {
		if errors.Is(err, ErrIdentityHash) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrIdentityHash, err)
	}

	var (
		billboard *models.Billboard
		linked    models.Report
	)
	err = a.withLock(ctx, billboardKey(hash), func(ctx context.Context) error {
		return a.store.WithinTx(ctx, func(tx Tx) error {
			r := *report
			b, err := a.link(ctx, tx, &r, hash)
			if err != nil {
				return err
			}
			billboard, linked = b, r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	*report = linked
	a.log.Info("report linked",
		"report_id", report.ID.String(),
		"billboard_id", billboard.ID.String(),
		"status", string(report.Status),
		"crowd_confidence", billboard.CrowdConfidence,
	)
	return billboard, nil
}

func (a *Aggregator) link(ctx context.Context, tx Tx, r *models.Report, hash string) (*models.Billboard, error) {
	existing, err := tx.LockReport(ctx, r.ID)
	isNew := errors.Is(err, ErrNotFound)
	if err != nil && !isNew {
		return nil, fmt.Errorf("load report: %w", err)
	}
	if isNew && r.Status == "" {
		r.Status = models.StatusPending
	}

	if !isNew {
		*r = *existing
		if r.BillboardID != nil {
			b, err := tx.LockBillboard(ctx, *r.BillboardID)
			if err != nil {
				return nil, fmt.Errorf("load billboard: %w", err)
			}
			if b.Reports, err = tx.BillboardReports(ctx, b.ID); err != nil {
				return nil, fmt.Errorf("load billboard reports: %w", err)
			}
			return b, nil
		}
	}

	b, created, err := tx.UpsertBillboard(ctx, &models.Billboard{
		ImageHash:      hash,
		Location:       r.Location,
		OCRText:        strings.Join(r.AIAnalysis.OCRText, " "),
		VerifiedStatus: models.StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert billboard: %w", err)
	}

	r.ImageHash = hash
	r.BillboardID = &b.ID

	var cmds []gamification.Command
	if isNew {
		cmds = append(cmds, gamification.Increment(r.ReportedBy, gamification.CounterReportsSubmitted))
	}

	// Late duplicate of a settled billboard: adopt its verdict for partial credit.
	if !created && b.IsSettled() && r.Status == models.StatusPending {
		now := a.now()
		r.Status = b.VerifiedStatus
		r.ReviewedBy = b.VerifiedBy
		r.ReviewedAt = &now

		late := LateXP(a.xp.Compute(r))
		if diff := late - r.XPAwarded; diff != 0 {
			cmds = append(cmds, gamification.AddXP(r.ReportedBy, diff))
		}
		r.XPAwarded = late
	}

	if isNew {
		err = tx.CreateReport(ctx, r)
	} else {
		err = tx.SaveReport(ctx, r)
	}
	if err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	if err := a.recompute(ctx, tx, b); err != nil {
		return nil, err
	}

	badgeCmds, err := a.evaluateBadges(ctx, tx, r.ReportedBy, r, cmds)
	if err != nil {
		return nil, err
	}
	if err := tx.ApplyCommands(ctx, append(cmds, badgeCmds...)); err != nil {
		return nil, fmt.Errorf("apply user commands: %w", err)
	}
	return b, nil
}

// Recompute re-derives the crowd confidence of a billboard from its reports.
func (a *Aggregator) Recompute(ctx context.Context, billboardID uuid.UUID) (*models.Billboard, error) {
	current, err := a.store.GetBillboard(ctx, billboardID)
	if err != nil {
		return nil, err
	}

	var out *models.Billboard
	err = a.withLock(ctx, billboardKey(current.ImageHash), func(ctx context.Context) error {
		return a.store.WithinTx(ctx, func(tx Tx) error {
			b, err := tx.LockBillboard(ctx, billboardID)
			if err != nil {
				return err
			}
			if err := a.recompute(ctx, tx, b); err != nil {
				return err
			}
			out = b
			return nil
		})
	})
	return out, err
}

func (a *Aggregator) GetBillboard(ctx context.Context, id uuid.UUID) (*models.Billboard, error) {
	return a.store.GetBillboard(ctx, id)
}

// Vote records voter's +1/-1 on a report, refreshes its community trust score
// and the owning billboard's confidence. Voting again replaces the old vote.
func (a *Aggregator) Vote(ctx context.Context, reportID, voter uuid.UUID, value int) (*models.Report, error) {
	if value != 1 && value != -1 {
		return nil, ErrInvalidVote
	}
	snapshot, err := a.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if snapshot.ReportedBy == voter {
		return nil, fmt.Errorf("%w: cannot vote on own report", ErrForbidden)
	}

	var out *models.Report
	err = a.withLock(ctx, reportKey(snapshot), func(ctx context.Context) error {
		return a.store.WithinTx(ctx, func(tx Tx) error {
			r, err := tx.LockReport(ctx, reportID)
			if err != nil {
				return err
			}
			if err := tx.UpsertVote(ctx, &models.ReportVote{ReportID: r.ID, UserID: voter, Value: value}); err != nil {
				return fmt.Errorf("save vote: %w", err)
			}
			up, down, err := tx.CountVotes(ctx, r.ID)
			if err != nil {
				return fmt.Errorf("count votes: %w", err)
			}
			r.Upvotes, r.Downvotes = up, down
			r.CommunityTrustScore = up - down
			if err := tx.SaveReport(ctx, r); err != nil {
				return fmt.Errorf("save report: %w", err)
			}

			if r.BillboardID != nil {
				b, err := tx.LockBillboard(ctx, *r.BillboardID)
				if err != nil {
					return err
				}
				if err := a.recompute(ctx, tx, b); err != nil {
					return err
				}
			}

			cmds, err := a.evaluateBadges(ctx, tx, r.ReportedBy, r, nil)
			if err != nil {
				return err
			}
			if err := tx.ApplyCommands(ctx, cmds); err != nil {
				return fmt.Errorf("apply user commands: %w", err)
			}
			out = r
			return nil
		})
	})
	return out, err
}

func (a *Aggregator) recompute(ctx context.Context, tx Tx, b *models.Billboard) error {
	reports, err := tx.BillboardReports(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("load billboard reports: %w", err)
	}
	b.CrowdConfidence = CrowdConfidence(reports)
	if err := tx.SaveBillboard(ctx, b); err != nil {
		return fmt.Errorf("save billboard: %w", err)
	}
	b.Reports = reports
	return nil
}

// evaluateBadges runs the awarder against the profile as it will look once
// pending is applied.
func (a *Aggregator) evaluateBadges(ctx context.Context, tx Tx, userID uuid.UUID, r *models.Report, pending []gamification.Command) ([]gamification.Command, error) {
	p, err := tx.LoadProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	p.Apply(pending)

	var cmds []gamification.Command
	for _, name := range a.badges.Evaluate(&p, gamification.BadgeContext{Report: r}) {
		cmds = append(cmds, gamification.AwardBadge(userID, name))
	}
	return cmds, nil
}

func (a *Aggregator) withLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, a.persistTimeout)
	defer cancel()

	release, err := a.locker.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return fmt.Errorf("%w: %v", ErrConcurrencyConflict, err)
		}
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}
	defer release()
	return fn(ctx)
}

func billboardKey(hash string) string {
	return "billboard:" + hash
}

// reportKey serializes with the owning billboard. A report keeps the exact hash
// its billboard was found by, so no lookup is needed.
func reportKey(r *models.Report) string {
	if r.BillboardID != nil && r.ImageHash != "" {
		return billboardKey(r.ImageHash)
	}
	return "report:" + r.ID.String()
}
