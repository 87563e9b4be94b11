package aggregation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/gamification"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"
)

// CheckTransition reports whether a report may move from one status to
// another. Only pending has outgoing transitions.
func CheckTransition(from, to models.ReportStatus) error {
	switch {
	case !to.IsValid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	case from == to:
		return fmt.Errorf("%w: report is already %s", ErrInvalidTransition, to)
	case from.IsTerminal():
		return fmt.Errorf("%w: %s is final", ErrInvalidTransition, from)
	}
	return nil
}

// Lifecycle applies admin review decisions to reports.
type Lifecycle struct {
	agg *Aggregator
}

func NewLifecycle(agg *Aggregator) *Lifecycle {
	return &Lifecycle{agg: agg}
}

// Transition moves a report to status `to`. The reporter's XP is brought in
// line with the new status, reviewer and reporter counters are bumped, the
// first verification settles the billboard, and the billboard confidence is
// recomputed.
func (l *Lifecycle) Transition(ctx context.Context, reportID uuid.UUID, to models.ReportStatus, actor Actor) (*models.Report, error) {
	return l.Review(ctx, reportID, to, "", actor)
}

// Review is Transition that also stores admin notes in the same transaction.
// Empty notes leave the existing ones untouched.
func (l *Lifecycle) Review(ctx context.Context, reportID uuid.UUID, to models.ReportStatus, notes string, actor Actor) (*models.Report, error) {
	if !actor.Admin {
		return nil, fmt.Errorf("%w: only admins can review reports", ErrForbidden)
	}

	snapshot, err := l.agg.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := CheckTransition(snapshot.Status, to); err != nil {
		return nil, err
	}

	var out *models.Report
	err = l.agg.withLock(ctx, reportKey(snapshot), func(ctx context.Context) error {
		return l.agg.store.WithinTx(ctx, func(tx Tx) error {
			r, err := tx.LockReport(ctx, reportID)
			if err != nil {
				return err
			}
			if err := l.apply(ctx, tx, r, to, notes, actor); err != nil {
				return err
			}
			out = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	l.agg.log.Info("report reviewed",
		"report_id", out.ID.String(),
		"status", string(out.Status),
		"reviewer", actor.ID.String(),
		"xp_awarded", out.XPAwarded,
	)
	return out, nil
}

func (l *Lifecycle) apply(ctx context.Context, tx Tx, r *models.Report, to models.ReportStatus, notes string, actor Actor) error {
	from := r.Status
	if err := CheckTransition(from, to); err != nil {
		return err
	}

	now := l.agg.now()
	r.Status = to
	if notes = strings.TrimSpace(notes); notes != "" {
		r.AdminNotes = notes
	}
	if from == models.StatusPending {
		r.ReviewedBy = &actor.ID
		r.ReviewedAt = &now
	}

	var cmds []gamification.Command
	xpChanged := false
	if to.IsVerified() {
		newXP := l.agg.xp.Compute(r)
		if diff := newXP - r.XPAwarded; diff != 0 {
			cmds = append(cmds, gamification.AddXP(r.ReportedBy, diff))
			r.XPAwarded = newXP
			xpChanged = true
		}
	}

	if r.ReviewedBy != nil {
		switch {
		case to.IsVerified():
			cmds = append(cmds,
				gamification.Increment(*r.ReviewedBy, gamification.CounterVerifiedReports),
				gamification.Increment(r.ReportedBy, gamification.CounterReportsVerified),
			)
		case to == models.StatusRejected:
			cmds = append(cmds, gamification.Increment(*r.ReviewedBy, gamification.CounterRejectedReports))
		}
	}

	if err := tx.SaveReport(ctx, r); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	if r.BillboardID != nil {
		b, err := tx.LockBillboard(ctx, *r.BillboardID)
		if err != nil {
			return fmt.Errorf("load billboard: %w", err)
		}
		if to.IsVerified() && !b.IsSettled() {
			b.VerifiedStatus = to
			b.VerifiedBy = r.ReviewedBy
			b.VerifiedAt = &now
		}
		if err := l.agg.recompute(ctx, tx, b); err != nil {
			return err
		}
	}

	if xpChanged {
		badgeCmds, err := l.agg.evaluateBadges(ctx, tx, r.ReportedBy, r, cmds)
		if err != nil {
			return err
		}
		cmds = append(cmds, badgeCmds...)
	}

	if err := tx.ApplyCommands(ctx, cmds); err != nil {
		return fmt.Errorf("apply user commands: %w", err)
	}
	return nil
}

// Annotate replaces the admin notes on a report in any status.
func (l *Lifecycle) Annotate(ctx context.Context, reportID uuid.UUID, notes string, actor Actor) (*models.Report, error) {
	if !actor.Admin {
		return nil, fmt.Errorf("%w: only admins can annotate reports", ErrForbidden)
	}
	var out *models.Report
	err := l.agg.store.WithinTx(ctx, func(tx Tx) error {
		r, err := tx.LockReport(ctx, reportID)
		if err != nil {
			return err
		}
		r.AdminNotes = strings.TrimSpace(notes)
		if err := tx.SaveReport(ctx, r); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		out = r
		return nil
	})
	return out, err
}

// Edit lets the reporter (or an admin) reword the issue description while the
// report is still pending.
func (l *Lifecycle) Edit(ctx context.Context, reportID uuid.UUID, description string, actor Actor) (*models.Report, error) {
	var out *models.Report
	err := l.agg.store.WithinTx(ctx, func(tx Tx) error {
		r, err := tx.LockReport(ctx, reportID)
		if err != nil {
			return err
		}
		if r.ReportedBy != actor.ID && !actor.Admin {
			return fmt.Errorf("%w: not the report owner", ErrForbidden)
		}
		if r.Status != models.StatusPending {
			return fmt.Errorf("%w: %s reports cannot be edited", ErrInvalidTransition, r.Status)
		}
		r.IssueDescription = strings.TrimSpace(description)
		if err := tx.SaveReport(ctx, r); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		out = r
		return nil
	})
	return out, err
}
