package gamification

import "github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"

// XPCalculator maps a report to the XP its reporter earns. Implementations must
// be pure and return a value >= 0.
type XPCalculator interface {
	Compute(r *models.Report) int
}

// XPFunc adapts a function to XPCalculator.
type XPFunc func(r *models.Report) int

func (f XPFunc) Compute(r *models.Report) int { return f(r) }

const (
	baseVerifiedXP     = 50
	perViolationTypeXP = 10
	aiAgreementXP      = 20
)

// DefaultXP awards XP only for verified reports: a base amount, a bonus per
// distinct violation type, and a bonus when the admin verdict matches the AI.
type DefaultXP struct{}

func (DefaultXP) Compute(r *models.Report) int {
	if r == nil || !r.Status.IsVerified() {
		return 0
	}
	xp := baseVerifiedXP

	seen := make(map[string]struct{}, len(r.ViolationType))
	for _, v := range r.ViolationType {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		xp += perViolationTypeXP
	}

	switch {
	case r.Status == models.StatusVerifiedUnauthorized && r.AIAnalysis.Verdict == models.VerdictUnauthorized,
		r.Status == models.StatusVerifiedAuthorized && r.AIAnalysis.Verdict == models.VerdictAuthorized:
		xp += aiAgreementXP
	}
	return xp
}
