package gamification

import "github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"

const (
	BadgeRookieReporter    = "Rookie Reporter"
	BadgePersistentEye     = "Persistent Eye"
	BadgeCommunityFavorite = "Community Favorite"
	BadgeZoneExpert        = "Zone Expert"
	BadgeTrustedEye        = "Trusted Eye"
)

// BadgeContext is the event that triggered badge evaluation.
type BadgeContext struct {
	Report *models.Report
}

// BadgeAwarder returns the badges newly earned by the profile. Badges the
// profile already holds must never be returned.
type BadgeAwarder interface {
	Evaluate(p *Profile, c BadgeContext) []string
}

type badgeRule struct {
	name string
	ok   func(p *Profile, c BadgeContext) bool
}

// Catalog is a rule-table BadgeAwarder.
type Catalog struct {
	rules []badgeRule
}

// DefaultCatalog is the badge set shown by the mobile client.
func DefaultCatalog() *Catalog {
	return &Catalog{rules: []badgeRule{
		{BadgeRookieReporter, func(p *Profile, _ BadgeContext) bool { return p.ReportsSubmitted >= 1 }},
		{BadgePersistentEye, func(p *Profile, _ BadgeContext) bool { return p.ReportsSubmitted >= 5 }},
		{BadgeCommunityFavorite, func(_ *Profile, c BadgeContext) bool {
			return c.Report != nil && c.Report.Upvotes >= 10
		}},
		{BadgeZoneExpert, func(p *Profile, _ BadgeContext) bool { return p.DistinctZones >= 3 }},
		{BadgeTrustedEye, func(p *Profile, _ BadgeContext) bool { return p.ReportsVerified >= 3 }},
	}}
}

func (c *Catalog) Evaluate(p *Profile, bc BadgeContext) []string {
	var earned []string
	for _, r := range c.rules {
		if p.HasBadge(r.name) {
			continue
		}
		if r.ok(p, bc) {
			earned = append(earned, r.name)
		}
	}
	return earned
}
