package gamification

import "github.com/google/uuid"

// XPPerLevel is the XP needed to gain one level.
const XPPerLevel = 100

// LevelForXP returns the level reached with xp points; level 1 is the floor.
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return 1 + xp/XPPerLevel
}

// Profile is the slice of user state the badge catalog reads.
type Profile struct {
	UserID           uuid.UUID
	XP               int
	ReportsSubmitted int
	ReportsVerified  int
	DistinctZones    int
	Badges           []string
}

func (p *Profile) HasBadge(name string) bool {
	for _, b := range p.Badges {
		if b == name {
			return true
		}
	}
	return false
}

// Apply projects cmds onto the profile so badges can be evaluated against the
// state the transaction is about to commit. Commands for other users are ignored.
func (p *Profile) Apply(cmds []Command) {
	for _, c := range cmds {
		if c.UserID != p.UserID {
			continue
		}
		switch c.Kind {
		case KindAddXP:
			p.XP += c.Delta
		case KindIncrementCounter:
			switch c.Counter {
			case CounterReportsSubmitted:
				p.ReportsSubmitted += c.Delta
			case CounterReportsVerified:
				p.ReportsVerified += c.Delta
			}
		case KindAwardBadge:
			if !p.HasBadge(c.Badge) {
				p.Badges = append(p.Badges, c.Badge)
			}
		}
	}
}
