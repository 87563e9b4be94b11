package gamification

import "github.com/google/uuid"

// CommandKind names a user-state mutation produced by the aggregation engine.
type CommandKind string

const (
	KindAddXP            CommandKind = "add_xp"
	KindIncrementCounter CommandKind = "increment_counter"
	KindAwardBadge       CommandKind = "award_badge"
)

// Counter is a whitelisted per-user counter column.
type Counter string

const (
	CounterReportsSubmitted Counter = "reports_submitted"
	CounterReportsVerified  Counter = "reports_verified"
	CounterVerifiedReports  Counter = "verified_reports"
	CounterRejectedReports  Counter = "rejected_reports"
)

func (c Counter) IsValid() bool {
	switch c {
	case CounterReportsSubmitted, CounterReportsVerified, CounterVerifiedReports, CounterRejectedReports:
		return true
	}
	return false
}

// Command is an instruction to mutate a user, applied by the persistence layer
// inside the transaction that produced it.
type Command struct {
	Kind    CommandKind `json:"kind"`
	UserID  uuid.UUID   `json:"user_id"`
	Delta   int         `json:"delta,omitempty"`
	Counter Counter     `json:"counter,omitempty"`
	Badge   string      `json:"badge,omitempty"`
}

func AddXP(userID uuid.UUID, delta int) Command {
	return Command{Kind: KindAddXP, UserID: userID, Delta: delta}
}

func Increment(userID uuid.UUID, counter Counter) Command {
	return Command{Kind: KindIncrementCounter, UserID: userID, Counter: counter, Delta: 1}
}

func AwardBadge(userID uuid.UUID, badge string) Command {
	return Command{Kind: KindAwardBadge, UserID: userID, Badge: badge}
}
