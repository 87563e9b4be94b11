package aggregation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/gamification"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/imagehash"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"
)

type voteKey struct{ report, user uuid.UUID }

type userRow struct {
	xp, submitted, verified, verifiedReports, rejectedReports int
	badges                                                      []string
}

type memState struct {
	billboards map[uuid.UUID]models.Billboard
	reports    map[uuid.UUID]models.Report
	order      map[uuid.UUID]int
	votes      map[voteKey]int
	users      map[uuid.UUID]userRow
	seq        int
}

func (s *memState) clone() *memState {
	c := &memState{
		billboards: make(map[uuid.UUID]models.Billboard, len(s.billboards)),
		reports:    make(map[uuid.UUID]models.Report, len(s.reports)),
		order:      make(map[uuid.UUID]int, len(s.order)),
		votes:      make(map[voteKey]int, len(s.votes)),
		users:      make(map[uuid.UUID]userRow, len(s.users)),
		seq:        s.seq,
	}
	for k, v := range s.billboards {
		c.billboards[k] = v
	}
	for k, v := range s.reports {
		c.reports[k] = v
	}
	for k, v := range s.order {
		c.order[k] = v
	}
	for k, v := range s.votes {
		c.votes[k] = v
	}
	for k, v := range s.users {
		v.badges = append([]string(nil), v.badges...)
		c.users[k] = v
	}
	return c
}

// memStore serializes transactions and commits by swapping in the mutated copy.
type memStore struct {
	mu        sync.Mutex
	state     *memState
	failSaves int
	txCount   int
}

func newMemStore() *memStore {
	return &memStore{state: (&memState{}).clone()}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++

	next := s.state.clone()
	if err := fn(&memTx{store: s, st: next}); err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *memStore) GetBillboard(_ context.Context, id uuid.UUID) (*models.Billboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.state.billboards[id]
	if !ok {
		return nil, ErrNotFound
	}
	b.Reports = reportsOf(s.state, id)
	return &b, nil
}

func (s *memStore) GetReport(_ context.Context, id uuid.UUID) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *memStore) billboardCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.billboards)
}

func (s *memStore) reportCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.reports)
}

func (s *memStore) user(id uuid.UUID) userRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.users[id]
}

func reportsOf(st *memState, billboardID uuid.UUID) []models.Report {
	var out []models.Report
	for _, r := range st.reports {
		if r.BillboardID != nil && *r.BillboardID == billboardID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return st.order[out[i].ID] < st.order[out[j].ID]
	})
	return out
}

type memTx struct {
	store *memStore
	st    *memState
}

func (t *memTx) UpsertBillboard(_ context.Context, c *models.Billboard) (*models.Billboard, bool, error) {
	for _, b := range t.st.billboards {
		if b.ImageHash == c.ImageHash {
			return &b, false, nil
		}
	}
	b := *c
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.VerifiedStatus == "" {
		b.VerifiedStatus = models.StatusPending
	}
	b.Reports = nil
	t.st.billboards[b.ID] = b
	return &b, true, nil
}

func (t *memTx) LockBillboard(_ context.Context, id uuid.UUID) (*models.Billboard, error) {
	b, ok := t.st.billboards[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (t *memTx) SaveBillboard(_ context.Context, b *models.Billboard) error {
	stored, ok := t.st.billboards[b.ID]
	if !ok {
		return ErrNotFound
	}
	if t.store.failSaves > 0 {
		t.store.failSaves--
		return ErrConcurrencyConflict
	}
	if stored.Version != b.Version {
		return ErrConcurrencyConflict
	}
	b.Version++
	row := *b
	row.Reports = nil
	t.st.billboards[b.ID] = row
	return nil
}

func (t *memTx) BillboardReports(_ context.Context, id uuid.UUID) ([]models.Report, error) {
	return reportsOf(t.st, id), nil
}

func (t *memTx) LockReport(_ context.Context, id uuid.UUID) (*models.Report, error) {
	r, ok := t.st.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (t *memTx) CreateReport(_ context.Context, r *models.Report) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.SubmittedAt.IsZero() {
		r.SubmittedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	t.st.seq++
	t.st.order[r.ID] = t.st.seq
	t.st.reports[r.ID] = *r
	return nil
}

func (t *memTx) SaveReport(_ context.Context, r *models.Report) error {
	if _, ok := t.st.reports[r.ID]; !ok {
		return ErrNotFound
	}
	t.st.reports[r.ID] = *r
	return nil
}

func (t *memTx) UpsertVote(_ context.Context, v *models.ReportVote) error {
	t.st.votes[voteKey{v.ReportID, v.UserID}] = v.Value
	return nil
}

func (t *memTx) CountVotes(_ context.Context, reportID uuid.UUID) (int, int, error) {
	var up, down int
	for k, v := range t.st.votes {
		if k.report != reportID {
			continue
		}
		if v > 0 {
			up++
		} else {
			down++
		}
	}
	return up, down, nil
}

func (t *memTx) LoadProfile(_ context.Context, userID uuid.UUID) (gamification.Profile, error) {
	u := t.st.users[userID]
	zones := map[string]struct{}{}
	for _, r := range t.st.reports {
		if r.ReportedBy == userID && r.Location.ZoneID != "" && r.Location.ZoneID != "N/A" {
			zones[r.Location.ZoneID] = struct{}{}
		}
	}
	return gamification.Profile{
		UserID:           userID,
		XP:               u.xp,
		ReportsSubmitted: u.submitted,
		ReportsVerified:  u.verified,
		DistinctZones:    len(zones),
		Badges:           append([]string(nil), u.badges...),
	}, nil
}

func (t *memTx) ApplyCommands(_ context.Context, cmds []gamification.Command) error {
	for _, c := range cmds {
		u := t.st.users[c.UserID]
		switch c.Kind {
		case gamification.KindAddXP:
			u.xp += c.Delta
		case gamification.KindIncrementCounter:
			switch c.Counter {
			case gamification.CounterReportsSubmitted:
				u.submitted += c.Delta
			case gamification.CounterReportsVerified:
				u.verified += c.Delta
			case gamification.CounterVerifiedReports:
				u.verifiedReports += c.Delta
			case gamification.CounterRejectedReports:
				u.rejectedReports += c.Delta
			}
		case gamification.KindAwardBadge:
			owned := false
			for _, b := range u.badges {
				owned = owned || b == c.Badge
			}
			if !owned {
				u.badges = append(u.badges, c.Badge)
			}
		}
		t.st.users[c.UserID] = u
	}
	return nil
}

// staticHasher maps URLs to fixed hashes; unknown URLs fail like an
// unreachable image.
type staticHasher map[string]string

func (h staticHasher) Hash(_ context.Context, url string) (string, error) {
	if v, ok := h[url]; ok {
		return v, nil
	}
	return "", imagehash.ErrIdentityHash
}
