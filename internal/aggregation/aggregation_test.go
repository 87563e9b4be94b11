package aggregation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/gamification"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/lock"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, hashes staticHasher) (*Aggregator, *Lifecycle, *memStore) {
	t.Helper()
	store := newMemStore()
	agg := NewAggregator(store, hashes, lock.NewMemory(), nil,
		WithClock(func() time.Time { return fixedNow }),
		WithPersistTimeout(5*time.Second),
	)
	return agg, NewLifecycle(agg), store
}

func conf(v float64) *float64 { return &v }

func draft(reporter uuid.UUID, url string, confidence *float64, types ...string) *models.Report {
	return &models.Report{
		ReportedBy:       reporter,
		ImageURL:         url,
		IssueDescription: "oversized hoarding on the junction",
		ViolationType:    types,
		Location:         models.Location{Latitude: 12.97, Longitude: 77.59, ZoneID: "zone-1"},
		AIAnalysis: models.AIAnalysis{
			Verdict:    models.VerdictUnauthorized,
			Confidence: confidence,
			OCRText:    []string{"SALE", "50% OFF"},
		},
	}
}

func admin() Actor { return Actor{ID: uuid.New(), Admin: true} }

func TestCrowdConfidence(t *testing.T) {
	pending := func(c *float64, trust int) models.Report {
		return models.Report{Status: models.StatusPending, AIAnalysis: models.AIAnalysis{Confidence: c}, CommunityTrustScore: trust}
	}
	verified := func(c *float64, trust int) models.Report {
		r := pending(c, trust)
		r.Status = models.StatusVerifiedUnauthorized
		return r
	}

	tests := []struct {
		name    string
		reports []models.Report
		want    int
	}{
		{"empty", nil, 0},
		{"single pending", []models.Report{pending(conf(0.6), 0)}, 60},
		{"absent confidence", []models.Report{pending(nil, 0)}, 50},
		{"verified boost", []models.Report{verified(conf(0.6), 0)}, 90},
		{"boost capped", []models.Report{verified(conf(0.9), 0)}, 100},
		{"rejected gets no boost", []models.Report{{Status: models.StatusRejected, AIAnalysis: models.AIAnalysis{Confidence: conf(0.4)}}}, 40},
		{"trusted report weighs double", []models.Report{pending(conf(1), 10), pending(conf(0), 0)}, 67},
		{"trust saturates", []models.Report{pending(conf(1), 50), pending(conf(0), 0)}, 67},
		{"negative trust is ignored", []models.Report{pending(conf(1), -8), pending(conf(0), 0)}, 50},
		{"partial trust", []models.Report{pending(conf(0.8), 5), pending(conf(0.2), 0)}, 56},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CrowdConfidence(tt.reports))
		})
	}
}

func TestCrowdConfidenceBounds(t *testing.T) {
	statuses := []models.ReportStatus{models.StatusPending, models.StatusVerifiedAuthorized, models.StatusRejected}
	confidences := []*float64{nil, conf(0), conf(0.33), conf(1), conf(1.7), conf(-0.2)}
	trusts := []int{-20, 0, 3, 10, 1000}

	var reports []models.Report
	for _, s := range statuses {
		for _, c := range confidences {
			for _, tr := range trusts {
				reports = append(reports, models.Report{Status: s, AIAnalysis: models.AIAnalysis{Confidence: c}, CommunityTrustScore: tr})
				got := CrowdConfidence(reports)
				assert.GreaterOrEqual(t, got, 0)
				assert.LessOrEqual(t, got, 100)
			}
		}
	}
}

func TestVerificationStrictlyRaisesContribution(t *testing.T) {
	other := models.Report{Status: models.StatusPending, AIAnalysis: models.AIAnalysis{Confidence: conf(0.2)}}
	r := models.Report{Status: models.StatusPending, AIAnalysis: models.AIAnalysis{Confidence: conf(0.5)}}

	before := CrowdConfidence([]models.Report{r, other})
	r.Status = models.StatusVerifiedUnauthorized
	after := CrowdConfidence([]models.Report{r, other})

	assert.Greater(t, after, before)
}

func TestLateXP(t *testing.T) {
	assert.Equal(t, 21, LateXP(70))
	assert.Equal(t, 24, LateXP(80))
	assert.Equal(t, 0, LateXP(0))
	assert.Equal(t, 2, LateXP(5)) // 1.5 rounds half away from zero
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	agg, life, store := newTestEngine(t, staticHasher{
		"https://cdn/a.jpg": "p:X",
		"https://cdn/b.jpg": "p:X",
	})
	alice, bob, reviewer := uuid.New(), uuid.New(), admin()

	// A creates the billboard.
	a := draft(alice, "https://cdn/a.jpg", conf(0.6), "size_violation")
	billboard, err := agg.LinkReport(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "p:X", billboard.ImageHash)
	assert.Equal(t, 60, billboard.CrowdConfidence)
	assert.Equal(t, models.StatusPending, billboard.VerifiedStatus)
	assert.Equal(t, "SALE 50% OFF", billboard.OCRText)
	require.NotNil(t, a.BillboardID)
	assert.Equal(t, billboard.ID, *a.BillboardID)

	// Admin verifies A.
	reviewed, err := life.Transition(ctx, a.ID, models.StatusVerifiedUnauthorized, reviewer)
	require.NoError(t, err)
	assert.Equal(t, 80, reviewed.XPAwarded)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, reviewer.ID, *reviewed.ReviewedBy)

	billboard, err = agg.GetBillboard(ctx, billboard.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, billboard.CrowdConfidence)
	assert.Equal(t, models.StatusVerifiedUnauthorized, billboard.VerifiedStatus)
	require.NotNil(t, billboard.VerifiedBy)
	assert.Equal(t, reviewer.ID, *billboard.VerifiedBy)

	// B is a late duplicate and inherits the verdict.
	b := draft(bob, "https://cdn/b.jpg", conf(0.6), "size_violation", "illegal_location")
	b.AIAnalysis.Verdict = models.VerdictUnsure
	billboard2, err := agg.LinkReport(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, billboard.ID, billboard2.ID)

	full := gamification.DefaultXP{}.Compute(b)
	assert.Equal(t, 70, full)
	assert.Equal(t, models.StatusVerifiedUnauthorized, b.Status)
	assert.Equal(t, LateXP(full), b.XPAwarded)
	require.NotNil(t, b.ReviewedBy)
	assert.Equal(t, reviewer.ID, *b.ReviewedBy)
	require.NotNil(t, b.ReviewedAt)
	assert.Equal(t, fixedNow, *b.ReviewedAt)

	assert.Len(t, billboard2.Reports, 2)
	assert.Equal(t, a.ID, billboard2.Reports[0].ID)
	assert.Equal(t, b.ID, billboard2.Reports[1].ID)
	assert.Equal(t, 90, billboard2.CrowdConfidence)

	assert.Equal(t, 80, store.user(alice).xp)
	assert.Equal(t, 21, store.user(bob).xp)
	assert.Equal(t, 1, store.user(bob).submitted)
	assert.Equal(t, 0, store.user(bob).verified)
	assert.Equal(t, 1, store.user(reviewer.ID).verifiedReports)
	assert.Equal(t, 1, store.billboardCount())
}

func TestLinkReportIsReentrant(t *testing.T) {
	ctx := context.Background()
	agg, _, store := newTestEngine(t, staticHasher{"u1": "h"})
	alice := uuid.New()

	r := draft(alice, "u1", conf(0.7))
	first, err := agg.LinkReport(ctx, r)
	require.NoError(t, err)

	again := *r
	second, err := agg.LinkReport(ctx, &again)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Reports, 1)
	assert.Equal(t, 1, store.reportCount())
	assert.Equal(t, 1, store.user(alice).submitted)
	assert.Equal(t, []string{gamification.BadgeRookieReporter}, store.user(alice).badges)
}

func TestLinkOrderDoesNotMatter(t *testing.T) {
	ctx := context.Background()
	for _, order := range [][2]string{{"x", "y"}, {"y", "x"}} {
		agg, _, store := newTestEngine(t, staticHasher{"x": "same", "y": "same"})
		var last *models.Billboard
		for _, url := range order {
			b, err := agg.LinkReport(ctx, draft(uuid.New(), url, conf(0.5)))
			require.NoError(t, err)
			last = b
		}
		assert.Equal(t, 1, store.billboardCount())
		assert.Len(t, last.Reports, 2)
	}
}

func TestConcurrentLinksCreateOneBillboard(t *testing.T) {
	ctx := context.Background()
	hashes := staticHasher{}
	for i := 0; i < 16; i++ {
		hashes[fmt.Sprintf("https://cdn/%d.jpg", i)] = "p:shared"
	}
	agg, _, store := newTestEngine(t, hashes)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = map[uuid.UUID]struct{}{}
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := agg.LinkReport(ctx, draft(uuid.New(), fmt.Sprintf("https://cdn/%d.jpg", i), conf(0.4)))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[b.ID] = struct{}{}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 1, store.billboardCount())
	assert.Equal(t, 16, store.reportCount())
	for id := range ids {
		b, err := store.GetBillboard(ctx, id)
		require.NoError(t, err)
		assert.Len(t, b.Reports, 16)
		assert.Equal(t, 40, b.CrowdConfidence)
	}
}

func TestHashFailurePersistsNothing(t *testing.T) {
	agg, _, store := newTestEngine(t, staticHasher{})
	_, err := agg.LinkReport(context.Background(), draft(uuid.New(), "https://gone", conf(0.5)))

	assert.True(t, errors.Is(err, ErrIdentityHash))
	assert.Equal(t, 0, store.billboardCount())
	assert.Equal(t, 0, store.reportCount())
	assert.Equal(t, 0, store.txCount)
}

func TestConflictRollsBackAndRetries(t *testing.T) {
	ctx := context.Background()
	agg, _, store := newTestEngine(t, staticHasher{"u": "h"})
	store.failSaves = 1
	alice := uuid.New()
	r := draft(alice, "u", conf(0.5))

	_, err := agg.LinkReport(ctx, r)
	require.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.Equal(t, 0, store.reportCount())
	assert.Equal(t, 0, store.user(alice).submitted)

	store.failSaves = 1
	attempts := 0
	var b *models.Billboard
	err = Retry(ctx, DefaultRetries, func() error {
		attempts++
		var err error
		b, err = agg.LinkReport(ctx, r)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Len(t, b.Reports, 1)
	assert.Equal(t, 1, store.user(alice).submitted)
}

func TestRetryStopsOnOtherErrors(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, func() error {
		calls++
		return ErrForbidden
	})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 1, calls)

	calls = 0
	err = Retry(context.Background(), 3, func() error {
		calls++
		return ErrConcurrencyConflict
	})
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.Equal(t, 3, calls)
}

func TestCheckTransition(t *testing.T) {
	all := []models.ReportStatus{
		models.StatusPending, models.StatusVerifiedUnauthorized, models.StatusVerifiedAuthorized, models.StatusRejected,
	}
	for _, from := range all {
		for _, to := range all {
			err := CheckTransition(from, to)
			if from == models.StatusPending && to != models.StatusPending {
				assert.NoError(t, err, "%s -> %s", from, to)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", from, to)
			}
		}
	}
	assert.ErrorIs(t, CheckTransition(models.StatusPending, "archived"), ErrInvalidTransition)
}

func TestTerminalStatusesNeverReturnToPending(t *testing.T) {
	ctx := context.Background()
	for _, terminal := range []models.ReportStatus{
		models.StatusVerifiedUnauthorized, models.StatusVerifiedAuthorized, models.StatusRejected,
	} {
		t.Run(string(terminal), func(t *testing.T) {
			agg, life, store := newTestEngine(t, staticHasher{"u": "h"})
			r := draft(uuid.New(), "u", conf(0.5))
			_, err := agg.LinkReport(ctx, r)
			require.NoError(t, err)

			_, err = life.Transition(ctx, r.ID, terminal, admin())
			require.NoError(t, err)

			for _, to := range []models.ReportStatus{
				models.StatusPending, models.StatusVerifiedUnauthorized, models.StatusVerifiedAuthorized, models.StatusRejected,
			} {
				_, err := life.Transition(ctx, r.ID, to, admin())
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
			got, err := store.GetReport(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, terminal, got.Status)
		})
	}
}

func TestTransitionRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	agg, life, store := newTestEngine(t, staticHasher{"u": "h"})
	alice := uuid.New()
	r := draft(alice, "u", conf(0.5))
	_, err := agg.LinkReport(ctx, r)
	require.NoError(t, err)

	_, err = life.Transition(ctx, r.ID, models.StatusVerifiedAuthorized, Actor{ID: alice})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := store.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Nil(t, got.ReviewedBy)
	assert.Equal(t, 0, store.user(alice).xp)
}

func TestRejectionCounters(t *testing.T) {
	ctx := context.Background()
	agg, life, store := newTestEngine(t, staticHasher{"u": "h"})
	alice, reviewer := uuid.New(), admin()
	r := draft(alice, "u", conf(0.5), "other")
	_, err := agg.LinkReport(ctx, r)
	require.NoError(t, err)

	out, err := life.Transition(ctx, r.ID, models.StatusRejected, reviewer)
	require.NoError(t, err)
	assert.Equal(t, 0, out.XPAwarded)
	assert.Equal(t, fixedNow, *out.ReviewedAt)

	assert.Equal(t, 1, store.user(reviewer.ID).rejectedReports)
	assert.Equal(t, 0, store.user(reviewer.ID).verifiedReports)
	assert.Equal(t, 0, store.user(alice).verified)
	assert.Equal(t, 0, store.user(alice).xp)

	b, err := store.GetBillboard(ctx, *r.BillboardID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, b.VerifiedStatus)
}

func TestFirstVerificationSettlesBillboard(t *testing.T) {
	ctx := context.Background()
	agg, life, store := newTestEngine(t, staticHasher{"a": "h", "b": "h"})
	first, second := admin(), admin()

	ra := draft(uuid.New(), "a", conf(0.5))
	_, err := agg.LinkReport(ctx, ra)
	require.NoError(t, err)
	rb := draft(uuid.New(), "b", conf(0.5))
	_, err = agg.LinkReport(ctx, rb)
	require.NoError(t, err)

	_, err = life.Transition(ctx, ra.ID, models.StatusVerifiedAuthorized, first)
	require.NoError(t, err)
	_, err = life.Transition(ctx, rb.ID, models.StatusVerifiedUnauthorized, second)
	require.NoError(t, err)

	b, err := store.GetBillboard(ctx, *ra.BillboardID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerifiedAuthorized, b.VerifiedStatus)
	assert.Equal(t, first.ID, *b.VerifiedBy)
	assert.Equal(t, 80, b.CrowdConfidence)
}

func TestTrustedEyeAfterThreeVerifications(t *testing.T) {
	ctx := context.Background()
	hashes := staticHasher{"1": "h1", "2": "h2", "3": "h3"}
	agg, life, store := newTestEngine(t, hashes)
	alice := uuid.New()

	for _, url := range []string{"1", "2", "3"} {
		r := draft(alice, url, conf(0.9), "size_violation")
		r.Location.ZoneID = "zone-" + url
		_, err := agg.LinkReport(ctx, r)
		require.NoError(t, err)
		_, err = life.Transition(ctx, r.ID, models.StatusVerifiedUnauthorized, admin())
		require.NoError(t, err)
	}

	u := store.user(alice)
	assert.Equal(t, 3, u.verified)
	assert.Equal(t, 240, u.xp)
	assert.Contains(t, u.badges, gamification.BadgeTrustedEye)
	assert.Contains(t, u.badges, gamification.BadgeZoneExpert)
	assert.Contains(t, u.badges, gamification.BadgeRookieReporter)
}

func TestVote(t *testing.T) {
	ctx := context.Background()
	agg, _, store := newTestEngine(t, staticHasher{"a": "h", "b": "h"})
	alice := uuid.New()

	ra := draft(alice, "a", conf(1))
	_, err := agg.LinkReport(ctx, ra)
	require.NoError(t, err)
	rb := draft(uuid.New(), "b", conf(0))
	_, err = agg.LinkReport(ctx, rb)
	require.NoError(t, err)

	_, err = agg.Vote(ctx, ra.ID, alice, 1)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = agg.Vote(ctx, ra.ID, uuid.New(), 2)
	assert.ErrorIs(t, err, ErrInvalidVote)

	var out *models.Report
	for i := 0; i < 10; i++ {
		out, err = agg.Vote(ctx, ra.ID, uuid.New(), 1)
		require.NoError(t, err)
	}
	flipper := uuid.New()
	_, err = agg.Vote(ctx, ra.ID, flipper, 1)
	require.NoError(t, err)
	out, err = agg.Vote(ctx, ra.ID, flipper, -1)
	require.NoError(t, err)

	assert.Equal(t, 10, out.Upvotes)
	assert.Equal(t, 1, out.Downvotes)
	assert.Equal(t, 9, out.CommunityTrustScore)

	b, err := store.GetBillboard(ctx, *ra.BillboardID)
	require.NoError(t, err)
	// 100*1.9 + 0*1 over 2.9
	assert.Equal(t, 66, b.CrowdConfidence)
	assert.Contains(t, store.user(alice).badges, gamification.BadgeCommunityFavorite)
}

func TestRecompute(t *testing.T) {
	ctx := context.Background()
	agg, _, _ := newTestEngine(t, staticHasher{"a": "h"})
	r := draft(uuid.New(), "a", conf(0.3))
	b, err := agg.LinkReport(ctx, r)
	require.NoError(t, err)

	again, err := agg.Recompute(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, again.CrowdConfidence)

	_, err = agg.Recompute(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnnotateAndEdit(t *testing.T) {
	ctx := context.Background()
	agg, life, _ := newTestEngine(t, staticHasher{"a": "h"})
	alice, mallory := uuid.New(), uuid.New()
	r := draft(alice, "a", conf(0.3))
	_, err := agg.LinkReport(ctx, r)
	require.NoError(t, err)

	edited, err := life.Edit(ctx, r.ID, "  structure leaning over the road ", Actor{ID: alice})
	require.NoError(t, err)
	assert.Equal(t, "structure leaning over the road", edited.IssueDescription)

	_, err = life.Edit(ctx, r.ID, "spam", Actor{ID: mallory})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = life.Annotate(ctx, r.ID, "checked", Actor{ID: alice})
	assert.ErrorIs(t, err, ErrForbidden)

	reviewer := admin()
	_, err = life.Transition(ctx, r.ID, models.StatusRejected, reviewer)
	require.NoError(t, err)

	noted, err := life.Annotate(ctx, r.ID, " duplicate of an approved site ", reviewer)
	require.NoError(t, err)
	assert.Equal(t, "duplicate of an approved site", noted.AdminNotes)
	assert.Equal(t, models.StatusRejected, noted.Status)

	_, err = life.Edit(ctx, r.ID, "too late", Actor{ID: alice})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestLateDuplicateWithoutStatusInheritsVerdict(t *testing.T) {
	ctx := context.Background()
	agg, life, store := newTestEngine(t, staticHasher{"a": "h", "b": "h"})
	alice, bob := uuid.New(), uuid.New()

	a := draft(alice, "a", conf(0.5))
	_, err := agg.LinkReport(ctx, a)
	require.NoError(t, err)
	_, err = life.Transition(ctx, a.ID, models.StatusVerifiedAuthorized, admin())
	require.NoError(t, err)

	b := draft(bob, "b", conf(0.5), "size_violation")
	require.Equal(t, models.ReportStatus(""), b.Status)
	_, err = agg.LinkReport(ctx, b)
	require.NoError(t, err)

	full := gamification.DefaultXP{}.Compute(b)
	assert.Equal(t, models.StatusVerifiedAuthorized, b.Status)
	assert.Equal(t, LateXP(full), b.XPAwarded)
	assert.Equal(t, LateXP(full), store.user(bob).xp)

	stored, err := store.GetReport(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerifiedAuthorized, stored.Status)
}

type brokenLocker struct{ err error }

func (l brokenLocker) Acquire(context.Context, string) (func(), error) { return nil, l.err }

func TestLockFailuresAreOnlyConflictsWhenContended(t *testing.T) {
	ctx := context.Background()
	newAgg := func(err error) (*Aggregator, *memStore) {
		store := newMemStore()
		return NewAggregator(store, staticHasher{"a": "h"}, brokenLocker{err: err}, nil), store
	}

	down := errors.New("redis: connection refused")
	agg, store := newAgg(down)
	attempts := 0
	err := Retry(ctx, DefaultRetries, func() error {
		attempts++
		_, err := agg.LinkReport(ctx, draft(uuid.New(), "a", conf(0.5)))
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, down)
	assert.NotErrorIs(t, err, ErrConcurrencyConflict)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 0, store.txCount)

	agg, _ = newAgg(lock.ErrNotAcquired)
	attempts = 0
	err = Retry(ctx, DefaultRetries, func() error {
		attempts++
		_, err := agg.LinkReport(ctx, draft(uuid.New(), "a", conf(0.5)))
		return err
	})
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.Equal(t, DefaultRetries, attempts)
}

func TestReviewStoresNotesWithStatus(t *testing.T) {
	ctx := context.Background()
	agg, life, store := newTestEngine(t, staticHasher{"a": "h"})
	r := draft(uuid.New(), "a", conf(0.4))
	_, err := agg.LinkReport(ctx, r)
	require.NoError(t, err)
	reviewer := admin()

	store.failSaves = 1
	_, err = life.Review(ctx, r.ID, models.StatusVerifiedUnauthorized, "matches permit 42", reviewer)
	require.ErrorIs(t, err, ErrConcurrencyConflict)

	unchanged, err := store.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, unchanged.Status)
	assert.Empty(t, unchanged.AdminNotes)

	before := store.txCount
	reviewed, err := life.Review(ctx, r.ID, models.StatusVerifiedUnauthorized, " matches permit 42 ", reviewer)
	require.NoError(t, err)
	assert.Equal(t, before+1, store.txCount)
	assert.Equal(t, models.StatusVerifiedUnauthorized, reviewed.Status)
	assert.Equal(t, "matches permit 42", reviewed.AdminNotes)

	stored, err := store.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerifiedUnauthorized, stored.Status)
	assert.Equal(t, "matches permit 42", stored.AdminNotes)
}
