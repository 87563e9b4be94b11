package aggregation

import (
	"math"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"
)

const (
	absentConfidence   = 50.0
	verificationBoost  = 30.0
	trustSaturation    = 10.0
	lateReporterFactor = 0.3
)

// CrowdConfidence is the weighted mean of per-report confidence. Verified
// reports are boosted by 30 points and community trust adds up to one extra
// unit of weight. The result is in [0,100].
func CrowdConfidence(reports []models.Report) int {
	var sum, weights float64
	for i := range reports {
		r := &reports[i]

		base := absentConfidence
		if c := r.AIAnalysis.Confidence; c != nil {
			base = clamp(*c*100, 0, 100)
		}
		if r.Status.IsVerified() {
			base = math.Min(100, base+verificationBoost)
		}

		trust := math.Min(math.Max(float64(r.CommunityTrustScore), 0)/trustSaturation, 1)
		w := 1 + trust

		sum += base * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return int(math.Round(sum / weights))
}

// LateXP is the partial credit for confirming an already settled billboard.
func LateXP(fullXP int) int {
	return int(math.Round(float64(fullXP) * lateReporterFactor))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
