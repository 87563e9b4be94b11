// Package rules evaluates hoarding measurements against the static billboard
// regulations and produces a verdict the way the AI analysis would.
package rules

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/datatypes"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"
)

const (
	// Size thresholds are one-sided in opposite directions: narrow boards and
	// tall boards both fail.
	minApprovedWidth  = 60.0
	maxApprovedHeight = 20.0
	maxAngleDegrees   = 30.0

	confidenceViolation  = 0.95
	confidenceUnsure     = 0.5
	confidenceAuthorized = 0.9

	objectSize           = "oversized/undersized hoarding"
	objectAngle          = "improper angle"
	objectRestrictedZone = "restricted-zone"
)

var DefaultBannedKeywords = []string{"alcohol", "drugs", "nudity", "porn", "tobacco"}

type OCRItem struct {
	Text string `json:"text"`
}

type GPS struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Hoarding is one measured board as produced by the dimension estimator and OCR.
type Hoarding struct {
	Width   float64   `json:"width"`
	Height  float64   `json:"height"`
	Angle   float64   `json:"angle"`
	GPS     *GPS      `json:"gps,omitempty"`
	OCRText []OCRItem `json:"ocr_text,omitempty"`
}

// ZoneChecker returns a non-empty reason when the point lies in a zone where
// billboards are not allowed.
type ZoneChecker interface {
	Check(ctx context.Context, lat, lon float64) (string, error)
}

type Result struct {
	Violations []string          `json:"violations"`
	Analysis   models.AIAnalysis `json:"ai_analysis"`
}

type Engine struct {
	zones  ZoneChecker
	banned []string
	log    *slog.Logger
}

type Option func(*Engine)

// WithBannedKeywords replaces the content keyword list.
func WithBannedKeywords(words []string) Option {
	return func(e *Engine) {
		e.banned = make([]string, 0, len(words))
		for _, w := range words {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				e.banned = append(e.banned, w)
			}
		}
	}
}

// NewEngine builds a rule engine. zones may be nil, in which case no zone rule
// is asserted.
func NewEngine(zones ZoneChecker, log *slog.Logger, opts ...Option) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{zones: zones, banned: DefaultBannedKeywords, log: log}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate checks every rule independently; violations accumulate.
func (e *Engine) Evaluate(ctx context.Context, h Hoarding) Result {
	var violations, objects []string

	if h.Width <= minApprovedWidth || h.Height >= maxApprovedHeight {
		violations = append(violations, "Size not approved")
		objects = append(objects, objectSize)
	}

	if h.Angle > maxAngleDegrees {
		violations = append(violations, fmt.Sprintf("Hoarding angle > %g°", maxAngleDegrees))
		objects = append(objects, objectAngle)
	}

	for _, item := range h.OCRText {
		text := strings.ToLower(item.Text)
		for _, word := range e.banned {
			if strings.Contains(text, word) {
				violations = append(violations, "Content violation: "+word)
				objects = append(objects, word)
			}
		}
	}

	if h.GPS != nil && e.zones != nil {
		reason, err := e.zones.Check(ctx, h.GPS.Lat, h.GPS.Lon)
		switch {
		case err != nil:
			e.log.Warn("restricted zone check failed", "lat", h.GPS.Lat, "lon", h.GPS.Lon, "error", err)
		case reason != "":
			violations = append(violations, reason)
			objects = append(objects, objectRestrictedZone)
		}
	}

	return derive(violations, objects)
}

// EvaluateAll evaluates each hoarding in order.
func (e *Engine) EvaluateAll(ctx context.Context, hs []Hoarding) []Result {
	results := make([]Result, len(hs))
	for i, h := range hs {
		results[i] = e.Evaluate(ctx, h)
	}
	return results
}

// Combine folds several hoardings of one photo into a single report analysis.
func Combine(results []Result) Result {
	var violations, objects []string
	for _, r := range results {
		violations = append(violations, r.Violations...)
		objects = append(objects, r.Analysis.DetectedObjects...)
	}
	return derive(violations, objects)
}

func derive(violations, objects []string) Result {
	verdict := models.VerdictAuthorized
	confidence := confidenceAuthorized

	if len(violations) > 0 {
		verdict = models.VerdictUnauthorized
		confidence = confidenceViolation
	} else if len(objects) == 0 {
		verdict = models.VerdictUnsure
		confidence = confidenceUnsure
	}

	if objects == nil {
		objects = []string{}
	}
	return Result{
		Violations: violations,
		Analysis: models.AIAnalysis{
			Verdict:         verdict,
			Confidence:      &confidence,
			DetectedObjects: datatypes.JSONSlice[string](objects),
		},
	}
}
