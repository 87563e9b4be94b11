package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"
)

type zoneFunc func(ctx context.Context, lat, lon float64) (string, error)

func (f zoneFunc) Check(ctx context.Context, lat, lon float64) (string, error) { return f(ctx, lat, lon) }

func TestEvaluateSizeRuleAsymmetry(t *testing.T) {
	e := NewEngine(nil, nil)
	ctx := context.Background()

	wide := e.Evaluate(ctx, Hoarding{Width: 200, Height: 25, Angle: 10})
	assert.Equal(t, models.VerdictUnauthorized, wide.Analysis.Verdict)
	assert.Contains(t, wide.Violations, "Size not approved")

	narrow := e.Evaluate(ctx, Hoarding{Width: 40, Height: 10, Angle: 10})
	assert.Equal(t, models.VerdictUnauthorized, narrow.Analysis.Verdict)
	assert.Contains(t, narrow.Violations, "Size not approved")

	ok := e.Evaluate(ctx, Hoarding{Width: 61, Height: 19.9, Angle: 30})
	assert.Empty(t, ok.Violations)
}

func TestEvaluateAngleAndContent(t *testing.T) {
	e := NewEngine(nil, nil)
	res := e.Evaluate(context.Background(), Hoarding{
		Width:  100,
		Height: 10,
		Angle:  45,
		OCRText: []OCRItem{
			{Text: "Cheap ALCOHOL and Tobacco"},
			{Text: "no drugs"},
		},
	})

	assert.Equal(t, []string{
		"Hoarding angle > 30°",
		"Content violation: alcohol",
		"Content violation: tobacco",
		"Content violation: drugs",
	}, res.Violations)
	assert.Equal(t, []string{"improper angle", "alcohol", "tobacco", "drugs"}, []string(res.Analysis.DetectedObjects))
	require.NotNil(t, res.Analysis.Confidence)
	assert.Equal(t, 0.95, *res.Analysis.Confidence)
}

func TestEvaluateNoDetectionsIsUnsure(t *testing.T) {
	e := NewEngine(nil, nil)
	res := e.Evaluate(context.Background(), Hoarding{Width: 100, Height: 10, Angle: 5})

	assert.Equal(t, models.VerdictUnsure, res.Analysis.Verdict)
	require.NotNil(t, res.Analysis.Confidence)
	assert.Equal(t, 0.5, *res.Analysis.Confidence)
	assert.NotNil(t, res.Analysis.DetectedObjects)
}

func TestEvaluateRestrictedZone(t *testing.T) {
	zones := zoneFunc(func(_ context.Context, lat, lon float64) (string, error) {
		if lat == 1 && lon == 2 {
			return "Within 100m of a school", nil
		}
		return "", nil
	})
	e := NewEngine(zones, nil)

	res := e.Evaluate(context.Background(), Hoarding{Width: 100, Height: 10, GPS: &GPS{Lat: 1, Lon: 2}})
	assert.Equal(t, []string{"Within 100m of a school"}, res.Violations)
	assert.Equal(t, []string{"restricted-zone"}, []string(res.Analysis.DetectedObjects))
	assert.Equal(t, models.VerdictUnauthorized, res.Analysis.Verdict)
}

func TestEvaluateZoneFailureIsSoft(t *testing.T) {
	zones := zoneFunc(func(context.Context, float64, float64) (string, error) {
		return "", errors.New("zone service down")
	})
	e := NewEngine(zones, nil)

	res := e.Evaluate(context.Background(), Hoarding{Width: 30, Height: 10, GPS: &GPS{Lat: 1, Lon: 2}})
	assert.Equal(t, []string{"Size not approved"}, res.Violations)
	assert.Equal(t, models.VerdictUnauthorized, res.Analysis.Verdict)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	e := NewEngine(nil, nil)
	h := Hoarding{Width: 50, Height: 30, Angle: 31, OCRText: []OCRItem{{Text: "porn"}}}
	assert.Equal(t, e.Evaluate(context.Background(), h), e.Evaluate(context.Background(), h))
}

func TestWithBannedKeywords(t *testing.T) {
	e := NewEngine(nil, nil, WithBannedKeywords([]string{" Casino ", ""}))
	res := e.Evaluate(context.Background(), Hoarding{Width: 100, Height: 10, OCRText: []OCRItem{{Text: "casino night, alcohol"}}})
	assert.Equal(t, []string{"Content violation: casino"}, res.Violations)
}

func TestCombine(t *testing.T) {
	e := NewEngine(nil, nil)
	results := e.EvaluateAll(context.Background(), []Hoarding{
		{Width: 100, Height: 10},
		{Width: 100, Height: 10, Angle: 40},
	})
	require.Len(t, results, 2)
	assert.Equal(t, models.VerdictUnsure, results[0].Analysis.Verdict)

	combined := Combine(results)
	assert.Equal(t, models.VerdictUnauthorized, combined.Analysis.Verdict)
	assert.Equal(t, []string{"Hoarding angle > 30°"}, combined.Violations)

	empty := Combine(nil)
	assert.Equal(t, models.VerdictUnsure, empty.Analysis.Verdict)
}
