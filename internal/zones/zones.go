// Package zones answers whether a coordinate falls inside a no-billboard zone.
package zones

import (
	"context"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

const defaultReason = "Restricted zone"

type zone struct {
	name   string
	reason string
	bound  orb.Bound
	geom   orb.Geometry
}

// Checker holds restricted-zone polygons loaded from a GeoJSON
// FeatureCollection. Features carry "name" and "reason" properties; only
// Polygon and MultiPolygon geometries are used.
type Checker struct {
	zones []zone
}

// Empty returns a checker with no zones.
func Empty() *Checker {
	return &Checker{}
}

func LoadFromFile(path string) (*Checker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read restricted zones: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Checker, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse restricted zones: %w", err)
	}

	c := &Checker{}
	for _, f := range fc.Features {
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			continue
		}
		reason := f.Properties.MustString("reason", "")
		name := f.Properties.MustString("name", "")
		if reason == "" {
			reason = defaultReason
			if name != "" {
				reason = defaultReason + ": " + name
			}
		}
		c.zones = append(c.zones, zone{
			name:   name,
			reason: reason,
			bound:  f.Geometry.Bound(),
			geom:   f.Geometry,
		})
	}
	return c, nil
}

func (c *Checker) Len() int {
	return len(c.zones)
}

// Check returns the reason of the first zone containing the point, or "".
func (c *Checker) Check(_ context.Context, lat, lon float64) (string, error) {
	p := orb.Point{lon, lat}
	for _, z := range c.zones {
		if !z.bound.Contains(p) {
			continue
		}
		switch g := z.geom.(type) {
		case orb.Polygon:
			if planar.PolygonContains(g, p) {
				return z.reason, nil
			}
		case orb.MultiPolygon:
			if planar.MultiPolygonContains(g, p) {
				return z.reason, nil
			}
		}
	}
	return "", nil
}
