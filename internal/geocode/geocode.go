// Package geocode resolves report coordinates to a street address.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Unknown is stored when an address or zone cannot be resolved.
const Unknown = "N/A"

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "Billguard/2.0"
)

type Place struct {
	Address string
	ZoneID  string
}

// Geocoder resolves coordinates. Implementations never fail the caller; an
// unresolvable point yields Unknown fields.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) Place
}

// Nominatim calls the OSM reverse endpoint.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
	log       *slog.Logger
}

func NewNominatim(baseURL, userAgent string, timeout time.Duration, log *slog.Logger) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Nominatim{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		log:       log,
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	OSMID       int64  `json:"osm_id"`
}

func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) Place {
	place, err := n.reverse(ctx, lat, lon)
	if err != nil {
		n.log.Warn("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		return Place{Address: Unknown, ZoneID: Unknown}
	}
	return place
}

func (n *Nominatim) reverse(ctx context.Context, lat, lon float64) (Place, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return Place{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("failed to call geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Place{}, fmt.Errorf("geocoder error (status %d)", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Place{}, fmt.Errorf("failed to decode response: %w", err)
	}

	place := Place{Address: body.DisplayName, ZoneID: Unknown}
	if place.Address == "" {
		place.Address = Unknown
	}
	if body.OSMID != 0 {
		place.ZoneID = strconv.FormatInt(body.OSMID, 10)
	}
	return place, nil
}

// Static returns the same place for every point. Used when geocoding is
// disabled.
type Static Place

func (s Static) Reverse(context.Context, float64, float64) Place {
	return Place(s)
}
