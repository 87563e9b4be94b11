// Package measure estimates the physical size of a photographed billboard
// from the camera's EXIF data.
package measure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

var (
	ErrNoExif         = errors.New("image has no exif data")
	ErrIncompleteExif = errors.New("incomplete exif data for measurement")
)

const (
	DefaultDistanceMeters = 10.0

	// Typical 1/2.3" phone sensor, used when the 35mm equivalent is missing.
	defaultSensorWidthMM  = 6.17
	defaultSensorHeightMM = 4.55

	fullFrameWidthMM  = 36.0
	fullFrameHeightMM = 24.0
)

// Exif holds the tags the estimator needs.
type Exif struct {
	FocalLengthMM   float64
	FocalLength35mm float64
	PixelWidth      int
	PixelHeight     int
	Orientation     int
	Latitude        *float64
	Longitude       *float64
}

// Dimensions are in meters.
type Dimensions struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation int     `json:"rotation"`
}

// Decode reads the EXIF block from an image stream.
func Decode(r io.Reader) (Exif, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return Exif{}, fmt.Errorf("%w: %v", ErrNoExif, err)
	}

	var e Exif
	if tag, err := x.Get(exif.FocalLength); err == nil {
		if v, err := tag.Float(0); err == nil {
			e.FocalLengthMM = v
		}
	}
	if tag, err := x.Get(exif.FocalLengthIn35mmFilm); err == nil {
		if v, err := tag.Int(0); err == nil {
			e.FocalLength35mm = float64(v)
		}
	}
	if tag, err := x.Get(exif.PixelXDimension); err == nil {
		if v, err := tag.Int(0); err == nil {
			e.PixelWidth = v
		}
	}
	if tag, err := x.Get(exif.PixelYDimension); err == nil {
		if v, err := tag.Int(0); err == nil {
			e.PixelHeight = v
		}
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			e.Orientation = v
		}
	}
	if lat, lon, err := x.LatLong(); err == nil {
		e.Latitude, e.Longitude = &lat, &lon
	}
	return e, nil
}

// SensorSize derives the sensor in millimetres from the 35mm crop factor, or
// falls back to a common phone sensor.
func (e Exif) SensorSize() (w, h float64) {
	if e.FocalLengthMM > 0 && e.FocalLength35mm > 0 {
		crop := e.FocalLength35mm / e.FocalLengthMM
		return fullFrameWidthMM / crop, fullFrameHeightMM / crop
	}
	return defaultSensorWidthMM, defaultSensorHeightMM
}

// Estimate applies the pinhole model: the frame spans distance*sensor/focal.
func Estimate(e Exif, distanceMeters float64) (Dimensions, error) {
	if distanceMeters <= 0 {
		distanceMeters = DefaultDistanceMeters
	}
	if e.FocalLengthMM <= 0 || e.PixelWidth <= 0 || e.PixelHeight <= 0 {
		return Dimensions{}, ErrIncompleteExif
	}

	sw, sh := e.SensorSize()
	// Pixel dimensions describe the stored frame; swap the sensor axes for
	// portrait captures.
	if e.PixelHeight > e.PixelWidth {
		sw, sh = sh, sw
	}

	return Dimensions{
		Width:    round2(distanceMeters * sw / e.FocalLengthMM),
		Height:   round2(distanceMeters * sh / e.FocalLengthMM),
		Rotation: rotation(e.Orientation),
	}, nil
}

func rotation(orientation int) int {
	switch orientation {
	case 3, 4:
		return 180
	case 5, 6:
		return 90
	case 7, 8:
		return 270
	default:
		return 0
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Estimator downloads report photos and estimates billboard size.
type Estimator struct {
	client   *http.Client
	distance float64
	timeout  time.Duration
	log      *slog.Logger
}

func NewEstimator(distanceMeters float64, timeout time.Duration, log *slog.Logger) *Estimator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Estimator{
		client:   &http.Client{},
		distance: distanceMeters,
		timeout:  timeout,
		log:      log,
	}
}

func (s *Estimator) FromURL(ctx context.Context, imageURL string) (Dimensions, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return Dimensions{}, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Dimensions{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Dimensions{}, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	e, err := Decode(resp.Body)
	if err != nil {
		return Dimensions{}, err
	}
	d, err := Estimate(e, s.distance)
	if err != nil {
		return Dimensions{}, err
	}
	s.log.Debug("estimated billboard dimensions", "url", imageURL, "width", d.Width, "height", d.Height)
	return d, nil
}
