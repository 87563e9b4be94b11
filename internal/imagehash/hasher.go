// Package imagehash computes perceptual identity hashes for report photos so
// that photos of the same billboard match across resolutions and re-encodes.
package imagehash

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ErrIdentityHash means the image could not be fetched or decoded. Callers must
// reject the submission rather than fall back to a unique hash.
var ErrIdentityHash = errors.New("image identity hash failed")

const (
	defaultTimeout  = 15 * time.Second
	defaultMaxBytes = 20 << 20
)

// Hasher maps an image URL to its identity hash.
type Hasher interface {
	Hash(ctx context.Context, imageURL string) (string, error)
}

// HTTPHasher downloads the image and computes a pHash.
type HTTPHasher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

type Option func(*HTTPHasher)

func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPHasher) { h.client = c }
}

func WithTimeout(d time.Duration) Option {
	return func(h *HTTPHasher) {
		if d > 0 {
			h.timeout = d
		}
	}
}

func WithMaxBytes(n int64) Option {
	return func(h *HTTPHasher) {
		if n > 0 {
			h.maxBytes = n
		}
	}
}

func NewHTTPHasher(opts ...Option) *HTTPHasher {
	h := &HTTPHasher{
		client:   &http.Client{},
		timeout:  defaultTimeout,
		maxBytes: defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTPHasher) Hash(ctx context.Context, imageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIdentityHash, err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch %s: %v", ErrIdentityHash, imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: fetch %s: status %d", ErrIdentityHash, imageURL, resp.StatusCode)
	}

	return FromReader(io.LimitReader(resp.Body, h.maxBytes))
}

// FromReader decodes an image (honouring EXIF orientation) and hashes it.
func FromReader(r io.Reader) (string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrIdentityHash, err)
	}
	return FromImage(img)
}

func FromImage(img image.Image) (string, error) {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIdentityHash, err)
	}
	return hash.ToString(), nil
}

// Distance returns the Hamming distance between two hashes produced by this
// package.
func Distance(a, b string) (int, error) {
	ha, err := goimagehash.ImageHashFromString(a)
	if err != nil {
		return 0, err
	}
	hb, err := goimagehash.ImageHashFromString(b)
	if err != nil {
		return 0, err
	}
	return ha.Distance(hb)
}
