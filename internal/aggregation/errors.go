package aggregation

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/imagehash"
)

var (
	// ErrIdentityHash means the report photo could not be hashed. Nothing was
	// persisted.
	ErrIdentityHash = imagehash.ErrIdentityHash

	// ErrConcurrencyConflict means another writer updated the billboard first.
	// LinkReport is re-entrant, so the whole operation may be retried.
	ErrConcurrencyConflict = errors.New("concurrent billboard update")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidVote       = errors.New("vote must be +1 or -1")
)

// DefaultRetries is how many times callers retry a ConcurrencyConflict.
const DefaultRetries = 3

// Retry runs fn until it succeeds, fails with anything other than
// ErrConcurrencyConflict, or attempts are used up.
func Retry(ctx context.Context, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); !errors.Is(err, ErrConcurrencyConflict) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}
