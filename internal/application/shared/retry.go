package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/manufacturing/internal/domain/shared"
)

// DefaultMaxRetries is used when a service is configured with no retry budget
const DefaultMaxRetries = 5

// retryBackoff is the base delay between attempts; attempt n waits n*retryBackoff
var retryBackoff = 5 * time.Millisecond

// permanentError stops RetryOnConflict even when it wraps a conflict
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. RetryOnConflict returns the
// unwrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryOnConflict re-runs fn while it fails with shared.ErrConcurrencyConflict,
// up to maxRetries additional attempts. Any other error, and any error marked
// Permanent, is returned immediately.
func RetryOnConflict(ctx context.Context, maxRetries int, fn func(ctx context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}
		err = fn(ctx)
		var p *permanentError
		if errors.As(err, &p) {
			return p.err
		}
		if err == nil || !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", maxRetries+1, err)
}
