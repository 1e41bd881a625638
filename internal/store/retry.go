package store

import (
	"context"
	"time"

	smerrors "github.com/botmaro/secrets-manager/internal/errors"
	"github.com/botmaro/secrets-manager/internal/logging"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	maxAttempts = 4
	baseDelay   = 200 * time.Millisecond
)

// withRetry runs fn with bounded exponential backoff on transient failures.
// Retries live here, at the store-adapter boundary, so the engine can treat
// every store call as already resilient. Context cancellation aborts between
// attempts.
func withRetry(ctx context.Context, logger *logging.Logger, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := baseDelay << (attempt - 1)
			logger.Debug("Retrying %s after %s (attempt %d/%d): %v", op, delay, attempt+1, maxAttempts, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		err = fn()
		if err == nil || !isRetryable(err) {
			return err
		}
	}
	return err
}

// isRetryable classifies transient failures by gRPC status first, falling
// back to message inspection for non-status errors.
func isRetryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
		return true
	case codes.OK, codes.NotFound, codes.PermissionDenied, codes.Unauthenticated, codes.InvalidArgument:
		return false
	}
	return smerrors.IsRetryable(err)
}
