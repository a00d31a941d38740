package extract

import (
	"context"
	"errors"
	"log"
	"time"

	"rulebook/internal/port"
)

const maxRetryWait = 30 * time.Second

// RetryExtractor wraps a StructuredExtractor with a bounded retry loop.
// Only transient failures are retried; validation, policy, and configuration
// errors propagate immediately. Zero retries is the safe baseline, so this
// wrapper is only installed when a provider opts in via MaxRetries.
type RetryExtractor struct {
	inner      port.StructuredExtractor
	maxRetries int
}

// NewRetryExtractor creates a RetryExtractor with the given retry budget.
func NewRetryExtractor(inner port.StructuredExtractor, maxRetries int) *RetryExtractor {
	return &RetryExtractor{inner: inner, maxRetries: maxRetries}
}

func (r *RetryExtractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		out, err := r.inner.Extract(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		var te *TransientError
		if !errors.As(err, &te) {
			return nil, err
		}
		if attempt == r.maxRetries {
			break
		}

		wait := te.RetryAfter
		if wait > maxRetryWait {
			wait = maxRetryWait
		}
		log.Printf("extract.RetryExtractor: attempt %d failed (%v), retrying in %s", attempt+1, err, wait)
		select {
		case <-ctx.Done():
			return nil, ClassifyTransportError(te.Provider, ctx.Err())
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}
