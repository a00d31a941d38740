package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"rulebook/internal/port"
)

// circuitState tracks transient-failure backoff for a single extractor.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackExtractor tries extractors in order, skipping those with open
// circuits. A circuit opens when a provider fails transiently and closes
// once its retry-after window has passed. Non-transient failures propagate
// immediately: if the primary rejects a document as invalid, the secondary
// would be asked a different question than the one that failed.
type FallbackExtractor struct {
	extractors []port.StructuredExtractor
	circuits   []*circuitState
	names      []string
}

// NewFallbackExtractor creates a FallbackExtractor from an ordered list of
// extractors and their names.
func NewFallbackExtractor(extractors []port.StructuredExtractor, names []string) *FallbackExtractor {
	circuits := make([]*circuitState, len(extractors))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackExtractor{
		extractors: extractors,
		circuits:   circuits,
		names:      names,
	}
}

func (f *FallbackExtractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	now := time.Now()
	var lastErr error
	var earliestReset time.Time

	for i, ex := range f.extractors {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			log.Printf("extract.FallbackExtractor: skipping %s (circuit open until %s)", f.names[i], resetAt.Format(time.RFC3339))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := ex.Extract(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		var te *TransientError
		if !errors.As(err, &te) {
			return nil, err
		}

		log.Printf("extract.FallbackExtractor: %s failed transiently: %v", f.names[i], err)
		resetAt := now.Add(te.RetryAfter)
		f.circuits[i].open(resetAt)
		if earliestReset.IsZero() || resetAt.Before(earliestReset) {
			earliestReset = resetAt
		}
	}

	retryAfter := time.Until(earliestReset)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all extractors skipped (circuits open)")
	}
	return nil, NewTransientError("all", fmt.Errorf("all extractors unavailable: %w", lastErr), int(retryAfter.Seconds()))
}
