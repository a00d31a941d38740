package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"rulebook/internal/domain"
	"rulebook/internal/extract"
	"rulebook/internal/port"
)

// RuleResult is the outcome of one snippet extraction, keyed by the snippet's
// original index. Exactly one of Rule and Err is set.
type RuleResult struct {
	Rule *domain.ParsedSmartHomeRule
	Err  error
}

// RuleFanout runs one rule extraction per snippet with at most maxInFlight
// calls in progress concurrently. Individual failures are recorded per index
// and never abort the batch.
type RuleFanout struct {
	extractor   port.StructuredExtractor
	maxInFlight int
}

// NewRuleFanout creates a RuleFanout. maxInFlight values below 1 are raised
// to 1 so the admission gate always admits.
func NewRuleFanout(extractor port.StructuredExtractor, maxInFlight int) *RuleFanout {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &RuleFanout{extractor: extractor, maxInFlight: maxInFlight}
}

// ParseRules extracts every snippet and returns results keyed by original
// index. It returns only after all snippets have completed, succeeded or
// failed. An empty snippet list returns an empty map without touching the
// extractor.
func (f *RuleFanout) ParseRules(ctx context.Context, snippets []string) map[int]RuleResult {
	results := make(map[int]RuleResult, len(snippets))
	if len(snippets) == 0 {
		return results
	}

	// Each goroutine writes to its own index; the semaphore is the only
	// shared resource.
	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, f.maxInFlight)

	for i, snippet := range snippets {
		sem <- struct{}{} // acquire
		wg.Add(1)
		go func(idx int, text string) {
			defer wg.Done()
			defer func() { <-sem }() // release

			rule, err := f.parseOne(ctx, text)
			if err != nil {
				log.Printf("service.RuleFanout: snippet %d failed: %v", idx, err)
			}
			mu.Lock()
			results[idx] = RuleResult{Rule: rule, Err: err}
			mu.Unlock()
		}(i, snippet)
	}

	wg.Wait()
	return results
}

func (f *RuleFanout) parseOne(ctx context.Context, snippet string) (*domain.ParsedSmartHomeRule, error) {
	out, err := f.extractor.Extract(ctx, port.ExtractInput{
		Instruction: extract.RuleInstruction(),
		ContextText: snippet,
		Schema:      extract.RuleSchema(),
	})
	if err != nil {
		return nil, err
	}

	var rule domain.ParsedSmartHomeRule
	if err := json.Unmarshal(out.Document, &rule); err != nil {
		return nil, fmt.Errorf("decoding parsed rule: %w", err)
	}
	if rule.RuleRawText != snippet {
		// The contract is that rule_raw_text echoes the input snippet; restore
		// it rather than trusting the model's copy.
		rule.RuleRawText = snippet
	}
	return &rule, nil
}
