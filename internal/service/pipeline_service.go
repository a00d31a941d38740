package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"rulebook/internal/domain"
	"rulebook/internal/extract"
	"rulebook/internal/port"
)

// PipelineAbortError reports that a required pipeline stage could not produce
// output. The run record carries the same information for later inspection.
type PipelineAbortError struct {
	Stage domain.RunStage
	Err   error
}

func (e *PipelineAbortError) Error() string {
	return fmt.Sprintf("pipeline aborted at stage %s: %v", e.Stage, e.Err)
}

func (e *PipelineAbortError) Unwrap() error {
	return e.Err
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	MaxInFlight int
	RunTimeout  time.Duration // 0 = unbounded
}

// ParseRulebookInput is the DTO for one pipeline invocation.
type ParseRulebookInput struct {
	EntryKey     string
	RulebookText string
}

// PipelineResult is the terminal outcome of a pipeline run.
type PipelineResult struct {
	Run         *domain.PipelineRun
	Document    *domain.ParsedHomeDetails
	Explanation string
}

// PipelineService orchestrates the rulebook parsing and review workflow.
type PipelineService interface {
	// ParseRulebook runs the full pipeline for one entry key: initial parse,
	// bounded rule fan-out, merge, significance review, and conditional
	// persist. On abort it returns the run record alongside a
	// *PipelineAbortError.
	ParseRulebook(ctx context.Context, input *ParseRulebookInput) (*PipelineResult, error)
	GetRun(ctx context.Context, id uuid.UUID) (*domain.PipelineRun, error)
	ListRuns(ctx context.Context, entryKey string, offset, limit int) ([]domain.PipelineRun, int, error)
}

type pipelineService struct {
	extractor port.StructuredExtractor
	store     port.RulebookStore
	runRepo   port.RunRepository
	fanout    *RuleFanout
	reviewer  *Reviewer
	cfg       PipelineConfig
}

// NewPipelineService creates a PipelineService.
func NewPipelineService(
	extractor port.StructuredExtractor,
	store port.RulebookStore,
	runRepo port.RunRepository,
	cfg PipelineConfig,
) PipelineService {
	return &pipelineService{
		extractor: extractor,
		store:     store,
		runRepo:   runRepo,
		fanout:    NewRuleFanout(extractor, cfg.MaxInFlight),
		reviewer:  NewReviewer(extractor),
		cfg:       cfg,
	}
}

func (s *pipelineService) ParseRulebook(ctx context.Context, input *ParseRulebookInput) (*PipelineResult, error) {
	if input.RulebookText == "" {
		return nil, domain.ErrEmptyRulebook
	}

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	run := &domain.PipelineRun{
		ID:        uuid.New(),
		EntryKey:  input.EntryKey,
		Stage:     domain.StageStart,
		Status:    domain.RunStatusRunning,
		Progress:  "starting rulebook parsing workflow",
		StartedAt: time.Now().UTC(),
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("creating pipeline run: %w", err)
	}

	// Stage: initial parsing
	s.advance(ctx, run, domain.StageInitialParsing, "parsing rulebook text")
	doc, err := s.initialParse(ctx, input.RulebookText)
	if err != nil {
		return s.abort(ctx, run, domain.RunStatusAbortedNoParse, domain.StageInitialParsing,
			fmt.Errorf("could not understand rulebook: %w", err))
	}

	// Stage: rule fan-out (skipped when no snippets were detected; an empty
	// rule list is a valid rulebook, not an error)
	rules := []domain.ParsedSmartHomeRule{}
	if doc.HasRuleSnippets() {
		s.advance(ctx, run, domain.StageRuleFanOut,
			fmt.Sprintf("parsing %d rule snippets (max %d in flight)", len(doc.RawSmartHomeRulesText), s.cfg.MaxInFlight))
		results := s.fanout.ParseRules(ctx, doc.RawSmartHomeRulesText)

		// Stage: merge, strictly in original snippet order, failed indices
		// omitted
		s.advance(ctx, run, domain.StageMerge, "merging parsed rules")
		for i := range doc.RawSmartHomeRulesText {
			res, ok := results[i]
			if !ok || res.Err != nil {
				continue
			}
			rules = append(rules, *res.Rule)
		}
		log.Printf("service.Pipeline: run %s merged %d/%d rules", run.ID, len(rules), len(doc.RawSmartHomeRulesText))
	} else {
		s.advance(ctx, run, domain.StageMerge, "no rule snippets detected")
	}
	doc = doc.CloneWithRules(rules)

	if err := ctx.Err(); err != nil {
		return s.abort(ctx, run, domain.RunStatusAbortedReviewError, domain.StageMerge,
			fmt.Errorf("run cancelled before review completed: %w", err))
	}

	// Stage: review against the previously stored document
	s.advance(ctx, run, domain.StageReview, "reviewing against stored rulebook")
	previous, err := s.store.Read(ctx, input.EntryKey)
	if err != nil && !errors.Is(err, domain.ErrNoStoredRulebook) {
		return s.abort(ctx, run, domain.RunStatusAbortedReviewError, domain.StageReview,
			fmt.Errorf("reading stored rulebook: %w", err))
	}

	decision, err := s.reviewer.Review(ctx, previous, doc)
	if err != nil {
		return s.abort(ctx, run, domain.RunStatusAbortedReviewError, domain.StageReview, err)
	}
	run.Significant = &decision.Significant
	run.Explanation = decision.Explanation

	if !decision.Significant {
		s.finish(ctx, run, domain.RunStatusSuccessNoChange)
		return &PipelineResult{Run: run, Document: doc, Explanation: decision.Explanation}, nil
	}

	// Stage: persist — the single mutating side effect of the whole run
	s.advance(ctx, run, domain.StagePersist, "storing updated rulebook")
	if err := s.store.Write(ctx, input.EntryKey, doc); err != nil {
		return s.abort(ctx, run, domain.RunStatusAbortedReviewError, domain.StagePersist,
			fmt.Errorf("writing rulebook: %w", err))
	}

	s.finish(ctx, run, domain.RunStatusSuccessPersisted)
	return &PipelineResult{Run: run, Document: doc, Explanation: decision.Explanation}, nil
}

// initialParse runs the whole-document extraction and decodes the result.
func (s *pipelineService) initialParse(ctx context.Context, rulebookText string) (*domain.ParsedHomeDetails, error) {
	out, err := s.extractor.Extract(ctx, port.ExtractInput{
		Instruction: extract.HomeDetailsInstruction(),
		ContextText: rulebookText,
		Schema:      extract.HomeDetailsSchema(),
	})
	if err != nil {
		return nil, err
	}

	var doc domain.ParsedHomeDetails
	if err := json.Unmarshal(out.Document, &doc); err != nil {
		return nil, fmt.Errorf("decoding parsed home details: %w", err)
	}

	// The document echoes the parse metadata; pin it to what actually
	// happened rather than trusting the model.
	doc.RawText = rulebookText
	doc.ParsedStatus = domain.ParsedStatusCompleted
	doc.ErrorMessage = ""
	return &doc, nil
}

// advance moves the run to a new stage and records a progress note. Progress
// is advisory only: a failed run-record update is logged, never fatal.
func (s *pipelineService) advance(ctx context.Context, run *domain.PipelineRun, stage domain.RunStage, progress string) {
	run.Stage = stage
	run.Progress = progress
	log.Printf("service.Pipeline: run %s [%s] %s", run.ID, stage, progress)
	if err := s.runRepo.Update(ctx, run); err != nil {
		log.Printf("service.Pipeline: failed to update run %s: %v", run.ID, err)
	}
}

func (s *pipelineService) finish(ctx context.Context, run *domain.PipelineRun, status domain.RunStatus) {
	now := time.Now().UTC()
	run.Stage = domain.StageDone
	run.Status = status
	run.Progress = "workflow finished"
	run.FinishedAt = &now
	log.Printf("service.Pipeline: run %s finished: %s", run.ID, status)
	if err := s.runRepo.Update(ctx, run); err != nil {
		log.Printf("service.Pipeline: failed to update run %s: %v", run.ID, err)
	}
}

func (s *pipelineService) abort(ctx context.Context, run *domain.PipelineRun, status domain.RunStatus, stage domain.RunStage, cause error) (*PipelineResult, error) {
	now := time.Now().UTC()
	run.Stage = stage
	run.Status = status
	run.Error = cause.Error()
	run.Progress = "workflow aborted"
	run.FinishedAt = &now
	log.Printf("service.Pipeline: run %s aborted at %s: %v", run.ID, stage, cause)
	if err := s.runRepo.Update(ctx, run); err != nil {
		log.Printf("service.Pipeline: failed to update run %s: %v", run.ID, err)
	}
	return &PipelineResult{Run: run}, &PipelineAbortError{Stage: stage, Err: cause}
}

func (s *pipelineService) GetRun(ctx context.Context, id uuid.UUID) (*domain.PipelineRun, error) {
	return s.runRepo.GetByID(ctx, id)
}

func (s *pipelineService) ListRuns(ctx context.Context, entryKey string, offset, limit int) ([]domain.PipelineRun, int, error) {
	return s.runRepo.ListByEntryKey(ctx, entryKey, offset, limit)
}
