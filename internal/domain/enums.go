package domain

// ParsedStatus indicates the outcome of a document parsing attempt.
type ParsedStatus string

const (
	ParsedStatusPending          ParsedStatus = "pending"
	ParsedStatusCompleted        ParsedStatus = "completed"
	ParsedStatusFailedValidation ParsedStatus = "failed_validation"
	ParsedStatusFailedExtraction ParsedStatus = "failed_extraction"
)

// ValidParsedStatuses enumerates the accepted parsed_status values.
var ValidParsedStatuses = map[ParsedStatus]bool{
	ParsedStatusPending:          true,
	ParsedStatusCompleted:        true,
	ParsedStatusFailedValidation: true,
	ParsedStatusFailedExtraction: true,
}

// RunStage identifies where in the pipeline state machine a run currently is.
type RunStage string

const (
	StageStart          RunStage = "start"
	StageInitialParsing RunStage = "initial_parsing"
	StageRuleFanOut     RunStage = "rule_fan_out"
	StageMerge          RunStage = "merge"
	StageReview         RunStage = "review"
	StagePersist        RunStage = "persist"
	StageDone           RunStage = "done"
)

// RunStatus is the terminal (or in-progress) status of a pipeline run.
type RunStatus string

const (
	RunStatusRunning            RunStatus = "running"
	RunStatusSuccessPersisted   RunStatus = "success-persisted"
	RunStatusSuccessNoChange    RunStatus = "success-no-change"
	RunStatusAbortedNoParse     RunStatus = "aborted-no-initial-parse"
	RunStatusAbortedReviewError RunStatus = "aborted-review-error"
)

// Terminal reports whether the status is a final one.
func (s RunStatus) Terminal() bool {
	return s != RunStatusRunning
}
