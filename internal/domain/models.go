package domain

import (
	"time"

	"github.com/google/uuid"
)

// BasicInfo holds global information about the smart home setup.
type BasicInfo struct {
	HomeName        string `json:"home_name,omitempty"`
	DefaultLanguage string `json:"default_language,omitempty"`
}

// LocationDetails holds details about the home's location.
type LocationDetails struct {
	Description string `json:"description,omitempty"`
	Address     string `json:"address,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Country     string `json:"country,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

// ParsedSmartHomeRule is one automation rule extracted from a rulebook snippet.
// Only the directly extractable components are captured here; fine-grained
// trigger/condition/action parsing happens downstream on CoreLogicText.
type ParsedSmartHomeRule struct {
	RuleRawText       string   `json:"rule_raw_text"`
	RuleName          string   `json:"rule_name,omitempty"`
	EntitiesMentioned []string `json:"entities_mentioned"`
	CoreLogicText     string   `json:"core_logic_text,omitempty"`
}

// ParsedHomeDetails is the aggregate rulebook document. It is treated as an
// immutable value across pipeline stages: each stage that changes it produces
// a new document via CloneWithRules, and it only ever reaches storage through
// a whole-document write.
type ParsedHomeDetails struct {
	RawText      string       `json:"raw_text"`
	ParsedStatus ParsedStatus `json:"parsed_status"`
	ErrorMessage string       `json:"error_message,omitempty"`

	BasicInfo       *BasicInfo       `json:"basic_info,omitempty"`
	LocationDetails *LocationDetails `json:"location_details,omitempty"`

	KeyPeople               []string `json:"key_people"`
	FloorMentions           []string `json:"floor_mentions"`
	AreaMentions            []string `json:"area_mentions"`
	UtilityProviderMentions []string `json:"utility_provider_mentions"`

	// One entry per detected rule snippet. The index is the correlation key
	// for the fan-out stage; the merge step must never reorder it.
	RawSmartHomeRulesText []string `json:"raw_smart_home_rules_text"`

	// Populated after fan-out. May be shorter than RawSmartHomeRulesText when
	// individual snippet extractions failed.
	SmartHomeRules []ParsedSmartHomeRule `json:"smart_home_rules"`
}

// CloneWithRules returns a copy of the document with SmartHomeRules replaced.
// The receiver is not modified.
func (d *ParsedHomeDetails) CloneWithRules(rules []ParsedSmartHomeRule) *ParsedHomeDetails {
	out := *d
	out.SmartHomeRules = rules
	return &out
}

// HasRuleSnippets reports whether the initial parse detected any rule snippets.
func (d *ParsedHomeDetails) HasRuleSnippets() bool {
	return len(d.RawSmartHomeRulesText) > 0
}

// PipelineRun records one orchestrator invocation for an entry key.
type PipelineRun struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	EntryKey    string     `db:"entry_key" json:"entry_key"`
	Stage       RunStage   `db:"stage" json:"stage"`
	Status      RunStatus  `db:"status" json:"status"`
	Progress    string     `db:"progress" json:"progress"`
	Significant *bool      `db:"significant" json:"significant,omitempty"`
	Explanation string     `db:"explanation" json:"explanation,omitempty"`
	Error       string     `db:"error" json:"error,omitempty"`
	StartedAt   time.Time  `db:"started_at" json:"started_at"`
	FinishedAt  *time.Time `db:"finished_at" json:"finished_at,omitempty"`
}

// Area is an entry in the host platform's area registry.
type Area struct {
	ID        uuid.UUID `db:"id" json:"id"`
	EntryKey  string    `db:"entry_key" json:"entry_key"`
	Name      string    `db:"name" json:"name"`
	Floor     string    `db:"floor" json:"floor,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Person is an entry in the host platform's person registry.
type Person struct {
	ID        uuid.UUID `db:"id" json:"id"`
	EntryKey  string    `db:"entry_key" json:"entry_key"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AlignmentReport describes how the stored rulebook's mentions line up with
// the area and person registries for one entry key.
type AlignmentReport struct {
	EntryKey          string   `json:"entry_key"`
	MissingAreas      []string `json:"missing_areas"`      // mentioned in rulebook, absent from registry
	UnmentionedAreas  []string `json:"unmentioned_areas"`  // in registry, absent from rulebook
	MissingPeople     []string `json:"missing_people"`     // mentioned in rulebook, absent from registry
	UnmentionedPeople []string `json:"unmentioned_people"` // in registry, absent from rulebook
}

// Aligned reports whether the registries fully match the rulebook mentions.
func (r *AlignmentReport) Aligned() bool {
	return len(r.MissingAreas) == 0 && len(r.UnmentionedAreas) == 0 &&
		len(r.MissingPeople) == 0 && len(r.UnmentionedPeople) == 0
}
