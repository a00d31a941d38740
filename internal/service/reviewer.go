package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"strings"

	"rulebook/internal/domain"
	"rulebook/internal/extract"
	"rulebook/internal/port"
)

// ReviewDecision is the reviewer's verdict on a candidate document.
type ReviewDecision struct {
	Significant bool   `json:"significant"`
	Explanation string `json:"explanation"`
}

// Reviewer compares a previously stored document with a newly parsed
// candidate and decides whether the change is significant. Deterministic
// structural checks decide the clear-cut cases; only the ambiguous remainder
// is delegated to the extractor for judgment.
type Reviewer struct {
	extractor port.StructuredExtractor
}

// NewReviewer creates a Reviewer.
func NewReviewer(extractor port.StructuredExtractor) *Reviewer {
	return &Reviewer{extractor: extractor}
}

// Review decides significance for candidate relative to previous. A nil
// previous means no document has been stored yet, which is always
// significant. The extractor is consulted only when the structural diff is
// inconclusive; its failure is returned as an error because no safe decision
// exists without it.
func (r *Reviewer) Review(ctx context.Context, previous, candidate *domain.ParsedHomeDetails) (*ReviewDecision, error) {
	if previous == nil {
		return &ReviewDecision{
			Significant: true,
			Explanation: "No previously stored rulebook exists; storing the first parsed version.",
		}, nil
	}

	if changed := structuralChanges(previous, candidate); len(changed) > 0 {
		return &ReviewDecision{
			Significant: true,
			Explanation: fmt.Sprintf("Structural changes detected in: %s.", strings.Join(changed, ", ")),
		}, nil
	}

	if contentEqual(previous, candidate) {
		return &ReviewDecision{
			Significant: false,
			Explanation: "The parsed rulebook is identical to the stored version; no update is needed.",
		}, nil
	}

	return r.judge(ctx, previous, candidate)
}

// structuralChanges returns the names of coarse structural differences:
// changed list lengths and changed location or basic info. These are always
// significant without consulting the model.
func structuralChanges(prev, cand *domain.ParsedHomeDetails) []string {
	var changed []string
	if len(prev.KeyPeople) != len(cand.KeyPeople) {
		changed = append(changed, "key people")
	}
	if len(prev.FloorMentions) != len(cand.FloorMentions) {
		changed = append(changed, "floors")
	}
	if len(prev.AreaMentions) != len(cand.AreaMentions) {
		changed = append(changed, "areas")
	}
	if len(prev.UtilityProviderMentions) != len(cand.UtilityProviderMentions) {
		changed = append(changed, "utility providers")
	}
	if len(prev.RawSmartHomeRulesText) != len(cand.RawSmartHomeRulesText) {
		changed = append(changed, "smart home rules")
	}
	if !reflect.DeepEqual(normalizeBasicInfo(prev.BasicInfo), normalizeBasicInfo(cand.BasicInfo)) {
		changed = append(changed, "basic info")
	}
	if !reflect.DeepEqual(normalizeLocation(prev.LocationDetails), normalizeLocation(cand.LocationDetails)) {
		changed = append(changed, "location")
	}
	return changed
}

// contentEqual compares the parsed content of two documents, ignoring parse
// metadata (raw text, status, error message).
func contentEqual(a, b *domain.ParsedHomeDetails) bool {
	type content struct {
		Basic    domain.BasicInfo
		Location domain.LocationDetails
		People   []string
		Floors   []string
		Areas    []string
		Utils    []string
		RawRules []string
		Rules    []domain.ParsedSmartHomeRule
	}
	project := func(d *domain.ParsedHomeDetails) content {
		return content{
			Basic:    normalizeBasicInfo(d.BasicInfo),
			Location: normalizeLocation(d.LocationDetails),
			People:   d.KeyPeople,
			Floors:   d.FloorMentions,
			Areas:    d.AreaMentions,
			Utils:    d.UtilityProviderMentions,
			RawRules: d.RawSmartHomeRulesText,
			Rules:    d.SmartHomeRules,
		}
	}
	return reflect.DeepEqual(project(a), project(b))
}

func normalizeBasicInfo(b *domain.BasicInfo) domain.BasicInfo {
	if b == nil {
		return domain.BasicInfo{}
	}
	return *b
}

func normalizeLocation(l *domain.LocationDetails) domain.LocationDetails {
	if l == nil {
		return domain.LocationDetails{}
	}
	return *l
}

// judge delegates the ambiguous case to the extractor with the review
// instruction and decision schema.
func (r *Reviewer) judge(ctx context.Context, previous, candidate *domain.ParsedHomeDetails) (*ReviewDecision, error) {
	prevJSON, err := json.MarshalIndent(previous, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding previous document: %w", err)
	}
	candJSON, err := json.MarshalIndent(candidate, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding candidate document: %w", err)
	}

	out, err := r.extractor.Extract(ctx, port.ExtractInput{
		Instruction: extract.ReviewInstruction(),
		ContextText: extract.ReviewContext(string(prevJSON), string(candJSON)),
		Schema:      extract.DecisionSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("review judgment: %w", err)
	}

	var decision ReviewDecision
	if err := json.Unmarshal(out.Document, &decision); err != nil {
		return nil, fmt.Errorf("decoding review decision: %w", err)
	}
	log.Printf("service.Reviewer: model judged significant=%v (%s)", decision.Significant, decision.Explanation)
	return &decision, nil
}
