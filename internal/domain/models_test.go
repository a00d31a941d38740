package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rulebook/internal/domain"
)

func TestCloneWithRules_DoesNotMutateReceiver(t *testing.T) {
	orig := &domain.ParsedHomeDetails{
		RawText:               "text",
		RawSmartHomeRulesText: []string{"a", "b"},
	}

	clone := orig.CloneWithRules([]domain.ParsedSmartHomeRule{{RuleRawText: "a"}})

	assert.Empty(t, orig.SmartHomeRules)
	assert.Len(t, clone.SmartHomeRules, 1)
	assert.Equal(t, orig.RawText, clone.RawText)
}

func TestHasRuleSnippets(t *testing.T) {
	assert.False(t, (&domain.ParsedHomeDetails{}).HasRuleSnippets())
	assert.True(t, (&domain.ParsedHomeDetails{RawSmartHomeRulesText: []string{"x"}}).HasRuleSnippets())
}

func TestRunStatusTerminal(t *testing.T) {
	assert.False(t, domain.RunStatusRunning.Terminal())
	assert.True(t, domain.RunStatusSuccessPersisted.Terminal())
	assert.True(t, domain.RunStatusSuccessNoChange.Terminal())
	assert.True(t, domain.RunStatusAbortedNoParse.Terminal())
	assert.True(t, domain.RunStatusAbortedReviewError.Terminal())
}

func TestAlignmentReportAligned(t *testing.T) {
	assert.True(t, (&domain.AlignmentReport{}).Aligned())
	assert.False(t, (&domain.AlignmentReport{MissingAreas: []string{"garage"}}).Aligned())
	assert.False(t, (&domain.AlignmentReport{UnmentionedPeople: []string{"guest"}}).Aligned())
}
