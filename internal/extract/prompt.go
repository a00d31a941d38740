package extract

import (
	"fmt"
	"strings"

	"rulebook/internal/port"
)

// ContextPlaceholder marks where the caller's context text is substituted
// into an instruction. Instructions without the placeholder get the context
// appended instead.
const ContextPlaceholder = "{context}"

const homeDetailsInstruction = `You are an expert at parsing free-form text rulebooks for smart homes. Your primary task is to understand and structure the entire rulebook provided below.
Analyze the rulebook text to identify:
1. Global/basic information (home name, location details, key people, default language).
2. Floors, areas and rooms mentioned anywhere in the text.
3. Utility providers (electricity, gas, internet, water) with names and service types.
4. Individual smart home rule descriptions. Copy each one verbatim into 'raw_smart_home_rules_text', one entry per rule; the rules themselves are parsed independently later, so leave 'smart_home_rules' empty.
Set 'raw_text' to the full input text and 'parsed_status' to "completed".
If a section of the rulebook is unclear or missing, use null or empty lists for the corresponding fields, but always return a valid JSON object matching the schema structure.

The user's rulebook is as follows:

{context}`

const ruleInstruction = `You are an expert at parsing individual smart home rules from text snippets. Analyze the provided snippet for a single smart home rule and extract its core components.
- 'rule_raw_text' MUST echo the original input snippet exactly.
- 'rule_name' is a concise, descriptive name for the rule (e.g. 'Turn on Porch Light at Sunset'); generate a suitable one if not obvious, or null if not determinable.
- 'entities_mentioned' lists every unique device, location, person, or concept mentioned in the rule (e.g. ['front door motion sensor', 'sunset', 'porch light', 'John']).
- 'core_logic_text' condenses the rule's trigger, conditions, and actions into one natural-language block for later fine-grained parsing, or null if unclear.
Here is an example.
Input rule text: 'When the front door motion sensor detects movement after sunset, turn on the porch light for 5 minutes and send a notification to John.'
Expected JSON output:
{
  "rule_raw_text": "When the front door motion sensor detects movement after sunset, turn on the porch light for 5 minutes and send a notification to John.",
  "rule_name": "Front Door Motion Light & Notify",
  "entities_mentioned": ["front door motion sensor", "sunset", "porch light", "John"],
  "core_logic_text": "If motion at front door after sunset, turn on porch light for 5 minutes and send notification to John."
}

The user's smart home rule text snippet is as follows:

{context}`

const reviewInstruction = `You are an expert at reviewing parsed smart home rulebooks. Compare the newly parsed rulebook JSON with the previous version and decide whether the changes are significant enough to warrant replacing the stored version.
A significant change includes modifications to structure or key information (areas, people, floors, utility providers, location, or the rule list) that would impact how the smart home operates or is understood. Minor formatting or rephrasing that does not alter meaning is not significant.
Set 'significant' accordingly and write a concise 'explanation'. When significant, name 1-2 concrete changed areas (e.g. 'new devices in the kitchen and updated utility providers'). When not significant, explain briefly why the changes do not matter.

{context}`

// HomeDetailsInstruction returns the document-level parsing instruction.
func HomeDetailsInstruction() string { return homeDetailsInstruction }

// RuleInstruction returns the per-snippet rule parsing instruction.
func RuleInstruction() string { return ruleInstruction }

// ReviewInstruction returns the significance review instruction. The context
// text is built with ReviewContext.
func ReviewInstruction() string { return reviewInstruction }

// ReviewContext renders the previous and candidate documents into the
// reviewer's context block. An absent previous document is rendered as {}.
func ReviewContext(previousJSON, candidateJSON string) string {
	if previousJSON == "" {
		previousJSON = "{}"
	}
	return fmt.Sprintf(
		"The previous parsed rulebook JSON is:\n\n%s\n\nThe new parsed rulebook JSON is:\n\n%s",
		previousJSON, candidateJSON,
	)
}

// BuildPrompt assembles the final prompt text from an extraction input:
// schema rendering, instruction, and context substitution.
func BuildPrompt(input port.ExtractInput) string {
	instruction := input.Instruction
	if strings.Contains(instruction, ContextPlaceholder) {
		instruction = strings.ReplaceAll(instruction, ContextPlaceholder, input.ContextText)
	} else if input.ContextText != "" {
		instruction = instruction + "\n\n" + input.ContextText
	}
	return instruction + "\n\n" + PromptSpec(input.Schema) +
		"\nReturn ONLY valid JSON with no markdown formatting, no code fences, no explanation."
}
