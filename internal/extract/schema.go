package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"rulebook/internal/port"
)

// HomeDetailsSchema returns the descriptor for the aggregate rulebook
// document produced by the initial whole-document parse.
func HomeDetailsSchema() *port.Schema {
	return &port.Schema{
		Name: "ParsedHomeDetails",
		Fields: []port.SchemaField{
			{Name: "raw_text", Kind: port.KindString, Required: true,
				Description: "The original, unprocessed rulebook text provided by the user."},
			{Name: "parsed_status", Kind: port.KindString, Required: true,
				Enum:        []string{"pending", "completed", "failed_validation", "failed_extraction"},
				Description: "Outcome of the parsing attempt."},
			{Name: "error_message", Kind: port.KindString,
				Description: "Detailed error message if parsing was not successful."},
			{Name: "basic_info", Kind: port.KindObject,
				Description: "Global information about the smart home setup.",
				Properties: []port.SchemaField{
					{Name: "home_name", Kind: port.KindString, Description: "Name of the smart home, if specified."},
					{Name: "default_language", Kind: port.KindString, Description: "Default language for interactions, if specified."},
				}},
			{Name: "location_details", Kind: port.KindObject,
				Description: "Details about the home's location.",
				Properties: []port.SchemaField{
					{Name: "description", Kind: port.KindString, Description: "Free-form description of the home's location."},
					{Name: "address", Kind: port.KindString, Description: "Street address of the home."},
					{Name: "city", Kind: port.KindString, Description: "City where the home is located."},
					{Name: "state", Kind: port.KindString, Description: "State or province where the home is located."},
					{Name: "country", Kind: port.KindString, Description: "Country where the home is located."},
					{Name: "timezone", Kind: port.KindString, Description: "Timezone of the home."},
				}},
			{Name: "key_people", Kind: port.KindStringList, Required: true,
				Description: "Names of key people residing in the home, in mention order."},
			{Name: "floor_mentions", Kind: port.KindStringList, Required: true,
				Description: "Text mentions of floors found in the rulebook (e.g. 'Ground floor', 'upstairs')."},
			{Name: "area_mentions", Kind: port.KindStringList, Required: true,
				Description: "Text mentions of areas or rooms found in the rulebook (e.g. 'living room', 'kitchen')."},
			{Name: "utility_provider_mentions", Kind: port.KindStringList, Required: true,
				Description: "Text mentions of utility providers found in the rulebook (e.g. 'City Electric for power')."},
			{Name: "raw_smart_home_rules_text", Kind: port.KindStringList, Required: true,
				Description: "Raw text snippets for individual smart home rules identified by the parser, one per rule."},
			{Name: "smart_home_rules", Kind: port.KindObjectList,
				Description: "Parsed individual smart home rules. Leave empty; rules are parsed separately.",
				Properties:  ruleFields()},
		},
	}
}

// RuleSchema returns the descriptor for one parsed smart home rule.
func RuleSchema() *port.Schema {
	return &port.Schema{Name: "ParsedSmartHomeRule", Fields: ruleFields()}
}

func ruleFields() []port.SchemaField {
	return []port.SchemaField{
		{Name: "rule_raw_text", Kind: port.KindString, Required: true,
			Description: "The original, unprocessed rule text snippet. Must always echo the input."},
		{Name: "rule_name", Kind: port.KindString,
			Description: "A concise, descriptive name for the rule, if clearly identifiable."},
		{Name: "entities_mentioned", Kind: port.KindStringList, Required: true,
			Description: "Textual mentions of devices, services, people, or concepts found in the snippet."},
		{Name: "core_logic_text", Kind: port.KindString,
			Description: "Condensed trigger/condition/action description for later fine-grained parsing."},
	}
}

// DecisionSchema returns the descriptor for the reviewer's significance
// decision.
func DecisionSchema() *port.Schema {
	return &port.Schema{
		Name: "ReviewDecision",
		Fields: []port.SchemaField{
			{Name: "significant", Kind: port.KindBool, Required: true,
				Description: "Whether the new rulebook differs from the previous one in ways that matter."},
			{Name: "explanation", Kind: port.KindString, Required: true,
				Description: "Short justification naming at least one concrete changed area when significant."},
		},
	}
}

// PromptSpec renders a schema descriptor into instruction text so every
// backend describes the target structure the same way.
func PromptSpec(s *port.Schema) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Respond with a single JSON object conforming to the '%s' schema:\n", s.Name)
	renderFields(&b, s.Fields, 0)
	return b.String()
}

func renderFields(b *strings.Builder, fields []port.SchemaField, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, f := range fields {
		req := "optional"
		if f.Required {
			req = "required"
		}
		fmt.Fprintf(b, "%s- %q (%s, %s)", indent, f.Name, f.Kind, req)
		if len(f.Enum) > 0 {
			fmt.Fprintf(b, " one of [%s]", strings.Join(f.Enum, ", "))
		}
		if f.Description != "" {
			fmt.Fprintf(b, ": %s", f.Description)
		}
		b.WriteString("\n")
		if len(f.Properties) > 0 {
			renderFields(b, f.Properties, depth+1)
		}
	}
}

// Validate checks raw against the schema descriptor. Required fields must be
// present and non-null; typed fields must hold the declared JSON type; enum
// fields must hold an allowed value. Unknown fields are ignored unless strict
// is set, in which case they are rejected.
func Validate(s *port.Schema, raw json.RawMessage, strict bool) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Errorf("document is not a JSON object: %w", err)
	}
	return validateObject(s.Name, s.Fields, obj, strict)
}

func validateObject(path string, fields []port.SchemaField, obj map[string]json.RawMessage, strict bool) error {
	byName := make(map[string]port.SchemaField, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	if strict {
		for key := range obj {
			if _, ok := byName[key]; !ok {
				return fmt.Errorf("%s: unknown field %q", path, key)
			}
		}
	}

	for _, f := range fields {
		val, present := obj[f.Name]
		isNull := present && string(val) == "null"
		if !present || isNull {
			if f.Required {
				return fmt.Errorf("%s: missing required field %q", path, f.Name)
			}
			continue
		}
		if err := validateValue(path+"."+f.Name, f, val, strict); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(path string, f port.SchemaField, val json.RawMessage, strict bool) error {
	switch f.Kind {
	case port.KindString:
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return fmt.Errorf("%s: expected string", path)
		}
		if len(f.Enum) > 0 && !enumContains(f.Enum, s) {
			return fmt.Errorf("%s: value %q not in enum [%s]", path, s, strings.Join(f.Enum, ", "))
		}
	case port.KindBool:
		var b bool
		if err := json.Unmarshal(val, &b); err != nil {
			return fmt.Errorf("%s: expected boolean", path)
		}
	case port.KindStringList:
		var items []string
		if err := json.Unmarshal(val, &items); err != nil {
			return fmt.Errorf("%s: expected array of strings", path)
		}
	case port.KindObject:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(val, &obj); err != nil {
			return fmt.Errorf("%s: expected object", path)
		}
		return validateObject(path, f.Properties, obj, strict)
	case port.KindObjectList:
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(val, &items); err != nil {
			return fmt.Errorf("%s: expected array of objects", path)
		}
		for i, item := range items {
			if err := validateObject(fmt.Sprintf("%s[%d]", path, i), f.Properties, item, strict); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%s: unknown field kind %q", path, f.Kind)
	}
	return nil
}

func enumContains(enum []string, v string) bool {
	for _, e := range enum {
		if e == v {
			return true
		}
	}
	return false
}
