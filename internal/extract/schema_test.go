package extract_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rulebook/internal/extract"
	"rulebook/internal/port"
)

func testSchema() *port.Schema {
	return &port.Schema{
		Name: "TestDoc",
		Fields: []port.SchemaField{
			{Name: "title", Kind: port.KindString, Required: true},
			{Name: "status", Kind: port.KindString, Enum: []string{"open", "closed"}},
			{Name: "active", Kind: port.KindBool},
			{Name: "tags", Kind: port.KindStringList, Required: true},
			{Name: "owner", Kind: port.KindObject, Properties: []port.SchemaField{
				{Name: "name", Kind: port.KindString, Required: true},
			}},
			{Name: "items", Kind: port.KindObjectList, Properties: []port.SchemaField{
				{Name: "id", Kind: port.KindString, Required: true},
			}},
		},
	}
}

func TestValidate_AcceptsConformingDocument(t *testing.T) {
	raw := json.RawMessage(`{
		"title": "a", "status": "open", "active": true, "tags": ["x"],
		"owner": {"name": "jo"}, "items": [{"id": "1"}, {"id": "2"}]
	}`)
	assert.NoError(t, extract.Validate(testSchema(), raw, false))
}

func TestValidate_MissingRequiredField(t *testing.T) {
	raw := json.RawMessage(`{"title": "a"}`)
	err := extract.Validate(testSchema(), raw, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tags")
}

func TestValidate_NullRequiredFieldIsMissing(t *testing.T) {
	raw := json.RawMessage(`{"title": null, "tags": []}`)
	err := extract.Validate(testSchema(), raw, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")
}

func TestValidate_NullOptionalFieldIsFine(t *testing.T) {
	raw := json.RawMessage(`{"title": "a", "tags": [], "status": null, "owner": null}`)
	assert.NoError(t, extract.Validate(testSchema(), raw, false))
}

func TestValidate_WrongType(t *testing.T) {
	raw := json.RawMessage(`{"title": 42, "tags": []}`)
	err := extract.Validate(testSchema(), raw, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected string")
}

func TestValidate_EnumRejectsUnknownValue(t *testing.T) {
	raw := json.RawMessage(`{"title": "a", "tags": [], "status": "archived"}`)
	err := extract.Validate(testSchema(), raw, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archived")
}

func TestValidate_NestedObjectRequiredField(t *testing.T) {
	raw := json.RawMessage(`{"title": "a", "tags": [], "owner": {}}`)
	err := extract.Validate(testSchema(), raw, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestValidate_ObjectListElementValidated(t *testing.T) {
	raw := json.RawMessage(`{"title": "a", "tags": [], "items": [{"id": "1"}, {}]}`)
	err := extract.Validate(testSchema(), raw, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "items[1]")
}

func TestValidate_LenientIgnoresUnknownFields(t *testing.T) {
	raw := json.RawMessage(`{"title": "a", "tags": [], "extra": "whatever"}`)
	assert.NoError(t, extract.Validate(testSchema(), raw, false))
}

func TestValidate_StrictRejectsUnknownFields(t *testing.T) {
	raw := json.RawMessage(`{"title": "a", "tags": [], "extra": "whatever"}`)
	err := extract.Validate(testSchema(), raw, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extra")
}

func TestValidate_NonObjectDocument(t *testing.T) {
	assert.Error(t, extract.Validate(testSchema(), json.RawMessage(`[1,2]`), false))
	assert.Error(t, extract.Validate(testSchema(), json.RawMessage(`not json`), false))
}

func TestHomeDetailsSchema_AcceptsTypicalDocument(t *testing.T) {
	raw := json.RawMessage(`{
		"raw_text": "My home...",
		"parsed_status": "completed",
		"error_message": null,
		"basic_info": {"home_name": "Casa", "default_language": "en"},
		"location_details": {"city": "Lisbon", "country": "Portugal"},
		"key_people": ["Ana", "Rui"],
		"floor_mentions": ["ground floor"],
		"area_mentions": ["kitchen", "living room"],
		"utility_provider_mentions": ["EDP for power"],
		"raw_smart_home_rules_text": ["Turn off lights at midnight."],
		"smart_home_rules": []
	}`)
	assert.NoError(t, extract.Validate(extract.HomeDetailsSchema(), raw, false))
}

func TestHomeDetailsSchema_RejectsBadStatus(t *testing.T) {
	raw := json.RawMessage(`{
		"raw_text": "x", "parsed_status": "done",
		"key_people": [], "floor_mentions": [], "area_mentions": [],
		"utility_provider_mentions": [], "raw_smart_home_rules_text": []
	}`)
	assert.Error(t, extract.Validate(extract.HomeDetailsSchema(), raw, false))
}

func TestRuleSchema_RequiresRawTextAndEntities(t *testing.T) {
	ok := json.RawMessage(`{"rule_raw_text": "x", "entities_mentioned": []}`)
	assert.NoError(t, extract.Validate(extract.RuleSchema(), ok, false))

	missing := json.RawMessage(`{"rule_name": "x", "entities_mentioned": []}`)
	assert.Error(t, extract.Validate(extract.RuleSchema(), missing, false))
}

func TestDecisionSchema_RequiresBothFields(t *testing.T) {
	ok := json.RawMessage(`{"significant": true, "explanation": "new areas"}`)
	assert.NoError(t, extract.Validate(extract.DecisionSchema(), ok, false))

	missing := json.RawMessage(`{"significant": false}`)
	assert.Error(t, extract.Validate(extract.DecisionSchema(), missing, false))
}

func TestPromptSpec_RendersFieldsAndEnums(t *testing.T) {
	spec := extract.PromptSpec(testSchema())

	assert.Contains(t, spec, "TestDoc")
	assert.Contains(t, spec, `"title" (string, required)`)
	assert.Contains(t, spec, "one of [open, closed]")
	assert.Contains(t, spec, `"name"`)
}
