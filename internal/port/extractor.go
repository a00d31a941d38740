package port

import (
	"context"
	"encoding/json"
)

// FieldKind is the JSON type a schema field must hold.
type FieldKind string

const (
	KindString     FieldKind = "string"
	KindBool       FieldKind = "bool"
	KindStringList FieldKind = "string_list"
	KindObject     FieldKind = "object"
	KindObjectList FieldKind = "object_list"
)

// SchemaField describes one field of an extraction target schema.
type SchemaField struct {
	Name        string
	Kind        FieldKind
	Required    bool
	Description string
	Enum        []string      // allowed values for KindString fields, nil = unrestricted
	Properties  []SchemaField // nested fields for KindObject / KindObjectList
}

// Schema is a tagged descriptor of the structure an extraction call must
// return. It is interpreted uniformly by every extractor backend: rendered
// into the instruction text on the way out, and used to validate the
// response on the way back.
type Schema struct {
	Name   string
	Fields []SchemaField
}

// ExtractInput carries one structured-extraction request. Instruction may
// contain a "{context}" placeholder for ContextText; when absent the context
// is appended after the instruction.
type ExtractInput struct {
	Instruction string
	ContextText string
	Schema      *Schema

	// Strict rejects unknown fields in the response instead of ignoring them.
	Strict bool
}

// ExtractOutput is a schema-validated extraction result.
type ExtractOutput struct {
	Document  json.RawMessage
	ModelUsed string
}

// StructuredExtractor abstracts an LLM backend that turns instruction text
// plus a target schema into a validated JSON document. Implementations hold
// no per-call state and are safe for concurrent use.
type StructuredExtractor interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}
