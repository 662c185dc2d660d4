package openai

import "sort"

type InputRole string

const (
	RoleDeveloper InputRole = "developer"
	RoleUser      InputRole = "user"
	RoleAssistant InputRole = "assistant"
)

type Effort string

const (
	EffortMinimal Effort = "minimal"
	EffortLow     Effort = "low"
	EffortMedium  Effort = "medium"
	EffortHigh    Effort = "high"
)

type TextVerbosity string

const (
	TextVerbosityLow    TextVerbosity = "low"
	TextVerbosityMedium TextVerbosity = "medium"
	TextVerbosityHigh   TextVerbosity = "high"
)

/*
TextOptions configures the output format of a response:

	"text": { "format": { "type": "text" }, "verbosity": "low" }
	"text": { "format": { "type": "json_schema", "name": "...", "schema": {...}, "strict": true } }
*/
type TextOptions struct {
	Format    TextFormat    `json:"format"`
	Verbosity TextVerbosity `json:"verbosity,omitempty"`
}

// TextFormat: Name and Schema are required when Type is json_schema.
type TextFormat struct {
	Type   TextFormatType `json:"type"`
	Name   string         `json:"name,omitempty"`
	Schema map[string]any `json:"schema,omitempty"`
	Strict *bool          `json:"strict,omitempty"`
}

type TextFormatType string

const (
	TextFormatTypeText       TextFormatType = "text"
	TextFormatTypeJSONObject TextFormatType = "json_object"
	TextFormatTypeJSONSchema TextFormatType = "json_schema"
)

func TextAsPlain(verbosity TextVerbosity) TextOptions {
	return TextOptions{Format: TextFormat{Type: TextFormatTypeText}, Verbosity: verbosity}
}

func TextAsJSONSchema(name string, schema map[string]any, strict bool) TextOptions {
	return TextOptions{
		Format: TextFormat{
			Type:   TextFormatTypeJSONSchema,
			Name:   name,
			Schema: schema,
			Strict: &strict,
		},
	}
}

/*
StrictObj builds a strict JSON Schema object: every property is required
(sorted for determinism) and additional properties are rejected. Strict
structured outputs need exactly this shape at every object level.
*/
func StrictObj(props map[string]any) map[string]any {
	if props == nil {
		props = map[string]any{}
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
		"required":             keys,
	}
}

// Nullable is a schema for a value of jsonType that may also be null.
func Nullable(jsonType string, description string) map[string]any {
	return map[string]any{
		"type":        []string{jsonType, "null"},
		"description": description,
	}
}
