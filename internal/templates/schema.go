package templates

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FieldSchema builds a JSON-Schema (draft 2020-12 subset) for a template's
// expected fields. Extracted values are free-form, so every property is an
// open type and unknown properties are allowed; only presence of required
// fields is enforced.
func FieldSchema(tpl Template) map[string]any {
	props := make(map[string]any, len(tpl.Fields))
	var required []string
	for _, f := range tpl.Fields {
		if f.Name == "" {
			continue
		}
		props[f.Name] = map[string]any{}
		if f.Required {
			required = append(required, f.Name)
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties":           props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ValidateContent checks extracted content against the template's field schema.
// Validation is advisory: it returns a warning instead of failing the scan.
func ValidateContent(tpl Template, content map[string]any) []string {
	if len(tpl.Fields) == 0 {
		return nil
	}

	schemaMap := FieldSchema(tpl)
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return []string{fmt.Sprintf("marshal schema: %v", err)}
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return []string{fmt.Sprintf("add schema: %v", err)}
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return []string{fmt.Sprintf("compile schema: %v", err)}
	}

	// Round-trip through JSON so nested values use plain interface types.
	data, err := json.Marshal(content)
	if err != nil {
		return []string{fmt.Sprintf("marshal content: %v", err)}
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return []string{fmt.Sprintf("unmarshal content: %v", err)}
	}

	if err := schema.Validate(v); err != nil {
		return []string{fmt.Sprintf("content does not match %s schema: %v", tpl.Name, err)}
	}
	return nil
}
