package extraction

import (
	"encoding/json"
	"strings"
)

// RecoverJSON pulls the first JSON object out of a free-text completion. It
// takes the substring from the first '{' to the last '}' and parses it, which
// is lossy when the text contains several JSON-like fragments but matches how
// engines wrap a single object in prose or code fences.
func RecoverJSON(raw string) (map[string]any, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

// ResolveAuto interprets an auto-detection payload. When the object carries a
// detected_type, that becomes the document type; a fields object, if present,
// replaces the wrapper as content. Without detected_type the payload is used
// unchanged and ok is false.
func ResolveAuto(parsed map[string]any) (docType string, content map[string]any, ok bool) {
	rawType, exists := parsed["detected_type"]
	detected, isString := rawType.(string)
	if !exists || !isString || strings.TrimSpace(detected) == "" {
		return "", parsed, false
	}

	content = parsed
	if rawFields, has := parsed["fields"]; has {
		if fields, isMap := rawFields.(map[string]any); isMap {
			content = fields
		}
	}
	return strings.TrimSpace(detected), content, true
}
