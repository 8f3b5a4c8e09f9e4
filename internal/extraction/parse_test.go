package extraction

import "testing"

func TestRecoverJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"bare object", `{"a": 1}`, true},
		{"fenced object", "Here you go:\n```json\n{\"a\": 1}\n```\nDone.", true},
		{"prose only", "This document appears to be an identity card.", false},
		{"empty", "", false},
		{"unbalanced", `{"a": 1`, false},
		{"reversed braces", `} nonsense {`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, ok := RecoverJSON(tc.raw)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && parsed == nil {
				t.Fatalf("expected parsed object")
			}
		})
	}
}

func TestRecoverJSONGreedySpan(t *testing.T) {
	// Two fragments: the greedy first-to-last span is not valid JSON, so
	// recovery fails and callers fall back to raw text. Known limitation.
	if _, ok := RecoverJSON(`{"a": 1} and also {"b": 2}`); ok {
		t.Fatalf("expected greedy span to fail parsing")
	}
}

func TestResolveAutoFlattens(t *testing.T) {
	parsed := map[string]any{
		"detected_type": "STNK",
		"fields":        map[string]any{"no_registrasi": "B123"},
	}
	docType, content, ok := ResolveAuto(parsed)
	if !ok {
		t.Fatalf("expected resolution")
	}
	if docType != "STNK" {
		t.Fatalf("docType = %q", docType)
	}
	if content["no_registrasi"] != "B123" {
		t.Fatalf("content not flattened: %v", content)
	}
	if _, has := content["detected_type"]; has {
		t.Fatalf("wrapper keys should not leak into content")
	}
}

func TestResolveAutoWithoutFields(t *testing.T) {
	parsed := map[string]any{
		"detected_type": "KTP",
		"nik":           "3201",
	}
	docType, content, ok := ResolveAuto(parsed)
	if !ok || docType != "KTP" {
		t.Fatalf("docType = %q ok = %v", docType, ok)
	}
	// No fields key: the whole object is the content.
	if content["nik"] != "3201" {
		t.Fatalf("content = %v", content)
	}
}

func TestResolveAutoNoDetectedType(t *testing.T) {
	parsed := map[string]any{"nik": "3201"}
	_, content, ok := ResolveAuto(parsed)
	if ok {
		t.Fatalf("expected ok=false without detected_type")
	}
	if content["nik"] != "3201" {
		t.Fatalf("content should pass through, got %v", content)
	}
}

func TestMimeTypeForFile(t *testing.T) {
	cases := []struct {
		name    string
		want    string
		allowed bool
	}{
		{"scan.jpg", "image/jpeg", true},
		{"scan.JPEG", "image/jpeg", true},
		{"scan.png", "image/png", true},
		{"scan.gif", "image/gif", true},
		{"scan.webp", "image/webp", true},
		{"doc.pdf", "application/pdf", true},
		{"doc.docx", "application/octet-stream", false},
		{"noext", "application/octet-stream", false},
	}
	for _, tc := range cases {
		got, ok := MimeTypeForFile(tc.name)
		if got != tc.want || ok != tc.allowed {
			t.Errorf("MimeTypeForFile(%q) = (%q, %v), want (%q, %v)", tc.name, got, ok, tc.want, tc.allowed)
		}
	}
}
