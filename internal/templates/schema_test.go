package templates

import "testing"

func ktpTemplate() Template {
	return Template{
		Name: "KTP",
		Fields: []Field{
			{Name: "nik", Required: true},
			{Name: "nama", Required: true},
			{Name: "alamat"},
		},
		Active: true,
	}
}

func TestValidateContentAccepts(t *testing.T) {
	content := map[string]any{
		"nik":   "3201234567890001",
		"nama":  "Budi Santoso",
		"extra": "unexpected fields are fine",
	}
	if warnings := ValidateContent(ktpTemplate(), content); len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
}

func TestValidateContentMissingRequired(t *testing.T) {
	content := map[string]any{"alamat": "Jl. Merdeka 1"}
	warnings := ValidateContent(ktpTemplate(), content)
	if len(warnings) == 0 {
		t.Fatalf("expected a warning for missing required fields")
	}
}

func TestValidateContentNoFields(t *testing.T) {
	tpl := Template{Name: "Unknown"}
	if warnings := ValidateContent(tpl, map[string]any{"anything": 1}); warnings != nil {
		t.Fatalf("expected nil warnings for empty template, got %v", warnings)
	}
}
