package extraction

import (
	"context"
	"errors"
	"testing"

	"docscan-backend/internal/ai"
	"docscan-backend/internal/templates"
)

type fakeClient struct {
	response string
	err      error
	prompt   string
}

func (f *fakeClient) Complete(ctx context.Context, cfg ai.Config, req ai.Request) (string, error) {
	f.prompt = req.Prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testConfig() ai.Config {
	return ai.Config{APIKey: "test-key", Model: "test-model"}
}

func testTemplates() []templates.Template {
	return []templates.Template{
		{Name: "KTP", Description: "identity card", Fields: []templates.Field{{Name: "nik", Required: true}, {Name: "nama", Required: true}}, Active: true},
		{Name: "STNK", Description: "vehicle registration", Fields: []templates.Field{{Name: "no_registrasi", Required: true}}, Active: true},
	}
}

func TestExtractTypedPrompt(t *testing.T) {
	client := &fakeClient{response: `{"nik": "3201", "nama": "Budi"}`}
	o := &Orchestrator{Client: client}

	res, err := o.Extract(context.Background(), testConfig(), []byte("img"), "image/jpeg", "KTP", testTemplates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.DocumentType != "KTP" {
		t.Fatalf("documentType = %q", res.DocumentType)
	}
	if res.Content["nik"] != "3201" {
		t.Fatalf("content = %v", res.Content)
	}
	if res.Confidence != placeholderConfidence {
		t.Fatalf("confidence = %v", res.Confidence)
	}
	if res.Degraded {
		t.Fatalf("should not be degraded")
	}
}

func TestExtractAutoDetectFlattening(t *testing.T) {
	client := &fakeClient{response: `{"detected_type":"STNK","fields":{"no_registrasi":"B123"}}`}
	o := &Orchestrator{Client: client}

	res, err := o.Extract(context.Background(), testConfig(), []byte("img"), "image/jpeg", AutoType, testTemplates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.DocumentType != "STNK" {
		t.Fatalf("documentType = %q", res.DocumentType)
	}
	if res.Content["no_registrasi"] != "B123" {
		t.Fatalf("content not flattened: %v", res.Content)
	}
}

func TestExtractRawTextFallback(t *testing.T) {
	client := &fakeClient{response: "I could not find any structured data in this image."}
	o := &Orchestrator{Client: client}

	res, err := o.Extract(context.Background(), testConfig(), []byte("img"), "image/png", AutoType, testTemplates())
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	if !res.Degraded {
		t.Fatalf("expected degraded result")
	}
	if res.Content["raw_text"] != client.response {
		t.Fatalf("content = %v", res.Content)
	}
}

func TestExtractEngineFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("quota exceeded")}
	o := &Orchestrator{Client: client}

	_, err := o.Extract(context.Background(), testConfig(), []byte("img"), "image/jpeg", AutoType, testTemplates())
	if !errors.Is(err, ErrEngine) {
		t.Fatalf("expected ErrEngine, got %v", err)
	}
}

func TestExtractMissingAPIKey(t *testing.T) {
	o := &Orchestrator{Client: &fakeClient{response: "{}"}}

	_, err := o.Extract(context.Background(), ai.Config{Model: "m"}, []byte("img"), "image/jpeg", AutoType, nil)
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestExtractUnknownRequestedTypeFallsBackToAuto(t *testing.T) {
	client := &fakeClient{response: `{"detected_type":"Passport","fields":{"passport_no":"A1"}}`}
	o := &Orchestrator{Client: client}

	res, err := o.Extract(context.Background(), testConfig(), []byte("img"), "image/jpeg", "Passport", testTemplates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.DocumentType != "Passport" {
		t.Fatalf("documentType = %q", res.DocumentType)
	}
}

func TestConfidenceFromPayload(t *testing.T) {
	client := &fakeClient{response: `{"detected_type":"KTP","fields":{"nik":"1"},"confidence":87}`}
	o := &Orchestrator{Client: client}

	res, err := o.Extract(context.Background(), testConfig(), []byte("img"), "image/jpeg", AutoType, testTemplates())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Confidence != 87 {
		t.Fatalf("confidence = %v, want 87", res.Confidence)
	}
}
