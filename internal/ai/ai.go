package ai

import (
	"context"
	"errors"
	"strings"
)

// Config carries per-call engine credentials. The API key is resolved per user,
// so clients must not cache it process-wide.
type Config struct {
	APIKey string
	Model  string
}

// Valid reports whether the config carries a usable key and model.
func (c Config) Valid() bool {
	return strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.Model) != ""
}

// Request is a single vision completion request: one image plus an instruction.
type Request struct {
	Prompt    string
	ImageData []byte
	MimeType  string
}

// VisionClient abstracts the AI inference engine. Complete returns the raw text
// completion; callers own all parsing of that text.
type VisionClient interface {
	Complete(ctx context.Context, cfg Config, req Request) (string, error)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("ai engine not configured")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, cfg Config, req Request) (string, error) {
	_ = ctx
	_ = cfg
	_ = req
	return "", ErrNotConfigured
}
