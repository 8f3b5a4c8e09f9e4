package settings

import (
	"context"
	"errors"
)

// AISettings are the per-user AI engine credentials.
type AISettings struct {
	APIKey string
	Model  string
}

// ErrNotFound indicates the user has no stored settings row.
var ErrNotFound = errors.New("settings not found")

// Repo provides read access to per-user settings. Settings CRUD is managed
// elsewhere; this core only reads the AI credentials.
type Repo interface {
	GetAISettings(ctx context.Context, userID string) (AISettings, error)
}
