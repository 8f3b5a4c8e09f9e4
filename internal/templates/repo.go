package templates

import "context"

// Repo provides read access to document type templates. Template CRUD is
// managed elsewhere; this core only consumes them.
type Repo interface {
	// ListActive returns active global templates plus the user's own, ordered by name.
	ListActive(ctx context.Context, userID string) ([]Template, error)
	// GetActiveByName resolves a template visible to the user by exact name.
	GetActiveByName(ctx context.Context, userID, name string) (Template, error)
}
