package documents

import (
	"context"
	"time"
)

// SavedFilter narrows and pages the saved-documents listing.
type SavedFilter struct {
	DocumentType string
	Status       string
	NameContains string
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// Repo persists documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	Update(ctx context.Context, doc Document) error
	Delete(ctx context.Context, userID, documentID string) error
	// ListUnsaved returns every unsaved document for a user, newest scan first.
	ListUnsaved(ctx context.Context, userID string) ([]Document, error)
	// ListRecent returns up to limit unsaved documents, newest scan first.
	ListRecent(ctx context.Context, userID string, limit int) ([]Document, error)
	// ListSaved returns a page of saved documents plus the total match count.
	ListSaved(ctx context.Context, userID string, filter SavedFilter) ([]Document, int, error)
}
