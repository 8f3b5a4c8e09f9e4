package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory Repo used for development and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{docs: make(map[string]Document)}
}

func (r *MemoryRepo) Create(_ context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = cloneDocument(doc)
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, userID, documentID string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.UserID != userID {
		return Document{}, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (r *MemoryRepo) Update(_ context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.docs[doc.ID]
	if !ok || existing.UserID != doc.UserID {
		return ErrNotFound
	}
	r.docs[doc.ID] = cloneDocument(doc)
	return nil
}

func (r *MemoryRepo) Delete(_ context.Context, userID, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.UserID != userID {
		return ErrNotFound
	}
	delete(r.docs, documentID)
	return nil
}

func (r *MemoryRepo) ListUnsaved(_ context.Context, userID string) ([]Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Document
	for _, doc := range r.docs {
		if doc.UserID == userID && !doc.Saved {
			out = append(out, cloneDocument(doc))
		}
	}
	sortByScannedAtDesc(out)
	return out, nil
}

func (r *MemoryRepo) ListRecent(ctx context.Context, userID string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 10
	}
	docs, err := r.ListUnsaved(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (r *MemoryRepo) ListSaved(_ context.Context, userID string, filter SavedFilter) ([]Document, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Document
	for _, doc := range r.docs {
		if doc.UserID != userID || !doc.Saved {
			continue
		}
		if !matchesFilter(doc, filter) {
			continue
		}
		matched = append(matched, cloneDocument(doc))
	}
	sortByScannedAtDesc(matched)
	total := len(matched)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func matchesFilter(doc Document, filter SavedFilter) bool {
	if filter.DocumentType != "" && doc.DocumentType != filter.DocumentType {
		return false
	}
	if filter.Status != "" && doc.Status != filter.Status {
		return false
	}
	if filter.NameContains != "" &&
		!strings.Contains(strings.ToLower(doc.FileName), strings.ToLower(filter.NameContains)) {
		return false
	}
	if filter.From != nil && doc.ScannedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && doc.ScannedAt.After(*filter.To) {
		return false
	}
	return true
}

func sortByScannedAtDesc(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].ScannedAt.Equal(docs[j].ScannedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ScannedAt.After(docs[j].ScannedAt)
	})
}

func cloneDocument(doc Document) Document {
	out := doc
	if doc.Content != nil {
		out.Content = make(Content, len(doc.Content))
		for k, v := range doc.Content {
			out.Content[k] = v
		}
	}
	if doc.ConfidenceScore != nil {
		v := *doc.ConfidenceScore
		out.ConfidenceScore = &v
	}
	return out
}

var _ Repo = (*MemoryRepo)(nil)
