package settings

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]AISettings
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]AISettings)}
}

// Put stores settings for a user.
func (r *MemoryRepo) Put(userID string, s AISettings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[userID] = s
}

// GetAISettings returns the user's stored AI credentials.
func (r *MemoryRepo) GetAISettings(ctx context.Context, userID string) (AISettings, error) {
	if err := ctx.Err(); err != nil {
		return AISettings{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.data[userID]
	if !ok {
		return AISettings{}, ErrNotFound
	}
	return s, nil
}

var _ Repo = (*MemoryRepo)(nil)
