package settings

import (
	"context"
	"errors"

	"docscan-backend/internal/ai"
)

// Service resolves AI engine credentials for a user, preferring their stored
// settings and falling back to the process-wide defaults.
type Service struct {
	Repo     Repo
	Fallback ai.Config
}

// ResolveAIConfig returns the engine config for a user. A user row with an
// empty key also falls back to the defaults; an entirely missing key is the
// caller's validation problem, reported as-is.
func (s *Service) ResolveAIConfig(ctx context.Context, userID string) (ai.Config, error) {
	cfg := s.Fallback

	if s.Repo != nil {
		stored, err := s.Repo.GetAISettings(ctx, userID)
		switch {
		case err == nil:
			if stored.APIKey != "" {
				cfg.APIKey = stored.APIKey
			}
			if stored.Model != "" {
				cfg.Model = stored.Model
			}
		case errors.Is(err, ErrNotFound):
			// keep fallback
		default:
			return ai.Config{}, err
		}
	}

	return cfg, nil
}
