package settings

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// GetAISettings returns the user's stored AI credentials.
func (r *PGRepo) GetAISettings(ctx context.Context, userID string) (AISettings, error) {
	const query = `
SELECT COALESCE(ai_api_key, ''), COALESCE(ai_model, '')
FROM user_settings
WHERE user_id = $1`

	var out AISettings
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&out.APIKey, &out.Model)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AISettings{}, ErrNotFound
		}
		return AISettings{}, err
	}
	return out, nil
}

var _ Repo = (*PGRepo)(nil)
