package templates

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// ListActive returns active global templates plus the user's own, ordered by name.
func (r *PGRepo) ListActive(ctx context.Context, userID string) ([]Template, error) {
	const query = `
SELECT id, COALESCE(user_id, ''), name, description, fields, is_active, created_at
FROM document_templates
WHERE is_active AND (user_id IS NULL OR user_id = $1)
ORDER BY name ASC`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

// GetActiveByName resolves a template visible to the user by exact name.
// A user-scoped template shadows a global template with the same name.
func (r *PGRepo) GetActiveByName(ctx context.Context, userID, name string) (Template, error) {
	const query = `
SELECT id, COALESCE(user_id, ''), name, description, fields, is_active, created_at
FROM document_templates
WHERE is_active AND name = $2 AND (user_id IS NULL OR user_id = $1)
ORDER BY user_id NULLS LAST
LIMIT 1`

	row := r.DB.QueryRowContext(ctx, query, userID, name)
	tpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Template{}, ErrNotFound
		}
		return Template{}, err
	}
	return tpl, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (Template, error) {
	var tpl Template
	var fieldsRaw []byte
	if err := row.Scan(&tpl.ID, &tpl.UserID, &tpl.Name, &tpl.Description, &fieldsRaw, &tpl.Active, &tpl.CreatedAt); err != nil {
		return Template{}, err
	}
	if len(fieldsRaw) > 0 {
		if err := json.Unmarshal(fieldsRaw, &tpl.Fields); err != nil {
			return Template{}, fmt.Errorf("decode template fields: %w", err)
		}
	}
	return tpl, nil
}

var _ Repo = (*PGRepo)(nil)
