package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, user_id, file_name, file_path, file_size, resolution, document_type, status, saved, content, confidence_score, processing_time, scanned_at, created_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id, user_id, file_name, file_path, file_size, resolution,
    document_type, status, saved, content, confidence_score,
    processing_time, scanned_at, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	contentJSON, err := marshalContent(doc.Content)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.FileName,
		nullString(doc.FilePath),
		doc.FileSize,
		doc.Resolution,
		doc.DocumentType,
		doc.Status,
		doc.Saved,
		contentJSON,
		nullFloat(doc.ConfidenceScore),
		doc.ProcessingTime,
		doc.ScannedAt,
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a document by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND id = $2
LIMIT 1`

	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, userID, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// Update overwrites the mutable columns of an existing document.
func (r *PGRepo) Update(ctx context.Context, doc Document) error {
	const query = `
UPDATE documents
SET file_name = $3,
    document_type = $4,
    status = $5,
    saved = $6,
    content = $7,
    confidence_score = $8,
    processing_time = $9,
    scanned_at = $10
WHERE user_id = $1 AND id = $2`

	contentJSON, err := marshalContent(doc.Content)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(
		ctx,
		query,
		doc.UserID,
		doc.ID,
		doc.FileName,
		doc.DocumentType,
		doc.Status,
		doc.Saved,
		contentJSON,
		nullFloat(doc.ConfidenceScore),
		doc.ProcessingTime,
		doc.ScannedAt,
	)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document row owned by the user.
func (r *PGRepo) Delete(ctx context.Context, userID, documentID string) error {
	const query = `DELETE FROM documents WHERE user_id = $1 AND id = $2`

	res, err := r.DB.ExecContext(ctx, query, userID, documentID)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUnsaved returns every unsaved document for a user, newest scan first.
func (r *PGRepo) ListUnsaved(ctx context.Context, userID string) ([]Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND NOT saved
ORDER BY scanned_at DESC`

	return r.queryDocuments(ctx, query, userID)
}

// ListRecent returns up to limit unsaved documents, newest scan first.
func (r *PGRepo) ListRecent(ctx context.Context, userID string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND NOT saved
ORDER BY scanned_at DESC
LIMIT $2`

	return r.queryDocuments(ctx, query, userID, limit)
}

// ListSaved returns a page of saved documents plus the total match count.
func (r *PGRepo) ListSaved(ctx context.Context, userID string, filter SavedFilter) ([]Document, int, error) {
	where := []string{"user_id = $1", "saved"}
	args := []any{userID}

	addArg := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.DocumentType != "" {
		addArg("document_type = $%d", filter.DocumentType)
	}
	if filter.Status != "" {
		addArg("status = $%d", filter.Status)
	}
	if filter.NameContains != "" {
		addArg("file_name ILIKE $%d", "%"+filter.NameContains+"%")
	}
	if filter.From != nil {
		addArg("scanned_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		addArg("scanned_at <= $%d", *filter.To)
	}

	whereClause := strings.Join(where, " AND ")

	countQuery := `SELECT COUNT(*) FROM documents WHERE ` + whereClause
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

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

	args = append(args, limit, offset)
	listQuery := fmt.Sprintf(`
SELECT %s
FROM documents
WHERE %s
ORDER BY scanned_at DESC
LIMIT $%d OFFSET $%d`, documentColumns, whereClause, len(args)-1, len(args))

	docs, err := r.queryDocuments(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (r *PGRepo) queryDocuments(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var filePath sql.NullString
	var confidence sql.NullFloat64
	var contentRaw []byte

	if err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&filePath,
		&doc.FileSize,
		&doc.Resolution,
		&doc.DocumentType,
		&doc.Status,
		&doc.Saved,
		&contentRaw,
		&confidence,
		&doc.ProcessingTime,
		&doc.ScannedAt,
		&doc.CreatedAt,
	); err != nil {
		return Document{}, err
	}

	if filePath.Valid {
		doc.FilePath = filePath.String
	}
	if confidence.Valid {
		v := confidence.Float64
		doc.ConfidenceScore = &v
	}
	if len(contentRaw) > 0 {
		if err := json.Unmarshal(contentRaw, &doc.Content); err != nil {
			return Document{}, fmt.Errorf("decode document content: %w", err)
		}
	}
	return doc, nil
}

func marshalContent(content Content) ([]byte, error) {
	if content == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encode document content: %w", err)
	}
	return b, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
