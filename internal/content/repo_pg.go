package content

import (
	"context"
	"database/sql"
	"errors"

	"careercoach-backend/internal/shared/storage/db"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const insertContent = `
INSERT INTO generated_content (id, user_id, content_type, prompt, result, storage_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (r *PGRepo) Create(ctx context.Context, item GeneratedContent) error {
	return r.CreateTx(ctx, r.DB, item)
}

// CreateTx inserts the record through tx so it commits together with the debit.
func (r *PGRepo) CreateTx(ctx context.Context, tx db.DBTX, item GeneratedContent) error {
	_, err := tx.ExecContext(ctx, insertContent,
		item.ID,
		item.UserID,
		string(item.ContentType),
		item.Prompt,
		item.Result,
		nullableString(item.StorageKey),
		item.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID, id string) (GeneratedContent, error) {
	const query = `
SELECT id, user_id, content_type, prompt, result, storage_key, created_at
FROM generated_content
WHERE id = $1
LIMIT 1`
	item, err := scanContent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GeneratedContent{}, ErrNotFound
		}
		return GeneratedContent{}, err
	}
	if item.UserID != userID {
		return GeneratedContent{}, ErrForbidden
	}
	return item, nil
}

// ListByUser lists records ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]GeneratedContent, error) {
	if limit <= 0 || limit > HistoryPageSize {
		limit = HistoryPageSize
	}
	const query = `
SELECT id, user_id, content_type, prompt, result, storage_key, created_at
FROM generated_content
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GeneratedContent{}
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContent(row scanner) (GeneratedContent, error) {
	var item GeneratedContent
	var contentType string
	var storageKey sql.NullString
	if err := row.Scan(
		&item.ID,
		&item.UserID,
		&contentType,
		&item.Prompt,
		&item.Result,
		&storageKey,
		&item.CreatedAt,
	); err != nil {
		return GeneratedContent{}, err
	}
	item.ContentType = Type(contentType)
	item.StorageKey = storageKey.String
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var (
	_ Repo     = (*PGRepo)(nil)
	_ Appender = (*PGRepo)(nil)
)
