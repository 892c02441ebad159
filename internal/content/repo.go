package content

import (
	"context"

	"careercoach-backend/internal/shared/storage/db"
)

// Repo defines persistence operations for generated content.
type Repo interface {
	Create(ctx context.Context, item GeneratedContent) error
	GetByID(ctx context.Context, userID, id string) (GeneratedContent, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]GeneratedContent, error)
}

// Appender writes a record using a caller-provided handle, typically a transaction.
type Appender interface {
	CreateTx(ctx context.Context, tx db.DBTX, item GeneratedContent) error
}
