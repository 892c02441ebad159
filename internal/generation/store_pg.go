package generation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"careercoach-backend/internal/content"
	"careercoach-backend/internal/shared/storage/db"
)

const conditionalDebit = `
UPDATE users SET credits = credits - $1, updated_at = now()
WHERE id = $2 AND credits >= $1
RETURNING credits`

var errDebitRefused = errors.New("debit refused")

type pgStore struct {
	DB       *sql.DB
	Appender content.Appender
}

// NewPGStore constructs a Postgres-backed store. History rows are written
// through appender inside the debit transaction.
func NewPGStore(database *sql.DB, appender content.Appender) Store {
	return &pgStore{DB: database, Appender: appender}
}

func (s *pgStore) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := s.DB.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = $1`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return balance, err
}

func (s *pgStore) Commit(ctx context.Context, userID string, cost int, record content.GeneratedContent) (int, error) {
	var remaining int
	err := db.WithTx(ctx, s.DB, nil, func(ctx context.Context, tx db.DBTX) error {
		err := tx.QueryRowContext(ctx, conditionalDebit, cost, userID).Scan(&remaining)
		if errors.Is(err, sql.ErrNoRows) {
			return errDebitRefused
		}
		if err != nil {
			return fmt.Errorf("debit: %w", err)
		}
		if err := s.Appender.CreateTx(ctx, tx, record); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		return nil
	})
	if errors.Is(err, errDebitRefused) {
		// Zero rows: either the user vanished or the balance no longer covers cost.
		balance, balanceErr := s.Balance(ctx, userID)
		if balanceErr != nil {
			return 0, balanceErr
		}
		return balance, ErrInsufficientCredits
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	return remaining, nil
}
