package credits

import (
	"context"
	"database/sql"
	"errors"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed credit store.
func NewPGStore(db *sql.DB) Store {
	return &pgStore{DB: db}
}

func (s *pgStore) Credit(ctx context.Context, userID string, amount int) (int, error) {
	var balance int
	err := s.DB.QueryRowContext(ctx, `
UPDATE users SET credits = credits + $1, updated_at = now()
WHERE id = $2
RETURNING credits`, amount, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return balance, err
}

func (s *pgStore) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := s.DB.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = $1`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return balance, err
}
