package credits

import (
	"context"
	"errors"

	"careercoach-backend/internal/users"
)

type memoryStore struct {
	users *users.MemoryRepo
}

// NewMemoryStore returns a Store backed by the in-memory users repo.
func NewMemoryStore(repo *users.MemoryRepo) Store {
	return &memoryStore{users: repo}
}

func (s *memoryStore) Credit(ctx context.Context, userID string, amount int) (int, error) {
	bal, err := s.users.AdjustCredits(ctx, userID, amount)
	if errors.Is(err, users.ErrNotFound) {
		return 0, ErrNotFound
	}
	return bal, err
}

func (s *memoryStore) Balance(ctx context.Context, userID string) (int, error) {
	bal, err := s.users.Credits(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return 0, ErrNotFound
	}
	return bal, err
}
