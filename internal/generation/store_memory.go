package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"careercoach-backend/internal/content"
	"careercoach-backend/internal/users"
)

type memoryStore struct {
	mu      sync.Mutex
	users   *users.MemoryRepo
	content *content.MemoryRepo
}

// NewMemoryStore builds a Store over the in-memory user and content repos.
func NewMemoryStore(userRepo *users.MemoryRepo, contentRepo *content.MemoryRepo) Store {
	return &memoryStore{users: userRepo, content: contentRepo}
}

func (s *memoryStore) Balance(ctx context.Context, userID string) (int, error) {
	balance, err := s.users.Credits(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return 0, ErrNotFound
	}
	return balance, err
}

func (s *memoryStore) Commit(ctx context.Context, userID string, cost int, record content.GeneratedContent) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining, err := s.users.AdjustCredits(ctx, userID, -cost)
	switch {
	case errors.Is(err, users.ErrNegativeBalance):
		return remaining, ErrInsufficientCredits
	case errors.Is(err, users.ErrNotFound):
		return 0, ErrNotFound
	case err != nil:
		return 0, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}

	if err := s.content.Create(ctx, record); err != nil {
		// Undo the debit; Create failing leaves no record behind.
		if _, refundErr := s.users.AdjustCredits(context.WithoutCancel(ctx), userID, cost); refundErr != nil {
			return 0, fmt.Errorf("%w: %w", ErrTransactionFailed, errors.Join(err, refundErr))
		}
		return 0, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	return remaining, nil
}
