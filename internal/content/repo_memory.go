package content

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores generated content in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]GeneratedContent
	byUser map[string][]GeneratedContent
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]GeneratedContent),
		byUser: make(map[string][]GeneratedContent),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, item GeneratedContent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[item.ID] = item
	r.byUser[item.UserID] = append(r.byUser[item.UserID], item)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, id string) (GeneratedContent, error) {
	if err := ctx.Err(); err != nil {
		return GeneratedContent{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.byID[id]
	if !ok {
		return GeneratedContent{}, ErrNotFound
	}
	if item.UserID != userID {
		return GeneratedContent{}, ErrForbidden
	}
	return item, nil
}

// ListByUser returns the user's records newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]GeneratedContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	items := make([]GeneratedContent, len(r.byUser[userID]))
	copy(items, r.byUser[userID])
	r.mu.RUnlock()

	// Reverse first so ties on CreatedAt list the latest insert first.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

var _ Repo = (*MemoryRepo)(nil)
