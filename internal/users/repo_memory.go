package users

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo stores users in memory. It also owns the credit balance so the
// in-memory ledger and generation stores share one source of truth.
type MemoryRepo struct {
	mu     sync.RWMutex
	users  map[string]User
	byAuth map[string]string
	now    func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:  make(map[string]User),
		byAuth: make(map[string]string),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepo) Create(ctx context.Context, user User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byAuth[user.AuthID]; ok {
		return clone(r.users[id]), nil
	}
	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Skills == nil {
		user.Skills = []string{}
	}
	r.users[user.ID] = clone(user)
	r.byAuth[user.AuthID] = user.ID
	return clone(user), nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return clone(user), nil
}

func (r *MemoryRepo) GetByAuthID(ctx context.Context, authID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byAuth[authID]
	if !ok {
		return User{}, ErrNotFound
	}
	return clone(r.users[id]), nil
}

func (r *MemoryRepo) UpdateIdentity(ctx context.Context, userID, email, name, picture string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.Email = email
	user.Name = name
	user.PictureURL = picture
	user.UpdatedAt = r.now()
	r.users[userID] = user
	return nil
}

func (r *MemoryRepo) UpdateProfile(ctx context.Context, userID string, profile Profile) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	user.Industry = profile.Industry
	user.Experience = profile.Experience
	user.Bio = profile.Bio
	user.Skills = append([]string(nil), profile.Skills...)
	user.UpdatedAt = r.now()
	r.users[userID] = user
	return clone(user), nil
}

// Credits returns the user's balance.
func (r *MemoryRepo) Credits(ctx context.Context, userID string) (int, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Credits, nil
}

// AdjustCredits applies delta and returns the new balance. A result below zero
// is rejected with ErrNegativeBalance and leaves the balance unchanged.
func (r *MemoryRepo) AdjustCredits(ctx context.Context, userID string, delta int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return 0, ErrNotFound
	}
	if user.Credits+delta < 0 {
		return user.Credits, ErrNegativeBalance
	}
	user.Credits += delta
	user.UpdatedAt = r.now()
	r.users[userID] = user
	return user.Credits, nil
}

func clone(u User) User {
	if u.Skills != nil {
		u.Skills = append([]string(nil), u.Skills...)
	}
	if u.Experience != nil {
		exp := *u.Experience
		u.Experience = &exp
	}
	return u
}

var _ Repo = (*MemoryRepo)(nil)
