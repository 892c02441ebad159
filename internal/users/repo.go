package users

import "context"

type Repo interface {
	// Create inserts the user, or returns the existing row for the same AuthID.
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, userID string) (User, error)
	GetByAuthID(ctx context.Context, authID string) (User, error)
	UpdateIdentity(ctx context.Context, userID, email, name, picture string) error
	UpdateProfile(ctx context.Context, userID string, profile Profile) (User, error)
}
