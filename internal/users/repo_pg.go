package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, auth_id, email, name, picture_url, credits, industry, experience, bio, skills, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, user User) (User, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
INSERT INTO users (id, auth_id, email, name, picture_url, credits, skills, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, '{}', now(), now())
ON CONFLICT (auth_id) DO UPDATE SET auth_id = EXCLUDED.auth_id
RETURNING ` + userColumns
	return scanUser(r.DB.QueryRowContext(ctx, query,
		user.ID,
		user.AuthID,
		user.Email,
		user.Name,
		user.PictureURL,
		user.Credits,
	))
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, userID))
}

func (r *PGRepo) GetByAuthID(ctx context.Context, authID string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE auth_id = $1 LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, authID))
}

func (r *PGRepo) UpdateIdentity(ctx context.Context, userID, email, name, picture string) error {
	const query = `
UPDATE users SET email = $2, name = $3, picture_url = $4, updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID, email, name, picture)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) UpdateProfile(ctx context.Context, userID string, profile Profile) (User, error) {
	query := `
UPDATE users SET industry = $2, experience = $3, bio = $4, skills = $5, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns
	var experience any
	if profile.Experience != nil {
		experience = *profile.Experience
	}
	skills := profile.Skills
	if skills == nil {
		skills = []string{}
	}
	return scanUser(r.DB.QueryRowContext(ctx, query,
		userID,
		nullableString(profile.Industry),
		experience,
		nullableString(profile.Bio),
		pq.Array(skills),
	))
}

func scanUser(row *sql.Row) (User, error) {
	var user User
	var industry, bio sql.NullString
	var experience sql.NullInt64
	var skills []string
	err := row.Scan(
		&user.ID,
		&user.AuthID,
		&user.Email,
		&user.Name,
		&user.PictureURL,
		&user.Credits,
		&industry,
		&experience,
		&bio,
		pq.Array(&skills),
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.Industry = industry.String
	user.Bio = bio.String
	if experience.Valid {
		exp := int(experience.Int64)
		user.Experience = &exp
	}
	if skills == nil {
		skills = []string{}
	}
	user.Skills = skills
	return user, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
