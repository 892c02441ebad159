package users

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "auth_id", "email", "name", "picture_url", "credits",
		"industry", "experience", "bio", "skills", "created_at", "updated_at",
	})
}

func TestPGRepoGetByAuthIDScansNullableFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE auth_id = \\$1").
		WithArgs("google:1").
		WillReturnRows(userRows().AddRow("u1", "google:1", "a@example.com", "Ada", "", 4, nil, nil, nil, "{}", now, now))

	repo := &PGRepo{DB: db}
	user, err := repo.GetByAuthID(context.Background(), "google:1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, 4, user.Credits)
	assert.Empty(t, user.Industry)
	assert.Nil(t, user.Experience)
	assert.Equal(t, []string{}, user.Skills)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(userRows())

	repo := &PGRepo{DB: db}
	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPGRepoUpdateProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	exp := 5
	mock.ExpectQuery("UPDATE users SET industry").
		WithArgs("u1", "finance", 5, nil, sqlmock.AnyArg()).
		WillReturnRows(userRows().AddRow("u1", "google:1", "", "", "", 0, "finance", 5, nil, "{Excel,SQL}", now, now))

	repo := &PGRepo{DB: db}
	user, err := repo.UpdateProfile(context.Background(), "u1", Profile{Industry: "finance", Experience: &exp, Skills: []string{"Excel", "SQL"}})
	require.NoError(t, err)
	assert.Equal(t, "finance", user.Industry)
	require.NotNil(t, user.Experience)
	assert.Equal(t, 5, *user.Experience)
	assert.Equal(t, []string{"Excel", "SQL"}, user.Skills)
	require.NoError(t, mock.ExpectationsWereMet())
}
