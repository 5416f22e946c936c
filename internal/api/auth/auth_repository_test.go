package auth

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresAuthRepo) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool, NewPostgresAuthRepo(mockPool, slog.Default())
}

func fullUserRows() *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{
		"id", "username", "email", "password_hash", "first_name", "last_name",
		"bio", "profile_picture", "followers_count", "following_count",
		"videos_count", "created_at", "updated_at",
	}).AddRow(uuid.New(), "alice123", "alice@example.com", "$2a$10$hash",
		"Alice", "Smith", "", "", 0, 0, 0, now, now)
}

func TestGetUserByEmail(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)

		mockPool.ExpectQuery("SELECT (.+) FROM users WHERE email").
			WithArgs("alice@example.com").
			WillReturnRows(fullUserRows())

		user, err := repo.GetUserByEmail(context.Background(), "alice@example.com")
		assert.NoError(t, err)
		assert.Equal(t, "alice123", user.Username)
		assert.Equal(t, "$2a$10$hash", user.PasswordHash)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NoRows", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)

		mockPool.ExpectQuery("SELECT (.+) FROM users WHERE email").
			WithArgs("nobody@example.com").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetUserByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("StoreDown", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)

		mockPool.ExpectQuery("SELECT (.+) FROM users WHERE email").
			WithArgs("alice@example.com").
			WillReturnError(errors.New("connection refused"))

		_, err := repo.GetUserByEmail(context.Background(), "alice@example.com")
		assert.ErrorIs(t, err, types.ErrUnavailable)
	})
}

func TestGetUserByID(t *testing.T) {
	t.Run("NeverSelectsPasswordHash", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		userID := uuid.New()
		now := time.Now()

		rows := pgxmock.NewRows([]string{
			"id", "username", "email", "first_name", "last_name",
			"bio", "profile_picture", "followers_count", "following_count",
			"videos_count", "created_at", "updated_at",
		}).AddRow(userID, "alice123", "alice@example.com",
			"Alice", "Smith", "", "", 0, 0, 0, now, now)

		mockPool.ExpectQuery("SELECT (.+) FROM users WHERE id").
			WithArgs(userID).
			WillReturnRows(rows)

		user, err := repo.GetUserByID(context.Background(), userID)
		assert.NoError(t, err)
		assert.Empty(t, user.PasswordHash)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestCreateUser(t *testing.T) {
	params := CreateUserParams{
		Username:     "alice123",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		FirstName:    "Alice",
		LastName:     "Smith",
	}

	t.Run("UniqueViolationBecomesConflict", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)

		mockPool.ExpectQuery("INSERT INTO users").
			WithArgs(params.Username, params.Email, params.PasswordHash, params.FirstName, params.LastName).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		_, err := repo.CreateUser(context.Background(), params)
		assert.ErrorIs(t, err, types.ErrConflict)
	})

	t.Run("OtherErrorBecomesUnavailable", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)

		mockPool.ExpectQuery("INSERT INTO users").
			WithArgs(params.Username, params.Email, params.PasswordHash, params.FirstName, params.LastName).
			WillReturnError(errors.New("broken pipe"))

		_, err := repo.CreateUser(context.Background(), params)
		assert.ErrorIs(t, err, types.ErrUnavailable)
	})
}
