package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/ourbooktalk/booktalk-backend/app/observability/metrics"
	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// CreateUserParams is what the registration flow persists. The hash is
// already computed; the repository never sees a plaintext password.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
}

// AuthRepo defines the credential-store contract consumed by the auth
// service. Lookups by email/username include the password hash (login needs
// it); lookups by id never do.
type AuthRepo interface {
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (*types.User, error)
}

// DBTX is the slice of pool behavior this repository needs. *pgxpool.Pool
// satisfies it in production; tests substitute a mock pool.
type DBTX interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DBTX = (*pgxpool.Pool)(nil)

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool DBTX
}

func NewPostgresAuthRepo(pgpool DBTX, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByEmail", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	var user types.User
	err := r.pgpool.QueryRow(ctx, `
		SELECT id, username, email, password_hash, first_name, last_name, bio, profile_picture,
		       followers_count, following_count, videos_count, created_at, updated_at
		FROM users WHERE email = $1`,
		email).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.Bio, &user.ProfilePicture,
		&user.Stats.Followers, &user.Stats.Following, &user.Stats.Videos,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
		}
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "GetUserByEmail query failed", slog.Any("error", err))
		return nil, fmt.Errorf("query users by email: %w", types.ErrUnavailable)
	}

	return &user, nil
}

func (r *PostgresAuthRepo) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByUsername", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	var user types.User
	err := r.pgpool.QueryRow(ctx,
		"SELECT id, username, email FROM users WHERE username = $1",
		username).Scan(&user.ID, &user.Username, &user.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
		}
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "GetUserByUsername query failed", slog.Any("error", err))
		return nil, fmt.Errorf("query users by username: %w", types.ErrUnavailable)
	}

	return &user, nil
}

// GetUserByID resolves a token claim to a live user. The password hash is
// deliberately not selected, so nothing downstream can leak it.
func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	var user types.User
	err := r.pgpool.QueryRow(ctx, `
		SELECT id, username, email, first_name, last_name, bio, profile_picture,
		       followers_count, following_count, videos_count, created_at, updated_at
		FROM users WHERE id = $1`,
		userID).Scan(&user.ID, &user.Username, &user.Email,
		&user.FirstName, &user.LastName, &user.Bio, &user.ProfilePicture,
		&user.Stats.Followers, &user.Stats.Following, &user.Stats.Videos,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
		}
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "GetUserByID query failed", slog.Any("error", err))
		return nil, fmt.Errorf("query users by id: %w", types.ErrUnavailable)
	}

	return &user, nil
}

// CreateUser inserts the new user row. The unique indexes on email and
// username are the authority for duplicates; a 23505 here means a concurrent
// registration won the race after the advisory pre-check passed.
func (r *PostgresAuthRepo) CreateUser(ctx context.Context, params CreateUserParams) (*types.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	var user types.User
	err := r.pgpool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, username, email, first_name, last_name, bio, profile_picture,
		          followers_count, following_count, videos_count, created_at, updated_at`,
		params.Username, params.Email, params.PasswordHash, params.FirstName, params.LastName,
	).Scan(&user.ID, &user.Username, &user.Email,
		&user.FirstName, &user.LastName, &user.Bio, &user.ProfilePicture,
		&user.Stats.Followers, &user.Stats.Following, &user.Stats.Videos,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return nil, fmt.Errorf("insert user: %w", types.ErrConflict)
		}
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "CreateUser insert failed", slog.Any("error", err))
		return nil, fmt.Errorf("insert user: %w", types.ErrUnavailable)
	}

	return &user, nil
}
