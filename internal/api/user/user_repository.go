package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

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

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for profile, follow, bookmark and
// to-be-read persistence.
type UserRepo interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error)

	Follow(ctx context.Context, followerID, followeeID uuid.UUID) error
	Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error

	AddBookmark(ctx context.Context, userID, videoID uuid.UUID) error
	RemoveBookmark(ctx context.Context, userID, videoID uuid.UUID) error
	ListBookmarks(ctx context.Context, userID uuid.UUID) ([]types.Video, error)

	AddTBR(ctx context.Context, userID, bookID uuid.UUID) error
	RemoveTBR(ctx context.Context, userID, bookID uuid.UUID) error
	ListTBR(ctx context.Context, userID uuid.UUID) ([]types.Book, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresUserRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

// wrapQueryErr translates storage failures into domain sentinels and counts
// them; pgx.ErrNoRows becomes ErrNotFound.
func (r *PostgresUserRepo) wrapQueryErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, types.ErrNotFound)
	}
	metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
	r.logger.ErrorContext(ctx, "Query failed", slog.String("op", op), slog.Any("error", err))
	return fmt.Errorf("%s: %w", op, types.ErrUnavailable)
}

func (r *PostgresUserRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "GetProfile", trace.WithAttributes(
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
		return nil, r.wrapQueryErr(ctx, "get profile", err)
	}

	return &user, nil
}

func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "UpdateProfile", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	var setClauses []string
	var args []interface{}
	argID := 1

	addClause := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, value)
		argID++
	}

	if params.Username != nil {
		addClause("username", *params.Username)
	}
	if params.FirstName != nil {
		addClause("first_name", *params.FirstName)
	}
	if params.LastName != nil {
		addClause("last_name", *params.LastName)
	}
	if params.Bio != nil {
		addClause("bio", *params.Bio)
	}
	if params.ProfilePicture != nil {
		addClause("profile_picture", *params.ProfilePicture)
	}

	if len(setClauses) == 0 {
		return r.GetProfile(ctx, userID)
	}

	addClause("updated_at", time.Now())
	args = append(args, userID)

	query := fmt.Sprintf(`
		UPDATE users SET %s WHERE id = $%d
		RETURNING id, username, email, first_name, last_name, bio, profile_picture,
		          followers_count, following_count, videos_count, created_at, updated_at`,
		strings.Join(setClauses, ", "), argID)

	var user types.User
	err := r.pgpool.QueryRow(ctx, query, args...).Scan(&user.ID, &user.Username, &user.Email,
		&user.FirstName, &user.LastName, &user.Bio, &user.ProfilePicture,
		&user.Stats.Followers, &user.Stats.Following, &user.Stats.Videos,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return nil, fmt.Errorf("update profile: %w", types.ErrConflict)
		}
		return nil, r.wrapQueryErr(ctx, "update profile", err)
	}

	return &user, nil
}

// Follow records the edge and bumps both denormalized counters in one
// transaction.
func (r *PostgresUserRepo) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "Follow", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "follows"),
	))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return r.wrapQueryErr(ctx, "follow", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		"INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2)",
		followerID, followeeID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // already following
				return fmt.Errorf("follow: %w", types.ErrConflict)
			case "23503": // followee does not exist
				return fmt.Errorf("follow: %w", types.ErrNotFound)
			}
		}
		return r.wrapQueryErr(ctx, "follow", err)
	}

	if _, err = tx.Exec(ctx,
		"UPDATE users SET following_count = following_count + 1 WHERE id = $1", followerID); err != nil {
		return r.wrapQueryErr(ctx, "follow", err)
	}
	if _, err = tx.Exec(ctx,
		"UPDATE users SET followers_count = followers_count + 1 WHERE id = $1", followeeID); err != nil {
		return r.wrapQueryErr(ctx, "follow", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return r.wrapQueryErr(ctx, "follow", err)
	}
	return nil
}

func (r *PostgresUserRepo) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "Unfollow", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "follows"),
	))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return r.wrapQueryErr(ctx, "unfollow", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		"DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2",
		followerID, followeeID)
	if err != nil {
		return r.wrapQueryErr(ctx, "unfollow", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("unfollow: %w", types.ErrNotFound)
	}

	if _, err = tx.Exec(ctx,
		"UPDATE users SET following_count = GREATEST(following_count - 1, 0) WHERE id = $1", followerID); err != nil {
		return r.wrapQueryErr(ctx, "unfollow", err)
	}
	if _, err = tx.Exec(ctx,
		"UPDATE users SET followers_count = GREATEST(followers_count - 1, 0) WHERE id = $1", followeeID); err != nil {
		return r.wrapQueryErr(ctx, "unfollow", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return r.wrapQueryErr(ctx, "unfollow", err)
	}
	return nil
}

func (r *PostgresUserRepo) AddBookmark(ctx context.Context, userID, videoID uuid.UUID) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "AddBookmark", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "bookmarks"),
	))
	defer span.End()

	_, err := r.pgpool.Exec(ctx,
		"INSERT INTO bookmarks (user_id, video_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		userID, videoID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("add bookmark: %w", types.ErrNotFound)
		}
		return r.wrapQueryErr(ctx, "add bookmark", err)
	}
	return nil
}

func (r *PostgresUserRepo) RemoveBookmark(ctx context.Context, userID, videoID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		"DELETE FROM bookmarks WHERE user_id = $1 AND video_id = $2",
		userID, videoID)
	if err != nil {
		return r.wrapQueryErr(ctx, "remove bookmark", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("remove bookmark: %w", types.ErrNotFound)
	}
	return nil
}

func (r *PostgresUserRepo) ListBookmarks(ctx context.Context, userID uuid.UUID) ([]types.Video, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "ListBookmarks", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "bookmarks"),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
		SELECT v.id, v.creator_id, u.username, u.profile_picture, v.title, v.description,
		       v.video_url, v.thumbnail, v.views, v.genre, v.subgenre, v.tags,
		       v.created_at, v.updated_at
		FROM bookmarks b
		JOIN videos v ON v.id = b.video_id
		JOIN users u ON u.id = v.creator_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "list bookmarks", err)
	}
	defer rows.Close()

	var videos []types.Video
	for rows.Next() {
		var v types.Video
		if err := rows.Scan(&v.ID, &v.CreatorID, &v.CreatorUsername, &v.CreatorPicture,
			&v.Title, &v.Description, &v.VideoURL, &v.Thumbnail, &v.Views,
			&v.Genre, &v.Subgenre, &v.Tags, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, r.wrapQueryErr(ctx, "list bookmarks", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrapQueryErr(ctx, "list bookmarks", err)
	}
	return videos, nil
}

func (r *PostgresUserRepo) AddTBR(ctx context.Context, userID, bookID uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx,
		"INSERT INTO tbr_items (user_id, book_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		userID, bookID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("add to tbr: %w", types.ErrNotFound)
		}
		return r.wrapQueryErr(ctx, "add to tbr", err)
	}
	return nil
}

func (r *PostgresUserRepo) RemoveTBR(ctx context.Context, userID, bookID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		"DELETE FROM tbr_items WHERE user_id = $1 AND book_id = $2",
		userID, bookID)
	if err != nil {
		return r.wrapQueryErr(ctx, "remove from tbr", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("remove from tbr: %w", types.ErrNotFound)
	}
	return nil
}

func (r *PostgresUserRepo) ListTBR(ctx context.Context, userID uuid.UUID) ([]types.Book, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "ListTBR", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "tbr_items"),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
		SELECT bk.id, bk.title, bk.author, bk.description, bk.cover, bk.price,
		       bk.genre, bk.subgenre, bk.amazon_url, bk.asin, bk.rating,
		       bk.created_at, bk.updated_at
		FROM tbr_items t
		JOIN books bk ON bk.id = t.book_id
		WHERE t.user_id = $1
		ORDER BY t.created_at DESC`, userID)
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "list tbr", err)
	}
	defer rows.Close()

	var books []types.Book
	for rows.Next() {
		var b types.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Cover, &b.Price,
			&b.Genre, &b.Subgenre, &b.AmazonURL, &b.ASIN, &b.Rating,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, r.wrapQueryErr(ctx, "list tbr", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrapQueryErr(ctx, "list tbr", err)
	}
	return books, nil
}
