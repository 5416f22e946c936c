package video

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

var _ VideoRepo = (*PostgresVideoRepo)(nil)

// VideoRepo defines the persistence contract for the video feed, featured
// books, likes and comments.
type VideoRepo interface {
	List(ctx context.Context, filter types.VideoFilter) ([]types.Video, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]types.Video, error)
	GetByID(ctx context.Context, videoID uuid.UUID) (*types.Video, error)
	Create(ctx context.Context, creatorID uuid.UUID, params types.CreateVideoParams) (*types.Video, error)
	Update(ctx context.Context, videoID uuid.UUID, params types.UpdateVideoParams) (*types.Video, error)
	Delete(ctx context.Context, videoID uuid.UUID) error
	IncrementViews(ctx context.Context, videoID uuid.UUID) error

	AddLike(ctx context.Context, videoID, userID uuid.UUID) error
	RemoveLike(ctx context.Context, videoID, userID uuid.UUID) error

	AddComment(ctx context.Context, videoID, userID uuid.UUID, text string) (*types.VideoComment, error)
	ListComments(ctx context.Context, videoID uuid.UUID) ([]types.VideoComment, error)
}

type PostgresVideoRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresVideoRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresVideoRepo {
	return &PostgresVideoRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresVideoRepo) wrapQueryErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, types.ErrNotFound)
	}
	metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
	r.logger.ErrorContext(ctx, "Query failed", slog.String("op", op), slog.Any("error", err))
	return fmt.Errorf("%s: %w", op, types.ErrUnavailable)
}

const videoColumns = `v.id, v.creator_id, u.username, u.profile_picture, v.title, v.description,
	v.video_url, v.thumbnail, v.views,
	(SELECT COUNT(*) FROM video_likes vl WHERE vl.video_id = v.id),
	v.genre, v.subgenre, v.tags, v.created_at, v.updated_at`

func scanVideo(row pgx.Row) (*types.Video, error) {
	var v types.Video
	err := row.Scan(&v.ID, &v.CreatorID, &v.CreatorUsername, &v.CreatorPicture,
		&v.Title, &v.Description, &v.VideoURL, &v.Thumbnail, &v.Views, &v.Likes,
		&v.Genre, &v.Subgenre, &v.Tags, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *PostgresVideoRepo) queryVideos(ctx context.Context, op, query string, args ...interface{}) ([]types.Video, error) {
	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, r.wrapQueryErr(ctx, op, err)
	}
	defer rows.Close()

	var videos []types.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, r.wrapQueryErr(ctx, op, err)
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrapQueryErr(ctx, op, err)
	}
	return videos, nil
}

// List returns the feed, newest first, optionally narrowed by genre and
// subgenre.
func (r *PostgresVideoRepo) List(ctx context.Context, filter types.VideoFilter) ([]types.Video, error) {
	ctx, span := otel.Tracer("VideoRepo").Start(ctx, "List", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "videos"),
	))
	defer span.End()

	var conditions []string
	var args []interface{}
	argID := 1
	if filter.Genre != "" {
		conditions = append(conditions, fmt.Sprintf("v.genre = $%d", argID))
		args = append(args, filter.Genre)
		argID++
	}
	if filter.Subgenre != "" {
		conditions = append(conditions, fmt.Sprintf("v.subgenre = $%d", argID))
		args = append(args, filter.Subgenre)
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM videos v JOIN users u ON u.id = v.creator_id
		%s
		ORDER BY v.created_at DESC`, videoColumns, where)

	return r.queryVideos(ctx, "list videos", query, args...)
}

func (r *PostgresVideoRepo) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]types.Video, error) {
	ctx, span := otel.Tracer("VideoRepo").Start(ctx, "ListByCreator", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "videos"),
	))
	defer span.End()

	query := fmt.Sprintf(`
		SELECT %s
		FROM videos v JOIN users u ON u.id = v.creator_id
		WHERE v.creator_id = $1
		ORDER BY v.created_at DESC`, videoColumns)

	return r.queryVideos(ctx, "list videos by creator", query, creatorID)
}

func (r *PostgresVideoRepo) GetByID(ctx context.Context, videoID uuid.UUID) (*types.Video, error) {
	ctx, span := otel.Tracer("VideoRepo").Start(ctx, "GetByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "videos"),
		attribute.String("db.video.id", videoID.String()),
	))
	defer span.End()

	query := fmt.Sprintf(`
		SELECT %s
		FROM videos v JOIN users u ON u.id = v.creator_id
		WHERE v.id = $1`, videoColumns)

	v, err := scanVideo(r.pgpool.QueryRow(ctx, query, videoID))
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "get video", err)
	}

	featured, err := r.listFeaturedBooks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	v.FeaturedBooks = featured
	return v, nil
}

func (r *PostgresVideoRepo) listFeaturedBooks(ctx context.Context, videoID uuid.UUID) ([]types.FeaturedBook, error) {
	rows, err := r.pgpool.Query(ctx, `
		SELECT book_id, ts_seconds, note
		FROM video_featured_books WHERE video_id = $1
		ORDER BY ts_seconds NULLS LAST`, videoID)
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "list featured books", err)
	}
	defer rows.Close()

	var featured []types.FeaturedBook
	for rows.Next() {
		var fb types.FeaturedBook
		if err := rows.Scan(&fb.BookID, &fb.Timestamp, &fb.Note); err != nil {
			return nil, r.wrapQueryErr(ctx, "list featured books", err)
		}
		featured = append(featured, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrapQueryErr(ctx, "list featured books", err)
	}
	return featured, nil
}

// Create inserts the video, its featured-book tags and bumps the creator's
// videos_count in one transaction.
func (r *PostgresVideoRepo) Create(ctx context.Context, creatorID uuid.UUID, params types.CreateVideoParams) (*types.Video, error) {
	ctx, span := otel.Tracer("VideoRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "videos"),
	))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "create video", err)
	}
	defer tx.Rollback(ctx)

	var v types.Video
	err = tx.QueryRow(ctx, `
		INSERT INTO videos (creator_id, title, description, video_url, thumbnail, genre, subgenre, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, creator_id, title, description, video_url, thumbnail, views,
		          genre, subgenre, tags, created_at, updated_at`,
		creatorID, params.Title, params.Description, params.VideoURL, params.Thumbnail,
		params.Genre, params.Subgenre, params.Tags,
	).Scan(&v.ID, &v.CreatorID, &v.Title, &v.Description, &v.VideoURL, &v.Thumbnail,
		&v.Views, &v.Genre, &v.Subgenre, &v.Tags, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("create video: %w", types.ErrNotFound)
		}
		return nil, r.wrapQueryErr(ctx, "create video", err)
	}

	for _, fb := range params.FeaturedBooks {
		if _, err = tx.Exec(ctx, `
			INSERT INTO video_featured_books (video_id, book_id, ts_seconds, note)
			VALUES ($1, $2, $3, $4)`,
			v.ID, fb.BookID, fb.Timestamp, fb.Note); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return nil, fmt.Errorf("create video: featured book: %w", types.ErrNotFound)
			}
			return nil, r.wrapQueryErr(ctx, "create video", err)
		}
	}

	if _, err = tx.Exec(ctx,
		"UPDATE users SET videos_count = videos_count + 1 WHERE id = $1", creatorID); err != nil {
		return nil, r.wrapQueryErr(ctx, "create video", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, r.wrapQueryErr(ctx, "create video", err)
	}

	v.FeaturedBooks = params.FeaturedBooks
	return &v, nil
}

func (r *PostgresVideoRepo) Update(ctx context.Context, videoID uuid.UUID, params types.UpdateVideoParams) (*types.Video, error) {
	ctx, span := otel.Tracer("VideoRepo").Start(ctx, "Update", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "videos"),
		attribute.String("db.video.id", videoID.String()),
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

	if params.Title != nil {
		addClause("title", *params.Title)
	}
	if params.Description != nil {
		addClause("description", *params.Description)
	}
	if params.Genre != nil {
		addClause("genre", *params.Genre)
	}
	if params.Subgenre != nil {
		addClause("subgenre", *params.Subgenre)
	}
	if params.Tags != nil {
		addClause("tags", params.Tags)
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, videoID)
	}

	addClause("updated_at", time.Now())
	args = append(args, videoID)

	query := fmt.Sprintf(`
		UPDATE videos SET %s WHERE id = $%d
		RETURNING id, creator_id, title, description, video_url, thumbnail, views,
		          genre, subgenre, tags, created_at, updated_at`,
		strings.Join(setClauses, ", "), argID)

	var v types.Video
	err := r.pgpool.QueryRow(ctx, query, args...).Scan(&v.ID, &v.CreatorID, &v.Title,
		&v.Description, &v.VideoURL, &v.Thumbnail, &v.Views,
		&v.Genre, &v.Subgenre, &v.Tags, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "update video", err)
	}
	return &v, nil
}

// Delete removes the video and decrements the creator's videos_count.
// Dependent rows (likes, comments, featured books, bookmarks) go with it via
// ON DELETE CASCADE.
func (r *PostgresVideoRepo) Delete(ctx context.Context, videoID uuid.UUID) error {
	ctx, span := otel.Tracer("VideoRepo").Start(ctx, "Delete", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "videos"),
		attribute.String("db.video.id", videoID.String()),
	))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return r.wrapQueryErr(ctx, "delete video", err)
	}
	defer tx.Rollback(ctx)

	var creatorID uuid.UUID
	err = tx.QueryRow(ctx,
		"DELETE FROM videos WHERE id = $1 RETURNING creator_id", videoID).Scan(&creatorID)
	if err != nil {
		return r.wrapQueryErr(ctx, "delete video", err)
	}

	if _, err = tx.Exec(ctx,
		"UPDATE users SET videos_count = GREATEST(videos_count - 1, 0) WHERE id = $1", creatorID); err != nil {
		return r.wrapQueryErr(ctx, "delete video", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return r.wrapQueryErr(ctx, "delete video", err)
	}
	return nil
}

func (r *PostgresVideoRepo) IncrementViews(ctx context.Context, videoID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE videos SET views = views + 1 WHERE id = $1", videoID)
	if err != nil {
		return r.wrapQueryErr(ctx, "increment views", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("increment views: %w", types.ErrNotFound)
	}
	return nil
}

func (r *PostgresVideoRepo) AddLike(ctx context.Context, videoID, userID uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx,
		"INSERT INTO video_likes (video_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		videoID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("like video: %w", types.ErrNotFound)
		}
		return r.wrapQueryErr(ctx, "like video", err)
	}
	return nil
}

func (r *PostgresVideoRepo) RemoveLike(ctx context.Context, videoID, userID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		"DELETE FROM video_likes WHERE video_id = $1 AND user_id = $2",
		videoID, userID)
	if err != nil {
		return r.wrapQueryErr(ctx, "unlike video", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("unlike video: %w", types.ErrNotFound)
	}
	return nil
}

func (r *PostgresVideoRepo) AddComment(ctx context.Context, videoID, userID uuid.UUID, text string) (*types.VideoComment, error) {
	ctx, span := otel.Tracer("VideoRepo").Start(ctx, "AddComment", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "video_comments"),
	))
	defer span.End()

	var c types.VideoComment
	err := r.pgpool.QueryRow(ctx, `
		INSERT INTO video_comments (video_id, user_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, video_id, user_id, body, created_at`,
		videoID, userID, text,
	).Scan(&c.ID, &c.VideoID, &c.UserID, &c.Text, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("add comment: %w", types.ErrNotFound)
		}
		return nil, r.wrapQueryErr(ctx, "add comment", err)
	}
	return &c, nil
}

func (r *PostgresVideoRepo) ListComments(ctx context.Context, videoID uuid.UUID) ([]types.VideoComment, error) {
	ctx, span := otel.Tracer("VideoRepo").Start(ctx, "ListComments", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "video_comments"),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
		SELECT c.id, c.video_id, c.user_id, u.username, c.body, c.created_at
		FROM video_comments c JOIN users u ON u.id = c.user_id
		WHERE c.video_id = $1
		ORDER BY c.created_at DESC`, videoID)
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "list comments", err)
	}
	defer rows.Close()

	var comments []types.VideoComment
	for rows.Next() {
		var c types.VideoComment
		if err := rows.Scan(&c.ID, &c.VideoID, &c.UserID, &c.Username, &c.Text, &c.CreatedAt); err != nil {
			return nil, r.wrapQueryErr(ctx, "list comments", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrapQueryErr(ctx, "list comments", err)
	}
	return comments, nil
}
