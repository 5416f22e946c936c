package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

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

var _ BookRepo = (*PostgresBookRepo)(nil)

// BookRepo defines the catalog and review persistence contract.
type BookRepo interface {
	List(ctx context.Context, filter types.BookFilter) ([]types.Book, error)
	GetByID(ctx context.Context, bookID uuid.UUID) (*types.Book, error)
	Create(ctx context.Context, params types.CreateBookParams) (*types.Book, error)

	AddReview(ctx context.Context, bookID, userID uuid.UUID, rating int, body string) (*types.BookReview, error)
	ListReviews(ctx context.Context, bookID uuid.UUID) ([]types.BookReview, error)
}

type PostgresBookRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresBookRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresBookRepo {
	return &PostgresBookRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresBookRepo) wrapQueryErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, types.ErrNotFound)
	}
	metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
	r.logger.ErrorContext(ctx, "Query failed", slog.String("op", op), slog.Any("error", err))
	return fmt.Errorf("%s: %w", op, types.ErrUnavailable)
}

const bookColumns = `id, title, author, description, cover, price, genre, subgenre,
	amazon_url, asin, rating, created_at, updated_at`

func scanBook(row pgx.Row) (*types.Book, error) {
	var b types.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Description, &b.Cover, &b.Price,
		&b.Genre, &b.Subgenre, &b.AmazonURL, &b.ASIN, &b.Rating,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PostgresBookRepo) List(ctx context.Context, filter types.BookFilter) ([]types.Book, error) {
	ctx, span := otel.Tracer("BookRepo").Start(ctx, "List", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "books"),
	))
	defer span.End()

	var conditions []string
	var args []interface{}
	argID := 1
	if filter.Genre != "" {
		conditions = append(conditions, fmt.Sprintf("genre = $%d", argID))
		args = append(args, filter.Genre)
		argID++
	}
	if filter.Subgenre != "" {
		conditions = append(conditions, fmt.Sprintf("subgenre = $%d", argID))
		args = append(args, filter.Subgenre)
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.pgpool.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM books %s ORDER BY title", bookColumns, where), args...)
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "list books", err)
	}
	defer rows.Close()

	var books []types.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, r.wrapQueryErr(ctx, "list books", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrapQueryErr(ctx, "list books", err)
	}
	return books, nil
}

func (r *PostgresBookRepo) GetByID(ctx context.Context, bookID uuid.UUID) (*types.Book, error) {
	ctx, span := otel.Tracer("BookRepo").Start(ctx, "GetByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "books"),
		attribute.String("db.book.id", bookID.String()),
	))
	defer span.End()

	b, err := scanBook(r.pgpool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM books WHERE id = $1", bookColumns), bookID))
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "get book", err)
	}
	return b, nil
}

func (r *PostgresBookRepo) Create(ctx context.Context, params types.CreateBookParams) (*types.Book, error) {
	ctx, span := otel.Tracer("BookRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "books"),
	))
	defer span.End()

	b, err := scanBook(r.pgpool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO books (title, author, description, cover, price, genre, subgenre, amazon_url, asin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s`, bookColumns),
		params.Title, params.Author, params.Description, params.Cover, params.Price,
		params.Genre, params.Subgenre, params.AmazonURL, params.ASIN))
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "create book", err)
	}
	return b, nil
}

// AddReview inserts the review and recomputes the book's average rating from
// all reviews in the same transaction, so the stored rating never drifts.
func (r *PostgresBookRepo) AddReview(ctx context.Context, bookID, userID uuid.UUID, rating int, body string) (*types.BookReview, error) {
	ctx, span := otel.Tracer("BookRepo").Start(ctx, "AddReview", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "book_reviews"),
	))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "add review", err)
	}
	defer tx.Rollback(ctx)

	var review types.BookReview
	err = tx.QueryRow(ctx, `
		INSERT INTO book_reviews (book_id, user_id, rating, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, book_id, user_id, rating, body, created_at`,
		bookID, userID, rating, body,
	).Scan(&review.ID, &review.BookID, &review.UserID, &review.Rating, &review.Text, &review.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503": // book or user gone
				return nil, fmt.Errorf("add review: %w", types.ErrNotFound)
			case "23514": // rating outside 1..5
				return nil, fmt.Errorf("add review: rating must be between 1 and 5: %w", types.ErrValidation)
			}
		}
		return nil, r.wrapQueryErr(ctx, "add review", err)
	}

	if _, err = tx.Exec(ctx, `
		UPDATE books SET rating = (SELECT AVG(rating) FROM book_reviews WHERE book_id = $1),
		                 updated_at = now()
		WHERE id = $1`, bookID); err != nil {
		return nil, r.wrapQueryErr(ctx, "add review", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, r.wrapQueryErr(ctx, "add review", err)
	}
	return &review, nil
}

func (r *PostgresBookRepo) ListReviews(ctx context.Context, bookID uuid.UUID) ([]types.BookReview, error) {
	ctx, span := otel.Tracer("BookRepo").Start(ctx, "ListReviews", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "book_reviews"),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
		SELECT rv.id, rv.book_id, rv.user_id, u.username, rv.rating, rv.body, rv.created_at
		FROM book_reviews rv JOIN users u ON u.id = rv.user_id
		WHERE rv.book_id = $1
		ORDER BY rv.created_at DESC`, bookID)
	if err != nil {
		return nil, r.wrapQueryErr(ctx, "list reviews", err)
	}
	defer rows.Close()

	var reviews []types.BookReview
	for rows.Next() {
		var rv types.BookReview
		if err := rows.Scan(&rv.ID, &rv.BookID, &rv.UserID, &rv.Username, &rv.Rating, &rv.Text, &rv.CreatedAt); err != nil {
			return nil, r.wrapQueryErr(ctx, "list reviews", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrapQueryErr(ctx, "list reviews", err)
	}
	return reviews, nil
}
