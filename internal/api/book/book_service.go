package book

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

var _ BookService = (*BookServiceImpl)(nil)

// Catalog reads dominate book traffic and the catalog changes rarely, so
// list and get results sit in an in-process cache for a few minutes. Writes
// (create, review) invalidate eagerly.
const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// BookService covers the purchasable catalog and its reviews.
type BookService interface {
	List(ctx context.Context, filter types.BookFilter) ([]types.Book, error)
	Get(ctx context.Context, bookID uuid.UUID) (*types.Book, error)
	Create(ctx context.Context, params types.CreateBookParams) (*types.Book, error)

	AddReview(ctx context.Context, bookID, userID uuid.UUID, rating int, body string) (*types.BookReview, error)
	ListReviews(ctx context.Context, bookID uuid.UUID) ([]types.BookReview, error)
}

type BookServiceImpl struct {
	logger *slog.Logger
	repo   BookRepo
	cache  *cache.Cache
}

func NewBookService(repo BookRepo, logger *slog.Logger) *BookServiceImpl {
	return &BookServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(cacheTTL, cacheCleanup),
	}
}

func listCacheKey(filter types.BookFilter) string {
	return "books:" + filter.Genre + ":" + filter.Subgenre
}

func bookCacheKey(bookID uuid.UUID) string {
	return "book:" + bookID.String()
}

func (s *BookServiceImpl) List(ctx context.Context, filter types.BookFilter) ([]types.Book, error) {
	key := listCacheKey(filter)
	if cached, found := s.cache.Get(key); found {
		return cached.([]types.Book), nil
	}

	books, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, books, cache.DefaultExpiration)
	return books, nil
}

func (s *BookServiceImpl) Get(ctx context.Context, bookID uuid.UUID) (*types.Book, error) {
	key := bookCacheKey(bookID)
	if cached, found := s.cache.Get(key); found {
		return cached.(*types.Book), nil
	}

	book, err := s.repo.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, book, cache.DefaultExpiration)
	return book, nil
}

func (s *BookServiceImpl) Create(ctx context.Context, params types.CreateBookParams) (*types.Book, error) {
	l := s.logger.With(slog.String("method", "Create"))

	params.Title = strings.TrimSpace(params.Title)
	params.Author = strings.TrimSpace(params.Author)
	if params.Title == "" || params.Author == "" {
		return nil, fmt.Errorf("title and author are required: %w", types.ErrValidation)
	}
	if params.Price < 0 {
		return nil, fmt.Errorf("price cannot be negative: %w", types.ErrValidation)
	}

	book, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	// New book: every cached listing is potentially stale.
	s.cache.Flush()
	l.InfoContext(ctx, "Book created", slog.String("bookID", book.ID.String()))
	return book, nil
}

func (s *BookServiceImpl) AddReview(ctx context.Context, bookID, userID uuid.UUID, rating int, body string) (*types.BookReview, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5: %w", types.ErrValidation)
	}

	review, err := s.repo.AddReview(ctx, bookID, userID, rating, strings.TrimSpace(body))
	if err != nil {
		return nil, err
	}

	// The review changed the book's stored average rating, which cached
	// listings also carry.
	s.cache.Flush()
	return review, nil
}

func (s *BookServiceImpl) ListReviews(ctx context.Context, bookID uuid.UUID) ([]types.BookReview, error) {
	return s.repo.ListReviews(ctx, bookID)
}
