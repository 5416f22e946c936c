package book

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

// MockBookRepo is a mock implementation of the BookRepo interface
type MockBookRepo struct {
	mock.Mock
}

func (m *MockBookRepo) List(ctx context.Context, filter types.BookFilter) ([]types.Book, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Book), args.Error(1)
}

func (m *MockBookRepo) GetByID(ctx context.Context, bookID uuid.UUID) (*types.Book, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Book), args.Error(1)
}

func (m *MockBookRepo) Create(ctx context.Context, params types.CreateBookParams) (*types.Book, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Book), args.Error(1)
}

func (m *MockBookRepo) AddReview(ctx context.Context, bookID, userID uuid.UUID, rating int, body string) (*types.BookReview, error) {
	args := m.Called(ctx, bookID, userID, rating, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.BookReview), args.Error(1)
}

func (m *MockBookRepo) ListReviews(ctx context.Context, bookID uuid.UUID) ([]types.BookReview, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.BookReview), args.Error(1)
}

func TestListCaching(t *testing.T) {
	logger := slog.Default()

	t.Run("SecondListHitsCache", func(t *testing.T) {
		mockRepo := new(MockBookRepo)
		service := NewBookService(mockRepo, logger)

		filter := types.BookFilter{Genre: "fantasy"}
		books := []types.Book{{ID: uuid.New(), Title: "The Name of the Wind"}}

		// Only one repo hit expected for two calls.
		mockRepo.On("List", mock.Anything, filter).Return(books, nil).Once()

		first, err := service.List(context.Background(), filter)
		assert.NoError(t, err)
		second, err := service.List(context.Background(), filter)
		assert.NoError(t, err)

		assert.Equal(t, first, second)
		mockRepo.AssertExpectations(t)
	})

	t.Run("DifferentFiltersMissCache", func(t *testing.T) {
		mockRepo := new(MockBookRepo)
		service := NewBookService(mockRepo, logger)

		fantasy := types.BookFilter{Genre: "fantasy"}
		romance := types.BookFilter{Genre: "romance"}

		mockRepo.On("List", mock.Anything, fantasy).Return([]types.Book{}, nil).Once()
		mockRepo.On("List", mock.Anything, romance).Return([]types.Book{}, nil).Once()

		_, err := service.List(context.Background(), fantasy)
		assert.NoError(t, err)
		_, err = service.List(context.Background(), romance)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("CreateInvalidatesListCache", func(t *testing.T) {
		mockRepo := new(MockBookRepo)
		service := NewBookService(mockRepo, logger)

		filter := types.BookFilter{}
		mockRepo.On("List", mock.Anything, filter).Return([]types.Book{}, nil).Twice()
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("CreateBookParams")).
			Return(&types.Book{ID: uuid.New(), Title: "Fourth Wing", Author: "Rebecca Yarros"}, nil).Once()

		_, err := service.List(context.Background(), filter)
		assert.NoError(t, err)

		_, err = service.Create(context.Background(), types.CreateBookParams{
			Title: "Fourth Wing", Author: "Rebecca Yarros", Price: 14.99,
		})
		assert.NoError(t, err)

		_, err = service.List(context.Background(), filter)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("RepoErrorNotCached", func(t *testing.T) {
		mockRepo := new(MockBookRepo)
		service := NewBookService(mockRepo, logger)

		filter := types.BookFilter{}
		mockRepo.On("List", mock.Anything, filter).Return(nil, types.ErrUnavailable).Once()
		mockRepo.On("List", mock.Anything, filter).Return([]types.Book{}, nil).Once()

		_, err := service.List(context.Background(), filter)
		assert.ErrorIs(t, err, types.ErrUnavailable)

		_, err = service.List(context.Background(), filter)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestCreateBook(t *testing.T) {
	logger := slog.Default()

	t.Run("MissingTitle", func(t *testing.T) {
		mockRepo := new(MockBookRepo)
		service := NewBookService(mockRepo, logger)

		_, err := service.Create(context.Background(), types.CreateBookParams{Author: "Someone"})
		assert.ErrorIs(t, err, types.ErrValidation)
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("NegativePrice", func(t *testing.T) {
		mockRepo := new(MockBookRepo)
		service := NewBookService(mockRepo, logger)

		_, err := service.Create(context.Background(), types.CreateBookParams{
			Title: "Book", Author: "Someone", Price: -1,
		})
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

func TestAddReview(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockBookRepo)
		service := NewBookService(mockRepo, logger)

		bookID := uuid.New()
		userID := uuid.New()
		review := &types.BookReview{ID: uuid.New(), BookID: bookID, UserID: userID, Rating: 5}

		mockRepo.On("AddReview", mock.Anything, bookID, userID, 5, "Unputdownable").Return(review, nil).Once()

		got, err := service.AddReview(context.Background(), bookID, userID, 5, " Unputdownable ")
		assert.NoError(t, err)
		assert.Equal(t, review.ID, got.ID)
	})

	t.Run("RatingOutOfRange", func(t *testing.T) {
		mockRepo := new(MockBookRepo)
		service := NewBookService(mockRepo, logger)

		_, err := service.AddReview(context.Background(), uuid.New(), uuid.New(), 0, "")
		assert.ErrorIs(t, err, types.ErrValidation)

		_, err = service.AddReview(context.Background(), uuid.New(), uuid.New(), 6, "")
		assert.ErrorIs(t, err, types.ErrValidation)
		mockRepo.AssertNotCalled(t, "AddReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ReviewRefreshesCachedBook", func(t *testing.T) {
		mockRepo := new(MockBookRepo)
		service := NewBookService(mockRepo, logger)

		bookID := uuid.New()
		userID := uuid.New()
		before := &types.Book{ID: bookID, Title: "Book", Rating: 4.0}
		after := &types.Book{ID: bookID, Title: "Book", Rating: 4.5}
		review := &types.BookReview{ID: uuid.New(), BookID: bookID, Rating: 5}

		mockRepo.On("GetByID", mock.Anything, bookID).Return(before, nil).Once()
		mockRepo.On("AddReview", mock.Anything, bookID, userID, 5, "").Return(review, nil).Once()
		mockRepo.On("GetByID", mock.Anything, bookID).Return(after, nil).Once()

		got, err := service.Get(context.Background(), bookID)
		assert.NoError(t, err)
		assert.Equal(t, 4.0, got.Rating)

		_, err = service.AddReview(context.Background(), bookID, userID, 5, "")
		assert.NoError(t, err)

		got, err = service.Get(context.Background(), bookID)
		assert.NoError(t, err)
		assert.Equal(t, 4.5, got.Rating)
		mockRepo.AssertExpectations(t)
	})
}
