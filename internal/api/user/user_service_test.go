package user

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

// MockUserRepo is a mock implementation of the UserRepo interface
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserRepo) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	args := m.Called(ctx, followerID, followeeID)
	return args.Error(0)
}

func (m *MockUserRepo) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	args := m.Called(ctx, followerID, followeeID)
	return args.Error(0)
}

func (m *MockUserRepo) AddBookmark(ctx context.Context, userID, videoID uuid.UUID) error {
	args := m.Called(ctx, userID, videoID)
	return args.Error(0)
}

func (m *MockUserRepo) RemoveBookmark(ctx context.Context, userID, videoID uuid.UUID) error {
	args := m.Called(ctx, userID, videoID)
	return args.Error(0)
}

func (m *MockUserRepo) ListBookmarks(ctx context.Context, userID uuid.UUID) ([]types.Video, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Video), args.Error(1)
}

func (m *MockUserRepo) AddTBR(ctx context.Context, userID, bookID uuid.UUID) error {
	args := m.Called(ctx, userID, bookID)
	return args.Error(0)
}

func (m *MockUserRepo) RemoveTBR(ctx context.Context, userID, bookID uuid.UUID) error {
	args := m.Called(ctx, userID, bookID)
	return args.Error(0)
}

func (m *MockUserRepo) ListTBR(ctx context.Context, userID uuid.UUID) ([]types.Book, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Book), args.Error(1)
}

func TestFollow(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)

		follower := uuid.New()
		followee := uuid.New()
		mockRepo.On("Follow", mock.Anything, follower, followee).Return(nil).Once()

		err := service.Follow(context.Background(), follower, followee)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("SelfFollowRejected", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)

		id := uuid.New()
		err := service.Follow(context.Background(), id, id)
		assert.ErrorIs(t, err, types.ErrValidation)
		mockRepo.AssertNotCalled(t, "Follow", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("AlreadyFollowing", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)

		follower := uuid.New()
		followee := uuid.New()
		mockRepo.On("Follow", mock.Anything, follower, followee).Return(types.ErrConflict).Once()

		err := service.Follow(context.Background(), follower, followee)
		assert.ErrorIs(t, err, types.ErrConflict)
	})
}

func TestUpdateProfile(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)

		userID := uuid.New()
		bio := "Fantasy reader"
		updated := &types.User{ID: userID, Bio: bio}

		mockRepo.On("UpdateProfile", mock.Anything, userID, mock.MatchedBy(func(p types.UpdateProfileParams) bool {
			return p.Bio != nil && *p.Bio == bio
		})).Return(updated, nil).Once()

		user, err := service.UpdateProfile(context.Background(), userID, types.UpdateProfileParams{Bio: &bio})
		assert.NoError(t, err)
		assert.Equal(t, bio, user.Bio)
		mockRepo.AssertExpectations(t)
	})

	t.Run("ShortUsername", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)

		short := "ab"
		_, err := service.UpdateProfile(context.Background(), uuid.New(), types.UpdateProfileParams{Username: &short})
		assert.ErrorIs(t, err, types.ErrValidation)
		mockRepo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UsernameTaken", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)

		taken := "alice123"
		mockRepo.On("UpdateProfile", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, types.ErrConflict).Once()

		_, err := service.UpdateProfile(context.Background(), uuid.New(), types.UpdateProfileParams{Username: &taken})
		assert.ErrorIs(t, err, types.ErrConflict)
	})
}

func TestBookmarks(t *testing.T) {
	logger := slog.Default()

	t.Run("ListPassesThrough", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)

		userID := uuid.New()
		videos := []types.Video{{ID: uuid.New(), Title: "Top 5 fantasy reads"}}
		mockRepo.On("ListBookmarks", mock.Anything, userID).Return(videos, nil).Once()

		got, err := service.ListBookmarks(context.Background(), userID)
		assert.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("AddUnknownVideo", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := NewUserService(mockRepo, logger)

		userID := uuid.New()
		videoID := uuid.New()
		mockRepo.On("AddBookmark", mock.Anything, userID, videoID).Return(types.ErrNotFound).Once()

		err := service.AddBookmark(context.Background(), userID, videoID)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}
