package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

var _ UserService = (*UserServiceImpl)(nil)

// UserService covers public profiles, the follow graph, bookmarks and the
// to-be-read list.
type UserService interface {
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

type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
}

func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *UserServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return s.repo.GetProfile(ctx, userID)
}

func (s *UserServiceImpl) UpdateProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileParams) (*types.User, error) {
	l := s.logger.With(slog.String("method", "UpdateProfile"))

	if params.Username != nil {
		username := strings.TrimSpace(*params.Username)
		if len(username) < 3 {
			return nil, fmt.Errorf("username must be at least 3 characters: %w", types.ErrValidation)
		}
		params.Username = &username
	}

	user, err := s.repo.UpdateProfile(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	l.InfoContext(ctx, "Profile updated", slog.String("userID", userID.String()))
	return user, nil
}

func (s *UserServiceImpl) Follow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	if followerID == followeeID {
		return fmt.Errorf("cannot follow yourself: %w", types.ErrValidation)
	}
	return s.repo.Follow(ctx, followerID, followeeID)
}

func (s *UserServiceImpl) Unfollow(ctx context.Context, followerID, followeeID uuid.UUID) error {
	if followerID == followeeID {
		return fmt.Errorf("cannot unfollow yourself: %w", types.ErrValidation)
	}
	return s.repo.Unfollow(ctx, followerID, followeeID)
}

func (s *UserServiceImpl) AddBookmark(ctx context.Context, userID, videoID uuid.UUID) error {
	return s.repo.AddBookmark(ctx, userID, videoID)
}

func (s *UserServiceImpl) RemoveBookmark(ctx context.Context, userID, videoID uuid.UUID) error {
	return s.repo.RemoveBookmark(ctx, userID, videoID)
}

func (s *UserServiceImpl) ListBookmarks(ctx context.Context, userID uuid.UUID) ([]types.Video, error) {
	return s.repo.ListBookmarks(ctx, userID)
}

func (s *UserServiceImpl) AddTBR(ctx context.Context, userID, bookID uuid.UUID) error {
	return s.repo.AddTBR(ctx, userID, bookID)
}

func (s *UserServiceImpl) RemoveTBR(ctx context.Context, userID, bookID uuid.UUID) error {
	return s.repo.RemoveTBR(ctx, userID, bookID)
}

func (s *UserServiceImpl) ListTBR(ctx context.Context, userID uuid.UUID) ([]types.Book, error) {
	return s.repo.ListTBR(ctx, userID)
}
