package video

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

var _ VideoService = (*VideoServiceImpl)(nil)

// VideoService covers the feed, creator uploads, likes and comments. Mutating
// operations on a video are restricted to its creator.
type VideoService interface {
	List(ctx context.Context, filter types.VideoFilter) ([]types.Video, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]types.Video, error)
	Get(ctx context.Context, videoID uuid.UUID) (*types.Video, error)
	Create(ctx context.Context, creatorID uuid.UUID, params types.CreateVideoParams) (*types.Video, error)
	Update(ctx context.Context, callerID, videoID uuid.UUID, params types.UpdateVideoParams) (*types.Video, error)
	Delete(ctx context.Context, callerID, videoID uuid.UUID) error
	RecordView(ctx context.Context, videoID uuid.UUID) error

	Like(ctx context.Context, videoID, userID uuid.UUID) error
	Unlike(ctx context.Context, videoID, userID uuid.UUID) error

	Comment(ctx context.Context, videoID, userID uuid.UUID, text string) (*types.VideoComment, error)
	ListComments(ctx context.Context, videoID uuid.UUID) ([]types.VideoComment, error)
}

type VideoServiceImpl struct {
	logger *slog.Logger
	repo   VideoRepo
}

func NewVideoService(repo VideoRepo, logger *slog.Logger) *VideoServiceImpl {
	return &VideoServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *VideoServiceImpl) List(ctx context.Context, filter types.VideoFilter) ([]types.Video, error) {
	return s.repo.List(ctx, filter)
}

func (s *VideoServiceImpl) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]types.Video, error) {
	return s.repo.ListByCreator(ctx, creatorID)
}

func (s *VideoServiceImpl) Get(ctx context.Context, videoID uuid.UUID) (*types.Video, error) {
	return s.repo.GetByID(ctx, videoID)
}

func (s *VideoServiceImpl) Create(ctx context.Context, creatorID uuid.UUID, params types.CreateVideoParams) (*types.Video, error) {
	l := s.logger.With(slog.String("method", "Create"))

	params.Title = strings.TrimSpace(params.Title)
	if params.Title == "" || params.VideoURL == "" {
		return nil, fmt.Errorf("title and video url are required: %w", types.ErrValidation)
	}

	video, err := s.repo.Create(ctx, creatorID, params)
	if err != nil {
		return nil, err
	}

	l.InfoContext(ctx, "Video created",
		slog.String("videoID", video.ID.String()),
		slog.String("creatorID", creatorID.String()))
	return video, nil
}

// requireOwner loads the video and rejects callers other than its creator.
func (s *VideoServiceImpl) requireOwner(ctx context.Context, callerID, videoID uuid.UUID) error {
	video, err := s.repo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}
	if video.CreatorID != callerID {
		return fmt.Errorf("video belongs to another creator: %w", types.ErrForbidden)
	}
	return nil
}

func (s *VideoServiceImpl) Update(ctx context.Context, callerID, videoID uuid.UUID, params types.UpdateVideoParams) (*types.Video, error) {
	if err := s.requireOwner(ctx, callerID, videoID); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, videoID, params)
}

func (s *VideoServiceImpl) Delete(ctx context.Context, callerID, videoID uuid.UUID) error {
	if err := s.requireOwner(ctx, callerID, videoID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, videoID)
}

func (s *VideoServiceImpl) RecordView(ctx context.Context, videoID uuid.UUID) error {
	return s.repo.IncrementViews(ctx, videoID)
}

func (s *VideoServiceImpl) Like(ctx context.Context, videoID, userID uuid.UUID) error {
	return s.repo.AddLike(ctx, videoID, userID)
}

func (s *VideoServiceImpl) Unlike(ctx context.Context, videoID, userID uuid.UUID) error {
	return s.repo.RemoveLike(ctx, videoID, userID)
}

func (s *VideoServiceImpl) Comment(ctx context.Context, videoID, userID uuid.UUID, text string) (*types.VideoComment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("comment text is required: %w", types.ErrValidation)
	}
	return s.repo.AddComment(ctx, videoID, userID, text)
}

func (s *VideoServiceImpl) ListComments(ctx context.Context, videoID uuid.UUID) ([]types.VideoComment, error) {
	return s.repo.ListComments(ctx, videoID)
}
