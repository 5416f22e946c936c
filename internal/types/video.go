package types

import (
	"time"

	"github.com/google/uuid"
)

// FeaturedBook tags a book inside a video, optionally at a timestamp (in
// seconds) where the book is mentioned.
type FeaturedBook struct {
	BookID    uuid.UUID `json:"bookId"`
	Timestamp *int      `json:"timestamp,omitempty"`
	Note      *string   `json:"note,omitempty"`
}

type Video struct {
	ID              uuid.UUID      `json:"id"`
	CreatorID       uuid.UUID      `json:"creatorId"`
	CreatorUsername string         `json:"creatorUsername,omitempty"`
	CreatorPicture  string         `json:"creatorProfilePicture,omitempty"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	VideoURL        string         `json:"videoUrl"`
	Thumbnail       string         `json:"thumbnail"`
	Views           int            `json:"views"`
	Likes           int            `json:"likes"`
	Genre           string         `json:"genre,omitempty"`
	Subgenre        string         `json:"subgenre,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	FeaturedBooks   []FeaturedBook `json:"featuredBooks,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// CreateVideoParams carries the fields a creator supplies on upload. The
// video and thumbnail URLs come from the upload pipeline, which is outside
// this service.
type CreateVideoParams struct {
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	VideoURL      string         `json:"videoUrl"`
	Thumbnail     string         `json:"thumbnail"`
	Genre         string         `json:"genre,omitempty"`
	Subgenre      string         `json:"subgenre,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	FeaturedBooks []FeaturedBook `json:"featuredBooks,omitempty"`
}

type UpdateVideoParams struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Genre       *string  `json:"genre,omitempty"`
	Subgenre    *string  `json:"subgenre,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type VideoComment struct {
	ID        uuid.UUID `json:"id"`
	VideoID   uuid.UUID `json:"videoId"`
	UserID    uuid.UUID `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// VideoFilter narrows the feed query. Empty fields are ignored.
type VideoFilter struct {
	Genre    string
	Subgenre string
}
