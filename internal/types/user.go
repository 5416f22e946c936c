package types

import (
	"time"

	"github.com/google/uuid"
)

// UserStats mirrors the denormalized counters kept on the user row. They are
// maintained by the follow/video flows; auth treats them as opaque.
type UserStats struct {
	Followers int `json:"followers"`
	Following int `json:"following"`
	Videos    int `json:"videos"`
}

type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"` // never serialized
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profilePicture"`
	Stats          UserStats `json:"stats"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UpdateProfileParams defines the fields allowed for profile updates.
// Pointers distinguish "not provided" from "set to empty".
type UpdateProfileParams struct {
	Username       *string `json:"username,omitempty"`
	FirstName      *string `json:"firstName,omitempty"`
	LastName       *string `json:"lastName,omitempty"`
	Bio            *string `json:"bio,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
}
