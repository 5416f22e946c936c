package types

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Cover       string    `json:"cover"`
	Price       float64   `json:"price"`
	Genre       string    `json:"genre"`
	Subgenre    string    `json:"subgenre,omitempty"`
	AmazonURL   string    `json:"amazonUrl,omitempty"`
	ASIN        string    `json:"asin,omitempty"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateBookParams struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Description string  `json:"description"`
	Cover       string  `json:"cover"`
	Price       float64 `json:"price"`
	Genre       string  `json:"genre"`
	Subgenre    string  `json:"subgenre,omitempty"`
	AmazonURL   string  `json:"amazonUrl,omitempty"`
	ASIN        string  `json:"asin,omitempty"`
}

type BookReview struct {
	ID        uuid.UUID `json:"id"`
	BookID    uuid.UUID `json:"bookId"`
	UserID    uuid.UUID `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Rating    int       `json:"rating"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// BookFilter narrows catalog queries. Empty fields are ignored.
type BookFilter struct {
	Genre    string
	Subgenre string
}
