package book

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ourbooktalk/booktalk-backend/internal/api"
	"github.com/ourbooktalk/booktalk-backend/internal/api/auth"
	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

type BookHandler struct {
	service BookService
	logger  *slog.Logger
}

func NewBookHandler(service BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		service: service,
		logger:  logger,
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// List handles GET /api/books?genre=&subgenre=. Public.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := types.BookFilter{
		Genre:    r.URL.Query().Get("genre"),
		Subgenre: r.URL.Query().Get("subgenre"),
	}

	books, err := h.service.List(r.Context(), filter)
	if err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	if books == nil {
		books = []types.Book{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, books)
}

// Get handles GET /api/books/{bookID}. Public.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}

	book, err := h.service.Get(r.Context(), bookID)
	if err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, book)
}

// Create handles POST /api/books.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var params types.CreateBookParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	book, err := h.service.Create(r.Context(), params)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Book creation failed", slog.Any("error", err))
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, book)
}

type reviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text,omitempty"`
}

// AddReview handles POST /api/books/{bookID}/reviews.
func (h *BookHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}

	var req reviewRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.service.AddReview(r.Context(), bookID, user.ID, req.Rating, req.Text)
	if err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, review)
}

// ListReviews handles GET /api/books/{bookID}/reviews. Public.
func (h *BookHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), bookID)
	if err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []types.BookReview{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, reviews)
}
