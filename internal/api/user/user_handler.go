package user

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ourbooktalk/booktalk-backend/internal/api"
	"github.com/ourbooktalk/booktalk-backend/internal/api/auth"
	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

type UserHandler struct {
	service UserService
	logger  *slog.Logger
}

func NewUserHandler(service UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// pathUUID parses the named URL parameter as a UUID, writing a 400 itself on
// failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// GetProfile handles GET /api/users/{userID}. Public; the response never
// carries credential material.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// UpdateProfile handles PATCH /api/users/{userID}. Only the profile owner
// may update it.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}
	targetID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	if targetID != user.ID {
		api.ErrorResponse(w, r, http.StatusForbidden, "Not authorized")
		return
	}

	var params types.UpdateProfileParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), user.ID, params)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Profile update failed", slog.Any("error", err))
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, updated)
}

// Follow handles POST /api/users/{userID}/follow.
func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}
	followeeID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.service.Follow(r.Context(), user.ID, followeeID); err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// Unfollow handles DELETE /api/users/{userID}/follow.
func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}
	followeeID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.service.Unfollow(r.Context(), user.ID, followeeID); err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// AddBookmark handles POST /api/users/me/bookmarks/{videoID}.
func (h *UserHandler) AddBookmark(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}

	if err := h.service.AddBookmark(r.Context(), user.ID, videoID); err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// RemoveBookmark handles DELETE /api/users/me/bookmarks/{videoID}.
func (h *UserHandler) RemoveBookmark(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}

	if err := h.service.RemoveBookmark(r.Context(), user.ID, videoID); err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// ListBookmarks handles GET /api/users/me/bookmarks.
func (h *UserHandler) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}

	videos, err := h.service.ListBookmarks(r.Context(), user.ID)
	if err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	if videos == nil {
		videos = []types.Video{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, videos)
}

// AddTBR handles POST /api/users/me/tbr/{bookID}.
func (h *UserHandler) AddTBR(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}

	if err := h.service.AddTBR(r.Context(), user.ID, bookID); err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// RemoveTBR handles DELETE /api/users/me/tbr/{bookID}.
func (h *UserHandler) RemoveTBR(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}
	bookID, ok := pathUUID(w, r, "bookID")
	if !ok {
		return
	}

	if err := h.service.RemoveTBR(r.Context(), user.ID, bookID); err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// ListTBR handles GET /api/users/me/tbr.
func (h *UserHandler) ListTBR(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}

	books, err := h.service.ListTBR(r.Context(), user.ID)
	if err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	if books == nil {
		books = []types.Book{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, books)
}
