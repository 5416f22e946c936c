package video

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ourbooktalk/booktalk-backend/internal/api"
	"github.com/ourbooktalk/booktalk-backend/internal/api/auth"
	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

type VideoHandler struct {
	service VideoService
	logger  *slog.Logger
}

func NewVideoHandler(service VideoService, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{
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

// List handles GET /api/videos?genre=&subgenre=.
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := types.VideoFilter{
		Genre:    r.URL.Query().Get("genre"),
		Subgenre: r.URL.Query().Get("subgenre"),
	}

	videos, err := h.service.List(r.Context(), filter)
	if err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	if videos == nil {
		videos = []types.Video{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, videos)
}

// ListByCreator handles GET /api/videos/user/{userID}.
func (h *VideoHandler) ListByCreator(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	videos, err := h.service.ListByCreator(r.Context(), creatorID)
	if err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	if videos == nil {
		videos = []types.Video{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, videos)
}

// Get handles GET /api/videos/{videoID}.
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}

	video, err := h.service.Get(r.Context(), videoID)
	if err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, video)
}

// Create handles POST /api/videos.
func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}

	var params types.CreateVideoParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	video, err := h.service.Create(r.Context(), user.ID, params)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Video creation failed", slog.Any("error", err))
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, video)
}

// Update handles PUT /api/videos/{videoID}. Creator only.
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}

	var params types.UpdateVideoParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	video, err := h.service.Update(r.Context(), user.ID, videoID, params)
	if err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, video)
}

// Delete handles DELETE /api/videos/{videoID}. Creator only.
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), user.ID, videoID); err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// RecordView handles POST /api/videos/{videoID}/views. Public: views count
// anonymous plays too.
func (h *VideoHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}

	if err := h.service.RecordView(r.Context(), videoID); err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// Like handles POST /api/videos/{videoID}/likes.
func (h *VideoHandler) Like(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}

	if err := h.service.Like(r.Context(), videoID, user.ID); err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// Unlike handles DELETE /api/videos/{videoID}/likes.
func (h *VideoHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}

	if err := h.service.Unlike(r.Context(), videoID, user.ID); err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

type commentRequest struct {
	Text string `json:"text"`
}

// Comment handles POST /api/videos/{videoID}/comments.
func (h *VideoHandler) Comment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}

	var req commentRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := h.service.Comment(r.Context(), videoID, user.ID, req.Text)
	if err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, comment)
}

// ListComments handles GET /api/videos/{videoID}/comments. Public.
func (h *VideoHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	videoID, ok := pathUUID(w, r, "videoID")
	if !ok {
		return
	}

	comments, err := h.service.ListComments(r.Context(), videoID)
	if err != nil {
		api.ErrorFromDomain(w, r, err)
		return
	}
	if comments == nil {
		comments = []types.VideoComment{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, comments)
}
