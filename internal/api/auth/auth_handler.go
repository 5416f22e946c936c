package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ourbooktalk/booktalk-backend/app/observability/metrics"
	"github.com/ourbooktalk/booktalk-backend/internal/api"
	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

type AuthHandler struct {
	service AuthService
	logger  *slog.Logger
}

func NewAuthHandler(service AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.service.Register(r.Context(), req)
	metrics.Get().RegisterRequestsTotal.Add(r.Context(), 1)
	metrics.Get().RegisterDurationSeconds.Record(r.Context(), time.Since(start).Seconds())
	if err != nil {
		h.logger.WarnContext(r.Context(), "Registration failed", slog.Any("error", err))
		api.ErrorFromDomain(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, types.AuthResponse{
		Token: token,
		User:  user,
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	metrics.Get().LoginRequestsTotal.Add(r.Context(), 1)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Login failed", slog.Any("error", err))
		api.ErrorFromDomain(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.AuthResponse{
		Token: token,
		User:  user,
	})
}

// Me handles GET /api/auth/me, returning the identity the gate resolved.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, user)
}
