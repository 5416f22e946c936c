package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ourbooktalk/booktalk-backend/app/observability/metrics"
	"github.com/ourbooktalk/booktalk-backend/internal/api"
	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

// Typed context keys so nothing outside this package can collide with them.
type contextKey string

const userContextKey contextKey = "authUser"

// TokenHeader is checked before the standard Authorization header.
const TokenHeader = "x-auth-token"

// extractToken pulls the candidate token from the request: the dedicated
// header wins; otherwise a Bearer-prefixed Authorization header is accepted.
func extractToken(r *http.Request) string {
	if token := r.Header.Get(TokenHeader); token != "" {
		return token
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// Authenticate is the authorization gate: it extracts a bearer token,
// verifies signature and expiry, resolves the claim to a live user and
// attaches it to the request context, or rejects with 401. A stale claim
// (user deleted after issuance) is indistinguishable from a bad signature.
func Authenticate(logger *slog.Logger, service AuthService) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			tokenString := extractToken(r)
			if tokenString == "" {
				l.WarnContext(ctx, "No token found in request headers")
				metrics.Get().AuthRejectionsTotal.Add(ctx, 1)
				api.ErrorResponse(w, r, http.StatusUnauthorized, "No token, authorization denied")
				return
			}

			userID, err := service.VerifyToken(tokenString)
			if err != nil {
				l.WarnContext(ctx, "Token verification failed", slog.Any("error", err))
				metrics.Get().AuthRejectionsTotal.Add(ctx, 1)
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
				return
			}

			user, err := service.GetUserByID(ctx, userID)
			if err != nil {
				l.WarnContext(ctx, "Token user lookup failed",
					slog.String("userID", userID.String()), slog.Any("error", err))
				if errors.Is(err, types.ErrUnavailable) {
					api.ErrorFromDomain(w, r, err)
					return
				}
				// User deleted after issuance: same rejection as a bad
				// signature so the failure modes cannot be told apart.
				metrics.Get().AuthRejectionsTotal.Add(ctx, 1)
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Token is not valid")
				return
			}

			ctx = context.WithValue(ctx, userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the identity attached by Authenticate.
func UserFromContext(ctx context.Context) (*types.User, bool) {
	user, ok := ctx.Value(userContextKey).(*types.User)
	return user, ok
}
