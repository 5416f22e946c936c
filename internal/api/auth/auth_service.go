package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/ourbooktalk/booktalk-backend/config"
	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService covers the three auth operations plus the token/identity
// primitives the middleware composes.
type AuthService interface {
	// Register validates input, enforces credential uniqueness, hashes the
	// password and persists the user, then issues a token for it.
	Register(ctx context.Context, req RegisterRequest) (*types.User, string, error)
	// Login verifies email/password and issues a token. Unknown email and
	// wrong password are indistinguishable to the caller.
	Login(ctx context.Context, email, password string) (*types.User, string, error)
	// VerifyToken checks signature and expiry and returns the user id claim.
	VerifyToken(tokenString string) (uuid.UUID, error)
	// GetUserByID resolves a verified claim to a live, sanitized user.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	jwtCfg config.JWTConfig
}

func NewAuthService(repo AuthRepo, jwtCfg config.JWTConfig, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		jwtCfg: jwtCfg,
	}
}

// hashPassword computes a salted bcrypt hash. bcrypt embeds the salt and the
// cost factor in its output, so verification needs no side channel.
func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// verifyPassword reports whether the plaintext matches the stored hash.
// A malformed hash counts as a mismatch, never an error.
func verifyPassword(password, passwordHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) == nil
}

// issueToken mints a signed bearer token whose only custom claim is the user
// id. Tokens are stateless: nothing is persisted and there is no revocation
// before expiry.
func (s *AuthServiceImpl) issueToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := types.Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtCfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtCfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtCfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthServiceImpl) VerifyToken(tokenString string) (uuid.UUID, error) {
	claims := &types.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtCfg.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("token is not valid: %w", types.ErrUnauthenticated)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token is not valid: %w", types.ErrUnauthenticated)
	}
	return userID, nil
}

func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) (*types.User, string, error) {
	l := s.logger.With(slog.String("method", "Register"))

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)

	if username == "" || email == "" || req.Password == "" || firstName == "" || lastName == "" {
		return nil, "", fmt.Errorf("all fields are required: %w", types.ErrValidation)
	}
	if !emailShape.MatchString(email) {
		return nil, "", fmt.Errorf("invalid email address: %w", types.ErrValidation)
	}
	if len(username) < minUsernameLen {
		return nil, "", fmt.Errorf("username must be at least %d characters: %w", minUsernameLen, types.ErrValidation)
	}
	if len(req.Password) < minPasswordLen {
		return nil, "", fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, types.ErrValidation)
	}

	// Advisory pre-check for friendlier errors. Both lookups run
	// concurrently; the unique index on the insert below is the authority.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.repo.GetUserByEmail(gctx, email)
		if err == nil {
			return fmt.Errorf("email already registered: %w", types.ErrConflict)
		}
		if errors.Is(err, types.ErrNotFound) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		_, err := s.repo.GetUserByUsername(gctx, username)
		if err == nil {
			return fmt.Errorf("username already taken: %w", types.ErrConflict)
		}
		if errors.Is(err, types.ErrNotFound) {
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		l.ErrorContext(ctx, "Password hashing failed", slog.Any("error", err))
		return nil, "", err
	}

	user, err := s.repo.CreateUser(ctx, CreateUserParams{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
	})
	if err != nil {
		// A concurrent registration may win the race between the pre-check
		// and the insert; the repo already translated 23505 to ErrConflict.
		return nil, "", err
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		l.ErrorContext(ctx, "Token issuance failed", slog.Any("error", err))
		return nil, "", err
	}

	l.InfoContext(ctx, "User registered", slog.String("userID", user.ID.String()))
	return user, token, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*types.User, string, error) {
	l := s.logger.With(slog.String("method", "Login"))

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("email and password are required: %w", types.ErrValidation)
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			// Collapse into the same failure as a wrong password so callers
			// cannot enumerate accounts.
			return nil, "", types.ErrUnauthenticated
		}
		return nil, "", err
	}

	if !verifyPassword(password, user.PasswordHash) {
		return nil, "", types.ErrUnauthenticated
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		l.ErrorContext(ctx, "Token issuance failed", slog.Any("error", err))
		return nil, "", err
	}

	user.PasswordHash = ""
	l.InfoContext(ctx, "User logged in", slog.String("userID", user.ID.String()))
	return user, token, nil
}

func (s *AuthServiceImpl) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}
