package auth

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/ourbooktalk/booktalk-backend/config"
	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

// MockAuthRepo is a mock implementation of the AuthRepo interface
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) CreateUser(ctx context.Context, params CreateUserParams) (*types.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey: "test-secret",
		Issuer:    "test-issuer",
		TokenTTL:  24 * time.Hour,
	}
}

func TestHashPassword(t *testing.T) {
	t.Run("HashesAreSalted", func(t *testing.T) {
		first, err := hashPassword("password123")
		assert.NoError(t, err)
		second, err := hashPassword("password123")
		assert.NoError(t, err)

		// Same input, different salt, different hash.
		assert.NotEqual(t, first, second)
		assert.NotEqual(t, "password123", first)
		assert.True(t, verifyPassword("password123", first))
		assert.True(t, verifyPassword("password123", second))
	})

	t.Run("WrongPasswordFailsVerification", func(t *testing.T) {
		hash, err := hashPassword("password123")
		assert.NoError(t, err)
		assert.False(t, verifyPassword("password124", hash))
	})

	t.Run("MalformedHashIsMismatchNotError", func(t *testing.T) {
		assert.False(t, verifyPassword("password123", "not-a-bcrypt-hash"))
	})
}

func TestVerifyToken(t *testing.T) {
	logger := slog.Default()
	service := NewAuthService(new(MockAuthRepo), testJWTConfig(), logger)

	t.Run("RoundTrip", func(t *testing.T) {
		userID := uuid.New()
		token, err := service.issueToken(userID)
		assert.NoError(t, err)
		assert.NotEmpty(t, token)

		parsedID, err := service.VerifyToken(token)
		assert.NoError(t, err)
		assert.Equal(t, userID, parsedID)
	})

	t.Run("GarbageToken", func(t *testing.T) {
		_, err := service.VerifyToken("garbage.token.value")
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		otherCfg := testJWTConfig()
		otherCfg.SecretKey = "a-different-secret"
		otherService := NewAuthService(new(MockAuthRepo), otherCfg, logger)

		token, err := otherService.issueToken(uuid.New())
		assert.NoError(t, err)

		_, err = service.VerifyToken(token)
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		shortCfg := testJWTConfig()
		shortCfg.TokenTTL = -time.Minute // already expired at issuance
		shortService := NewAuthService(new(MockAuthRepo), shortCfg, logger)

		token, err := shortService.issueToken(uuid.New())
		assert.NoError(t, err)

		_, err = shortService.VerifyToken(token)
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})
}

func TestRegister(t *testing.T) {
	logger := slog.Default()

	validReq := RegisterRequest{
		Username:  "alice123",
		Email:     "Alice@Example.com",
		Password:  "password123",
		FirstName: "Alice",
		LastName:  "Smith",
	}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), logger)
		ctx := context.Background()

		created := &types.User{
			ID:       uuid.New(),
			Username: "alice123",
			Email:    "alice@example.com",
		}

		mockRepo.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, types.ErrNotFound).Once()
		mockRepo.On("GetUserByUsername", mock.Anything, "alice123").Return(nil, types.ErrNotFound).Once()
		mockRepo.On("CreateUser", ctx, mock.MatchedBy(func(p CreateUserParams) bool {
			// The email is normalized and the hash is never the plaintext.
			return p.Email == "alice@example.com" &&
				p.PasswordHash != "password123" &&
				bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte("password123")) == nil
		})).Return(created, nil).Once()

		user, token, err := service.Register(ctx, validReq)

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, created.ID, user.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("MissingFields", func(t *testing.T) {
		service := NewAuthService(new(MockAuthRepo), testJWTConfig(), logger)

		req := validReq
		req.FirstName = ""
		_, _, err := service.Register(context.Background(), req)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		service := NewAuthService(new(MockAuthRepo), testJWTConfig(), logger)

		req := validReq
		req.Email = "not-an-email"
		_, _, err := service.Register(context.Background(), req)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("ShortUsername", func(t *testing.T) {
		service := NewAuthService(new(MockAuthRepo), testJWTConfig(), logger)

		req := validReq
		req.Username = "al"
		_, _, err := service.Register(context.Background(), req)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		service := NewAuthService(new(MockAuthRepo), testJWTConfig(), logger)

		req := validReq
		req.Password = "short"
		_, _, err := service.Register(context.Background(), req)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("EmailTaken", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), logger)

		existing := &types.User{ID: uuid.New(), Email: "alice@example.com"}
		mockRepo.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(existing, nil).Once()
		mockRepo.On("GetUserByUsername", mock.Anything, "alice123").Return(nil, types.ErrNotFound).Maybe()

		_, _, err := service.Register(context.Background(), validReq)
		assert.ErrorIs(t, err, types.ErrConflict)
		assert.True(t, strings.Contains(err.Error(), "email already registered"))
	})

	t.Run("UsernameTaken", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), logger)

		existing := &types.User{ID: uuid.New(), Username: "alice123"}
		mockRepo.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, types.ErrNotFound).Maybe()
		mockRepo.On("GetUserByUsername", mock.Anything, "alice123").Return(existing, nil).Once()

		_, _, err := service.Register(context.Background(), validReq)
		assert.ErrorIs(t, err, types.ErrConflict)
	})

	t.Run("ConcurrentRegistrationLosesRace", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), logger)

		// Both pre-checks pass but the insert hits the unique index.
		mockRepo.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(nil, types.ErrNotFound).Once()
		mockRepo.On("GetUserByUsername", mock.Anything, "alice123").Return(nil, types.ErrNotFound).Once()
		mockRepo.On("CreateUser", mock.Anything, mock.AnythingOfType("CreateUserParams")).Return(nil, types.ErrConflict).Once()

		_, _, err := service.Register(context.Background(), validReq)
		assert.ErrorIs(t, err, types.ErrConflict)
		mockRepo.AssertExpectations(t)
	})
}

func TestServiceLogin(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), logger)
		ctx := context.Background()

		hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user := &types.User{
			ID:           uuid.New(),
			Username:     "alice123",
			Email:        "alice@example.com",
			PasswordHash: string(hashed),
		}

		mockRepo.On("GetUserByEmail", ctx, "alice@example.com").Return(user, nil).Once()

		got, token, err := service.Login(ctx, "Alice@Example.com", "password123")

		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, user.ID, got.ID)
		assert.Empty(t, got.PasswordHash)
		mockRepo.AssertExpectations(t)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), logger)

		mockRepo.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, types.ErrNotFound).Once()

		_, _, err := service.Login(context.Background(), "nobody@example.com", "password123")
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), logger)

		hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user := &types.User{ID: uuid.New(), Email: "alice@example.com", PasswordHash: string(hashed)}

		mockRepo.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()

		_, _, err := service.Login(context.Background(), "alice@example.com", "password124")
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("UnknownEmailAndWrongPasswordLookAlike", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testJWTConfig(), logger)

		hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user := &types.User{ID: uuid.New(), Email: "alice@example.com", PasswordHash: string(hashed)}

		mockRepo.On("GetUserByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()
		mockRepo.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, types.ErrNotFound).Once()

		_, _, wrongPassErr := service.Login(context.Background(), "alice@example.com", "password124")
		_, _, unknownErr := service.Login(context.Background(), "nobody@example.com", "password123")

		// Account enumeration guard: identical failures.
		assert.Equal(t, wrongPassErr.Error(), unknownErr.Error())
	})

	t.Run("MissingCredentials", func(t *testing.T) {
		service := NewAuthService(new(MockAuthRepo), testJWTConfig(), logger)

		_, _, err := service.Login(context.Background(), "", "password123")
		assert.ErrorIs(t, err, types.ErrValidation)

		_, _, err = service.Login(context.Background(), "alice@example.com", "")
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}
