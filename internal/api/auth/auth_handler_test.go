package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ourbooktalk/booktalk-backend/internal/types"
)

func TestRegisterHandler(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, logger)

		user := &types.User{ID: uuid.New(), Username: "alice123", Email: "alice@example.com"}
		mockService.On("Register", mock.Anything, mock.AnythingOfType("RegisterRequest")).
			Return(user, "signed-token", nil).Once()

		body, _ := json.Marshal(RegisterRequest{
			Username:  "alice123",
			Email:     "alice@example.com",
			Password:  "password123",
			FirstName: "Alice",
			LastName:  "Smith",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		handler.Register(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp types.AuthResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "signed-token", resp.Token)
		assert.Equal(t, "alice123", resp.User.Username)
		mockService.AssertExpectations(t)
	})

	t.Run("ValidationFailure", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, logger)

		mockService.On("Register", mock.Anything, mock.AnythingOfType("RegisterRequest")).
			Return(nil, "", types.ErrValidation).Once()

		body, _ := json.Marshal(RegisterRequest{Username: "al"})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		handler.Register(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("DuplicateCredentials", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, logger)

		mockService.On("Register", mock.Anything, mock.AnythingOfType("RegisterRequest")).
			Return(nil, "", types.ErrConflict).Once()

		body, _ := json.Marshal(RegisterRequest{
			Username:  "alice123",
			Email:     "alice@example.com",
			Password:  "password123",
			FirstName: "Alice",
			LastName:  "Smith",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		handler.Register(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), "email or username already exists")
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader([]byte("{not json")))
		rr := httptest.NewRecorder()

		handler.Register(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})
}

func TestLoginHandler(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, logger)

		user := &types.User{ID: uuid.New(), Username: "alice123", Email: "alice@example.com"}
		mockService.On("Login", mock.Anything, "alice@example.com", "password123").
			Return(user, "signed-token", nil).Once()

		body, _ := json.Marshal(LoginRequest{Email: "alice@example.com", Password: "password123"})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		handler.Login(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp types.AuthResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "signed-token", resp.Token)
		mockService.AssertExpectations(t)
	})

	t.Run("BadCredentials", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, logger)

		mockService.On("Login", mock.Anything, "alice@example.com", "wrong").
			Return(nil, "", types.ErrUnauthenticated).Once()

		body, _ := json.Marshal(LoginRequest{Email: "alice@example.com", Password: "wrong"})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		handler.Login(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "invalid email or password")
	})

	t.Run("StoreUnavailable", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, logger)

		mockService.On("Login", mock.Anything, "alice@example.com", "password123").
			Return(nil, "", types.ErrUnavailable).Once()

		body, _ := json.Marshal(LoginRequest{Email: "alice@example.com", Password: "password123"})
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
		rr := httptest.NewRecorder()

		handler.Login(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestMeHandler(t *testing.T) {
	logger := slog.Default()

	t.Run("ReturnsResolvedIdentity", func(t *testing.T) {
		handler := NewAuthHandler(new(MockAuthService), logger)

		user := &types.User{ID: uuid.New(), Username: "alice123"}
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req = req.WithContext(context.WithValue(req.Context(), userContextKey, user))
		rr := httptest.NewRecorder()

		handler.Me(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "alice123")
	})

	t.Run("MissingIdentity", func(t *testing.T) {
		handler := NewAuthHandler(new(MockAuthService), logger)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		rr := httptest.NewRecorder()

		handler.Me(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
