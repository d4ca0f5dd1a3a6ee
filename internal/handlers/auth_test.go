package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quickchat/internal/auth"
	"quickchat/internal/mocks"
	"quickchat/internal/models"
	"quickchat/internal/repositories"
)

func testTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", time.Hour)
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/api/auth/signup", handler.Signup)
	r.POST("/api/auth/login", handler.Login)
	r.GET("/api/auth/check", handler.Check)
	r.PUT("/api/auth/update-profile", handler.UpdateProfile)
	return r
}

func TestSignupSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokenManager(), new(mocks.UploaderMock))
	router := setupAuthRouter(handler)

	users.On("CreateUser", mock.Anything, "Alice", "alice@example.com", mock.Anything, "hello").
		Return(models.User{ID: 1, Fullname: "Alice", Email: "alice@example.com"}, nil).Once()

	body := bytes.NewBufferString(`{"fullname":"Alice","email":"alice@example.com","password":"secret1","bio":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp["token"])
	users.AssertExpectations(t)
}

func TestSignupDuplicateEmail(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokenManager(), new(mocks.UploaderMock))
	router := setupAuthRouter(handler)

	users.On("CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(models.User{}, repositories.ErrEmailTaken).Once()

	body := bytes.NewBufferString(`{"fullname":"Alice","email":"alice@example.com","password":"secret1","bio":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertExpectations(t)
}

func TestSignupMissingFields(t *testing.T) {
	handler := NewAuthHandler(new(mocks.UserRepositoryMock), testTokenManager(), new(mocks.UploaderMock))
	router := setupAuthRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewBufferString(`{"email":"a@b.c"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokenManager(), new(mocks.UploaderMock))
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	users.On("GetUserByEmail", mock.Anything, "alice@example.com").
		Return(models.User{ID: 1, Email: "alice@example.com", Password: hash}, nil).Once()

	body := bytes.NewBufferString(`{"email":"alice@example.com","password":"secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokenManager(), new(mocks.UploaderMock))
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)
	users.On("GetUserByEmail", mock.Anything, "alice@example.com").
		Return(models.User{ID: 1, Email: "alice@example.com", Password: hash}, nil).Once()

	body := bytes.NewBufferString(`{"email":"alice@example.com","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokenManager(), new(mocks.UploaderMock))
	router := setupAuthRouter(handler)

	users.On("GetUserByEmail", mock.Anything, "ghost@example.com").
		Return(models.User{}, repositories.ErrUserNotFound).Once()

	body := bytes.NewBufferString(`{"email":"ghost@example.com","password":"whatever"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckReturnsUser(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokenManager(), new(mocks.UploaderMock))
	router := setupAuthRouter(handler)

	users.On("GetUserByID", mock.Anything, 1).Return(models.User{ID: 1, Fullname: "Alice"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestUpdateProfileWithPicture(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	uploader := new(mocks.UploaderMock)
	handler := NewAuthHandler(users, testTokenManager(), uploader)
	router := setupAuthRouter(handler)

	uploader.On("Upload", mock.Anything, []byte("img")).Return("https://media.example/p.png", nil).Once()
	users.On("UpdateProfile", mock.Anything, 1, "Alice", "new bio", "https://media.example/p.png").
		Return(models.User{ID: 1, Fullname: "Alice", Pic: "https://media.example/p.png"}, nil).Once()

	body := bytes.NewBufferString(`{"fullname":"Alice","bio":"new bio","pic":"data:image/png;base64,aW1n"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/auth/update-profile", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	uploader.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestUpdateProfileUploadFailureAborts(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	uploader := new(mocks.UploaderMock)
	handler := NewAuthHandler(users, testTokenManager(), uploader)
	router := setupAuthRouter(handler)

	uploader.On("Upload", mock.Anything, mock.Anything).Return("", assert.AnError).Once()

	body := bytes.NewBufferString(`{"fullname":"Alice","bio":"new bio","pic":"aW1n"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/auth/update-profile", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	users.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProfileWithoutPicture(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokenManager(), new(mocks.UploaderMock))
	router := setupAuthRouter(handler)

	users.On("UpdateProfile", mock.Anything, 1, "Alice", "bio", "").
		Return(models.User{ID: 1, Fullname: "Alice"}, nil).Once()

	body := bytes.NewBufferString(`{"fullname":"Alice","bio":"bio"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/auth/update-profile", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}
