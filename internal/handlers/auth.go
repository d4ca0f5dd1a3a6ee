package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"quickchat/internal/auth"
	"quickchat/internal/media"
	"quickchat/internal/repositories"
)

// AuthHandler manages signup, login and profile endpoints.
type AuthHandler struct {
	users    repositories.UserRepository
	tokens   *auth.TokenManager
	uploader media.Uploader
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(users repositories.UserRepository, tokens *auth.TokenManager, uploader media.Uploader) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, uploader: uploader}
}

// Signup registers a new account and returns it with a bearer token.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Fullname string `json:"fullname" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Bio      string `json:"bio" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please fill all the fields"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), req.Fullname, req.Email, hash, req.Bio)
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

// Login verifies credentials and returns the account with a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please fill all the fields"})
		return
	}

	user, err := h.users.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Check returns the authenticated account.
func (h *AuthHandler) Check(c *gin.Context) {
	userID := c.GetInt("userID")

	user, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile updates fullname and bio, uploading a new profile picture
// first when one is supplied. An upload failure aborts the whole update.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		Fullname string `json:"fullname" binding:"required"`
		Bio      string `json:"bio"`
		Pic      string `json:"pic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please fill all the fields"})
		return
	}

	userID := c.GetInt("userID")

	picURL := ""
	if req.Pic != "" {
		raw, err := decodeImagePayload(req.Pic)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image payload"})
			return
		}
		picURL, err = h.uploader.Upload(c.Request.Context(), raw)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to upload picture"})
			return
		}
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, req.Fullname, req.Bio, picURL)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
