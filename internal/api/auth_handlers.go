package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/service"
	"github.com/mentorlink/go-mentorship-backend/pkg/middleware"
)

// Register creates an account and signs the new user in
func (h *Handlers) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.AuthAttempt("register", "invalid")
		validationFailed(c, bindingErrors(err))
		return
	}

	user, token, err := h.services.User.Register(c.Request.Context(), &req)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			h.metrics.AuthAttempt("register", "invalid")
			validationFailed(c, verr.Errors)
		case errors.Is(err, service.ErrUserExists):
			h.metrics.AuthAttempt("register", "duplicate")
			message(c, http.StatusBadRequest, "User already exists with this email")
		default:
			h.metrics.AuthAttempt("register", "error")
			h.serverError(c, "Failed to register user", err)
		}
		return
	}

	h.metrics.AuthAttempt("register", "success")
	h.setAuthCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user,
		"token":   token,
	})
}

// Login authenticates with email and password
func (h *Handlers) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.AuthAttempt("login", "invalid")
		message(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, token, err := h.services.User.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.metrics.AuthAttempt("login", "failure")
			message(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.metrics.AuthAttempt("login", "error")
		h.serverError(c, "Failed to log in", err)
		return
	}

	h.metrics.AuthAttempt("login", "success")
	h.setAuthCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

// Logout clears the auth cookie and revokes the token when revocation is enabled.
// It succeeds for anonymous callers too.
func (h *Handlers) Logout(c *gin.Context) {
	token := middleware.TokenFromRequest(c, h.cfg.JWT.CookieName)
	if err := h.services.User.Logout(c.Request.Context(), token); err != nil {
		h.logger.Debug("Token not revoked on logout", zap.Error(err))
	}
	h.clearAuthCookie(c)
	message(c, http.StatusOK, "Logged out")
}

// Me returns the full record of the calling user
func (h *Handlers) Me(c *gin.Context) {
	user, err := h.services.User.GetUserByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			message(c, http.StatusNotFound, "User not found")
			return
		}
		h.serverError(c, "Failed to get user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
