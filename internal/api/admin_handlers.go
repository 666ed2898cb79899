package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/service"
)

// updateRoleBody is the body of a role change
type updateRoleBody struct {
	Role string `json:"role"`
}

// AdminListUsers returns every user record
func (h *Handlers) AdminListUsers(c *gin.Context) {
	users, err := h.services.User.ListAllUsers(c.Request.Context())
	if err != nil {
		h.serverError(c, "Failed to list users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// AdminUpdateRole changes a user's role
func (h *Handlers) AdminUpdateRole(c *gin.Context) {
	var body updateRoleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		message(c, http.StatusBadRequest, "Invalid role")
		return
	}
	role, err := domain.ParseRole(body.Role)
	if err != nil {
		message(c, http.StatusBadRequest, "Invalid role")
		return
	}

	user, err := h.services.User.UpdateRole(c.Request.Context(), c.Param("id"), role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			message(c, http.StatusBadRequest, "Invalid role")
		case errors.Is(err, service.ErrUserNotFound):
			message(c, http.StatusNotFound, "User not found")
		default:
			h.serverError(c, "Failed to update role", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Role updated",
		"user":    user,
	})
}
