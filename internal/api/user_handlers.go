package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/service"
)

// GetProfile returns the calling user's record
func (h *Handlers) GetProfile(c *gin.Context) {
	h.Me(c)
}

// UpdateProfile replaces the calling user's profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var profile domain.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		validationFailed(c, bindingErrors(err))
		return
	}

	user, err := h.services.User.UpdateProfile(c.Request.Context(), currentUserID(c), profile)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			validationFailed(c, verr.Errors)
		case errors.Is(err, service.ErrUserNotFound):
			message(c, http.StatusNotFound, "User not found")
		default:
			h.serverError(c, "Failed to update profile", err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// ListUsers serves the public directory
func (h *Handlers) ListUsers(c *gin.Context) {
	filter := domain.UserFilter{
		Role:   domain.Role(c.Query("role")),
		Skills: skillsQuery(c),
	}

	var errs []string
	var ok bool
	if filter.Page, ok = intQuery(c, "page", 1); !ok {
		errs = append(errs, "page must be a positive integer")
	}
	if filter.Limit, ok = intQuery(c, "limit", service.DefaultPageLimit); !ok {
		errs = append(errs, "limit must be a positive integer")
	}
	if len(errs) > 0 {
		validationFailed(c, errs)
		return
	}

	users, pagination, err := h.services.User.ListUsers(c.Request.Context(), filter)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			validationFailed(c, verr.Errors)
			return
		}
		h.serverError(c, "Failed to list users", err)
		return
	}

	public := make([]*domain.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	c.JSON(http.StatusOK, gin.H{
		"users":      public,
		"pagination": pagination,
	})
}

// GetUser returns the public view of any user
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.services.User.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			message(c, http.StatusNotFound, "User not found")
			return
		}
		h.serverError(c, "Failed to get user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

// skillsQuery accepts ?skills=a&skills=b as well as ?skills=a,b
func skillsQuery(c *gin.Context) []string {
	var skills []string
	for _, v := range c.QueryArray("skills") {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				skills = append(skills, s)
			}
		}
	}
	return skills
}

// intQuery parses a positive integer parameter, returning def when it is absent
func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
