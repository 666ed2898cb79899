package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/service"
)

// CreateRequest sends a mentorship request from the caller to a mentor
func (h *Handlers) CreateRequest(c *gin.Context) {
	var in domain.CreateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		validationFailed(c, bindingErrors(err))
		return
	}

	view, err := h.services.Requests.Create(c.Request.Context(), currentUserID(c), in)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			validationFailed(c, verr.Errors)
		case errors.Is(err, service.ErrUserNotFound):
			message(c, http.StatusNotFound, "Mentor not found")
		case errors.Is(err, service.ErrDuplicateRequest):
			message(c, http.StatusBadRequest, "You already have a pending or active request with this mentor")
		default:
			h.serverError(c, "Failed to create mentorship request", err)
		}
		return
	}

	h.metrics.RequestTransition(string(view.Status))
	c.JSON(http.StatusCreated, gin.H{
		"message": "Mentorship request sent successfully",
		"request": view,
	})
}

// ListSentRequests returns the requests the caller has sent
func (h *Handlers) ListSentRequests(c *gin.Context) {
	requests, err := h.services.Requests.ListSent(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.serverError(c, "Failed to list sent requests", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ListReceivedRequests returns the requests addressed to the caller
func (h *Handlers) ListReceivedRequests(c *gin.Context) {
	requests, err := h.services.Requests.ListReceived(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.serverError(c, "Failed to list received requests", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// GetRequest returns a request to one of its participants
func (h *Handlers) GetRequest(c *gin.Context) {
	view, err := h.services.Requests.Get(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			message(c, http.StatusNotFound, "Request not found")
		case errors.Is(err, service.ErrForbidden):
			message(c, http.StatusForbidden, "Access denied")
		default:
			h.serverError(c, "Failed to get mentorship request", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": view})
}

// RespondToRequest lets the addressed mentor accept or reject a request
func (h *Handlers) RespondToRequest(c *gin.Context) {
	var in domain.RespondRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		validationFailed(c, bindingErrors(err))
		return
	}

	view, err := h.services.Requests.Respond(c.Request.Context(), c.Param("id"), currentUserID(c), in.Status)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			validationFailed(c, verr.Errors)
		case errors.Is(err, service.ErrRequestNotFound):
			message(c, http.StatusNotFound, "Request not found")
		case errors.Is(err, service.ErrForbidden):
			message(c, http.StatusForbidden, "You can only respond to requests sent to you")
		case errors.Is(err, service.ErrInvalidState):
			message(c, http.StatusBadRequest, "Request has already been responded to")
		default:
			h.serverError(c, "Failed to respond to mentorship request", err)
		}
		return
	}

	h.metrics.RequestTransition(string(view.Status))
	c.JSON(http.StatusOK, gin.H{
		"message": "Request " + string(view.Status) + " successfully",
		"request": view,
	})
}
