package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/service"
)

// DefaultScheduledDuration is used when a scheduling call omits the duration
const DefaultScheduledDuration = 30

var errInvalidDate = errors.New("scheduledAt must be a valid date")

// scheduleLayouts are tried in order; layouts without a zone are read as UTC
var scheduleLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// scheduleTime accepts RFC 3339 as well as the shorter ISO 8601 forms clients send
type scheduleTime struct {
	time.Time
}

func (t *scheduleTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errInvalidDate
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range scheduleLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return errInvalidDate
}

// scheduleBody distinguishes an omitted duration from an explicit zero
type scheduleBody struct {
	MentorID    string       `json:"mentorId" binding:"required"`
	ScheduledAt scheduleTime `json:"scheduledAt"`
	Duration    *int         `json:"duration"`
}

// ScheduleSession books a session between the caller and a mentor
func (h *Handlers) ScheduleSession(c *gin.Context) {
	var body scheduleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		var verrs validator.ValidationErrors
		switch {
		case errors.Is(err, errInvalidDate):
			validationFailed(c, []string{errInvalidDate.Error()})
		case errors.As(err, &verrs):
			message(c, http.StatusBadRequest, "Missing required fields")
		default:
			validationFailed(c, bindingErrors(err))
		}
		return
	}
	if body.ScheduledAt.IsZero() {
		message(c, http.StatusBadRequest, "Missing required fields")
		return
	}

	in := domain.ScheduleSessionInput{
		MentorID:    body.MentorID,
		ScheduledAt: body.ScheduledAt.Time,
		Duration:    DefaultScheduledDuration,
	}
	if body.Duration != nil {
		in.Duration = *body.Duration
		if in.Duration == 0 {
			validationFailed(c, []string{"Duration must be between 1 and 480 minutes"})
			return
		}
	}

	view, err := h.services.Sessions.Schedule(c.Request.Context(), currentUserID(c), in)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			validationFailed(c, verr.Errors)
		case errors.Is(err, service.ErrUserNotFound):
			message(c, http.StatusNotFound, "Mentor not found")
		default:
			h.serverError(c, "Failed to schedule session", err)
		}
		return
	}

	h.metrics.SessionTransition(string(view.Status))
	c.JSON(http.StatusCreated, gin.H{
		"message": "Session scheduled",
		"session": view,
	})
}

// ListMenteeSessions returns the sessions the caller attends as mentee
func (h *Handlers) ListMenteeSessions(c *gin.Context) {
	sessions, err := h.services.Sessions.ListForMentee(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.serverError(c, "Failed to list mentee sessions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// ListMentorSessions returns the sessions the caller runs as mentor
func (h *Handlers) ListMentorSessions(c *gin.Context) {
	sessions, err := h.services.Sessions.ListForMentor(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.serverError(c, "Failed to list mentor sessions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// SubmitFeedback records the mentee's rating of a session
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	var in domain.FeedbackInput
	if err := c.ShouldBindJSON(&in); err != nil {
		validationFailed(c, bindingErrors(err))
		return
	}

	view, err := h.services.Sessions.SubmitFeedback(c.Request.Context(), c.Param("id"), currentUserID(c), in)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			validationFailed(c, verr.Errors)
		case errors.Is(err, service.ErrSessionNotFound):
			message(c, http.StatusNotFound, "Session not found")
		case errors.Is(err, service.ErrForbidden):
			message(c, http.StatusForbidden, "Only mentee can leave feedback")
		case errors.Is(err, service.ErrInvalidState):
			message(c, http.StatusBadRequest, "Cannot leave feedback on a cancelled session")
		default:
			h.serverError(c, "Failed to submit feedback", err)
		}
		return
	}

	h.metrics.SessionTransition(string(view.Status))
	c.JSON(http.StatusOK, gin.H{
		"message": "Feedback submitted",
		"session": view,
	})
}

// CancelSession lets either participant cancel a scheduled session
func (h *Handlers) CancelSession(c *gin.Context) {
	view, err := h.services.Sessions.Cancel(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			message(c, http.StatusNotFound, "Session not found")
		case errors.Is(err, service.ErrForbidden):
			message(c, http.StatusForbidden, "Access denied")
		case errors.Is(err, service.ErrInvalidState):
			message(c, http.StatusBadRequest, "Only scheduled sessions can be cancelled")
		default:
			h.serverError(c, "Failed to cancel session", err)
		}
		return
	}

	h.metrics.SessionTransition(string(view.Status))
	c.JSON(http.StatusOK, gin.H{
		"message": "Session cancelled",
		"session": view,
	})
}
