package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mentorlink/go-mentorship-backend/internal/service"
	"github.com/mentorlink/go-mentorship-backend/pkg/config"
	"github.com/mentorlink/go-mentorship-backend/pkg/metrics"
	"github.com/mentorlink/go-mentorship-backend/pkg/middleware"
)

// Handlers aggregates all HTTP handlers
type Handlers struct {
	services *service.Services
	cfg      *config.Config
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance. m may be nil.
func NewHandlers(services *service.Services, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *Handlers {
	useJSONFieldNames()
	return &Handlers{
		services: services,
		cfg:      cfg,
		metrics:  m,
		logger:   logger.Named("handlers"),
	}
}

// Status handles the /status endpoint
func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Status:       "ok",
		Service:      "mentorship-backend",
		APIVersion:   CurrentAPIVersion,
		Capabilities: APICapabilities[CurrentAPIVersion],
		Storage:      h.cfg.Storage.Type,
	})
}

// Health handles the /health endpoint
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "Server is running!",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.cfg.Environment,
	})
}

// message writes a {"message": msg} body
func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

// validationFailed writes a 400 carrying every field message
func validationFailed(c *gin.Context, errs []string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"message": "Validation failed",
		"errors":  errs,
	})
}

// serverError logs err and writes a 500. The detail is only exposed outside production.
func (h *Handlers) serverError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg,
		zap.Error(err),
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("path", c.FullPath()),
	)
	body := gin.H{"message": "Server error"}
	if !h.cfg.IsProduction() {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

// currentUserID returns the caller id attached by the auth middleware
func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

// setAuthCookie stores the token in an HttpOnly cookie that lives as long as the token
func (h *Handlers) setAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.JWT.CookieName, token,
		int(h.services.Tokens.Expiry().Seconds()),
		"/", "", h.cfg.IsProduction(), true)
}

func (h *Handlers) clearAuthCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.JWT.CookieName, "", -1, "/", "", h.cfg.IsProduction(), true)
}
