package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mentorlink/go-mentorship-backend/internal/api"
	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/service"
	"github.com/mentorlink/go-mentorship-backend/internal/websocket"
	"github.com/mentorlink/go-mentorship-backend/pkg/config"
	"github.com/mentorlink/go-mentorship-backend/pkg/middleware"
)

// Deps are shared by every route provider
type Deps struct {
	Config   *config.Config
	Services *service.Services
	Handlers *api.Handlers
	Logger   *zap.Logger
}

// authenticate returns the auth middleware for protected routes
func (d Deps) authenticate() gin.HandlerFunc {
	return middleware.AuthMiddleware(d.Services.Tokens, d.Config.JWT.CookieName, d.Logger)
}

// =============================================================================
// Auth Provider - registration, login and the current session
// =============================================================================

// AuthProvider serves /api/auth
type AuthProvider struct {
	deps    Deps
	limiter *middleware.AuthRateLimiter
}

// NewAuthProvider creates the auth route provider. Registration and login
// are throttled by limiter.
func NewAuthProvider(deps Deps, limiter *middleware.AuthRateLimiter) *AuthProvider {
	return &AuthProvider{deps: deps, limiter: limiter}
}

func (p *AuthProvider) Name() string { return "auth" }

func (p *AuthProvider) RegisterRoutes(router *gin.RouterGroup) {
	h := p.deps.Handlers
	auth := router.Group("/auth")
	{
		throttled := auth.Group("")
		if p.limiter != nil {
			throttled.Use(middleware.AuthRateLimitMiddleware(p.limiter))
		}
		throttled.POST("/register", h.Register)
		throttled.POST("/login", h.Login)

		auth.POST("/logout", h.Logout)
		auth.GET("/me", p.deps.authenticate(), h.Me)
	}
}

// =============================================================================
// User Provider - profiles and the public directory
// =============================================================================

// UserProvider serves /api/users
type UserProvider struct {
	deps Deps
}

// NewUserProvider creates the user route provider
func NewUserProvider(deps Deps) *UserProvider {
	return &UserProvider{deps: deps}
}

func (p *UserProvider) Name() string { return "users" }

func (p *UserProvider) RegisterRoutes(router *gin.RouterGroup) {
	h := p.deps.Handlers
	authenticate := p.deps.authenticate()

	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/me", authenticate, h.GetProfile)
		users.PUT("/me/profile", authenticate, h.UpdateProfile)
		users.GET("/:id", h.GetUser)
	}
}

// =============================================================================
// Mentorship Provider - requests and sessions
// =============================================================================

// MentorshipProvider serves /api/requests and /api/sessions
type MentorshipProvider struct {
	deps Deps
}

// NewMentorshipProvider creates the mentorship route provider
func NewMentorshipProvider(deps Deps) *MentorshipProvider {
	return &MentorshipProvider{deps: deps}
}

func (p *MentorshipProvider) Name() string { return "mentorship" }

func (p *MentorshipProvider) RegisterRoutes(router *gin.RouterGroup) {
	h := p.deps.Handlers
	protected := router.Group("", p.deps.authenticate())

	requests := protected.Group("/requests")
	{
		requests.POST("", h.CreateRequest)
		requests.GET("/sent", h.ListSentRequests)
		requests.GET("/received", h.ListReceivedRequests)
		requests.GET("/:id", h.GetRequest)
		requests.PUT("/:id", h.RespondToRequest)
	}

	sessions := protected.Group("/sessions")
	{
		sessions.POST("", h.ScheduleSession)
		sessions.GET("/mentee", h.ListMenteeSessions)
		sessions.GET("/mentor", h.ListMentorSessions)
		sessions.PUT("/:id/feedback", h.SubmitFeedback)
		sessions.PUT("/:id/cancel", h.CancelSession)
	}
}

// =============================================================================
// Admin Provider - user administration
// =============================================================================

// AdminProvider serves /api/admin. The admin role is checked against
// storage on every call so demotions take effect immediately.
type AdminProvider struct {
	deps Deps
}

// NewAdminProvider creates the admin route provider
func NewAdminProvider(deps Deps) *AdminProvider {
	return &AdminProvider{deps: deps}
}

func (p *AdminProvider) Name() string { return "admin" }

func (p *AdminProvider) RegisterRoutes(router *gin.RouterGroup) {
	h := p.deps.Handlers
	admin := router.Group("/admin",
		p.deps.authenticate(),
		middleware.RequireLiveRole(p.deps.Services.User, p.deps.Logger, domain.RoleAdmin),
	)
	{
		admin.GET("/users", h.AdminListUsers)
		admin.PUT("/users/:id/role", h.AdminUpdateRole)
	}
}

// =============================================================================
// Notification Provider - websocket push
// =============================================================================

// NotificationProvider serves /api/notifications
type NotificationProvider struct {
	deps Deps
	hub  *websocket.Hub
}

// NewNotificationProvider creates the notification route provider
func NewNotificationProvider(deps Deps, hub *websocket.Hub) *NotificationProvider {
	return &NotificationProvider{deps: deps, hub: hub}
}

func (p *NotificationProvider) Name() string { return "notifications" }

func (p *NotificationProvider) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/notifications/ws", p.deps.authenticate(), p.hub.ServeWS)
}

// AddDefaultProviders registers every route group of the API.
// hub may be nil when notifications are disabled.
func AddDefaultProviders(m *Manager, deps Deps, limiter *middleware.AuthRateLimiter, hub *websocket.Hub) {
	m.AddProvider(NewAuthProvider(deps, limiter))
	m.AddProvider(NewUserProvider(deps))
	m.AddProvider(NewMentorshipProvider(deps))
	m.AddProvider(NewAdminProvider(deps))
	if hub != nil {
		m.AddProvider(NewNotificationProvider(deps, hub))
	}
}
