// Package server assembles the HTTP server of the mentorship backend.
//
// Route groups are contributed by RouteProviders; the Manager owns the
// router, the shared middleware chain and the http.Server lifecycle.
// The notifications websocket shares the API port.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/mentorlink/go-mentorship-backend/internal/api"
	"github.com/mentorlink/go-mentorship-backend/pkg/config"
	"github.com/mentorlink/go-mentorship-backend/pkg/metrics"
	"github.com/mentorlink/go-mentorship-backend/pkg/middleware"
)

// APIPrefix is the path prefix of every RouteProvider group
const APIPrefix = "/api"

// RouteProvider contributes a group of routes to the shared router
type RouteProvider interface {
	// RegisterRoutes adds the provider's routes under the /api group
	RegisterRoutes(api *gin.RouterGroup)

	// Name returns the provider name for logging
	Name() string
}

// Manager builds the router and runs the HTTP server
type Manager struct {
	cfg      *config.Config
	handlers *api.Handlers
	metrics  *metrics.Metrics
	logger   *zap.Logger

	providers []RouteProvider

	buildOnce sync.Once
	router    *gin.Engine

	httpServer *http.Server
	listener   net.Listener
}

// NewManager creates a new server manager. m may be nil.
func NewManager(cfg *config.Config, handlers *api.Handlers, m *metrics.Metrics, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		handlers:  handlers,
		metrics:   m,
		logger:    logger.Named("server"),
		providers: make([]RouteProvider, 0),
	}
}

// AddProvider adds a RouteProvider to the manager.
// Call this before Start or Handler.
func (m *Manager) AddProvider(p RouteProvider) {
	m.providers = append(m.providers, p)
	m.logger.Debug("Added route provider", zap.String("name", p.Name()))
}

// Handler returns the fully assembled router
func (m *Manager) Handler() http.Handler {
	m.buildOnce.Do(func() {
		m.router = m.buildRouter()
	})
	return m.router
}

// Start binds the configured address and serves in the background.
// Bind errors are returned synchronously.
func (m *Manager) Start(ctx context.Context) error {
	if m.cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	addr := m.cfg.Server.Address()
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	m.listener = ln

	m.httpServer = &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		m.logger.Info("HTTP server listening", zap.String("address", ln.Addr().String()))
		if err := m.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address once Start has succeeded
func (m *Manager) Addr() string {
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// Shutdown stops accepting connections and waits for in-flight requests
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.httpServer == nil {
		return nil
	}
	if err := m.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}

// buildRouter creates the router with the common middleware and every provider's routes
func (m *Manager) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if m.cfg.Tracing.Enabled {
		router.Use(otelgin.Middleware(m.cfg.Tracing.ServiceName))
	}
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(m.logger))
	if m.metrics != nil {
		router.Use(middleware.Metrics(m.metrics))
	}
	router.Use(cors.New(m.corsConfig()))
	router.Use(middleware.SecurityHeaders())

	m.addStatusEndpoints(router)

	group := router.Group(APIPrefix)
	for _, p := range m.providers {
		m.logger.Info("Registering routes", zap.String("provider", p.Name()))
		p.RegisterRoutes(group)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})

	return router
}

func (m *Manager) corsConfig() cors.Config {
	c := m.cfg.Server.CORS
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: c.AllowCredentials,
		MaxAge:           time.Duration(c.MaxAgeHours) * time.Hour,
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			// browsers reject a wildcard origin on credentialed requests
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cfg
		}
	}
	cfg.AllowOrigins = c.AllowedOrigins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOriginFunc = func(string) bool { return false }
	}
	return cfg
}

// addStatusEndpoints adds /health, /status and the metrics endpoint
func (m *Manager) addStatusEndpoints(router *gin.Engine) {
	router.GET("/health", m.handlers.Health)
	router.GET("/status", m.handlers.Status)

	if m.metrics != nil && m.cfg.Metrics.Enabled {
		path := m.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(m.metrics.Handler()))
	}
}
