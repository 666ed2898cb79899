package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mentorlink/go-mentorship-backend/internal/api"
	"github.com/mentorlink/go-mentorship-backend/internal/backend"
	"github.com/mentorlink/go-mentorship-backend/internal/server"
	"github.com/mentorlink/go-mentorship-backend/internal/service"
	"github.com/mentorlink/go-mentorship-backend/internal/websocket"
	"github.com/mentorlink/go-mentorship-backend/pkg/config"
	"github.com/mentorlink/go-mentorship-backend/pkg/logging"
	"github.com/mentorlink/go-mentorship-backend/pkg/metrics"
	"github.com/mentorlink/go-mentorship-backend/pkg/middleware"
	"github.com/mentorlink/go-mentorship-backend/pkg/tracing"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile    = flag.String("env-file", ".env", "Optional dotenv file loaded before the configuration")
	version    = "dev"
	buildTime  = "unknown"
)

func main() {
	flag.Parse()

	// Variables already set in the environment win over the dotenv file
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting Mentorship Backend Server",
		zap.String("version", version),
		zap.String("build_time", buildTime),
		zap.String("environment", cfg.Environment),
	)
	if cfg.JWT.Secret == config.InsecureDefaultSecret {
		logger.Warn("Using the built-in development JWT secret; set MENTORSHIP_JWT_SECRET")
	}

	shutdownTracing, err := tracing.Setup(context.Background(), cfg.Tracing, cfg.Environment, version, logger)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Initialize storage backend
	connectTimeout := time.Duration(cfg.Storage.MongoDB.Timeout) * time.Second
	if connectTimeout <= 0 {
		connectTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	store, err := backend.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("Failed to initialize storage backend", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	// Ping storage to verify connection
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	err = store.Ping(ctx)
	cancel()
	if err != nil {
		logger.Fatal("Failed to ping storage", zap.Error(err))
	}
	logger.Info("Storage backend initialized", zap.String("type", string(store.Type())))

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	var hub *websocket.Hub
	var notifier service.Notifier = service.NopNotifier{}
	if cfg.Notifications.Enabled {
		hub = websocket.NewHub(cfg.Notifications, cfg.Server.CORS.AllowedOrigins, m, logger)
		notifier = hub
	}

	services := service.NewServices(store, cfg, notifier, logger)
	services.Start()

	handlers := api.NewHandlers(services, cfg, m, logger)
	limiter := middleware.NewAuthRateLimiter(cfg.Security.AuthRateLimit, logger)

	mgr := server.NewManager(cfg, handlers, m, logger)
	server.AddDefaultProviders(mgr, server.Deps{
		Config:   cfg,
		Services: services,
		Handlers: handlers,
		Logger:   logger,
	}, limiter, hub)

	if err := mgr.Start(context.Background()); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down server...", zap.String("signal", sig.String()))

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Hijacked websocket connections are not tracked by http.Server
	if hub != nil {
		hub.Close()
	}
	if err := mgr.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	services.Stop()
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("Failed to flush traces", zap.Error(err))
	}

	logger.Info("Server exited")
}
