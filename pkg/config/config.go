package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides
const EnvPrefix = "MENTORSHIP"

// InsecureDefaultSecret is used when no JWT secret is configured.
// It is refused when running in production.
const InsecureDefaultSecret = "insecure-development-secret-change-me"

// Config represents the application configuration
type Config struct {
	Environment string         `yaml:"environment" envconfig:"ENVIRONMENT"`
	Server      ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Storage     StorageConfig  `yaml:"storage" envconfig:"STORAGE"`
	Logging     LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	JWT         JWTConfig      `yaml:"jwt" envconfig:"JWT"`
	Security    SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Tracing     TracingConfig  `yaml:"tracing" envconfig:"TRACING"`
	Metrics     MetricsConfig  `yaml:"metrics" envconfig:"METRICS"`

	Notifications NotificationsConfig `yaml:"notifications" envconfig:"NOTIFICATIONS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string     `yaml:"host" envconfig:"HOST"`
	Port            int        `yaml:"port" envconfig:"PORT"`
	ShutdownTimeout int        `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"` // seconds
	CORS            CORSConfig `yaml:"cors" envconfig:"CORS"`
}

// CORSConfig contains cross-origin settings for browser clients
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	AllowCredentials bool     `yaml:"allow_credentials" envconfig:"ALLOW_CREDENTIALS"`
	MaxAgeHours      int      `yaml:"max_age_hours" envconfig:"MAX_AGE_HOURS"`
}

// StorageConfig contains storage configuration
type StorageConfig struct {
	Type    string        `yaml:"type" envconfig:"TYPE"` // memory, mongodb
	MongoDB MongoDBConfig `yaml:"mongodb" envconfig:"MONGODB"`
}

// MongoDBConfig contains MongoDB-specific configuration
type MongoDBConfig struct {
	URI           string `yaml:"uri" envconfig:"URI"`
	Database      string `yaml:"database" envconfig:"DATABASE"`
	Timeout       int    `yaml:"timeout" envconfig:"TIMEOUT"`               // server selection / connect, seconds
	SocketTimeout int    `yaml:"socket_timeout" envconfig:"SOCKET_TIMEOUT"` // seconds
	MaxPoolSize   uint64 `yaml:"max_pool_size" envconfig:"MAX_POOL_SIZE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" envconfig:"LEVEL"`   // debug, info, warn, error
	Format     string `yaml:"format" envconfig:"FORMAT"` // json, text
	File       string `yaml:"file" envconfig:"FILE"`     // optional rotating log file
	MaxSizeMB  int    `yaml:"max_size_mb" envconfig:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" envconfig:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" envconfig:"MAX_AGE_DAYS"`
}

// JWTConfig contains JWT configuration
type JWTConfig struct {
	Secret      string `yaml:"secret" envconfig:"SECRET"`
	ExpiryHours int    `yaml:"expiry_hours" envconfig:"EXPIRY_HOURS"`
	Issuer      string `yaml:"issuer" envconfig:"ISSUER"`
	CookieName  string `yaml:"cookie_name" envconfig:"COOKIE_NAME"`
}

// SecurityConfig contains authentication hardening settings
type SecurityConfig struct {
	AuthRateLimit  AuthRateLimitConfig  `yaml:"auth_rate_limit" envconfig:"AUTH_RATE_LIMIT"`
	TokenBlacklist TokenBlacklistConfig `yaml:"token_blacklist" envconfig:"TOKEN_BLACKLIST"`
	// AdminEmails may self-register with the admin role
	AdminEmails []string `yaml:"admin_emails" envconfig:"ADMIN_EMAILS"`
	BcryptCost  int      `yaml:"bcrypt_cost" envconfig:"BCRYPT_COST"`
}

// AuthRateLimitConfig limits login and registration attempts per client
type AuthRateLimitConfig struct {
	Enabled        bool `yaml:"enabled" envconfig:"ENABLED"`
	MaxAttempts    int  `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS"`
	WindowSeconds  int  `yaml:"window_seconds" envconfig:"WINDOW_SECONDS"`
	LockoutSeconds int  `yaml:"lockout_seconds" envconfig:"LOCKOUT_SECONDS"`
}

// SetDefaults fills zero values with defaults
func (c *AuthRateLimitConfig) SetDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 10
	}
	if c.WindowSeconds <= 0 {
		c.WindowSeconds = 60
	}
	if c.LockoutSeconds <= 0 {
		c.LockoutSeconds = 300
	}
}

// TokenBlacklistConfig enables revocation of tokens on logout
type TokenBlacklistConfig struct {
	Enabled                bool `yaml:"enabled" envconfig:"ENABLED"`
	CleanupIntervalMinutes int  `yaml:"cleanup_interval_minutes" envconfig:"CLEANUP_INTERVAL_MINUTES"`
}

// SetDefaults fills zero values with defaults
func (c *TokenBlacklistConfig) SetDefaults() {
	if c.CleanupIntervalMinutes <= 0 {
		c.CleanupIntervalMinutes = 5
	}
}

// TracingConfig contains OpenTelemetry exporter settings
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" envconfig:"ENABLED"`
	Endpoint    string  `yaml:"endpoint" envconfig:"ENDPOINT"` // host:port of the OTLP/HTTP collector
	Insecure    bool    `yaml:"insecure" envconfig:"INSECURE"`
	ServiceName string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// MetricsConfig contains prometheus settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	Path    string `yaml:"path" envconfig:"HTTP_PATH"`
}

// NotificationsConfig contains websocket push settings
type NotificationsConfig struct {
	Enabled             bool `yaml:"enabled" envconfig:"ENABLED"`
	SendBuffer          int  `yaml:"send_buffer" envconfig:"SEND_BUFFER"` // queued events per connection
	PingIntervalSeconds int  `yaml:"ping_interval_seconds" envconfig:"PING_INTERVAL_SECONDS"`
}

// SetDefaults fills zero values with defaults
func (c *NotificationsConfig) SetDefaults() {
	if c.SendBuffer <= 0 {
		c.SendBuffer = 16
	}
	if c.PingIntervalSeconds <= 0 {
		c.PingIntervalSeconds = 30
	}
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Load from YAML file if provided (overrides defaults)
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// File doesn't exist, that's ok - we'll use defaults and env vars
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if cfg.JWT.Secret == "" && !cfg.IsProduction() {
		cfg.JWT.Secret = InsecureDefaultSecret
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible default values
func defaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ShutdownTimeout: 30,
			CORS: CORSConfig{
				AllowedOrigins:   []string{"http://localhost:3000"},
				AllowCredentials: true,
				MaxAgeHours:      12,
			},
		},
		Storage: StorageConfig{
			Type: "memory",
			MongoDB: MongoDBConfig{
				URI:           "mongodb://localhost:27017",
				Database:      "mentorship",
				Timeout:       30,
				SocketTimeout: 45,
				MaxPoolSize:   10,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		JWT: JWTConfig{
			ExpiryHours: 168,
			Issuer:      "mentorship-backend",
			CookieName:  "token",
		},
		Security: SecurityConfig{
			AuthRateLimit: AuthRateLimitConfig{
				Enabled:        true,
				MaxAttempts:    10,
				WindowSeconds:  60,
				LockoutSeconds: 300,
			},
			TokenBlacklist: TokenBlacklistConfig{
				CleanupIntervalMinutes: 5,
			},
			BcryptCost: 12,
		},
		Tracing: TracingConfig{
			Endpoint:    "localhost:4318",
			Insecure:    true,
			ServiceName: "mentorship-backend",
			SampleRatio: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Notifications: NotificationsConfig{
			Enabled:             true,
			SendBuffer:          16,
			PingIntervalSeconds: 30,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Storage.Type != "memory" && c.Storage.Type != "mongodb" {
		return fmt.Errorf("invalid storage type: %s (must be memory or mongodb)", c.Storage.Type)
	}

	if c.Storage.Type == "mongodb" && c.Storage.MongoDB.URI == "" {
		return fmt.Errorf("mongodb uri is required when using mongodb storage")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	if c.IsProduction() && c.JWT.Secret == InsecureDefaultSecret {
		return fmt.Errorf("jwt secret must be set in production")
	}

	if c.JWT.ExpiryHours < 1 {
		return fmt.Errorf("invalid jwt expiry: %d hours", c.JWT.ExpiryHours)
	}

	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("invalid bcrypt cost: %d (must be between 4 and 31)", c.Security.BcryptCost)
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}

	return nil
}

// IsProduction reports whether the service runs in the production environment
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// IsAdminEmail reports whether email is allowed to self-register as an admin
func (c *SecurityConfig) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(e), email) {
			return true
		}
	}
	return false
}

// Address returns the server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
