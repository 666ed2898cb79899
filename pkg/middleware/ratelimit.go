package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mentorlink/go-mentorship-backend/pkg/config"
)

// AuthRateLimiter throttles login and registration per client.
// A client that exhausts its bucket is locked out for LockoutSeconds.
type AuthRateLimiter struct {
	config config.AuthRateLimitConfig
	logger *zap.Logger

	mu       sync.Mutex
	limiters map[string]*authLimiter

	cleanupInterval time.Duration
	lastCleanup     time.Time

	// now is replaceable in tests
	now func() time.Time
}

// authLimiter tracks rate limiting state for a single client
type authLimiter struct {
	limiter    *rate.Limiter
	lastSeen   time.Time
	lockoutEnd time.Time
}

// NewAuthRateLimiter creates a new rate limiter for auth endpoints
func NewAuthRateLimiter(cfg config.AuthRateLimitConfig, logger *zap.Logger) *AuthRateLimiter {
	cfg.SetDefaults()
	return &AuthRateLimiter{
		config:          cfg,
		logger:          logger.Named("auth-ratelimit"),
		limiters:        make(map[string]*authLimiter),
		cleanupInterval: 10 * time.Minute,
		lastCleanup:     time.Now(),
		now:             time.Now,
	}
}

// getLimiter returns the limiter for an identifier, creating it if needed.
// Callers hold r.mu.
func (r *AuthRateLimiter) getLimiter(identifier string, now time.Time) *authLimiter {
	if now.Sub(r.lastCleanup) > r.cleanupInterval {
		r.cleanup(now)
	}

	limiter, exists := r.limiters[identifier]
	if exists {
		limiter.lastSeen = now
		return limiter
	}

	// MaxAttempts per WindowSeconds, half of them available as a burst
	rateLimit := rate.Limit(float64(r.config.MaxAttempts) / float64(r.config.WindowSeconds))
	burst := int(math.Ceil(float64(r.config.MaxAttempts) / 2.0))
	if burst < 1 {
		burst = 1
	}

	limiter = &authLimiter{
		limiter:  rate.NewLimiter(rateLimit, burst),
		lastSeen: now,
	}
	r.limiters[identifier] = limiter
	return limiter
}

// cleanup removes limiters that have been idle and are not locked out
func (r *AuthRateLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-30 * time.Minute)
	for key, limiter := range r.limiters {
		if limiter.lastSeen.Before(cutoff) && now.After(limiter.lockoutEnd) {
			delete(r.limiters, key)
		}
	}
	r.lastCleanup = now
}

// Allow reports whether identifier may attempt to authenticate now.
// When refused, it also returns how long until the next attempt may succeed.
func (r *AuthRateLimiter) Allow(identifier string) (bool, time.Duration) {
	if !r.config.Enabled {
		return true, 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	limiter := r.getLimiter(identifier, now)

	if now.Before(limiter.lockoutEnd) {
		return false, limiter.lockoutEnd.Sub(now)
	}

	if !limiter.limiter.AllowN(now, 1) {
		lockout := time.Duration(r.config.LockoutSeconds) * time.Second
		limiter.lockoutEnd = now.Add(lockout)

		r.logger.Warn("Auth rate limit exceeded, applying lockout",
			zap.String("identifier", identifier),
			zap.Duration("lockout_duration", lockout),
		)
		return false, lockout
	}

	return true, 0
}

// RecordFailure makes a failed attempt cost two more tokens
func (r *AuthRateLimiter) RecordFailure(identifier string) {
	if !r.config.Enabled {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.getLimiter(identifier, now).limiter.AllowN(now, 2)
}

// Size returns the number of tracked clients
func (r *AuthRateLimiter) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

// AuthRateLimitMiddleware rate limits auth endpoints by client IP and
// charges 401 responses as failures.
func AuthRateLimitMiddleware(rl *AuthRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.config.Enabled {
			c.Next()
			return
		}

		identifier := c.ClientIP()
		if identifier == "" {
			identifier = "_anonymous"
		}

		if ok, retryAfter := rl.Allow(identifier); !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too many authentication attempts, please try again later",
			})
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusUnauthorized {
			rl.RecordFailure(identifier)
		}
	}
}
