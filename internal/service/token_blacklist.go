package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mentorlink/go-mentorship-backend/pkg/config"
)

// TokenBlacklist holds the IDs of tokens revoked by logout.
// Entries live until the token would have expired anyway, then a
// background worker drops them.
type TokenBlacklist struct {
	config config.TokenBlacklistConfig
	logger *zap.Logger

	mu       sync.RWMutex
	tokens   map[string]time.Time // jti -> expiry time
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewTokenBlacklist creates a new token blacklist
func NewTokenBlacklist(cfg config.TokenBlacklistConfig, logger *zap.Logger) *TokenBlacklist {
	cfg.SetDefaults()
	return &TokenBlacklist{
		config:   cfg,
		logger:   logger.Named("token-blacklist"),
		tokens:   make(map[string]time.Time),
		stopChan: make(chan struct{}),
	}
}

// Enabled reports whether logout revocation is active
func (b *TokenBlacklist) Enabled() bool {
	return b != nil && b.config.Enabled
}

// Start begins the cleanup worker for expired blacklist entries
func (b *TokenBlacklist) Start() {
	if !b.config.Enabled {
		b.logger.Info("Token blacklist disabled")
		return
	}

	b.wg.Add(1)
	go b.cleanupLoop()

	b.logger.Info("Token blacklist started",
		zap.Int("cleanup_interval_minutes", b.config.CleanupIntervalMinutes),
	)
}

// Stop gracefully stops the blacklist cleanup worker
func (b *TokenBlacklist) Stop() {
	b.stopOnce.Do(func() { close(b.stopChan) })
	b.wg.Wait()
}

func (b *TokenBlacklist) cleanupLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(time.Duration(b.config.CleanupIntervalMinutes) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			b.cleanup(time.Now())
		}
	}
}

// cleanup removes entries whose token has expired by now
func (b *TokenBlacklist) cleanup(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for jti, expiry := range b.tokens {
		if now.After(expiry) {
			delete(b.tokens, jti)
			removed++
		}
	}

	if removed > 0 {
		b.logger.Debug("Cleaned up expired blacklist entries",
			zap.Int("removed", removed),
			zap.Int("remaining", len(b.tokens)),
		)
	}
}

// Add adds a token JTI to the blacklist until expiry
func (b *TokenBlacklist) Add(ctx context.Context, jti string, expiry time.Time) error {
	if !b.Enabled() || jti == "" {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens[jti] = expiry

	b.logger.Debug("Token added to blacklist",
		zap.String("jti", jti),
		zap.Time("expiry", expiry),
	)

	return nil
}

// IsBlacklisted checks if a token JTI is on the blacklist
func (b *TokenBlacklist) IsBlacklisted(ctx context.Context, jti string) bool {
	if !b.Enabled() || jti == "" {
		return false
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	expiry, exists := b.tokens[jti]
	if !exists {
		return false
	}

	return !time.Now().After(expiry)
}

// Count returns the number of tokens currently on the blacklist
func (b *TokenBlacklist) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tokens)
}
