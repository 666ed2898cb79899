package service

import (
	"go.uber.org/zap"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/storage"
	"github.com/mentorlink/go-mentorship-backend/pkg/config"
)

// Notifier delivers events to a connected user. Implementations must not block.
type Notifier interface {
	Notify(userID string, event domain.Event)
}

// NopNotifier discards every event
type NopNotifier struct{}

// Notify does nothing
func (NopNotifier) Notify(string, domain.Event) {}

// Services aggregates all application services
type Services struct {
	Tokens         *TokenService
	TokenBlacklist *TokenBlacklist
	User           *UserService
	Requests       *RequestService
	Sessions       *SessionService
}

// NewServices creates a new Services instance
func NewServices(store storage.Store, cfg *config.Config, notifier Notifier, logger *zap.Logger) *Services {
	blacklist := NewTokenBlacklist(cfg.Security.TokenBlacklist, logger)
	tokens := NewTokenService(cfg.JWT, blacklist, logger)

	return &Services{
		Tokens:         tokens,
		TokenBlacklist: blacklist,
		User:           NewUserService(store, tokens, cfg, logger),
		Requests:       NewRequestService(store, notifier, logger),
		Sessions:       NewSessionService(store, notifier, logger),
	}
}

// Start starts background workers
func (s *Services) Start() {
	if s.TokenBlacklist != nil {
		s.TokenBlacklist.Start()
	}
}

// Stop gracefully stops background workers
func (s *Services) Stop() {
	if s.TokenBlacklist != nil {
		s.TokenBlacklist.Stop()
	}
}
