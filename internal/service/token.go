package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/pkg/config"
)

// Claims are the identity claims carried by an access token
type Claims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 access tokens
type TokenService struct {
	secret    []byte
	issuer    string
	expiry    time.Duration
	blacklist *TokenBlacklist
	logger    *zap.Logger

	// now is replaceable in tests
	now func() time.Time
}

// NewTokenService creates a TokenService. blacklist may be nil.
func NewTokenService(cfg config.JWTConfig, blacklist *TokenBlacklist, logger *zap.Logger) *TokenService {
	return &TokenService{
		secret:    []byte(cfg.Secret),
		issuer:    cfg.Issuer,
		expiry:    time.Duration(cfg.ExpiryHours) * time.Hour,
		blacklist: blacklist,
		logger:    logger.Named("token-service"),
		now:       time.Now,
	}
}

// Expiry returns the lifetime of issued tokens
func (s *TokenService) Expiry() time.Duration {
	return s.expiry
}

// Issue signs a token for the user
func (s *TokenService) Issue(user *domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        domain.NewID(),
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the token and returns its claims
func (s *TokenService) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" || claims.Email == "" || !claims.Role.IsValid() {
		return nil, ErrInvalidToken
	}

	if s.blacklist.Enabled() && s.blacklist.IsBlacklisted(ctx, claims.ID) {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Verify checks the token and returns the identity it carries
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*domain.Identity, error) {
	claims, err := s.Parse(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	return &domain.Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// Revoke blacklists a token until it expires. Without an enabled
// blacklist this is a no-op and the token stays valid until expiry.
func (s *TokenService) Revoke(ctx context.Context, tokenString string) error {
	if !s.blacklist.Enabled() {
		return nil
	}

	claims, err := s.Parse(ctx, tokenString)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil
		}
		return err
	}

	if err := s.blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.logger.Debug("Token revoked", zap.String("user_id", claims.UserID))
	return nil
}
