package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mentorlink/go-mentorship-backend/internal/domain"
	"github.com/mentorlink/go-mentorship-backend/internal/service"
)

// Context keys set by AuthMiddleware
const (
	IdentityKey = "identity"
	UserIDKey   = "user_id"
	EmailKey    = "email"
	RoleKey     = "role"
)

// TokenVerifier resolves a bearer token to the identity it carries
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

// RoleLookup returns the stored role and active flag of a user
type RoleLookup interface {
	CurrentRole(ctx context.Context, userID string) (domain.Role, bool, error)
}

// TokenFromRequest extracts the token from the named cookie, falling back
// to an "Authorization: Bearer" header.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			return token
		}
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware verifies the caller's token and attaches its identity.
// It trusts the token claims and never reads storage.
func AuthMiddleware(verifier TokenVerifier, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := TokenFromRequest(c, cookieName)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token provided"})
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), tokenString)
		if err != nil {
			logger.Debug("Token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}

		c.Set(IdentityKey, identity)
		c.Set(UserIDKey, identity.UserID)
		c.Set(EmailKey, identity.Email)
		c.Set(RoleKey, identity.Role)

		c.Next()
	}
}

// GetIdentity returns the identity attached by AuthMiddleware
func GetIdentity(c *gin.Context) (*domain.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*domain.Identity)
	return identity, ok && identity != nil
}

// RequireRole admits callers whose token role is one of roles
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}
		if !domain.RoleIn(identity.Role, roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// RequireLiveRole is RequireRole checked against the stored role and
// active flag instead of the token claims.
func RequireLiveRole(lookup RoleLookup, logger *zap.Logger, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}

		role, active, err := lookup.CurrentRole(c.Request.Context(), identity.UserID)
		if err != nil {
			var status int
			var message string
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				status, message = http.StatusServiceUnavailable, "Request cancelled"
			case errors.Is(err, service.ErrUserNotFound):
				status, message = http.StatusUnauthorized, "Invalid token"
			default:
				logger.Error("Failed to look up current role",
					zap.String("user_id", identity.UserID),
					zap.Error(err),
				)
				status, message = http.StatusInternalServerError, "Internal server error"
			}
			c.AbortWithStatusJSON(status, gin.H{"message": message})
			return
		}

		if !active || !domain.RoleIn(role, roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Insufficient permissions"})
			return
		}

		c.Set(RoleKey, role)
		c.Next()
	}
}
