package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"credential_service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthIdentityKey is the gin context key holding the caller's Identity
const AuthIdentityKey = "authIdentity"

// Identity is the resolved caller of a protected request
type Identity struct {
	AccountID       uuid.UUID
	Role            string
	ProfileComplete bool
}

type identityCtxKey struct{}

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext extracts the identity attached by JWTAuthMiddleware
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok
}

// GetIdentity reads the identity from a gin context
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, exists := c.Get(AuthIdentityKey)
	if !exists {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// JWTAuthMiddleware creates a middleware for bearer-token authentication.
// The token's account must still exist.
func JWTAuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, service.ErrUnauthorized.Error())
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			abort(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		account, err := authService.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrUnauthorized):
				abort(c, http.StatusUnauthorized, service.ErrInvalidToken.Error())
			case errors.Is(err, service.ErrNotFound):
				abort(c, http.StatusUnauthorized, service.ErrNotFound.Error())
			default:
				_ = c.Error(err)
				abort(c, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		identity := Identity{
			AccountID:       account.ID,
			Role:            account.Role,
			ProfileComplete: account.IsProfileComplete,
		}
		c.Set(AuthIdentityKey, identity)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), identity))

		c.Next()
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
