package middleware

import (
	"net/http"
	"slices"

	"credential_service/internal/model"
	"credential_service/internal/service"

	"github.com/gin-gonic/gin"
)

// RoleMiddleware creates a middleware to check for specific account roles
func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Identity not found, ensure JWT middleware runs first")
			return
		}

		if !slices.Contains(allowedRoles, identity.Role) {
			abort(c, http.StatusForbidden, "You do not have permission to access this resource")
			return
		}

		c.Next()
	}
}

// AdminMiddleware checks if the caller is an admin
func AdminMiddleware() gin.HandlerFunc {
	return RoleMiddleware(model.RoleAdmin)
}

// ProfileCompleteMiddleware rejects callers whose profile is not complete
func ProfileCompleteMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Unauthorized: user not found")
			return
		}

		if !identity.ProfileComplete {
			abort(c, http.StatusForbidden, service.ErrProfileIncomplete.Error())
			return
		}

		c.Next()
	}
}
