package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/logiclens/gatepass-go/internal/application/services"
)

const adminUserKey = "adminUser"

// AdminAuthMiddleware guards admin endpoints with a bearer session token.
func AdminAuthMiddleware(auth *services.AdminAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		username, err := auth.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(adminUserKey, username)
		c.Next()
	}
}

// GetAdminUser returns the authenticated admin username set by the middleware.
func GetAdminUser(c *gin.Context) (string, bool) {
	v, ok := c.Get(adminUserKey)
	if !ok {
		return "", false
	}
	username, ok := v.(string)
	return username, ok
}
