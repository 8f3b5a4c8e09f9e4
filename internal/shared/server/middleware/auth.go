package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docscan-backend/internal/shared/auth"
	"docscan-backend/internal/shared/server/respond"
)

const (
	userIDKey   = "userId"
	userRoleKey = "userRole"
)

// Auth resolves a bearer session token or guest header into a user identity.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))

		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
			if token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			claims, err := auth.VerifyToken(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}

			c.Set(userIDKey, claims.Sub)
			c.Set(userRoleKey, claims.Role)
			c.Next()
			return
		}

		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}

		c.Set(userIDKey, "guest:"+guestID)
		c.Set(userRoleKey, auth.RoleUser)
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserRoleFromContext fetches the role set by the auth middleware.
func UserRoleFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userRoleKey)
	if role, ok := val.(string); ok {
		return role
	}
	return ""
}
