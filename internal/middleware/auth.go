package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dineatlas/dineatlas/backend/internal/services"
	"github.com/dineatlas/dineatlas/backend/pkg/response"
)

const (
	ContextUserID    = "user_id"
	ContextUsername  = "username"
	ContextRole      = "role"
	ContextSessionID = "session_id"
)

// accessTokenFrom pulls the access token from the Authorization header,
// falling back to the cookie set for browser clients.
func accessTokenFrom(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie
	}
	return ""
}

// SessionRequired verifies the request's session through the session
// service. Token validity alone is not enough: the session must not be
// revoked, the token version must be current and the idle timeout must not
// have elapsed. Each outcome maps to its own message so clients can tell
// "log in again" apart from "session timed out".
func SessionRequired(sessions *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessTokenFrom(c)

		claims, status := sessions.Verify(c.Request.Context(), token)
		switch status {
		case services.SessionValid:
		case services.SessionNoToken:
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		case services.SessionIdleExpired:
			response.Unauthorized(c, "session timed out due to inactivity")
			c.Abort()
			return
		case services.SessionStoreError:
			response.ServerError(c, "session verification unavailable")
			c.Abort()
			return
		default:
			response.Unauthorized(c, "invalid or expired session")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Name)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextSessionID, claims.SessionID)

		c.Next()
	}
}

// RoleRequired restricts a route group to the given roles. Must run after
// SessionRequired.
func RoleRequired(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient permissions")
		c.Abort()
	}
}

// AdminRequired restricts a route group to admins.
func AdminRequired() gin.HandlerFunc {
	return RoleRequired("admin")
}

// GetUserID gets the current user ID from context.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		return id.(uint)
	}
	return 0
}

// GetUsername gets the current user's display name from context.
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get(ContextUsername); exists {
		return username.(string)
	}
	return ""
}

// GetRole gets the current user role from context.
func GetRole(c *gin.Context) string {
	if role, exists := c.Get(ContextRole); exists {
		return role.(string)
	}
	return ""
}

// GetSessionID gets the current session ID from context.
func GetSessionID(c *gin.Context) string {
	if sid, exists := c.Get(ContextSessionID); exists {
		return sid.(string)
	}
	return ""
}
