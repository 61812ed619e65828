package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dineatlas/dineatlas/backend/internal/services"
	"github.com/dineatlas/dineatlas/backend/pkg/logger"
	"github.com/dineatlas/dineatlas/backend/pkg/response"
)

// ReauthRequired gates sensitive operations on a recent password re-entry,
// on top of a valid session. Must run after SessionRequired. The check fails
// closed: if the reauth store cannot be reached, the operation is denied
// rather than waved through.
func ReauthRequired(gate *services.ReauthGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)

		status, err := gate.RequireRecent(c.Request.Context(), userID)
		if err != nil {
			logger.Warn().Err(err).Uint("user_id", userID).Msg("reauth check unavailable, denying")
			response.Forbidden(c, "recent password verification required")
			c.Abort()
			return
		}

		switch status {
		case services.ReauthOK:
			c.Next()
		case services.ReauthExpired:
			logger.Security().
				Uint("user_id", userID).
				Str("reason", "REAUTH_EXPIRED").
				Msg("sensitive operation with expired reauth")
			response.Forbidden(c, "password verification has expired, please verify again")
			c.Abort()
		default:
			response.Forbidden(c, "recent password verification required")
			c.Abort()
		}
	}
}
