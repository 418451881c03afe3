package auth

import (
	"net/http"
	"strings"

	"github.com/KevinKickass/ScriptSynth/internal/types"
	"github.com/gin-gonic/gin"
)

// Middleware requires a valid service token. A nil handler disables the
// check, which is how the store runs without a configured secret.
func Middleware(j *JWTHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if j == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				types.NewErrorResponse("AUTH_401", "missing authorization header", nil))
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				types.NewErrorResponse("AUTH_401", "invalid authorization header format", nil))
			return
		}

		claims, err := j.Validate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				types.NewErrorResponse("AUTH_401", "invalid or expired token", nil))
			return
		}

		c.Set("service", claims.Service)
		c.Next()
	}
}
