package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/auth"
)

const (
	UserContextKey = "userID"
	RoleContextKey = "role"
)

// AuthMiddleware authenticates the caller from a Bearer token. When
// trustGatewayHeader is set, an X-User-ID header injected by the API gateway is
// accepted in place of a token.
func AuthMiddleware(validator *auth.TokenValidator, trustGatewayHeader bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
			id, err := validator.Identify(token)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
				return
			}
			c.Set(UserContextKey, id.UserID)
			c.Set(RoleContextKey, id.Role)
			c.Next()
			return
		}

		if trustGatewayHeader {
			if userID := c.GetHeader("X-User-ID"); userID != "" {
				c.Set(UserContextKey, userID)
				c.Set(RoleContextKey, c.GetHeader("X-User-Role"))
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleContextKey) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden"})
			return
		}
		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, error) {
	if id := c.GetString(UserContextKey); id != "" {
		return id, nil
	}
	return "", errors.New("user ID not found in context")
}
