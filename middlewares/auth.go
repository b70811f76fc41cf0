package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campus-events/models"
	"campus-events/utils"
)

// Authenticate validates the bearer token and stores the caller's identity
// in the context under "userId" and "userRole". The core trusts this
// identity; no handler re-authenticates.
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized."})
			return
		}

		userID, role, err := utils.VerifyToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized."})
			return
		}

		c.Set("userId", userID)
		c.Set("userRole", role)
		c.Next()
	}
}

// RequireAdmin gates admin-only endpoints on the role claim. Must run after
// Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("userRole") != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required."})
			return
		}
		c.Next()
	}
}
