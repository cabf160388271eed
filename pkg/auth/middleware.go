package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	tokenHeader = "Authorization"
	tokenPrefix = "Bearer "

	userIDKey   = "auth.user_id"
	userNameKey = "auth.user_name"
)

// RequireUser is a gin middleware that validates the bearer token and
// injects the authenticated identity into the request context.
func RequireUser(signer *Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(tokenHeader)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		if !strings.HasPrefix(authHeader, tokenPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		claims, err := signer.ValidateToken(strings.TrimPrefix(authHeader, tokenPrefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			return
		}

		c.Set(userIDKey, userID)
		c.Set(userNameKey, claims.Name)
		c.Next()
	}
}

// CurrentUser retrieves the authenticated identity set by RequireUser.
func CurrentUser(c *gin.Context) (int64, string, bool) {
	rawID, ok := c.Get(userIDKey)
	if !ok {
		return 0, "", false
	}
	id, ok := rawID.(int64)
	if !ok {
		return 0, "", false
	}
	rawName, _ := c.Get(userNameKey)
	name, _ := rawName.(string)
	return id, name, true
}
