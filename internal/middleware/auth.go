package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/household-api/internal/auth"
	"github.com/yukikurage/household-api/internal/constants"
	apierrors "github.com/yukikurage/household-api/internal/errors"
)

// TokenVerifier verifies access tokens.
type TokenVerifier interface {
	ParseAccess(token string) (*auth.Claims, error)
}

// RequireAuth checks the access token from the access_token cookie or the
// Authorization bearer header.
func RequireAuth(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := AccessToken(c)
		if token == "" {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims, err := tokens.ParseAccess(token)
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}
		userID, _ := claims.UserID()

		// Store user ID in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, userID)
		c.Set(constants.ContextKeyUserEmail, claims.Email)
		c.Next()
	}
}

// AccessToken returns the token presented with the request, preferring the
// cookie over the Authorization header.
func AccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(constants.AccessTokenCookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
