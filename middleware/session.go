package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duynhne/study-service/internal/logger"
)

const (
	userIDKey       = "user_id"
	sessionTokenKey = "session_token"
)

// SessionResolver maps an opaque session token to a user id.
// It returns (0, false, nil) when the token is unknown or expired.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (int, bool, error)
}

// SessionAuth reads the session cookie and, when it names a live session, stores the
// user id in the gin context. It never rejects a request on its own; see RequireSession.
func SessionAuth(cookieName string, resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}
		c.Set(sessionTokenKey, token)

		userID, ok, err := resolver.ResolveSession(c.Request.Context(), token)
		if err != nil {
			logger.FromContext(c.Request.Context()).Error().Err(err).Msg("Session lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if ok {
			c.Set(userIDKey, userID)
		}

		c.Next()
	}
}

// RequireSession rejects requests that carry no authenticated session with 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not logged in."})
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user id set by SessionAuth.
func CurrentUserID(c *gin.Context) (int, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

// SessionToken returns the raw session cookie value seen on the request, if any.
func SessionToken(c *gin.Context) string {
	return c.GetString(sessionTokenKey)
}
