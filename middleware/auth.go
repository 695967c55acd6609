package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"smartquizzer/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Keys set on the gin context for authenticated requests.
const (
	ContextUserID    = "user_id"
	ContextUsername  = "username"
	ContextSessionID = "session_id"
)

// CookieSessionKey is the key holding the session id in the signed cookie.
const CookieSessionKey = "sid"

// AuthMiddleware admits requests that carry a live session, either as a
// bearer token or in the session cookie.
func AuthMiddleware(store *session.Store, tokens *session.TokenIssuer, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, ok := SessionID(c, tokens)
		if !ok {
			abortUnauthorized(c)
			return
		}

		id, err := store.Get(c.Request.Context(), sid)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				abortUnauthorized(c)
				return
			}
			logger.ErrorContext(c.Request.Context(), "session lookup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
			return
		}

		c.Set(ContextUserID, id.UserID)
		c.Set(ContextUsername, id.Username)
		c.Set(ContextSessionID, sid)
		c.Next()
	}
}

// SessionID returns the session id presented by the client. A bearer token
// takes precedence over the cookie; an invalid token is not retried against it.
func SessionID(c *gin.Context, tokens *session.TokenIssuer) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			return "", false
		}
		claims, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			return "", false
		}
		return claims.ID, true
	}

	sid, _ := sessions.Default(c).Get(CookieSessionKey).(string)
	return sid, sid != ""
}

// CurrentIdentity returns the user established by AuthMiddleware.
func CurrentIdentity(c *gin.Context) (session.Identity, bool) {
	userID, ok := c.Get(ContextUserID)
	if !ok {
		return session.Identity{}, false
	}
	id, ok := userID.(uint)
	if !ok || id == 0 {
		return session.Identity{}, false
	}
	return session.Identity{UserID: id, Username: c.GetString(ContextUsername)}, true
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
}
