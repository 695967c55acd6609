package handlers

import (
	"net/http"

	"smartquizzer/middleware"
	"smartquizzer/session"

	"github.com/gin-gonic/gin"
)

// requireIdentity returns the authenticated user, or writes a 401 and
// returns false when the route was reached without AuthMiddleware.
func requireIdentity(c *gin.Context) (session.Identity, bool) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
	}
	return identity, ok
}
