package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/dealersync_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware authenticates callers that present the login JWT in an
// Authorization bearer instead of a redis session token. A valid bearer
// populates the same context keys as SessionMiddleware, so RequireSession
// accepts either channel. Runs after SessionMiddleware; a caller already
// carrying a session is left alone.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if username, ok := utils.GetUsernameFromContext(c.Request.Context()); ok && username != "" {
			c.Next()
			return
		}

		auth := strings.TrimSpace(c.Request.Header.Get("Authorization"))
		if auth == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		parsed, err := utils.JwtValidate(strings.TrimSpace(auth[7:]))
		if err != nil || !parsed.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		claim, ok := parsed.Claims.(*utils.JwtCustomClaim)
		if !ok || claim.Username == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetUsernameInContext(c.Request.Context(), claim.Username)
		ctx = utils.SetUserIdInContext(ctx, claim.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
