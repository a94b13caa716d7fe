package httpapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wahook/wahook/internal/store"
	"go.uber.org/zap"
)

// APIKeyHeader carries the shared secret on protected routes.
const APIKeyHeader = "X-API-Key"

// secureCompare reports whether two secrets match. Unequal lengths are
// rejected before the constant-time body, so length remains observable.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// RequireAPIKey admits only requests carrying the provisioned API key.
func RequireAPIKey(db *store.DB, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := c.GetHeader(APIKeyHeader)
		if supplied == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			c.Abort()
			return
		}

		key, err := db.EnsureAPIKey()
		if err != nil {
			logger.Error("failed to load API key", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			c.Abort()
			return
		}

		if !secureCompare(supplied, key) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireBasicAuth protects the operator routes with the credentials
// from the daemon config.
func RequireBasicAuth(username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok || !secureCompare(user, username) || !secureCompare(pass, password) {
			c.Header("WWW-Authenticate", `Basic realm="wahook"`)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
