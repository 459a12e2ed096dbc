package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// IdentityHeader carries the caller's identity. The value is trusted as-is:
// verifying it is outside this service's boundary, its presence is the only
// requirement.
const IdentityHeader = "X-User-Email"

const identityKey = "identity"

// RequireIdentity rejects requests without an identity header. Handlers
// behind it read the identity with IdentityFrom.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(IdentityHeader)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity set by RequireIdentity, or "" when the
// middleware did not run.
func IdentityFrom(c *gin.Context) string {
	return c.GetString(identityKey)
}
