// README: Firebase ID-token auth middleware.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"copool/internal/infra"
)

const (
	ctxKeyUID  = "auth_uid"
	ctxKeyRole = "auth_role"

	insecureUIDHeader = "X-User-ID"
)

// Auth verifies the Bearer ID token and stores the caller's uid and role in
// the request context.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return auth(verifier, false)
}

// AuthAllowInsecure additionally accepts a bare X-User-ID header when no
// Authorization header is present. Local development only.
func AuthAllowInsecure(verifier infra.TokenVerifier) gin.HandlerFunc {
	return auth(verifier, true)
}

func auth(verifier infra.TokenVerifier, allowInsecure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" && allowInsecure {
			if uid := c.GetHeader(insecureUIDHeader); uid != "" {
				c.Set(ctxKeyUID, uid)
				c.Next()
				return
			}
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" || verifier == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxKeyUID, token.UID)
		if role, ok := token.Claims["role"].(string); ok {
			c.Set(ctxKeyRole, role)
		}
		c.Next()
	}
}

// CallerUID returns the authenticated user id, empty when unauthenticated.
func CallerUID(c *gin.Context) string {
	return c.GetString(ctxKeyUID)
}

// CallerRole returns the role claim when the token carries one.
func CallerRole(c *gin.Context) string {
	return c.GetString(ctxKeyRole)
}
