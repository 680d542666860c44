package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"legaldocs-backend/internal/shared/server/respond"
)

const (
	principalKey   = "principal"
	ownerPrincipal = "owner"
)

// Auth guards the API with a single shared bearer token. An empty token
// leaves the API open, which is the default for local single-user runs.
func Auth(token string) gin.HandlerFunc {
	expected := []byte(strings.TrimSpace(token))
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}
		if len(expected) == 0 {
			c.Set(principalKey, ownerPrincipal)
			c.Next()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(header, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		got := []byte(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if subtle.ConstantTimeCompare(got, expected) != 1 {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(principalKey, ownerPrincipal)
		c.Next()
	}
}

// PrincipalFromContext returns the identity set by Auth.
func PrincipalFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(principalKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
