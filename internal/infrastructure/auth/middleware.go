package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thorep/stallplass-sub008/internal/infrastructure/auth/port"
)

const identityKey = "auth.identity"

// Middleware rejects requests without a valid session before any handler
// runs. Credentials are taken from the Authorization bearer header, or from
// the "token" query parameter for websocket upgrades, where browsers cannot
// set headers.
func Middleware(authn port.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}

		identity, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// CurrentIdentity returns the authenticated caller set by Middleware.
func CurrentIdentity(c *gin.Context) (*port.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*port.Identity)
	return identity, ok
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}
