package middleware

import (
	"errors"
	"net/http"
	"strings"

	"agrirent/internal/pkg/jwt"
	"agrirent/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key holding the verified user id.
const UserIDKey = "user_id"

var ErrIdentityMismatch = errors.New("identity does not match the authenticated user")

// Identity verifies the bearer token issued by the auth service and stores
// its subject under UserIDKey. With a nil verifier every request passes and
// handlers trust the ids sent by the client.
func Identity(verifier *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be Bearer <token>")
			c.Abort()
			return
		}

		claims, err := verifier.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Next()
	}
}

// ResolveUser picks the acting user id. When the request is authenticated the
// asserted id must be empty or equal to the token subject.
func ResolveUser(c *gin.Context, asserted string) (string, error) {
	verified := c.GetString(UserIDKey)
	if verified == "" {
		return asserted, nil
	}
	if asserted != "" && asserted != verified {
		return "", ErrIdentityMismatch
	}
	return verified, nil
}
