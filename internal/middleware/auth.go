package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/summate/core/internal/pkg/jwt"
	"github.com/summate/core/internal/pkg/response"
)

const (
	// ContextKeyUserID is the gin context key holding the caller's user id.
	ContextKeyUserID = "auth.userID"
	// ContextKeyRole is the gin context key holding the caller's role.
	ContextKeyRole = "auth.role"
)

// Auth verifies the bearer token and stores the caller identity on the
// context. Requests without a valid token are rejected with 401.
//
// For compatibility with the original browser client, a userId sent in the
// form body or query string overrides nothing but fills in the identity
// when no token is present.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token != "" {
			claims, err := jwt.Parse(secret, token)
			if err == nil {
				c.Set(ContextKeyUserID, claims.UserID)
				c.Set(ContextKeyRole, claims.Role)
				c.Next()
				return
			}
			response.Error(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		if userID := fallbackUserID(c); userID != "" {
			c.Set(ContextKeyUserID, userID)
			c.Next()
			return
		}

		response.Error(c, http.StatusUnauthorized, "Authentication required")
		c.Abort()
	}
}

// extractToken reads the token from the Authorization header or the
// session cookie.
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
		return strings.TrimSpace(header)
	}
	if cookie, err := c.Cookie("token"); err == nil {
		return cookie
	}
	return ""
}

func fallbackUserID(c *gin.Context) string {
	if v := c.PostForm("userId"); v != "" {
		return v
	}
	return c.Query("userId")
}

// UserID returns the authenticated user's id, or "" when anonymous.
func UserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// Role returns the authenticated user's role, defaulting to "user".
func Role(c *gin.Context) string {
	if role := c.GetString(ContextKeyRole); role != "" {
		return role
	}
	return "user"
}

// RequireRole rejects callers whose role is not in the allowed set.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[Role(c)]; !ok {
			response.Error(c, http.StatusForbidden, "Insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
