package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/songzhibin97/academia/internal/portal/auth"
	"github.com/songzhibin97/academia/pkg/portal"
)

// JWTMiddleware handles bearer token authentication for the portal API
type JWTMiddleware struct {
	jwtManager *auth.JWTManager
}

// NewJWTMiddleware creates a new JWT middleware
func NewJWTMiddleware(jwtManager *auth.JWTManager) *JWTMiddleware {
	return &JWTMiddleware{jwtManager: jwtManager}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller in the request context.
func (jm *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			Abort(c, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			Abort(c, http.StatusUnauthorized, "Authorization header must be in format 'Bearer <token>'")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			Abort(c, http.StatusUnauthorized, "JWT token cannot be empty")
			return
		}

		claims, err := jm.jwtManager.ValidateToken(token)
		if err != nil {
			Abort(c, http.StatusUnauthorized, "Invalid or expired JWT token")
			return
		}

		c.Request = c.Request.WithContext(auth.SetUserInContext(c.Request.Context(), auth.UserFromClaims(claims)))
		c.Next()
	}
}

// RequireRole allows the request only when the caller holds one of roles.
// It must run after RequireAuth.
func (jm *JWTMiddleware) RequireRole(roles ...portal.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.GetUserFromContext(c.Request.Context())
		if !ok {
			Abort(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		for _, role := range roles {
			if user.Role == string(role) {
				c.Next()
				return
			}
		}

		Abort(c, http.StatusForbidden, "Access is denied")
	}
}
