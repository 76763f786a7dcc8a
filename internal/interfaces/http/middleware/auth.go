package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"swap-route.backend/pkg/crypto"
	"swap-route.backend/pkg/jwt"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// CallerKey is the context key for the authenticated caller
	CallerKey = "caller"
	// CallerRoleKey is the context key for the caller's role
	CallerRoleKey = "callerRole"
)

// AuthMiddleware authenticates API callers. Two credential shapes are
// accepted on the same Bearer header: a signed JWT for interactive callers,
// or the static API token (checked against its bcrypt hash) for
// machine-to-machine integrations. An empty hash disables the static path.
func AuthMiddleware(jwtService *jwt.JWTService, apiTokenHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header is required",
			})
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization format. Use: Bearer <token>",
			})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)

		if claims, err := jwtService.ValidateToken(tokenString); err == nil {
			c.Set(CallerKey, claims.Subject)
			c.Set(CallerRoleKey, claims.Role)
			c.Next()
			return
		} else if err == jwt.ErrExpiredToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Token has expired",
			})
			return
		}

		if apiTokenHash != "" && crypto.CheckToken(tokenString, apiTokenHash) {
			c.Set(CallerKey, "api-token")
			c.Set(CallerRoleKey, "service")
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid token",
		})
	}
}

// GetCaller gets the authenticated caller from context
func GetCaller(c *gin.Context) (string, bool) {
	caller, exists := c.Get(CallerKey)
	if !exists {
		return "", false
	}
	return caller.(string), true
}
