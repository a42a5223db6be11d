// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. RequireAuth rejects
// requests without a valid token; OptionalAuth attaches the identity when
// present but lets anonymous requests through (used for the websocket
// handshake, which accepts unauthenticated connections for protocol
// compatibility). Both store the verified user id in the Gin context under
// "userID", where the logger, rate limiter, and handlers pick it up.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TokenVerifier validates a bearer token and returns its subject.
type TokenVerifier interface {
	Parse(token string) (string, error)
}

// bearerToken extracts the token from the Authorization header, or "".
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// RequireAuth returns a middleware that aborts with 401 unless the request
// carries a valid bearer token. The token subject is stored under "userID".
func RequireAuth(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "unauthorized",
				"message":    "missing bearer token",
			})
			return
		}
		uid, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "unauthorized",
				"message":    "invalid or expired token",
			})
			return
		}
		c.Set("userID", uid)
		c.Next()
	}
}

// OptionalAuth returns a middleware that attaches the verified identity
// when a valid bearer token is present and otherwise does nothing. Invalid
// tokens are treated as absent rather than rejected.
func OptionalAuth(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := bearerToken(c); raw != "" {
			if uid, err := tokens.Parse(raw); err == nil {
				c.Set("userID", uid)
			}
		}
		c.Next()
	}
}
