// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for the POST endpoints that
// create resources (donations, requests, chat messages). It validates an
// Idempotency-Key request header, optionally performs a lookup to detect
// previously completed requests, and annotates the request context so
// downstream handlers can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed requests (IsReplay)
//   - bypass rate limiting when a replay is served (internal flag)
//
// A key is scoped to (user, operation) rather than being global: the same
// key sent to "donations.create" and "requests.create" deduplicates each
// operation independently.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header clients use to convey an
// idempotency key for unsafe operations. The value is expected to be
// stable for a given semantic operation so retries deduplicate safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored replay exists
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

// GetIdempotencyKey returns the validated idempotency key stored in the
// Gin context by IdempotencyValidator. Handlers should prefer this over
// reading the header directly.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether this request would replay a previously
// completed operation for the same (user, scope, key).
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation for IdempotencyValidator.
// TTL enforcement belongs in the lookup function, not here.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative
	// RFC7230-like token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a successful, still-valid result
// exists for (userID, scope, key) at the given time. Implementations
// consult the idempotency table; errors mean "lookup failed", not "no",
// and must not block normal processing.
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (exists bool, err error)

// IdempotencyStore persists a completed operation for (userID, scope, key)
// so later retries are detected. resourceID is the created resource when
// the handler exposed one (context key "resourceID"); status is the final
// HTTP status. Store failures are logged by the caller, never surfaced.
type IdempotencyStore func(ctx context.Context, userID, scope, key, resourceID string, status int) error

// IdempotencyValidator validates the Idempotency-Key header (if present),
// stashes it in the request context under the given operation scope, and
// checks for a prior completed request via the supplied lookup. Detected
// replays are flagged for IsReplay and for rate-limit bypass.
//
// Behavior:
//   - absent header: no-op;
//   - invalid header: 400 with a compact error body;
//   - replay detected: replay + rate-bypass flags set, handler still runs.
//
// The middleware never serves a cached payload itself; handlers stay in
// control of how replays are answered.
func IdempotencyValidator(scope string, opts IdempotencyOptions, lookup IdempotencyLookup, store IdempotencyStore) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		replay := false
		if lookup != nil {
			uid := userIDFromCtx(c)
			now := time.Now().UTC()
			if exists, _ := lookup(c.Request.Context(), uid, scope, key, now); exists {
				replay = true
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()

		// Record first-time successes so the next retry replays.
		if store != nil && !replay {
			status := c.Writer.Status()
			if status >= 200 && status < 300 {
				resourceID, _ := c.Get("resourceID")
				rid, _ := resourceID.(string)
				_ = store(c.Request.Context(), userIDFromCtx(c), scope, key, rid, status)
			}
		}
	}
}

// userIDFromCtx extracts the user identifier set by the auth middleware.
// Empty when the request is unauthenticated.
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
