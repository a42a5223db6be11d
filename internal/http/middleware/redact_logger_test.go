package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// captureLogs points the global logger at a buffer for the duration of the
// test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = orig })
	return &buf
}

func redactRouter(opts RedactOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/search", RedactingLogger(opts), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRedactingLogger_ScrubsQuery(t *testing.T) {
	buf := captureLogs(t)
	r := redactRouter(RedactOptions{})

	req := httptest.NewRequest(http.MethodGet,
		"/search?email=jane.doe%40example.com&phone=%2B91-99999-99999", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	if strings.Contains(out, "jane.doe") || strings.Contains(out, "99999") {
		t.Fatalf("PII leaked into logs: %s", out)
	}
	if !strings.Contains(out, "[REDACTED:email]") || !strings.Contains(out, "[REDACTED:phone]") {
		t.Fatalf("redaction markers missing: %s", out)
	}
}

func TestRedactingLogger_UUIDBeforePhone(t *testing.T) {
	buf := captureLogs(t)
	r := redactRouter(RedactOptions{})

	// A UUID contains digit runs a phone pattern could partially match; the
	// whole identifier must come out as one redacted id.
	req := httptest.NewRequest(http.MethodGet,
		"/search?ref=0d1f3c88-9b1a-4f4e-8a2b-1234567890ab", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	if !strings.Contains(out, "[REDACTED:id]") {
		t.Fatalf("uuid not redacted: %s", out)
	}
	if strings.Contains(out, "[REDACTED:phone]") {
		t.Fatalf("phone pattern bit into the uuid: %s", out)
	}
}

func TestRedactingLogger_MasksHeaders(t *testing.T) {
	buf := captureLogs(t)
	r := redactRouter(RedactOptions{MaskHeaders: []string{" X-Api-Key "}})

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	req.Header.Set("Authorization", "Bearer super-secret")
	req.Header.Set("X-Api-Key", "key-material")
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	if strings.Contains(out, "super-secret") || strings.Contains(out, "key-material") {
		t.Fatalf("sensitive header leaked: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Fatalf("mask marker missing: %s", out)
	}
	if !strings.Contains(out, "application/json") {
		t.Fatalf("benign headers must survive: %s", out)
	}
}

func TestRedactingLogger_LevelByStatus(t *testing.T) {
	buf := captureLogs(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/fail", RedactingLogger(RedactOptions{}), func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("5xx must log at error: %s", buf.String())
	}
}
