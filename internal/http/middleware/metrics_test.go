package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/donations/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "body")
	})

	// Baselines: the registry is process-global and other tests may have
	// already incremented these series.
	baseRoute := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/donations/:id", "200"))
	baseMiss := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/donations/42", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /donations/42 -> %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope -> %d", w.Code)
	}

	// The matched request must be labeled with the route pattern, not the
	// raw URL, so parameterized paths stay one series.
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/donations/:id", "200")); got != baseRoute+1 {
		t.Fatalf("route counter = %v; want %v", got, baseRoute+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/donations/42", "200")); got != 0 {
		t.Fatalf("raw URL must not become a label on matched routes")
	}

	// Unmatched requests fall back to the raw path.
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404")); got != baseMiss+1 {
		t.Fatalf("fallback counter = %v; want %v", got, baseMiss+1)
	}

	if inflight := testutil.ToFloat64(httpInflight); inflight != 0 {
		t.Fatalf("inflight gauge = %v; want 0 at rest", inflight)
	}
}
