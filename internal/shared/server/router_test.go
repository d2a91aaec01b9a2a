package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"review-analyzer/internal/analysis"
	"review-analyzer/internal/pipeline"
	"review-analyzer/internal/sentiments"
	"review-analyzer/internal/shared/config"
	"review-analyzer/internal/submission"
)

func testRouter(perMin int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	repo := sentiments.NewMemoryRepo()
	runner := pipeline.NewRunner(repo, nil)
	return NewRouter(RouterDeps{
		Config:     config.Config{Env: "test", RateLimitPerMin: perMin},
		Analyze:    submission.NewHandler(runner, analysis.Placeholder{}, nil),
		Sentiments: sentiments.NewHandler(repo, nil),
	})
}

func TestHealthAndMetrics(t *testing.T) {
	r := testRouter(0)
	for _, path := range []string{"/healthz", "/api/v1/health", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestHistoryRequiresUser(t *testing.T) {
	r := testRouter(0)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sentiments", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAnalyzeIsRateLimited(t *testing.T) {
	r := testRouter(1)
	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"url":"https://youtube.com/watch?v=a"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	if got := post(); got != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from unconfigured analyzer, got %d", got)
	}
	if got := post(); got != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", got)
	}

	// reads are not throttled
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
