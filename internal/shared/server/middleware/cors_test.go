package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCORSOptionsPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS([]string{"http://localhost:5173"}))
	router.OPTIONS("/api/v1/sentiments/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sentiments/123", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	assertCORSHeaders(t, resp)
}

func TestCORSHeadersOnDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS([]string{"http://localhost:5173"}))
	router.DELETE("/api/v1/sentiments/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/sentiments/123", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	assertCORSHeaders(t, resp)
}

func assertCORSHeaders(t *testing.T, resp *httptest.ResponseRecorder) {
	t.Helper()
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected Allow-Origin http://localhost:5173, got %q", got)
	}
	if got := resp.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Fatalf("expected Allow-Methods header")
	}
	if got := resp.Header().Get("Access-Control-Allow-Headers"); got == "" {
		t.Fatalf("expected Allow-Headers header")
	}
	if got := resp.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("expected Max-Age 600, got %q", got)
	}
}

func TestCORSOriginPolicy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name        string
		allowed     []string
		origin      string
		wantOrigin  string
		credentials bool
	}{
		{name: "listed", allowed: []string{"http://localhost:5173/"}, origin: "http://localhost:5173", wantOrigin: "http://localhost:5173", credentials: true},
		{name: "unlisted", allowed: []string{"http://localhost:5173"}, origin: "https://evil.example", wantOrigin: ""},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://any.example", wantOrigin: "*"},
	}
	for _, tc := range cases {
		router := gin.New()
		router.Use(CORS(tc.allowed))
		router.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.Header.Set("Origin", tc.origin)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if got := resp.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
			t.Fatalf("%s: Allow-Origin = %q, want %q", tc.name, got, tc.wantOrigin)
		}
		if got := resp.Header().Get("Access-Control-Allow-Credentials") == "true"; got != tc.credentials {
			t.Fatalf("%s: credentials = %v, want %v", tc.name, got, tc.credentials)
		}
	}
}
