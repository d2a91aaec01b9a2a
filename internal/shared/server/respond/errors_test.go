package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"review-analyzer/internal/shared/telemetry"
)

func TestErrorWritesEnvelopeAndLogsByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	telemetry.SetLogger(zap.New(core))
	t.Cleanup(func() { telemetry.SetLogger(nil) })

	router := gin.New()
	router.GET("/bad", func(c *gin.Context) { Error(c, http.StatusBadRequest, "validation_error", "nope", nil) })
	router.GET("/boom", func(c *gin.Context) { Error(c, http.StatusInternalServerError, "internal_error", "boom", nil) })

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/bad", nil))
	var body ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != http.StatusBadRequest || body.Error.Code != "validation_error" || body.Error.Message != "nope" {
		t.Fatalf("unexpected response %d %+v", resp.Code, body)
	}

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	entries := logs.FilterMessage("http.error").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel || entries[1].Level != zapcore.ErrorLevel {
		t.Fatalf("unexpected levels %v %v", entries[0].Level, entries[1].Level)
	}
}
