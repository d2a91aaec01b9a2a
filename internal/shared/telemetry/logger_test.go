package telemetry

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoWritesSortedFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Info("request.complete", map[string]any{"status": 200, "path": "/"})

	entries := logs.FilterMessage("request.complete").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["path"] != "/" {
		t.Fatalf("expected path field, got %v", ctx["path"])
	}
	if got := entries[0].Context[0].Key; got != "path" {
		t.Fatalf("expected fields sorted by key, first=%s", got)
	}
}

func TestSetLoggerNilFallsBackToNop(t *testing.T) {
	SetLogger(nil)
	if L() == nil {
		t.Fatalf("expected non-nil logger")
	}
	Error("ignored", nil)
}
