package queue

import (
	"testing"
	"time"

	"review-analyzer/internal/analysis"
	"review-analyzer/internal/pipeline"
)

func TestFromCompletion(t *testing.T) {
	at := time.Date(2026, time.January, 30, 22, 0, 0, 0, time.UTC)
	c := pipeline.Completion{
		UserID:    "user-123",
		SourceURL: "https://youtube.com/watch?v=test",
		Result:    analysis.Result{Title: "Test Video", Stats: []analysis.Stat{{Label: "Positive", Value: "80%"}}},
		Media:     analysis.Media{Platform: "youtube"},
		RecordID:  "rec-1",
		Persist:   pipeline.PersistSaved,
	}

	msg := FromCompletion(c, "req-1", at)
	if msg.Event != EventAnalysisCompleted || msg.Version != 1 {
		t.Fatalf("unexpected envelope %+v", msg)
	}
	if msg.CompletedAt != "2026-01-30T22:00:00Z" || msg.StatCount != 1 || msg.Persist != "saved" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Key() != "user-123" {
		t.Fatalf("expected user key, got %s", msg.Key())
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if got != msg {
		t.Fatalf("decoded message differs: got %+v want %+v", got, msg)
	}
}

func TestSignedOutMessageKeyedBySource(t *testing.T) {
	msg := FromCompletion(pipeline.Completion{SourceURL: "https://x"}, "", time.Now())
	if msg.Key() != "https://x" {
		t.Fatalf("expected source url key, got %s", msg.Key())
	}
}
