package web

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"review-analyzer/internal/analysis"
	"review-analyzer/internal/display"
	"review-analyzer/internal/pipeline"
	"review-analyzer/internal/queue"
)

type recordingQueue struct {
	sent []queue.Message
	err  error
}

func (q *recordingQueue) Send(ctx context.Context, msg queue.Message) error {
	q.sent = append(q.sent, msg)
	return q.err
}

func TestCompletionHandlerAppendsAndPublishes(t *testing.T) {
	board := display.NewBoard()
	q := &recordingQueue{}
	onComplete := CompletionHandler(board, q, nil)

	onComplete(pipeline.Completion{
		UserID:    "user-1",
		SourceURL: "https://youtube.com/watch?v=a",
		Result:    analysis.Result{Title: "A", Stats: []analysis.Stat{{Label: "Camera", Value: "80%"}}},
		Persist:   pipeline.PersistSaved,
		RecordID:  "rec-1",
	})

	if board.Len() != 1 {
		t.Fatalf("expected 1 board item, got %d", board.Len())
	}
	if len(q.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(q.sent))
	}
	msg := q.sent[0]
	if msg.Event != queue.EventAnalysisCompleted || msg.RecordID != "rec-1" || msg.StatCount != 1 || msg.Persist != "saved" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestCompletionHandlerPublishFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	board := display.NewBoard()
	onComplete := CompletionHandler(board, &recordingQueue{err: errors.New("broker down")}, zap.New(core))

	onComplete(pipeline.Completion{SourceURL: "https://youtube.com/watch?v=a", Result: analysis.Result{Title: "A"}})

	if board.Len() != 1 {
		t.Fatalf("board should still receive the result")
	}
	if logs.FilterMessage("publish analysis.completed failed").Len() != 1 {
		t.Fatalf("expected publish warning, got %v", logs.All())
	}
}
