package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"review-analyzer/internal/analysis"
	"review-analyzer/internal/sentiments"
)

type recordingStore struct {
	inserts []sentiments.Record
	err     error
}

func (s *recordingStore) Insert(ctx context.Context, rec sentiments.Record) (sentiments.Record, error) {
	s.inserts = append(s.inserts, rec)
	if s.err != nil {
		return sentiments.Record{}, s.err
	}
	rec.ID = "rec-1"
	return rec, nil
}

func staticSource(url string) Source {
	return SourceFunc(func(ctx context.Context) (Acquired, error) {
		return Acquired{
			SourceURL: url,
			Result: analysis.Result{
				Title: "Test Video",
				Stats: []analysis.Stat{{Label: "Positive", Value: "80%"}},
			},
		}, nil
	})
}

func newObservedRunner(store Saver) (*Runner, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewRunner(store, zap.New(core)), logs
}

func TestRunPersistsForSignedInUser(t *testing.T) {
	store := &recordingStore{}
	runner, _ := newObservedRunner(store)

	var calls int
	c, err := runner.Run(context.Background(), "user-123", staticSource("https://youtube.com/watch?v=test"), func(Completion) { calls++ })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 completion, got %d", calls)
	}
	if len(store.inserts) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(store.inserts))
	}
	got := store.inserts[0]
	if got.UserID != "user-123" || got.SourceURL != "https://youtube.com/watch?v=test" {
		t.Fatalf("unexpected insert: %+v", got)
	}
	if c.Persist != PersistSaved || c.RecordID != "rec-1" {
		t.Fatalf("unexpected completion: %+v", c)
	}
}

func TestRunSkipsPersistenceWhenSignedOut(t *testing.T) {
	store := &recordingStore{}
	runner, logs := newObservedRunner(store)

	var calls int
	c, err := runner.Run(context.Background(), "", staticSource("https://youtube.com/watch?v=test"), func(Completion) { calls++ })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.inserts) != 0 {
		t.Fatalf("expected no inserts, got %d", len(store.inserts))
	}
	if calls != 1 {
		t.Fatalf("expected 1 completion, got %d", calls)
	}
	if c.Persist != PersistSkipped {
		t.Fatalf("expected skipped, got %s", c.Persist)
	}
	if logs.FilterMessage(MsgNotSignedIn).FilterLevelExact(zapcore.WarnLevel).Len() != 1 {
		t.Fatalf("expected not-signed-in diagnostic, got %v", logs.All())
	}
}

func TestRunTreatsPersistenceFailuresAsNonFatal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		want    PersistOutcome
		wantMsg string
		wantLvl zapcore.Level
	}{
		{
			name:    "table missing",
			err:     &pgconn.PgError{Code: "42P01", Message: `relation "sentiments" does not exist`},
			want:    PersistTableMissing,
			wantMsg: MsgTableMissing,
			wantLvl: zapcore.WarnLevel,
		},
		{
			name:    "unexpected",
			err:     errors.New("connection reset by peer"),
			want:    PersistFailed,
			wantMsg: MsgSaveFailed,
			wantLvl: zapcore.ErrorLevel,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &recordingStore{err: tt.err}
			runner, logs := newObservedRunner(store)

			var calls int
			c, err := runner.Run(context.Background(), "user-123", staticSource("https://x"), func(Completion) { calls++ })
			if err != nil {
				t.Fatalf("Run returned persistence error: %v", err)
			}
			if calls != 1 {
				t.Fatalf("expected 1 completion, got %d", calls)
			}
			if c.Persist != tt.want {
				t.Fatalf("persist = %s, want %s", c.Persist, tt.want)
			}
			if logs.FilterMessage(tt.wantMsg).FilterLevelExact(tt.wantLvl).Len() != 1 {
				t.Fatalf("expected %q at %s, got %v", tt.wantMsg, tt.wantLvl, logs.All())
			}
		})
	}
}

func TestTableMissingDiagnosticNamesTheTable(t *testing.T) {
	if !strings.Contains(MsgTableMissing, "Sentiments table does not exist") {
		t.Fatalf("diagnostic lost its table reference: %q", MsgTableMissing)
	}
}

func TestRunReturnsSourceErrorWithoutCallback(t *testing.T) {
	store := &recordingStore{}
	runner, _ := newObservedRunner(store)
	boom := errors.New("boom")

	var calls int
	_, err := runner.Run(context.Background(), "user-123", SourceFunc(func(context.Context) (Acquired, error) {
		return Acquired{}, boom
	}), func(Completion) { calls++ })
	if !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
	if calls != 0 || len(store.inserts) != 0 {
		t.Fatalf("expected no callback and no insert, got calls=%d inserts=%d", calls, len(store.inserts))
	}
}

func TestRunNormalizesResult(t *testing.T) {
	runner := NewRunner(nil, nil)
	c, err := runner.Run(context.Background(), "", SourceFunc(func(context.Context) (Acquired, error) {
		return Acquired{Result: analysis.Result{Title: "bare"}}, nil
	}), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Result.Stats == nil || c.Result.SentimentDetails == nil {
		t.Fatalf("expected normalized collections, got %+v", c.Result)
	}
}
