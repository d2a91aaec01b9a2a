// Package pipeline runs one analysis attempt: acquire a result from a
// source, persist it when a user is signed in, then hand it to the
// completion callback. Persistence problems are logged, never returned.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"review-analyzer/internal/analysis"
	"review-analyzer/internal/sentiments"
	"review-analyzer/internal/shared/metrics"
)

// Diagnostic messages emitted by the persistence step.
const (
	MsgNotSignedIn  = "Cannot save analysis: User not signed in"
	MsgTableMissing = "Sentiments table does not exist; analysis was not saved"
	MsgSaveFailed   = "Failed to save analysis"
	MsgSaved        = "Analysis saved"
)

// Acquired is what a Source produces.
type Acquired struct {
	Result    analysis.Result
	Media     analysis.Media
	SourceURL string
}

// Source produces one analysis result, e.g. by calling the Analysis
// Service or by uploading a file.
type Source interface {
	Acquire(ctx context.Context) (Acquired, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Acquired, error)

func (f SourceFunc) Acquire(ctx context.Context) (Acquired, error) {
	return f(ctx)
}

// Saver is the slice of the database gateway the pipeline writes through.
type Saver interface {
	Insert(ctx context.Context, rec sentiments.Record) (sentiments.Record, error)
}

type PersistOutcome string

const (
	PersistSkipped      PersistOutcome = "skipped"
	PersistSaved        PersistOutcome = "saved"
	PersistTableMissing PersistOutcome = "table_missing"
	PersistFailed       PersistOutcome = "failed"
)

// Completion is delivered once per successful attempt.
type Completion struct {
	UserID    string
	SourceURL string
	Result    analysis.Result
	Media     analysis.Media
	RecordID  string
	Persist   PersistOutcome
}

type CompletionFunc func(Completion)

// Runner is safe for concurrent use.
type Runner struct {
	Store  Saver
	Logger *zap.Logger
}

// NewRunner builds a Runner. A nil logger discards diagnostics.
func NewRunner(store Saver, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Store: store, Logger: logger}
}

// Run acquires a result from src, persists it for userID when non-empty,
// and invokes done exactly once on success. Only acquisition errors are
// returned.
func (r *Runner) Run(ctx context.Context, userID string, src Source, done CompletionFunc) (Completion, error) {
	acq, err := src.Acquire(ctx)
	if err != nil {
		return Completion{}, err
	}

	c := Completion{
		UserID:    userID,
		SourceURL: acq.SourceURL,
		Result:    acq.Result.Normalized(),
		Media:     acq.Media,
	}
	c.Persist, c.RecordID = r.persist(ctx, c)
	metrics.IncPersist(string(c.Persist))

	if done != nil {
		done(c)
	}
	return c, nil
}

func (r *Runner) persist(ctx context.Context, c Completion) (PersistOutcome, string) {
	log := r.logger()
	if c.UserID == "" {
		log.Warn(MsgNotSignedIn, zap.String("source_url", c.SourceURL))
		return PersistSkipped, ""
	}
	if r.Store == nil {
		log.Debug("analysis store not configured", zap.String("user_id", c.UserID))
		return PersistSkipped, ""
	}

	saved, err := r.Store.Insert(ctx, sentiments.FromResult(c.UserID, c.SourceURL, c.Result))
	if err == nil {
		log.Info(MsgSaved, zap.String("user_id", c.UserID), zap.String("record_id", saved.ID))
		return PersistSaved, saved.ID
	}

	switch class := sentiments.Classify(err); class {
	case sentiments.ClassTableMissing:
		log.Warn(MsgTableMissing, zap.String("user_id", c.UserID), zap.Error(err))
		return PersistTableMissing, ""
	default:
		log.Error(MsgSaveFailed,
			zap.String("user_id", c.UserID),
			zap.String("class", class.String()),
			zap.Error(err),
		)
		return PersistFailed, ""
	}
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
