package web

import (
	"context"
	"time"

	"go.uber.org/zap"

	"review-analyzer/internal/analysis"
	"review-analyzer/internal/display"
	"review-analyzer/internal/pipeline"
	"review-analyzer/internal/queue"
	"review-analyzer/internal/shared/storage/object"
	"review-analyzer/internal/submission"
	"review-analyzer/internal/uploads"
)

const publishTimeout = 5 * time.Second

type WorkspaceDeps struct {
	Runner    *pipeline.Runner
	Analyzer  analysis.Analyzer
	Objects   object.ObjectStore
	Upload    uploads.Options
	Publisher queue.Client
	Logger    *zap.Logger
}

// NewWorkspaceFactory builds workspaces whose completions land on their own
// board and are announced on the queue.
func NewWorkspaceFactory(deps WorkspaceDeps) WorkspaceFactory {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Publisher == nil {
		deps.Publisher = queue.Noop{}
	}
	return func(id string, board *display.Board) *Workspace {
		onComplete := CompletionHandler(board, deps.Publisher, deps.Logger)
		return &Workspace{
			ID:         id,
			Submission: submission.New(deps.Runner, deps.Analyzer, onComplete),
			Upload:     uploads.New(deps.Runner, deps.Objects, onComplete, deps.Upload),
			Board:      board,
		}
	}
}

// CompletionHandler appends each completed result to board (when non-nil)
// and publishes an analysis.completed message. Publish failures are logged
// only.
func CompletionHandler(board *display.Board, publisher queue.Client, logger *zap.Logger) pipeline.CompletionFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c pipeline.Completion) {
		if board != nil {
			board.Append(c.Result)
		}
		if publisher == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := publisher.Send(ctx, queue.FromCompletion(c, "", time.Now())); err != nil {
			logger.Warn("publish analysis.completed failed", zap.String("source_url", c.SourceURL), zap.Error(err))
		}
	}
}
