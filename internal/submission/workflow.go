package submission

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"review-analyzer/internal/analysis"
	"review-analyzer/internal/pipeline"
	"review-analyzer/internal/shared/metrics"
)

// MsgEmptyURL is shown when the URL field is blank.
const MsgEmptyURL = "Please enter a URL"

const msgGenericFailure = "An error occurred while processing the URL"

var (
	ErrEmptyURL      = errors.New("url is required")
	ErrInProgress    = pipeline.ErrInProgress
	ErrResetRequired = errors.New("reset before submitting another url")
)

// View is a snapshot of the workflow for rendering.
type View struct {
	State pipeline.State
	URL   string
	Error string
	Media analysis.Media
	Title string
}

// Workflow drives URL submissions for one workspace. At most one attempt
// runs at a time; the network call happens outside the lock.
type Workflow struct {
	runner     *pipeline.Runner
	analyzer   analysis.Analyzer
	onComplete pipeline.CompletionFunc

	mu     sync.Mutex
	state  pipeline.State
	url    string
	errMsg string
	media  analysis.Media
	title  string
}

func New(runner *pipeline.Runner, analyzer analysis.Analyzer, onComplete pipeline.CompletionFunc) *Workflow {
	return &Workflow{runner: runner, analyzer: analyzer, onComplete: onComplete}
}

// Submit validates rawURL, runs the analysis for userID (empty when signed
// out) and records the outcome in the workflow state.
func (w *Workflow) Submit(ctx context.Context, userID, rawURL string) (pipeline.Completion, error) {
	url := strings.TrimSpace(rawURL)

	w.mu.Lock()
	switch w.state {
	case pipeline.Processing:
		w.mu.Unlock()
		return pipeline.Completion{}, ErrInProgress
	case pipeline.Displaying:
		w.mu.Unlock()
		return pipeline.Completion{}, ErrResetRequired
	}
	if url == "" {
		w.state = pipeline.Idle
		w.url = rawURL
		w.errMsg = MsgEmptyURL
		w.mu.Unlock()
		return pipeline.Completion{}, ErrEmptyURL
	}
	w.state = pipeline.Processing
	w.url = url
	w.errMsg = ""
	w.media = analysis.Media{}
	w.title = ""
	w.mu.Unlock()

	// A panic below must not leave the workflow stuck in Processing.
	finished := false
	defer func() {
		if !finished {
			w.abort()
		}
	}()

	metrics.IncSubmissionStarted()
	start := time.Now()
	c, err := w.runner.Run(ctx, userID, remoteSource{analyzer: w.analyzer, url: url}, w.onComplete)
	metrics.ObserveAnalysisDurationMs(float64(time.Since(start).Milliseconds()))
	finished = true

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		metrics.IncSubmissionFailed()
		w.state = pipeline.Failed
		w.errMsg = UserMessage(err)
		return pipeline.Completion{}, err
	}
	metrics.IncSubmissionCompleted()
	w.state = pipeline.Displaying
	w.media = c.Media
	w.title = c.Result.Title
	return c, nil
}

func (w *Workflow) abort() {
	w.mu.Lock()
	defer w.mu.Unlock()
	metrics.IncSubmissionFailed()
	w.state = pipeline.Failed
	w.errMsg = msgGenericFailure
}

// Reset returns to Idle and clears every transient field.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == pipeline.Processing {
		return ErrInProgress
	}
	w.state = pipeline.Idle
	w.url = ""
	w.errMsg = ""
	w.media = analysis.Media{}
	w.title = ""
	return nil
}

func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return View{State: w.state, URL: w.url, Error: w.errMsg, Media: w.media, Title: w.title}
}

// UserMessage turns a submission error into the text shown inline.
func UserMessage(err error) string {
	var svcErr *analysis.ServiceError
	var transportErr *analysis.TransportError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyURL):
		return MsgEmptyURL
	case errors.As(err, &svcErr):
		return svcErr.Message
	case errors.As(err, &transportErr):
		return transportErr.Error()
	case errors.Is(err, analysis.ErrNotConfigured):
		return "Analysis service is not configured"
	default:
		return msgGenericFailure
	}
}

type remoteSource struct {
	analyzer analysis.Analyzer
	url      string
}

func (s remoteSource) Acquire(ctx context.Context) (pipeline.Acquired, error) {
	resp, err := s.analyzer.Analyze(ctx, s.url)
	if err != nil {
		return pipeline.Acquired{}, err
	}
	return pipeline.Acquired{Result: resp.Result, Media: resp.Media, SourceURL: s.url}, nil
}
