package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"review-analyzer/internal/analysis"
	"review-analyzer/internal/pipeline"
	"review-analyzer/internal/shared/metrics"
	"review-analyzer/internal/shared/storage/object"
)

const (
	MsgNoFile          = "Please select a video file"
	msgGenericFailure  = "An error occurred while processing the video"
	placeholderLength  = "2:30"
	placeholderQuality = "HD"
	// Platform marks media that came from an upload rather than a link.
	Platform = "upload"
)

var (
	ErrNoFile        = errors.New("no file selected")
	ErrNotSignedIn   = errors.New("You must be logged in to upload videos")
	ErrInProgress    = pipeline.ErrInProgress
	ErrResetRequired = errors.New("reset before uploading another file")
)

// TooLargeError reports a file over the configured limit.
type TooLargeError struct {
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("File is too large (%.2f MB); the limit is %.0f MB", megabytes(e.Size), megabytes(e.Limit))
}

// UploadError wraps a storage failure.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return "Upload failed: " + e.Err.Error() }
func (e *UploadError) Unwrap() error { return e.Err }

// File is one uploaded video. Path is set when the bytes are also on local
// disk (multipart temp file) and enables duration probing.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
	Path        string
}

// View is a snapshot of the workflow for rendering.
type View struct {
	State    pipeline.State
	FileName string
	Error    string
	Media    analysis.Media
	Title    string
}

type Options struct {
	// MaxBytes rejects larger files; zero disables the check.
	MaxBytes int64
	Prober   Prober
	Logger   *zap.Logger
	Now      func() time.Time
	Suffix   func() string
}

// Workflow drives file uploads for one workspace.
type Workflow struct {
	runner     *pipeline.Runner
	store      object.ObjectStore
	onComplete pipeline.CompletionFunc
	opts       Options

	mu       sync.Mutex
	state    pipeline.State
	fileName string
	errMsg   string
	media    analysis.Media
	title    string
}

func New(runner *pipeline.Runner, store object.ObjectStore, onComplete pipeline.CompletionFunc, opts Options) *Workflow {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Suffix == nil {
		opts.Suffix = RandomSuffix
	}
	return &Workflow{runner: runner, store: store, onComplete: onComplete, opts: opts}
}

// Upload stores f under the user's prefix and completes with a placeholder
// analysis. Signed-out callers get ErrNotSignedIn.
func (w *Workflow) Upload(ctx context.Context, userID string, f File) (pipeline.Completion, error) {
	w.mu.Lock()
	switch w.state {
	case pipeline.Processing:
		w.mu.Unlock()
		return pipeline.Completion{}, ErrInProgress
	case pipeline.Displaying:
		w.mu.Unlock()
		return pipeline.Completion{}, ErrResetRequired
	}
	if f.Body == nil || strings.TrimSpace(f.Name) == "" {
		w.state = pipeline.Idle
		w.errMsg = MsgNoFile
		w.mu.Unlock()
		return pipeline.Completion{}, ErrNoFile
	}
	if w.opts.MaxBytes > 0 && f.Size > w.opts.MaxBytes {
		err := &TooLargeError{Size: f.Size, Limit: w.opts.MaxBytes}
		w.state = pipeline.Idle
		w.errMsg = err.Error()
		w.mu.Unlock()
		return pipeline.Completion{}, err
	}
	w.state = pipeline.Processing
	w.fileName = f.Name
	w.errMsg = ""
	w.media = analysis.Media{}
	w.title = ""
	w.mu.Unlock()

	finished := false
	defer func() {
		if !finished {
			w.abort()
		}
	}()

	src := &uploadSource{w: w, userID: strings.TrimSpace(userID), file: f}
	c, err := w.runner.Run(ctx, src.userID, src, w.onComplete)
	finished = true

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		metrics.IncUploadFailed()
		w.state = pipeline.Failed
		w.errMsg = UserMessage(err)
		return pipeline.Completion{}, err
	}
	metrics.IncUploadCompleted()
	w.state = pipeline.Displaying
	w.media = c.Media
	w.title = c.Result.Title
	return c, nil
}

// abort fails a run that did not return, such as one that panicked.
func (w *Workflow) abort() {
	w.mu.Lock()
	defer w.mu.Unlock()
	metrics.IncUploadFailed()
	w.state = pipeline.Failed
	w.errMsg = msgGenericFailure
}

// Reset returns to Idle. It is refused while an upload is running.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == pipeline.Processing {
		return ErrInProgress
	}
	w.state = pipeline.Idle
	w.fileName = ""
	w.errMsg = ""
	w.media = analysis.Media{}
	w.title = ""
	return nil
}

func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return View{State: w.state, FileName: w.fileName, Error: w.errMsg, Media: w.media, Title: w.title}
}

// UserMessage turns an upload error into inline text.
func UserMessage(err error) string {
	var upErr *UploadError
	var tooLarge *TooLargeError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoFile):
		return MsgNoFile
	case errors.Is(err, ErrNotSignedIn):
		return ErrNotSignedIn.Error()
	case errors.As(err, &upErr):
		return upErr.Error()
	case errors.As(err, &tooLarge):
		return tooLarge.Error()
	default:
		return msgGenericFailure
	}
}

type uploadSource struct {
	w      *Workflow
	userID string
	file   File
}

func (s *uploadSource) Acquire(ctx context.Context) (pipeline.Acquired, error) {
	if s.userID == "" {
		return pipeline.Acquired{}, ErrNotSignedIn
	}
	w := s.w
	if w.store == nil {
		return pipeline.Acquired{}, &UploadError{Err: errors.New("object storage is not configured")}
	}

	contentType, body, err := object.SniffContentType(s.file.ContentType, s.file.Body)
	if err != nil {
		return pipeline.Acquired{}, &UploadError{Err: err}
	}
	key := ObjectKey(s.userID, s.file.Name, w.opts.Now(), w.opts.Suffix())
	if err := w.store.Put(ctx, key, contentType, body, s.file.Size); err != nil {
		return pipeline.Acquired{}, &UploadError{Err: err}
	}
	publicURL := w.store.PublicURL(key)
	w.opts.Logger.Info("upload stored",
		zap.String("user_id", s.userID),
		zap.String("key", key),
		zap.Int64("size", s.file.Size),
	)

	return pipeline.Acquired{
		Result:    s.placeholder(ctx),
		Media:     analysis.Media{EmbedURL: publicURL, Platform: Platform, Embeddable: true},
		SourceURL: publicURL,
	}, nil
}

func (s *uploadSource) placeholder(ctx context.Context) analysis.Result {
	return analysis.Result{
		Title: "Analysis of " + s.file.Name,
		Stats: []analysis.Stat{
			{Label: "Duration", Value: s.duration(ctx), Trend: analysis.TrendNeutral},
			{Label: "Quality", Value: placeholderQuality, Trend: analysis.TrendUp},
			{Label: "File Size", Value: fmt.Sprintf("%.2f MB", megabytes(s.file.Size)), Trend: analysis.TrendNeutral},
		},
		SentimentDetails: map[string]analysis.FeatureSentiment{},
	}
}

func (s *uploadSource) duration(ctx context.Context) string {
	p := s.w.opts.Prober
	if p == nil || s.file.Path == "" {
		return placeholderLength
	}
	d, err := p.Duration(ctx, s.file.Path)
	if err != nil {
		s.w.opts.Logger.Debug("duration probe failed", zap.String("path", s.file.Path), zap.Error(err))
		return placeholderLength
	}
	return FormatDuration(d)
}

func megabytes(n int64) float64 {
	return float64(n) / 1024 / 1024
}
