package submission

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"review-analyzer/internal/analysis"
	"review-analyzer/internal/pipeline"
	"review-analyzer/internal/shared/metrics"
	"review-analyzer/internal/shared/server/middleware"
	"review-analyzer/internal/shared/server/respond"
)

// Handler is the JSON twin of the URL form. Each request is one stateless
// attempt through the shared pipeline.
type Handler struct {
	Runner     *pipeline.Runner
	Analyzer   analysis.Analyzer
	OnComplete pipeline.CompletionFunc
}

func NewHandler(runner *pipeline.Runner, analyzer analysis.Analyzer, onComplete pipeline.CompletionFunc) *Handler {
	return &Handler{Runner: runner, Analyzer: analyzer, OnComplete: onComplete}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
}

type analyzeRequest struct {
	URL string `json:"url"`
}

type analyzeResponse struct {
	Result   analysis.Result `json:"result"`
	Media    analysis.Media  `json:"media"`
	RecordID string          `json:"recordId,omitempty"`
	Persist  string          `json:"persist"`
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	url := strings.TrimSpace(req.URL)
	if url == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", MsgEmptyURL, nil)
		return
	}

	metrics.IncSubmissionStarted()
	start := time.Now()
	done, err := h.Runner.Run(c.Request.Context(), middleware.UserIDFromContext(c), remoteSource{analyzer: h.Analyzer, url: url}, h.OnComplete)
	metrics.ObserveAnalysisDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.IncSubmissionFailed()
		status, code := http.StatusBadGateway, "analysis_failed"
		if errors.Is(err, analysis.ErrNotConfigured) {
			status, code = http.StatusServiceUnavailable, "not_configured"
		}
		respond.Error(c, status, code, UserMessage(err), nil)
		return
	}
	metrics.IncSubmissionCompleted()

	respond.OK(c, analyzeResponse{
		Result:   done.Result,
		Media:    done.Media,
		RecordID: done.RecordID,
		Persist:  string(done.Persist),
	})
}
