package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	submissionsStartedTotal   atomic.Uint64
	submissionsCompletedTotal atomic.Uint64
	submissionsFailedTotal    atomic.Uint64
	uploadsCompletedTotal     atomic.Uint64
	uploadsFailedTotal        atomic.Uint64

	persistMu      sync.Mutex
	persistOutcome = map[string]uint64{}

	httpRequestsTotal atomic.Uint64

	analysisDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 300000, 600000})
	requestDuration  = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000})
)

// IncSubmissionStarted increments the started counter.
func IncSubmissionStarted() {
	submissionsStartedTotal.Add(1)
}

// IncSubmissionCompleted increments the completed counter.
func IncSubmissionCompleted() {
	submissionsCompletedTotal.Add(1)
}

// IncSubmissionFailed increments the failed counter.
func IncSubmissionFailed() {
	submissionsFailedTotal.Add(1)
}

func IncUploadCompleted() {
	uploadsCompletedTotal.Add(1)
}

func IncUploadFailed() {
	uploadsFailedTotal.Add(1)
}

// IncPersist counts one persistence outcome (saved, skipped, table_missing, failed).
func IncPersist(outcome string) {
	persistMu.Lock()
	persistOutcome[outcome]++
	persistMu.Unlock()
}

// ObserveAnalysisDurationMs records an analysis round trip in milliseconds.
func ObserveAnalysisDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	analysisDuration.Observe(value)
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(durationMs float64) {
	httpRequestsTotal.Add(1)
	if durationMs < 0 {
		durationMs = 0
	}
	requestDuration.Observe(durationMs)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "submissions_started_total", "Total URL submissions started", submissionsStartedTotal.Load())
	writeCounter(&buf, "submissions_completed_total", "Total URL submissions completed", submissionsCompletedTotal.Load())
	writeCounter(&buf, "submissions_failed_total", "Total URL submissions failed", submissionsFailedTotal.Load())
	writeCounter(&buf, "uploads_completed_total", "Total video uploads completed", uploadsCompletedTotal.Load())
	writeCounter(&buf, "uploads_failed_total", "Total video uploads failed", uploadsFailedTotal.Load())
	writeCounter(&buf, "http_requests_total", "Total HTTP requests served", httpRequestsTotal.Load())
	writeLabeledCounter(&buf, "persist_outcomes_total", "Persistence attempts by outcome", "outcome", persistSnapshot())
	writeHistogram(&buf, "analysis_duration_ms", "Analysis round trip in milliseconds", analysisDuration.Snapshot())
	writeHistogram(&buf, "http_request_duration_ms", "HTTP request duration in milliseconds", requestDuration.Snapshot())
	return buf.String()
}

func persistSnapshot() map[string]uint64 {
	persistMu.Lock()
	defer persistMu.Unlock()
	out := make(map[string]uint64, len(persistOutcome))
	for k, v := range persistOutcome {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
