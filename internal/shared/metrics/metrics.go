package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	importsStartedTotal   atomic.Uint64
	importsCompletedTotal atomic.Uint64
	importsFailedTotal    atomic.Uint64
	importsAppliedTotal   atomic.Uint64
	llmRetriesTotal       atomic.Uint64

	pipelineDuration = newHistogram([]float64{1000, 5000, 15000, 30000, 60000, 120000, 300000, 600000})
)

// IncImportsStarted counts a job entering the pipeline.
func IncImportsStarted() {
	importsStartedTotal.Add(1)
}

// IncImportsCompleted counts a job reaching review.
func IncImportsCompleted() {
	importsCompletedTotal.Add(1)
}

// IncImportsFailed counts a job that failed in any stage.
func IncImportsFailed() {
	importsFailedTotal.Add(1)
}

// IncImportsApplied counts a plan written to the curriculum tables.
func IncImportsApplied() {
	importsAppliedTotal.Add(1)
}

// IncLLMRetries counts a retried completion request.
func IncLLMRetries() {
	llmRetriesTotal.Add(1)
}

// ObservePipelineDurationMs records an extract-to-review duration in milliseconds.
func ObservePipelineDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	pipelineDuration.Observe(value)
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
	writeCounter(&buf, "imports_started_total", "Total import jobs started", importsStartedTotal.Load())
	writeCounter(&buf, "imports_completed_total", "Total import jobs ready for review", importsCompletedTotal.Load())
	writeCounter(&buf, "imports_failed_total", "Total import jobs failed", importsFailedTotal.Load())
	writeCounter(&buf, "imports_applied_total", "Total import plans applied", importsAppliedTotal.Load())
	writeCounter(&buf, "llm_retries_total", "Total retried completion requests", llmRetriesTotal.Load())
	writeHistogram(&buf, "import_pipeline_duration_ms", "Import pipeline duration in milliseconds", pipelineDuration.Snapshot())
	return buf.String()
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

// SinceMillis returns the elapsed milliseconds since start.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
