package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderIncludesCountersAndHistogram(t *testing.T) {
	IncImportsStarted()
	IncLLMRetries()
	ObservePipelineDurationMs(2500)

	out := Render()

	assert.Contains(t, out, "# TYPE imports_started_total counter")
	assert.Contains(t, out, "# TYPE llm_retries_total counter")
	assert.Contains(t, out, `import_pipeline_duration_ms_bucket{le="5000"}`)
	assert.Contains(t, out, `import_pipeline_duration_ms_bucket{le="+Inf"}`)
}

func TestHistogramCountsPerBucket(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	assert.Equal(t, []uint64{1, 1}, snap.counts)
	assert.Equal(t, uint64(3), snap.count)
	assert.InDelta(t, 555, snap.sum, 1e-9)
}

func TestHandlerServesText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "imports_failed_total")
}
