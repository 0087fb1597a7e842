package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestCollector_RecordsCraftingMetrics(t *testing.T) {
	// Arrange
	c := NewCollector("test")

	// Act
	c.RecordCombine("new_discovery", 10*time.Millisecond)
	c.RecordCombine("new_discovery", 5*time.Millisecond)
	c.RecordGeneration("failed", time.Second)
	c.RecordDiscovery(true)
	c.RecordSeed(3, 2, 1)

	// Assert
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Combines.WithLabelValues("new_discovery")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Generations.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Discoveries.WithLabelValues("true")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.SeededElements))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.SeededCombinations))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SeedRowsSkipped))
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a := NewCollector("test")
	b := NewCollector("test")

	a.RecordDiscovery(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Discoveries.WithLabelValues("false")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Discoveries.WithLabelValues("false")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("infinicraft")
	c.RecordHTTPRequest(http.MethodPost, "/api/elements/combine", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `infinicraft_http_requests_total{method="POST",route="/api/elements/combine",status="200"} 1`))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("production", "warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = NewLogger("development", "loud")
	assert.Error(t, err)
}

func TestSampleRateFor(t *testing.T) {
	assert.Equal(t, 0.05, sampleRateFor("production"))
	assert.Equal(t, 0.25, sampleRateFor("staging"))
	assert.Equal(t, 1.0, sampleRateFor("development"))
}

func TestIsLoopback(t *testing.T) {
	tests := []struct {
		endpoint string
		want     bool
	}{
		{"localhost:4317", true},
		{"127.0.0.1:4317", true},
		{"[::1]:4317", true},
		{"collector.internal:4317", false},
		{"otel.example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.want, isLoopback(tt.endpoint))
		})
	}
}
