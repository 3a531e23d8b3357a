package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Compression metrics
	CompressionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compress_mcp_compressions_total",
			Help: "Total number of image compressions",
		},
		[]string{"status"}, // success, passthrough, skipped, error
	)

	CompressionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compress_mcp_compression_duration_seconds",
			Help:    "Per-image compression duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"format"},
	)

	CompressionBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compress_mcp_compression_bytes",
			Help:    "Compression input/output bytes",
			Buckets: []float64{1024, 10240, 102400, 512000, 1048576, 5242880, 10485760},
		},
		[]string{"direction"}, // input, output
	)

	// Fetch metrics
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compress_mcp_fetches_total",
			Help: "Total number of source downloads",
		},
		[]string{"status"}, // success, error
	)
)

// RecordCompression records one compression outcome
func RecordCompression(status, format string, duration float64, inputBytes, outputBytes int) {
	CompressionsTotal.WithLabelValues(status).Inc()
	CompressionDuration.WithLabelValues(format).Observe(duration)
	CompressionBytes.WithLabelValues("input").Observe(float64(inputBytes))
	CompressionBytes.WithLabelValues("output").Observe(float64(outputBytes))
}

// RecordSkip records an image rejected before compression
func RecordSkip() {
	CompressionsTotal.WithLabelValues("skipped").Inc()
}

// RecordFetch records a source download attempt
func RecordFetch(err error) {
	if err != nil {
		FetchesTotal.WithLabelValues("error").Inc()
		return
	}
	FetchesTotal.WithLabelValues("success").Inc()
}
