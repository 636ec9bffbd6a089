// Package metrics exposes Prometheus instruments for the journal.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tradeWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_trade_writes_total",
			Help: "Trade create/update/delete operations by outcome",
		},
		[]string{"op", "status"},
	)

	imageCompressions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_image_compressions_total",
			Help: "Screenshot compressions by outcome",
		},
		[]string{"status"},
	)

	imageCompressionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "journal_image_compression_duration_seconds",
			Help:    "Time spent decoding, scaling and encoding a screenshot",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "journal_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	openWorkspaces = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "journal_open_workspaces",
			Help: "Signed-in sessions holding a live trade cache",
		},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordTradeWrite counts a repository write.
func RecordTradeWrite(op string, err error) {
	tradeWrites.WithLabelValues(op, status(err)).Inc()
}

// RecordCompression counts a screenshot compression and its duration.
func RecordCompression(d time.Duration, err error) {
	imageCompressions.WithLabelValues(status(err)).Inc()
	imageCompressionDuration.Observe(d.Seconds())
}

// RecordHTTPRequest counts a served request.
func RecordHTTPRequest(method, route string, code int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// WorkspaceOpened and WorkspaceClosed track live workspaces.
func WorkspaceOpened() { openWorkspaces.Inc() }

func WorkspaceClosed() { openWorkspaces.Dec() }
