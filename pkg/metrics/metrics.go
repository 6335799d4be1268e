package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	CandidatesInQueue   prometheus.Gauge
	ChecksTotal         *prometheus.CounterVec
	CheckDuration       *prometheus.HistogramVec
	RateLimitWait       prometheus.Histogram
	LeadsCollected      *prometheus.CounterVec
)

func Init() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	CandidatesInQueue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "candidates_in_queue",
			Help: "Current number of candidates waiting in the verification queue.",
		},
	)

	ChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checks_total",
			Help: "Total number of reachability check attempts.",
		},
		[]string{"status"}, // valid, invalid, ambiguous, error
	)

	CheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "check_duration_seconds",
			Help:    "Duration of reachability checks.",
			Buckets: []float64{1, 5, 10, 15, 30, 60},
		},
		[]string{"checker"}, // whatsapp, mock
	)

	RateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rate_limit_wait_seconds",
			Help:    "Time spent waiting for the hourly rate window.",
			Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600},
		},
	)

	LeadsCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_collected_total",
			Help: "Total number of leads collected from the directory site.",
		},
		[]string{"niche"},
	)
}
