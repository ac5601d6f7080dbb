package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssetsScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediascan",
		Name:      "assets_scanned_total",
		Help:      "Total number of assets enumerated by scans",
	}, []string{"kind"})

	DetectorInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediascan",
		Name:      "detector_invocations_total",
		Help:      "Total number of detector runs (cache misses)",
	}, []string{"detector"})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediascan",
		Name:      "cache_hits_total",
		Help:      "Total number of decision cache hits",
	}, []string{"kind"})

	CacheFlushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediascan",
		Name:      "cache_flushes_total",
		Help:      "Total number of durable cache flushes",
	}, []string{"kind"})

	CacheFlushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mediascan",
		Name:      "cache_flush_duration_seconds",
		Help:      "Duration of durable cache flushes",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"kind"})

	CategorySize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mediascan",
		Name:      "category_assets",
		Help:      "Number of assets currently classified per category",
	}, []string{"category"})

	ArtifactFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mediascan",
		Name:      "artifact_fetch_duration_seconds",
		Help:      "Duration of thumbnail/preview fetches from the library",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"artifact"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mediascan",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mediascan",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
