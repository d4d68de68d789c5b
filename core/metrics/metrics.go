package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync run metrics
var (
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagsync_runs_total",
			Help: "Total number of sync runs by outcome",
		},
		[]string{"status"}, // "success", "error", "dry_run"
	)

	SyncRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagsync_running",
			Help: "Whether a sync run is currently in progress (1 = running, 0 = idle)",
		},
	)

	SyncProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagsync_progress_ratio",
			Help: "Progress of the current or last sync run, from 0 to 1",
		},
	)

	SyncLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagsync_last_run_timestamp",
			Help: "Timestamp of the last finished sync run",
		},
	)

	SyncLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagsync_last_run_duration_seconds",
			Help: "Duration of the last finished sync run in seconds",
		},
	)

	SyncIndexPerformers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagsync_index_performers",
			Help: "Number of performers with tags in the last built index",
		},
	)
)

// Entity kind pass metrics
var (
	SyncEntitiesScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagsync_entities_scanned_total",
			Help: "Total number of eligible entities selected for processing",
		},
		[]string{"kind"},
	)

	SyncEntitiesUpdated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagsync_entities_updated_total",
			Help: "Total number of entities whose tags were changed",
		},
		[]string{"kind"},
	)

	SyncTagsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagsync_tags_written_total",
			Help: "Total number of entity tag rows inserted or deleted",
		},
		[]string{"kind", "op"}, // op: "insert", "delete"
	)

	SyncBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagsync_batch_duration_seconds",
			Help:    "Time to fetch, reconcile and commit one batch",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	SyncCommitRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagsync_commit_retries_total",
			Help: "Total number of batch commits retried because the store was busy",
		},
		[]string{"kind"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagsync_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagsync_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
