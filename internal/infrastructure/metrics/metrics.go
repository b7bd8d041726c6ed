package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Commit results used as label values.
const (
	CommitSuccess   = "success"
	CommitRejected  = "rejected"
	CommitInvariant = "invariant"
	CommitError     = "error"
)

// Reload results used as label values.
const (
	ReloadSuccess = "success"
	ReloadError   = "error"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Reconciliation metrics
	Reloads        *prometheus.CounterVec
	ReloadDuration prometheus.Histogram
	PendingItems   prometheus.Gauge
	WatchedFiles   prometheus.Gauge

	// Commit metrics
	Commits             *prometheus.CounterVec
	CommitDuration      prometheus.Histogram
	InvariantViolations prometheus.Counter

	// Watcher and notification metrics
	WatcherEvents      *prometheus.CounterVec
	WatcherTriggers    prometheus.Counter
	SSESubscribers     prometheus.Gauge
	NotificationsDrops prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Audit metrics
	AuditRecords *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all Prometheus metrics and registers them on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Reconciliation metrics
		Reloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beancount_staging_reloads_total",
				Help: "Total number of reconciliation reloads by result",
			},
			[]string{"result"},
		),
		ReloadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "beancount_staging_reload_duration_seconds",
			Help:    "Duration of full reconciliation reloads",
			Buckets: prometheus.DefBuckets,
		}),
		PendingItems: factory.NewGauge(prometheus.GaugeOpts{
			Name: "beancount_staging_pending_items",
			Help: "Current number of staging entries awaiting review",
		}),
		WatchedFiles: factory.NewGauge(prometheus.GaugeOpts{
			Name: "beancount_staging_watched_files",
			Help: "Current number of files that contributed entries",
		}),

		// Commit metrics
		Commits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beancount_staging_commits_total",
				Help: "Total commit attempts by result",
			},
			[]string{"result"},
		),
		CommitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "beancount_staging_commit_duration_seconds",
			Help:    "Duration of commit operations",
			Buckets: prometheus.DefBuckets,
		}),
		InvariantViolations: factory.NewCounter(prometheus.CounterOpts{
			Name: "beancount_staging_commit_invariant_violations_total",
			Help: "Commits aborted because the committed entry no longer matched its staging entry",
		}),

		// Watcher and notification metrics
		WatcherEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beancount_staging_watcher_events_total",
				Help: "Filesystem events seen for watched files by operation",
			},
			[]string{"op"},
		),
		WatcherTriggers: factory.NewCounter(prometheus.CounterOpts{
			Name: "beancount_staging_watcher_triggers_total",
			Help: "Debounced reload triggers",
		}),
		SSESubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "beancount_staging_sse_subscribers",
			Help: "Current number of change stream subscribers",
		}),
		NotificationsDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "beancount_staging_notifications_dropped_total",
			Help: "Change notifications dropped because a subscriber was full",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beancount_staging_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "beancount_staging_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "beancount_staging_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		// Audit metrics
		AuditRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beancount_staging_audit_records_total",
				Help: "Commit audit records written by status",
			},
			[]string{"status"},
		),
	}
}
