package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run metrics
var (
	RunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reformat_runs_total",
			Help: "Total number of conversion runs",
		},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reformat_run_duration_seconds",
			Help:    "Conversion run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	RunItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reformat_run_items_total",
			Help: "Total number of items processed across runs by status",
		},
		[]string{"status"},
	)

	RunWarningsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reformat_run_warnings_total",
			Help: "Total number of per-item warnings recorded",
		},
	)
)

// Pipeline metrics
var (
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reformat_pipeline_duration_seconds",
			Help:    "Per-item pipeline duration in seconds by output format",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"format"},
	)

	EncodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reformat_encodes_total",
			Help: "Total number of encode operations by format and status",
		},
		[]string{"format", "status"},
	)

	EncodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reformat_encode_duration_seconds",
			Help:    "Encode duration in seconds by format",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"format"},
	)

	SizeSearchIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reformat_size_search_iterations",
			Help:    "Number of encode iterations used by the file size search",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 12, 16, 24},
		},
	)

	SizeSearchUnreachable = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reformat_size_search_unreachable_total",
			Help: "Total number of file size searches that could not reach the target",
		},
	)
)

// Scheduler metrics
var (
	TasksInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reformat_tasks_in_flight",
			Help: "Number of conversion tasks currently executing",
		},
	)

	WorkerCeiling = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reformat_worker_ceiling",
			Help: "Configured concurrency ceiling for the current run",
		},
	)

	RunProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reformat_run_progress",
			Help: "Progress counters for the current run by status",
		},
		[]string{"status"},
	)

	RunItemsPlanned = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reformat_run_items_planned",
			Help: "Number of items submitted to the current run",
		},
	)

	CancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reformat_cancellations_total",
			Help: "Total number of canceled runs",
		},
	)
)

// Filesystem metrics
var (
	FileWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reformat_file_writes_total",
			Help: "Total number of output file writes by outcome",
		},
		[]string{"outcome"},
	)
)

// Watch mode metrics
var (
	WatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reformat_watched_directories",
			Help: "Number of directories currently registered with the watcher",
		},
	)

	WatchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reformat_watch_events_total",
			Help: "Total filesystem events observed in watch mode by type",
		},
		[]string{"type"},
	)

	WatchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reformat_watch_errors_total",
			Help: "Total watcher setup and event stream errors",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reformat_memory_usage_ratio",
			Help: "Heap usage as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reformat_memory_paused",
			Help: "Whether conversions are paused for memory pressure (1 = paused)",
		},
	)

	MemoryForcedGCs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reformat_memory_forced_gcs_total",
			Help: "Total number of garbage collections forced by memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reformat_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
