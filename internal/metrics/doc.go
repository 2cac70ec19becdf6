// Package metrics provides Prometheus instrumentation for the reformat tool.
//
// All metrics are prefixed with "reformat_" to avoid naming collisions with
// other applications.
//
// # Metric Categories
//
// ## Run Metrics
//
// Track whole conversion runs:
//   - RunsTotal: Counter of conversion runs
//   - RunDuration: Histogram of run duration
//   - RunItemsTotal: Counter of processed items by status (succeeded/failed/canceled)
//   - RunWarningsTotal: Counter of per-item warnings
//
// ## Pipeline Metrics
//
// Monitor per-item processing:
//   - PipelineDuration: Histogram of per-item pipeline duration by output format
//   - EncodesTotal: Counter of encode operations by format and status
//   - EncodeDuration: Histogram of encode duration by format
//   - SizeSearchIterations: Histogram of encode iterations used by the file size search
//   - SizeSearchUnreachable: Counter of searches that could not reach the target
//
// ## Scheduler Metrics
//
// Track the worker pool:
//   - TasksInFlight: Gauge of currently executing tasks
//   - WorkerCeiling: Gauge of the configured concurrency ceiling
//   - RunProgress: Gauge of live progress counters by status
//   - RunItemsPlanned: Gauge of items submitted to the current run
//   - CancellationsTotal: Counter of canceled runs
//
// ## Filesystem Metrics
//
//   - FileWrites: Counter of output writes by outcome
//
// ## Watch Metrics
//
// Cover hot-folder mode:
//   - WatchedDirectories: Gauge of directories currently watched
//   - WatchEventsTotal: Counter of filesystem events by type
//   - WatchErrors: Counter of watcher errors
//
// ## Memory Metrics
//
// Cover the backpressure monitor:
//   - MemoryUsageRatio: Gauge of heap usage relative to the limit
//   - MemoryPaused: Gauge set to 1 while conversions are paused
//   - MemoryForcedGCs: Counter of collections forced by the monitor
//
// ## Application Info
//
//   - AppInfo: Gauge with version, commit, and Go version labels
//
// # Exposition
//
// The tool performs no network I/O, so there is no scrape endpoint. Instead,
// DumpToFile writes the default registry in the Prometheus text format at the
// end of a run when a metrics file is configured:
//
//	if cfg.MetricsFile != "" {
//	    if err := metrics.DumpToFile(cfg.MetricsFile); err != nil { ... }
//	}
//
// # Recording Metrics
//
// Import this package and use the exported metric variables:
//
//	metrics.EncodesTotal.WithLabelValues("jpeg", "success").Inc()
//	metrics.EncodeDuration.WithLabelValues("jpeg").Observe(0.123)
//	metrics.TasksInFlight.Set(3)
//
// # Collector
//
// The [Collector] type periodically copies statistics from a [StatsProvider]
// into the progress gauges while a run executes:
//
//	collector := metrics.NewCollector(run, time.Second)
//	collector.Start()
//	defer collector.Stop()
package metrics
