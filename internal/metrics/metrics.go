package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidcompress_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidcompress_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidcompress_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Engine metrics
var (
	EngineLoadAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidcompress_engine_load_attempts_total",
			Help: "Total number of engine source load attempts",
		},
		[]string{"source", "status"},
	)

	EngineLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vidcompress_engine_load_duration_seconds",
			Help:    "Time taken to initialize the encoding engine",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	EngineLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidcompress_engine_loaded",
			Help: "Whether an encoding engine is loaded (1 = loaded, 0 = not loaded)",
		},
	)
)

// Probe metrics
var (
	ProbeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidcompress_probe_total",
			Help: "Total number of metadata probes by prober and status",
		},
		[]string{"prober", "status"},
	)

	ProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidcompress_probe_duration_seconds",
			Help:    "Metadata probe duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
		},
		[]string{"prober"},
	)
)

// Compression metrics
var (
	CompressionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidcompress_compressions_total",
			Help: "Total number of compression runs by outcome",
		},
		[]string{"outcome"},
	)

	CompressionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vidcompress_compression_duration_seconds",
			Help:    "Compression run duration in seconds, fallbacks included",
			Buckets: []float64{0.1, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	CompressionsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidcompress_compressions_in_progress",
			Help: "Number of compression runs currently executing",
		},
	)

	CompressionInputBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidcompress_compression_input_bytes_total",
			Help: "Total bytes handed to the compressor",
		},
	)

	CompressionOutputBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidcompress_compression_output_bytes_total",
			Help: "Total bytes returned by the compressor, fallbacks included",
		},
	)
)

// Upload and library metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidcompress_uploads_total",
			Help: "Total number of uploads by status",
		},
		[]string{"status"},
	)

	StorageWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidcompress_storage_writes_total",
			Help: "Total number of object store writes by bucket and status",
		},
		[]string{"bucket", "status"},
	)

	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidcompress_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidcompress_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	LibraryVideosTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidcompress_library_videos_total",
			Help: "Number of videos in the library",
		},
	)

	LibraryStoredBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidcompress_library_stored_bytes",
			Help: "Total stored video bytes",
		},
	)

	LibrarySavedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidcompress_library_saved_bytes",
			Help: "Total bytes saved by compression across the library",
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidcompress_filesystem_retry_attempts_total",
			Help: "Filesystem operations retried after a stale NFS file handle",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidcompress_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidcompress_filesystem_retry_failures_total",
			Help: "Filesystem operations that still failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidcompress_filesystem_stale_errors_total",
			Help: "Stale NFS file handle errors seen",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidcompress_filesystem_operation_duration_seconds",
			Help:    "Duration of retried filesystem operations, retries included",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidcompress_memory_usage_ratio",
			Help: "Heap usage as a ratio of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidcompress_memory_paused",
			Help: "1 while uploads are refused due to memory pressure",
		},
	)

	MemoryUploadsPaused = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidcompress_memory_pauses_total",
			Help: "Times uploads were paused due to memory pressure",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vidcompress_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
