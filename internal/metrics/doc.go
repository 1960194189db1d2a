// Package metrics provides Prometheus instrumentation for vidcompress.
//
// All metrics are registered through promauto on import and prefixed with
// "vidcompress_".
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// ## Engine Metrics
//   - EngineLoadAttempts: attempts per candidate source and status
//   - EngineLoadDuration: time to initialize the engine
//   - EngineLoaded: 1 once a handle is cached
//
// ## Probe Metrics
//   - ProbeTotal, ProbeDuration: per prober (mp4, ffprobe)
//
// ## Compression Metrics
//   - CompressionsTotal: runs by outcome (success, below_threshold and each
//     fallback reason)
//   - CompressionDuration, CompressionsInProgress
//   - CompressionInputBytes, CompressionOutputBytes
//
// ## Upload and Library Metrics
//   - UploadsTotal, StorageWritesTotal, DBQueryTotal, DBQueryDuration
//   - LibraryVideosTotal, LibraryStoredBytes, LibrarySavedBytes: refreshed
//     periodically by Collector
//
// ## Memory Metrics
//   - MemoryUsageRatio, MemoryPaused, MemoryUploadsPaused: upload backpressure
//     state from the memory monitor
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape.
package metrics
