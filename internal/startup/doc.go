// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - DATA_DIR: Root for the database, stored objects and engine scratch space (default: /data)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - PUBLIC_BASE_URL: Prefix for stored object URLs (default: http://localhost:8080)
//   - FFMPEG_PATH: Explicit ffmpeg binary, tried before $PATH
//   - FFPROBE_PATH: Explicit ffprobe binary (default: ffprobe on $PATH)
//   - FFMPEG_MIRRORS: Comma-separated url#sha256 download locations, tried last
//   - ENGINE_LOAD_TIMEOUT: Bound on engine loading (default: 30s)
//   - PROBE_TIMEOUT: Bound on metadata probing (default: 15s)
//   - EXEC_TIMEOUT: Bound on a single encode (default: 30m)
//   - MIN_COMPRESS_BYTES: Smallest upload worth compressing (default: 52428800)
//   - MAX_UPLOAD_BYTES: Largest accepted upload (default: 2 GiB)
//   - ENCODER_THREADS: Encoder thread count override (default: one per CPU, at most 16)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// MEMORY_LIMIT and MEMORY_RATIO are read separately by the memory package
// before configuration is loaded.
//
// # Directory Setup
//
// The data directory must exist or be creatable and must be writable. The
// objects directory beneath it is required. The scratch and engine cache
// directories are optional; without them compression is unavailable and
// uploads are stored as-is.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	startup.LogDatabaseInit(dbInitDuration)
//	startup.LogEngineInit(sourceNames, config.FFprobePath)
//
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
package startup
