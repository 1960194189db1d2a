package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"vidcompress/internal/asset"
	"vidcompress/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Defaults for the tunables read by LoadConfig.
const (
	DefaultEngineLoadTimeout = 30 * time.Second
	DefaultProbeTimeout      = 15 * time.Second
	DefaultExecTimeout       = 30 * time.Minute
	DefaultMinCompressBytes  = 50 * asset.MiB
	DefaultMaxUploadBytes    = 2048 * asset.MiB
)

// Config holds all application configuration
type Config struct {
	DataDir         string
	Port            string
	MetricsPort     string
	PublicBaseURL   string
	LogStaticFiles  bool
	LogHealthChecks bool
	MetricsEnabled  bool

	// Derived paths
	DatabasePath   string
	StorageDir     string
	ScratchDir     string
	EngineCacheDir string

	// Engine
	FFmpegPath        string
	FFprobePath       string
	FFmpegMirrors     string
	EngineLoadTimeout time.Duration
	ProbeTimeout      time.Duration
	ExecTimeout       time.Duration
	// EncoderThreads of 0 means one per available CPU.
	EncoderThreads int

	// Limits
	MinCompressBytes int64
	MaxUploadBytes   int64
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config, err := configFromEnv()
	if err != nil {
		return nil, err
	}

	logging.Info("  DATA_DIR:            %s", config.DataDir)
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  PUBLIC_BASE_URL:     %s", config.PublicBaseURL)
	logging.Info("  FFMPEG_PATH:         %s", valueOrNone(config.FFmpegPath))
	logging.Info("  FFPROBE_PATH:        %s", valueOrNone(config.FFprobePath))
	logging.Info("  FFMPEG_MIRRORS:      %d configured", countMirrors(config.FFmpegMirrors))
	logging.Info("  ENGINE_LOAD_TIMEOUT: %v", config.EngineLoadTimeout)
	logging.Info("  PROBE_TIMEOUT:       %v", config.ProbeTimeout)
	logging.Info("  EXEC_TIMEOUT:        %v", config.ExecTimeout)
	logging.Info("  ENCODER_THREADS:     %s", threadsString(config.EncoderThreads))
	logging.Info("  MIN_COMPRESS_BYTES:  %d (%s)", config.MinCompressBytes, asset.FormatMiB(config.MinCompressBytes))
	logging.Info("  MAX_UPLOAD_BYTES:    %d (%s)", config.MaxUploadBytes, asset.FormatMiB(config.MaxUploadBytes))
	logging.Info("  LOG_STATIC_FILES:    %v", config.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Data directory (absolute): %s", config.DataDir)

	if err := ensureDirectory(config.DataDir, "data"); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}

	logging.Debug("  Testing data directory write access...")
	if err := testWriteAccess(config.DataDir); err != nil {
		return nil, fmt.Errorf("data directory is not writable (required for database and storage): %w", err)
	}
	logging.Info("  [OK] Data directory is writable")

	if err := ensureDirectory(config.StorageDir, "storage"); err != nil {
		return nil, fmt.Errorf("storage directory error: %w", err)
	}

	// Without a scratch directory the engine host check fails and uploads
	// are stored uncompressed.
	compressionEnabled := setupOptionalDir(config.ScratchDir, "scratch")
	setupOptionalDir(config.EngineCacheDir, "engine cache")

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    ENABLED (required)")
	logging.Info("    Storage:     ENABLED (required)")
	logging.Info("    Compression: %s", enabledString(compressionEnabled))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// configFromEnv reads the environment without touching the filesystem.
func configFromEnv() (*Config, error) {
	dataDir, err := filepath.Abs(getEnv("DATA_DIR", "/data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	config := &Config{
		DataDir:         dataDir,
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		PublicBaseURL:   strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		LogStaticFiles:  getEnvBool("LOG_STATIC_FILES", false),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", true),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),

		DatabasePath:   filepath.Join(dataDir, "videos.db"),
		StorageDir:     filepath.Join(dataDir, "objects"),
		ScratchDir:     filepath.Join(dataDir, "scratch"),
		EngineCacheDir: filepath.Join(dataDir, "engine"),

		FFmpegPath:        os.Getenv("FFMPEG_PATH"),
		FFprobePath:       os.Getenv("FFPROBE_PATH"),
		FFmpegMirrors:     os.Getenv("FFMPEG_MIRRORS"),
		EngineLoadTimeout: getEnvDuration("ENGINE_LOAD_TIMEOUT", DefaultEngineLoadTimeout),
		ProbeTimeout:      getEnvDuration("PROBE_TIMEOUT", DefaultProbeTimeout),
		ExecTimeout:       getEnvDuration("EXEC_TIMEOUT", DefaultExecTimeout),
		EncoderThreads:    int(getEnvInt64("ENCODER_THREADS", 0)),

		MinCompressBytes: getEnvInt64("MIN_COMPRESS_BYTES", DefaultMinCompressBytes),
		MaxUploadBytes:   getEnvInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
	}

	if _, err := strconv.Atoi(config.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", config.Port, err)
	}
	if _, err := strconv.Atoi(config.MetricsPort); err != nil {
		return nil, fmt.Errorf("invalid METRICS_PORT %q: %w", config.MetricsPort, err)
	}

	return config, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func threadsString(n int) string {
	if n <= 0 {
		return "auto"
	}
	return strconv.Itoa(n)
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func valueOrNone(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func countMirrors(s string) int {
	n := 0
	for _, entry := range strings.Split(s, ",") {
		if strings.TrimSpace(entry) != "" {
			n++
		}
	}
	return n
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogEngineInit logs the configured engine sources and checks the local
// ffmpeg and ffprobe binaries. The engine itself is loaded on first use.
func LogEngineInit(sources []string, ffprobePath string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("COMPRESSION ENGINE")
	logging.Info("------------------------------------------------------------")

	if len(sources) == 0 {
		logging.Warn("  No engine sources configured")
		logging.Warn("  Uploads will be stored uncompressed")
	}
	for i, s := range sources {
		logging.Info("  Source %d: %s", i+1, s)
	}

	if err := checkBinary("ffmpeg"); err != nil {
		logging.Info("  ffmpeg not on PATH: %v", err)
	} else {
		logging.Info("  [OK] ffmpeg is on PATH")
	}

	probe := ffprobePath
	if probe == "" {
		probe = "ffprobe"
	}
	if err := checkBinary(probe); err != nil {
		logging.Warn("  ffprobe check failed: %v", err)
		logging.Warn("  Only MP4 metadata can be read")
	} else {
		logging.Info("  [OK] ffprobe is available")
	}
	logging.Info("  Engine will be loaded on first use")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
        _     __
 _   __(_)___/ /________  ____ ___  ____  ________  __________
| | / / / __  / ___/ __ \/ __ '__ \/ __ \/ ___/ _ \/ ___/ ___/
| |/ / / /_/ / /__/ /_/ / / / / / / /_/ / /  /  __(__  |__  )
|___/_/\__,_/\___/\____/_/ /_/ /_/ .___/_/   \___/____/____/
                                /_/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func checkBinary(name string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found", name)
	}
	logging.Debug("  %s path: %s", name, path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", name, err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  %s version: %s", name, strings.TrimSpace(lines[0]))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
