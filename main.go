package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidcompress/internal/compress"
	"vidcompress/internal/database"
	"vidcompress/internal/engine"
	"vidcompress/internal/filesystem"
	"vidcompress/internal/handlers"
	"vidcompress/internal/logging"
	"vidcompress/internal/memory"
	"vidcompress/internal/metrics"
	"vidcompress/internal/middleware"
	"vidcompress/internal/probe"
	"vidcompress/internal/startup"
	"vidcompress/internal/storage"

	"github.com/gorilla/mux"
)

const (
	metricsCollectInterval = time.Minute
	shutdownTimeout        = 30 * time.Second
)

// shutdownDone is closed once handleShutdown has released every resource.
var shutdownDone = make(chan struct{})

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"data":    config.DataDir,
		"storage": config.StorageDir,
		"scratch": config.ScratchDir,
		"engine":  config.EngineCacheDir,
	}))

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	store, err := storage.NewLocal(config.StorageDir, config.PublicBaseURL)
	if err != nil {
		startup.LogFatal("Failed to initialize storage: %v", err)
	}

	// Initialize compression engine. Nothing is loaded until first use.
	sources := engineSources(config)
	startup.LogEngineInit(sourceNames(sources), config.FFprobePath)
	loader := engine.NewLoader(engine.LoaderOptions{
		Sources:     sources,
		ScratchDir:  config.ScratchDir,
		LoadTimeout: config.EngineLoadTimeout,
	})

	prober := newProber(config)
	compressor := compress.New(compress.FromLoader(loader), prober, compress.Options{
		MinSize:     config.MinCompressBytes,
		LoadTimeout: config.EngineLoadTimeout,
		ExecTimeout: config.ExecTimeout,
		Threads:     config.EncoderThreads,
	})

	// Metrics
	metrics.InitializeMetrics()
	buildInfo := startup.GetBuildInfo()
	metrics.AppInfo.WithLabelValues(buildInfo.Version, buildInfo.Commit, buildInfo.GoVersion).Set(1)
	collector := metrics.NewCollector(db, metricsCollectInterval)
	collector.Start()

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	// Initialize handlers
	h := handlers.New(db, store, loader, compressor, prober, config)
	h.SetMemoryMonitor(monitor)

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	var handler http.Handler = router
	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	handler = middleware.Logger(loggingConfig)(handler)
	handler = middleware.RequestID(handler)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		// Uploads and downloads of large videos are not time-bounded.
		ReadTimeout:  0,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, collector, monitor, loader, db)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}

	// ListenAndServe returns as soon as Shutdown starts; wait for cleanup.
	<-shutdownDone
}

// engineSources lists where ffmpeg may come from, most explicit first.
func engineSources(config *startup.Config) []engine.Source {
	var sources []engine.Source
	if config.FFmpegPath != "" {
		sources = append(sources, engine.FileSource{Path: config.FFmpegPath})
	}
	sources = append(sources, engine.LookPathSource{})
	for _, m := range engine.ParseMirrors(config.FFmpegMirrors, config.EngineCacheDir) {
		sources = append(sources, m)
	}
	return sources
}

func sourceNames(sources []engine.Source) []string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	return names
}

// newProber reads the MP4 container directly and falls back to ffprobe for
// everything else.
func newProber(config *startup.Config) probe.Prober {
	return probe.WithTimeout(probe.Chain{
		probe.MP4{},
		&probe.FFprobe{Path: config.FFprobePath, TempDir: config.ScratchDir},
	}, config.ProbeTimeout)
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Stored videos and thumbnails
	r.HandleFunc("/files/{bucket}/{name}", h.ServeObject).Methods("GET", "HEAD")

	api := r.PathPrefix("/api").Subrouter()

	// Compression
	api.HandleFunc("/compression-info", h.GetCompressionInfo).Methods("GET")
	api.HandleFunc("/probe", h.ProbeVideo).Methods("POST")
	api.HandleFunc("/engine", h.GetEngineStatus).Methods("GET")
	api.HandleFunc("/engine/load", h.LoadEngine).Methods("POST")

	// Videos
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/videos", h.ListVideos).Methods("GET")
	api.HandleFunc("/videos", h.CreateVideo).Methods("POST")
	api.HandleFunc("/videos/{id}", h.GetVideo).Methods("GET")
	api.HandleFunc("/videos/{id}", h.DeleteVideo).Methods("DELETE")
	api.HandleFunc("/videos/{id}/view", h.RecordView).Methods("POST")

	return r
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	return &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, monitor *memory.Monitor, loader *engine.Loader, db *database.Database) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	defer close(shutdownDone)

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Stopping background monitors")
	collector.Stop()
	monitor.Stop()
	startup.LogShutdownStepComplete("Background monitors stopped")

	startup.LogShutdownStep("Cleaning up compression engine")
	loader.Cleanup()
	startup.LogShutdownStepComplete("Engine scratch space removed")

	startup.LogShutdownStep("Closing database")
	if err := db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}
