package handlers

import (
	"net/http"
	"time"

	"vidcompress/internal/compress"
	"vidcompress/internal/database"
	"vidcompress/internal/engine"
	"vidcompress/internal/memory"
	"vidcompress/internal/probe"
	"vidcompress/internal/startup"
	"vidcompress/internal/storage"
	"vidcompress/internal/upload"
)

// Handlers serves the HTTP API.
type Handlers struct {
	db        *database.Database
	store     *storage.Local
	loader    *engine.Loader
	prober    probe.Prober
	uploads   *upload.Service
	maxUpload int64
	memory    *memory.Monitor
	startTime time.Time
}

// New wires the handlers. A nil compressor stores every upload as-is.
func New(db *database.Database, store *storage.Local, loader *engine.Loader, compressor *compress.Compressor, prober probe.Prober, config *startup.Config) *Handlers {
	var c upload.Compressor
	if compressor != nil {
		c = compressor
	}
	return &Handlers{
		db:        db,
		store:     store,
		loader:    loader,
		prober:    prober,
		uploads:   upload.NewService(c, store, db),
		maxUpload: config.MaxUploadBytes,
		startTime: time.Now(),
	}
}

// SetMemoryMonitor enables upload backpressure.
func (h *Handlers) SetMemoryMonitor(m *memory.Monitor) {
	h.memory = m
}

// rejectIfOverloaded answers 503 while the memory monitor is paused.
// Uploads are buffered in memory, so they are refused before the body is read.
func (h *Handlers) rejectIfOverloaded(w http.ResponseWriter) bool {
	if !h.memory.IsPaused() {
		return false
	}
	w.Header().Set("Retry-After", "30")
	http.Error(w, "Server is low on memory, retry later", http.StatusServiceUnavailable)
	return true
}
