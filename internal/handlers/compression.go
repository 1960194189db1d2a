package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"vidcompress/internal/compress"
	"vidcompress/internal/engine"
	"vidcompress/internal/logging"
	"vidcompress/internal/plan"
	"vidcompress/internal/probe"
)

// ProbeResponse describes an uploaded video and the settings it would be
// compressed with.
type ProbeResponse struct {
	Metadata     probe.Metadata       `json:"metadata"`
	Plan         plan.Plan            `json:"plan"`
	Info         plan.CompressionInfo `json:"info"`
	BitrateKbps  int                  `json:"bitrateKbps"`
	NeedsScale   bool                 `json:"needsScale"`
	OutputWidth  int                  `json:"outputWidth"`
	OutputHeight int                  `json:"outputHeight"`
}

// EngineStatus reports the compression engine state.
type EngineStatus struct {
	Loaded    bool   `json:"loaded"`
	Supported bool   `json:"supported"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
}

// unsupportedMessage is shown when the host cannot run the engine at all.
const unsupportedMessage = "Video compression is not supported here. Upload without compression instead."

// GetCompressionInfo estimates savings for a file of the given size.
func (h *Handlers) GetCompressionInfo(w http.ResponseWriter, r *http.Request) {
	size, err := strconv.ParseInt(r.URL.Query().Get("size"), 10, 64)
	if err != nil || size < 0 {
		http.Error(w, "size must be a non-negative byte count", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, plan.Info(size))
}

// ProbeVideo reads the dimensions and duration of an uploaded video and
// returns the settings it would be compressed with.
func (h *Handlers) ProbeVideo(w http.ResponseWriter, r *http.Request) {
	if h.rejectIfOverloaded(w) {
		return
	}

	form, err := readUploadForm(w, r, h.maxUpload, "video")
	if err != nil {
		http.Error(w, err.Error(), formStatus(err))
		return
	}

	video := form.file("video")
	if video == nil || video.Size() == 0 {
		http.Error(w, "A video file is required", http.StatusBadRequest)
		return
	}

	md, err := h.prober.Probe(r.Context(), video)
	if err != nil {
		if errors.Is(err, probe.ErrMetadataRead) {
			logging.Debug("Probe of %s failed: %v", video.Name(), err)
			writeJSONError(w, probe.ErrMetadataRead.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "Failed to probe video", http.StatusInternalServerError)
		return
	}

	p := plan.Compute(video.Size(), md.Width, md.Height, md.Duration)
	outW, outH := p.FitWithin(md.Width, md.Height)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ProbeResponse{
		Metadata:     md,
		Plan:         p,
		Info:         plan.Info(video.Size()),
		BitrateKbps:  p.BitrateKbps(),
		NeedsScale:   p.NeedsScale(md.Width, md.Height),
		OutputWidth:  outW,
		OutputHeight: outH,
	})
}

// GetEngineStatus reports whether the engine is loaded without loading it.
func (h *Handlers) GetEngineStatus(w http.ResponseWriter, _ *http.Request) {
	status := EngineStatus{Loaded: h.loader.Loaded(), Supported: true}
	if err := h.loader.CheckHost(); err != nil {
		status.Supported = false
		status.Reason = compress.Reason(err)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, status)
}

// LoadEngine loads the engine ahead of the first compression. Clients call
// it while the user is still filling in the upload form.
func (h *Handlers) LoadEngine(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	_, err := h.loader.Acquire(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		status := EngineStatus{Supported: true, Reason: compress.Reason(err), Error: engine.RemediationMessage}
		if errors.Is(err, engine.ErrUnsupportedEnvironment) {
			status.Supported = false
			status.Error = unsupportedMessage
		}
		logging.Warn("Engine load failed after %v: %v", time.Since(start), err)
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, status)
		return
	}

	logging.Debug("Engine ready in %v", time.Since(start))
	writeJSON(w, EngineStatus{Loaded: true, Supported: true})
}
