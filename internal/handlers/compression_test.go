package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vidcompress/internal/compress"
	"vidcompress/internal/engine"
	"vidcompress/internal/plan"
)

func TestGetCompressionInfo(t *testing.T) {
	env := newTestEnv(t, testOptions{})

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantShould bool
	}{
		{name: "Large file", query: "?size=104857600", wantStatus: http.StatusOK, wantShould: true},
		{name: "Small file", query: "?size=1048576", wantStatus: http.StatusOK, wantShould: false},
		{name: "Exactly threshold", query: "?size=52428800", wantStatus: http.StatusOK, wantShould: false},
		{name: "Missing size", query: "", wantStatus: http.StatusBadRequest},
		{name: "Negative size", query: "?size=-1", wantStatus: http.StatusBadRequest},
		{name: "Not a number", query: "?size=big", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(httptest.NewRequest(http.MethodGet, "/api/compression-info"+tt.query, http.NoBody))
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var info plan.CompressionInfo
			if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if info.ShouldCompress != tt.wantShould {
				t.Errorf("Expected ShouldCompress=%v, got %v", tt.wantShould, info.ShouldCompress)
			}
		})
	}
}

func TestGetCompressionInfoEstimates(t *testing.T) {
	env := newTestEnv(t, testOptions{})

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/compression-info?size=104857600", http.NoBody))

	var info plan.CompressionInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if info.EstimatedSavings != "80%" {
		t.Errorf("Expected EstimatedSavings=80%%, got %q", info.EstimatedSavings)
	}
	if info.EstimatedTime != "2.0min" {
		t.Errorf("Expected EstimatedTime=2.0min, got %q", info.EstimatedTime)
	}
}

func TestProbeVideo(t *testing.T) {
	env := newTestEnv(t, testOptions{})

	req := multipartRequest(t, "/api/probe", []formFile{{field: "video", name: "clip.mp4", data: make([]byte, 4096)}}, nil)
	w := env.do(req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp ProbeResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Metadata.Width != 1920 || resp.Metadata.Height != 1080 {
		t.Errorf("Expected 1920x1080, got %dx%d", resp.Metadata.Width, resp.Metadata.Height)
	}
	// 1080p exceeds the 720p pixel bound, so even a small file is capped to 720p.
	if resp.Plan.TargetBitrate != "1500k" || resp.Plan.CRF != 26 {
		t.Errorf("Expected 1500k/crf26 plan, got %+v", resp.Plan)
	}
	if resp.BitrateKbps != 1500 {
		t.Errorf("Expected BitrateKbps=1500, got %d", resp.BitrateKbps)
	}
	if !resp.NeedsScale {
		t.Error("Expected 1920x1080 to need scaling")
	}
	if resp.OutputWidth != 1280 || resp.OutputHeight != 720 {
		t.Errorf("Expected output 1280x720, got %dx%d", resp.OutputWidth, resp.OutputHeight)
	}
	if resp.Info.ShouldCompress {
		t.Error("Expected ShouldCompress=false for a 4 KiB file")
	}
}

func TestProbeVideoErrors(t *testing.T) {
	env := newTestEnv(t, testOptions{maxUpload: 1024})

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
	}{
		{
			name:       "Unreadable metadata",
			req:        multipartRequest(t, "/api/probe", []formFile{{field: "video", name: "broken.mp4", data: []byte("junk")}}, nil),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "Missing video",
			req:        multipartRequest(t, "/api/probe", nil, map[string]string{"title": "x"}),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Too large",
			req:        multipartRequest(t, "/api/probe", []formFile{{field: "video", name: "clip.mp4", data: make([]byte, 2048)}}, nil),
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:       "Not multipart",
			req:        httptest.NewRequest(http.MethodPost, "/api/probe", strings.NewReader(`{"video":"x"}`)),
			wantStatus: http.StatusUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(tt.req)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetEngineStatus(t *testing.T) {
	env := newTestEnv(t, testOptions{})

	w := env.do(httptest.NewRequest(http.MethodGet, "/api/engine", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var status EngineStatus
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if status.Loaded {
		t.Error("Expected engine not to be loaded before first use")
	}
	if !status.Supported {
		t.Error("Expected a writable scratch directory to be supported")
	}
}

func TestLoadEngineUnavailable(t *testing.T) {
	env := newTestEnv(t, testOptions{})

	w := env.do(httptest.NewRequest(http.MethodPost, "/api/engine/load", http.NoBody))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}

	var status EngineStatus
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if status.Error != engine.RemediationMessage {
		t.Errorf("Expected remediation message, got %q", status.Error)
	}
	if status.Reason != compress.ReasonEngineUnavailable {
		t.Errorf("Expected reason %q, got %q", compress.ReasonEngineUnavailable, status.Reason)
	}
	if status.Loaded {
		t.Error("Expected Loaded=false")
	}
}
