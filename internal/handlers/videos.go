package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"vidcompress/internal/database"
	"vidcompress/internal/logging"
	"vidcompress/internal/storage"
	"vidcompress/internal/upload"

	"github.com/gorilla/mux"
)

// CreateVideo accepts a multipart upload with a "video" file, an optional
// "thumbnail" image and the title, description, hashtags and compress fields.
func (h *Handlers) CreateVideo(w http.ResponseWriter, r *http.Request) {
	if h.rejectIfOverloaded(w) {
		return
	}

	form, err := readUploadForm(w, r, h.maxUpload, "video", "thumbnail")
	if err != nil {
		http.Error(w, err.Error(), formStatus(err))
		return
	}

	req := upload.Request{
		Video:       form.file("video"),
		Thumbnail:   form.file("thumbnail"),
		Title:       form.field("title"),
		Description: form.field("description"),
		Hashtags:    upload.ParseHashtags(form.field("hashtags")),
		Compress:    parseBool(form.field("compress")),
	}

	res, err := h.uploads.Upload(r.Context(), req, decileLogger(req.Video.Name(), logging.Debug))
	if err != nil {
		if errors.Is(err, upload.ErrInvalid) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSONError(w, "Failed to upload video", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, res)
}

// decileLogger returns a progress callback that logs once per crossed decile.
// Percentages only increase, so a jump such as 9 to 11 still logs 11.
func decileLogger(name string, logf func(format string, args ...interface{})) func(int) {
	lastDecile := -1
	return func(percent int) {
		if d := percent / 10; d > lastDecile {
			lastDecile = d
			logf("Compressing %s: %d%%", name, percent)
		}
	}
}

// GetVideo returns a single video.
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	v, err := h.db.GetVideo(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeVideoError(w, err, "Failed to get video")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, v)
}

// ListVideos returns the newest videos, optionally filtered by the q and
// hashtag query parameters.
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	videos, err := h.db.ListVideos(r.Context(), database.ListOptions{
		Query:   query.Get("q"),
		Hashtag: query.Get("hashtag"),
		Limit:   queryInt(r, "limit", 0),
	})
	if err != nil {
		http.Error(w, "Failed to list videos", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, videos)
}

// RecordView increments a video's view count.
func (h *Handlers) RecordView(w http.ResponseWriter, r *http.Request) {
	views, err := h.db.IncrementViews(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeVideoError(w, err, "Failed to record view")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]int64{"views": views})
}

// DeleteVideo removes a video record and its stored objects.
func (h *Handlers) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	v, err := h.db.DeleteVideo(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeVideoError(w, err, "Failed to delete video")
		return
	}

	h.deleteObject(r.Context(), v.URL)
	if v.ThumbnailURL != "" {
		h.deleteObject(r.Context(), v.ThumbnailURL)
	}

	logging.Info("Deleted video %s %q", v.ID, v.Title)
	writeJSONStatus(w, "deleted")
}

// deleteObject removes a stored object by URL. Objects this store did not
// write are left alone.
func (h *Handlers) deleteObject(ctx context.Context, url string) {
	bucket, name, ok := h.store.ParseURL(url)
	if !ok {
		logging.Warn("Not deleting %s: not a stored object URL", url)
		return
	}
	if err := h.store.Delete(ctx, bucket, name); err != nil {
		logging.Warn("Failed to delete %s/%s: %v", bucket, name, err)
	}
}

// GetStats returns library totals.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.CalculateStats(r.Context())
	if err != nil {
		http.Error(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats)
}

// ServeObject serves a stored video or thumbnail. Object names are unique,
// so responses are cacheable indefinitely.
func (h *Handlers) ServeObject(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	f, info, err := h.store.Open(vars["bucket"], vars["name"])
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			http.Error(w, "File not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrInvalidName):
			http.Error(w, "Invalid path", http.StatusBadRequest)
		default:
			logging.Error("Failed to open %s/%s: %v", vars["bucket"], vars["name"], err)
			http.Error(w, "Failed to access file", http.StatusInternalServerError)
		}
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s: %v", f.Name(), err)
		}
	}()

	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func writeVideoError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, database.ErrNotFound) {
		http.Error(w, "Video not found", http.StatusNotFound)
		return
	}
	logging.Error("%s: %v", message, err)
	http.Error(w, message, http.StatusInternalServerError)
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return s == "on"
	}
	return b
}
