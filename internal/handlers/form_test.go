package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vidcompress/internal/asset"
)

func TestReadUploadForm(t *testing.T) {
	req := multipartRequest(t, "/api/videos",
		[]formFile{
			{field: "video", name: "clip.mp4", data: []byte("first")},
			{field: "video", name: "second.mp4", data: []byte("second")},
			{field: "extra", name: "ignored.bin", data: []byte("x")},
		},
		map[string]string{"title": "Hello"},
	)

	form, err := readUploadForm(httptest.NewRecorder(), req, 1024, "video")
	if err != nil {
		t.Fatalf("readUploadForm failed: %v", err)
	}

	video := form.file("video")
	if video == nil {
		t.Fatal("Expected video part to be read")
	}
	if video.Name() != "clip.mp4" || string(video.Bytes()) != "first" {
		t.Errorf("Expected the first video part, got %s %q", video.Name(), video.Bytes())
	}
	if video.ContentType() != "video/mp4" {
		t.Errorf("Expected content type from extension, got %q", video.ContentType())
	}
	if form.file("extra") != nil {
		t.Error("Expected unlisted file fields to be skipped")
	}
	if form.field("title") != "Hello" {
		t.Errorf("Expected title field, got %q", form.field("title"))
	}
}

func TestReadUploadFormRejectsOversizedFile(t *testing.T) {
	req := multipartRequest(t, "/api/videos",
		[]formFile{{field: "video", name: "clip.mp4", data: make([]byte, 100)}}, nil)

	_, err := readUploadForm(httptest.NewRecorder(), req, 99, "video")
	if !errors.Is(err, asset.ErrTooLarge) {
		t.Fatalf("Expected ErrTooLarge, got %v", err)
	}
	if formStatus(err) != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", formStatus(err))
	}
}

func TestReadUploadFormNotMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/videos", strings.NewReader("title=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err := readUploadForm(httptest.NewRecorder(), req, 1024, "video")
	if !errors.Is(err, errMissingBody) {
		t.Fatalf("Expected errMissingBody, got %v", err)
	}
	if formStatus(err) != http.StatusUnsupportedMediaType {
		t.Errorf("Expected 415, got %d", formStatus(err))
	}
}

func TestFormStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Too large asset", fmt.Errorf("read: %w", asset.ErrTooLarge), http.StatusRequestEntityTooLarge},
		{"Body limit", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{"Not multipart", errMissingBody, http.StatusUnsupportedMediaType},
		{"Malformed", errors.New("multipart: NextPart: EOF"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formStatus(tt.err); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestPartContentType(t *testing.T) {
	tests := map[string]string{
		"":                         "",
		"application/octet-stream": "",
		"video/quicktime":          "video/quicktime",
		" image/png ":              "image/png",
	}
	for in, want := range tests {
		if got := partContentType(in); got != want {
			t.Errorf("partContentType(%q) = %q, want %q", in, got, want)
		}
	}
}
