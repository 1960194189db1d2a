package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{name: "Simple map", input: map[string]string{"status": "ok"}, expected: `{"status":"ok"}`},
		{name: "String slice", input: []string{"a", "b"}, expected: `["a","b"]`},
		{name: "Empty slice", input: []string{}, expected: `[]`},
		{name: "Null", input: nil, expected: `null`},
		{name: "Quotes", input: map[string]string{"title": `say "hi"`}, expected: `{"title":"say \"hi\""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSON(w, tt.input)

			body := strings.TrimSuffix(w.Body.String(), "\n")
			if body != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, body)
			}
		})
	}
}

func TestWriteJSONHandlesInvalidTypes(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	// Channels cannot be encoded; the error is logged, not panicked.
	writeJSON(w, make(chan int))

	if w.Body.Len() != 0 {
		t.Errorf("Expected empty body for unencodable value, got %q", w.Body.String())
	}
}

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	writeJSONError(w, "bad input", http.StatusBadRequest)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %q", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["error"] != "bad input" {
		t.Errorf("Expected error 'bad input', got %q", body["error"])
	}
}

func TestWriteJSONStatus(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	writeJSONStatus(w, "deleted")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "deleted" {
		t.Errorf("Expected status 'deleted', got %q", body["status"])
	}
}

func TestQueryInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  int
	}{
		{"", 7},
		{"?limit=25", 25},
		{"?limit=-3", -3},
		{"?limit=ten", 7},
		{"?other=5", 7},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/videos"+tt.query, http.NoBody)
		if got := queryInt(r, "limit", 7); got != tt.want {
			t.Errorf("queryInt(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}
