package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialBackoff != 50*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 50ms", config.InitialBackoff)
	}
	if config.MaxBackoff != 500*time.Millisecond {
		t.Errorf("MaxBackoff = %v, want 500ms", config.MaxBackoff)
	}
	if config.VolumeResolver != nil {
		t.Error("VolumeResolver should be nil by default")
	}
}

func TestIsNFSStaleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"ESTALE error", syscall.ESTALE, true},
		{"wrapped ESTALE", &os.PathError{Op: "open", Path: "/x", Err: syscall.ESTALE}, true},
		{"ENOENT error", syscall.ENOENT, false},
		{"generic error", os.ErrNotExist, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNFSStaleError(tt.err); got != tt.want {
				t.Errorf("isNFSStaleError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVolumeResolver_Resolve(t *testing.T) {
	vr := NewVolumeResolver(map[string]string{
		"database": "/data",
		"storage":  "/data/storage",
		"scratch":  "/data/scratch",
	})

	tests := []struct {
		path string
		want string
	}{
		{"/data/vidcompress.db", "database"},
		{"/data/storage/videos/1_a.mp4", "storage"},
		{"/data/storage", "storage"},
		{"/data/scratch/engine-1/input.mp4", "scratch"},
		{"/data/storagex/file", "database"},
		{"/tmp/other", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := vr.Resolve(tt.path); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestVolumeResolver_Resolve_NilResolver(t *testing.T) {
	var vr *VolumeResolver
	if got := vr.Resolve("/data/x"); got != "unknown" {
		t.Errorf("Resolve() on nil resolver = %q, want unknown", got)
	}
}

func TestRetryConfig_ResolveVolume(t *testing.T) {
	SetDefaultVolumeResolver(NewVolumeResolver(map[string]string{"storage": "/srv"}))
	defer SetDefaultVolumeResolver(nil)

	config := DefaultRetryConfig()
	if got := config.resolveVolume("/srv/a"); got != "storage" {
		t.Errorf("Expected default resolver to be used, got %q", got)
	}

	config.VolumeResolver = NewVolumeResolver(map[string]string{"scratch": "/srv"})
	if got := config.resolveVolume("/srv/a"); got != "scratch" {
		t.Errorf("Expected config resolver to win, got %q", got)
	}
}

func TestWithRetry(t *testing.T) {
	stale := &os.PathError{Op: "stat", Path: "/nfs/x", Err: syscall.ESTALE}

	tests := []struct {
		name      string
		failures  int
		failWith  error
		wantCalls int
		wantErr   bool
	}{
		{"Immediate success", 0, nil, 1, false},
		{"Recovers after stale handles", 2, stale, 3, false},
		{"Gives up after max retries", 10, stale, 4, true},
		{"Other errors are not retried", 10, os.ErrPermission, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := withRetry("stat", "/nfs/x", fastRetry(), func() (int, error) {
				calls++
				if calls <= tt.failures {
					return 0, tt.failWith
				}
				return 42, nil
			})

			if calls != tt.wantCalls {
				t.Errorf("Expected %d calls, got %d", tt.wantCalls, calls)
			}
			if tt.wantErr {
				if !errors.Is(err, tt.failWith) {
					t.Errorf("Expected %v, got %v", tt.failWith, err)
				}
				return
			}
			if err != nil || got != 42 {
				t.Errorf("Expected 42, nil; got %d, %v", got, err)
			}
		})
	}
}

func TestStatAndOpenWithRetry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	info, err := StatWithRetry(path, fastRetry())
	if err != nil {
		t.Fatalf("StatWithRetry failed: %v", err)
	}
	if info.Size() != 4 {
		t.Errorf("Expected size 4, got %d", info.Size())
	}

	f, err := OpenWithRetry(path, fastRetry())
	if err != nil {
		t.Fatalf("OpenWithRetry failed: %v", err)
	}
	_ = f.Close()

	if err := RemoveWithRetry(path, fastRetry()); err != nil {
		t.Fatalf("RemoveWithRetry failed: %v", err)
	}

	if _, err := StatWithRetry(path, fastRetry()); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist after remove, got %v", err)
	}
	if _, err := OpenWithRetry(path, fastRetry()); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist from open, got %v", err)
	}
}

func BenchmarkVolumeResolver_Resolve(b *testing.B) {
	vr := NewVolumeResolver(map[string]string{
		"database": "/data",
		"storage":  "/data/storage",
		"scratch":  "/data/scratch",
	})
	for i := 0; i < b.N; i++ {
		_ = vr.Resolve(fmt.Sprintf("/data/storage/videos/%d.mp4", i%10))
	}
}
