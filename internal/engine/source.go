package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"vidcompress/internal/logging"
)

// Source is one candidate location for the ffmpeg binary.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string
	// Resolve returns the path of a local executable. Failures should be
	// *SourceError so the loader can classify them.
	Resolve(ctx context.Context) (string, error)
}

// FileSource is an explicitly configured binary path.
type FileSource struct {
	Path string
}

// Name implements Source.
func (s FileSource) Name() string { return "file:" + s.Path }

// Resolve implements Source.
func (s FileSource) Resolve(_ context.Context) (string, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return "", &SourceError{Source: s.Name(), Kind: FailureNotFound, Err: err}
	}
	if info.IsDir() {
		return "", &SourceError{Source: s.Name(), Kind: FailureUnsupportedFormat, Err: errors.New("path is a directory")}
	}
	return s.Path, nil
}

// LookPathSource searches $PATH for a binary.
type LookPathSource struct {
	Binary string
}

// Name implements Source.
func (s LookPathSource) Name() string { return "path:" + s.binary() }

func (s LookPathSource) binary() string {
	if s.Binary == "" {
		return "ffmpeg"
	}
	return s.Binary
}

// Resolve implements Source.
func (s LookPathSource) Resolve(_ context.Context) (string, error) {
	path, err := exec.LookPath(s.binary())
	if err != nil {
		return "", &SourceError{Source: s.Name(), Kind: FailureNotFound, Err: err}
	}
	return path, nil
}

// MirrorSource downloads a static ffmpeg build over HTTP and installs it
// under CacheDir. A previously installed copy whose digest still matches is
// reused without touching the network.
type MirrorSource struct {
	URL string
	// SHA256 is the expected hex digest. Empty disables verification.
	SHA256   string
	CacheDir string
	Client   *http.Client
}

// Name implements Source.
func (s MirrorSource) Name() string { return "mirror:" + s.URL }

func (s MirrorSource) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return &http.Client{Timeout: 5 * time.Minute}
}

func (s MirrorSource) dest() string {
	key := sha256.Sum256([]byte(s.URL + "#" + s.SHA256))
	return filepath.Join(s.CacheDir, "ffmpeg-"+hex.EncodeToString(key[:8]))
}

// Resolve implements Source.
func (s MirrorSource) Resolve(ctx context.Context) (string, error) {
	dest := s.dest()

	if digest, err := fileDigest(dest); err == nil {
		if s.SHA256 == "" || strings.EqualFold(digest, s.SHA256) {
			logging.Debug("Using cached engine binary %s for %s", dest, s.URL)
			return dest, nil
		}
		logging.Warn("Cached engine binary %s has a stale digest, downloading again", dest)
	}

	if s.SHA256 == "" {
		logging.Warn("Mirror %s has no expected digest; the download will not be verified", s.URL)
	}

	if err := os.MkdirAll(s.CacheDir, 0o755); err != nil {
		return "", &SourceError{Source: s.Name(), Kind: FailureNotFound, Err: err}
	}

	if err := s.download(ctx, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (s MirrorSource) download(ctx context.Context, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return &SourceError{Source: s.Name(), Kind: FailureNetwork, Err: err}
	}

	resp, err := s.client().Do(req)
	if err != nil {
		return &SourceError{Source: s.Name(), Kind: FailureNetwork, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Debug("failed to close mirror response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return &SourceError{Source: s.Name(), Kind: FailureNetwork, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	pending, err := renameio.NewPendingFile(dest, renameio.WithPermissions(0o755))
	if err != nil {
		return &SourceError{Source: s.Name(), Kind: FailureNotFound, Err: err}
	}
	defer func() {
		// No-op once CloseAtomicallyReplace has succeeded.
		_ = pending.Cleanup()
	}()

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(pending, hasher), resp.Body)
	if err != nil {
		return &SourceError{Source: s.Name(), Kind: FailureNetwork, Err: err}
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	if s.SHA256 != "" && !strings.EqualFold(digest, s.SHA256) {
		return &SourceError{
			Source: s.Name(),
			Kind:   FailureIntegrity,
			Err:    fmt.Errorf("sha256 mismatch: got %s, want %s", digest, s.SHA256),
		}
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return &SourceError{Source: s.Name(), Kind: FailureNotFound, Err: err}
	}

	logging.Info("Downloaded engine binary from %s (%d bytes)", s.URL, n)
	return nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ParseMirrors parses a comma-separated list of "url#sha256" entries.
func ParseMirrors(list, cacheDir string) []MirrorSource {
	var mirrors []MirrorSource
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		url, digest, _ := strings.Cut(entry, "#")
		mirrors = append(mirrors, MirrorSource{
			URL:      strings.TrimSpace(url),
			SHA256:   strings.ToLower(strings.TrimSpace(digest)),
			CacheDir: cacheDir,
		})
	}
	return mirrors
}
