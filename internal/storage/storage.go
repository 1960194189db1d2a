package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"vidcompress/internal/filesystem"
	"vidcompress/internal/logging"
	"vidcompress/internal/metrics"
)

// Buckets used by the upload flow.
const (
	BucketVideos     = "videos"
	BucketThumbnails = "thumbnails"
)

const maxNameLength = 100

var (
	// ErrInvalidName is returned for bucket or object names that are empty or
	// could escape the bucket directory.
	ErrInvalidName = errors.New("invalid object name")

	// ErrNotFound is returned when an object does not exist.
	ErrNotFound = errors.New("object not found")
)

var (
	bucketRe  = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)
	unsafeRe  = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	repeatsRe = regexp.MustCompile(`_+`)
)

// ObjectStore stores named blobs and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, bucket, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, bucket, name string) error
}

// ObjectName builds a unique object name from an upload's file name:
// "<unix millis>_<id>_<sanitized name>".
func ObjectName(now time.Time, id, filename string) string {
	return fmt.Sprintf("%d_%s_%s", now.UnixMilli(), id, SanitizeName(filename))
}

// SanitizeName reduces a client supplied file name to a safe base name.
func SanitizeName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = unsafeRe.ReplaceAllString(name, "_")
	name = repeatsRe.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, "._")
	if len(name) > maxNameLength {
		ext := filepath.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:maxNameLength-len(ext)] + ext
	}
	if name == "" {
		return "file"
	}
	return name
}

func validate(bucket, name string) error {
	if !bucketRe.MatchString(bucket) {
		return fmt.Errorf("%w: bucket %q", ErrInvalidName, bucket)
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Local is an ObjectStore on the local filesystem.
type Local struct {
	root    string
	baseURL string
	retry   filesystem.RetryConfig
}

// NewLocal creates the root directory if needed.
func NewLocal(root, baseURL string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Local{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		retry:   filesystem.DefaultRetryConfig(),
	}, nil
}

// Root returns the storage directory.
func (l *Local) Root() string { return l.root }

// URL returns the public URL of an object.
func (l *Local) URL(bucket, name string) string {
	return l.baseURL + "/files/" + url.PathEscape(bucket) + "/" + url.PathEscape(name)
}

// ParseURL is the inverse of URL.
func (l *Local) ParseURL(raw string) (bucket, name string, ok bool) {
	rest, found := strings.CutPrefix(raw, l.baseURL+"/files/")
	if !found {
		return "", "", false
	}
	b, n, found := strings.Cut(rest, "/")
	if !found {
		return "", "", false
	}
	var err error
	if bucket, err = url.PathUnescape(b); err != nil {
		return "", "", false
	}
	if name, err = url.PathUnescape(n); err != nil {
		return "", "", false
	}
	return bucket, name, validate(bucket, name) == nil
}

func (l *Local) path(bucket, name string) (string, error) {
	if err := validate(bucket, name); err != nil {
		return "", err
	}
	return filepath.Join(l.root, bucket, name), nil
}

// Put writes r to bucket/name atomically and returns the object's URL.
func (l *Local) Put(ctx context.Context, bucket, name string, r io.Reader) (string, error) {
	path, err := l.path(bucket, name)
	if err != nil {
		return "", err
	}

	n, err := l.write(ctx, path, r)
	if err != nil {
		metrics.StorageWritesTotal.WithLabelValues(bucket, "error").Inc()
		return "", fmt.Errorf("failed to store %s/%s: %w", bucket, name, err)
	}

	metrics.StorageWritesTotal.WithLabelValues(bucket, "success").Inc()
	logging.Debug("Stored object %s/%s (%d bytes)", bucket, name, n)
	return l.URL(bucket, name), nil
}

func (l *Local) write(ctx context.Context, path string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logging.Debug("cleanup pending object %s: %v", path, err)
		}
	}()

	n, err := io.Copy(pending, ctxReader{ctx: ctx, r: r})
	if err != nil {
		return n, err
	}

	return n, pending.CloseAtomicallyReplace()
}

// Open returns the object for reading along with its file info.
func (l *Local) Open(bucket, name string) (*os.File, os.FileInfo, error) {
	path, err := l.path(bucket, name)
	if err != nil {
		return nil, nil, err
	}

	f, err := filesystem.OpenWithRetry(path, l.retry)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, name)
		}
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, name)
	}
	return f, info, nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (l *Local) Delete(_ context.Context, bucket, name string) error {
	path, err := l.path(bucket, name)
	if err != nil {
		return err
	}
	if err := filesystem.RemoveWithRetry(path, l.retry); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s/%s: %w", bucket, name, err)
	}
	return nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
