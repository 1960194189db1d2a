package asset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"vidcompress/internal/mediatypes"
)

// MiB is one mebibyte in bytes.
const MiB = 1024 * 1024

// Asset is an immutable named byte sequence.
type Asset struct {
	name        string
	contentType string
	data        []byte
}

// ErrTooLarge is returned by Read when the input exceeds its limit.
var ErrTooLarge = errors.New("asset too large")

// New creates an Asset from data. The slice is owned by the Asset afterwards
// and must not be modified by the caller.
func New(name string, data []byte) *Asset {
	return &Asset{
		name:        name,
		contentType: mediatypes.MimeTypeOf(name),
		data:        data,
	}
}

// WithContentType creates an Asset with an explicit content type.
func WithContentType(name, contentType string, data []byte) *Asset {
	a := New(name, data)
	if contentType != "" {
		a.contentType = contentType
	}
	return a
}

// Read reads r fully into a new Asset, refusing anything larger than limit
// bytes. A limit of 0 disables the check.
func Read(name string, r io.Reader, limit int64) (*Asset, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds the %d byte limit", ErrTooLarge, name, limit)
	}
	return New(name, data), nil
}

// Open loads a file from disk.
func Open(path string) (*Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(filepath.Base(path), data), nil
}

// Name returns the asset's file name.
func (a *Asset) Name() string { return a.name }

// ContentType returns the MIME type.
func (a *Asset) ContentType() string { return a.contentType }

// Size returns the length in bytes.
func (a *Asset) Size() int64 { return int64(len(a.data)) }

// SizeMiB returns the length in mebibytes.
func (a *Asset) SizeMiB() float64 { return float64(len(a.data)) / MiB }

// Bytes returns the underlying bytes. Callers must treat them as read-only.
func (a *Asset) Bytes() []byte { return a.data }

// Reader returns a fresh seekable reader over the bytes.
func (a *Asset) Reader() *bytes.Reader { return bytes.NewReader(a.data) }

// Equal reports whether both assets hold identical bytes.
func (a *Asset) Equal(other *Asset) bool {
	if a == other {
		return true
	}
	if a == nil || other == nil {
		return false
	}
	return bytes.Equal(a.data, other.data)
}

// FormatMiB renders a byte count the way progress summaries display it.
func FormatMiB(n int64) string {
	return fmt.Sprintf("%.2fMB", float64(n)/MiB)
}
