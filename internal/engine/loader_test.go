package engine

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// countingSource counts Resolve calls and optionally blocks until released.
type countingSource struct {
	inner   Source
	calls   atomic.Int32
	release chan struct{}
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Resolve(ctx context.Context) (string, error) {
	s.calls.Add(1)
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return "", &SourceError{Source: s.Name(), Kind: FailureNetwork, Err: ctx.Err()}
		}
	}
	return s.inner.Resolve(ctx)
}

func passHost() error { return nil }

func newTestLoader(t *testing.T, sources ...Source) *Loader {
	t.Helper()
	l := NewLoader(LoaderOptions{
		Sources:    sources,
		ScratchDir: t.TempDir(),
		HostCheck:  passHost,
	})
	t.Cleanup(l.Cleanup)
	return l
}

func TestLoaderAcquire(t *testing.T) {
	l := newTestLoader(t, FileSource{Path: fakeFFmpeg(t)})

	if l.Loaded() {
		t.Fatal("Expected loader to start unloaded")
	}

	h, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if h.Version() != "ffmpeg version test-build Copyright (c) the FFmpeg developers" {
		t.Errorf("Unexpected version %q", h.Version())
	}
	if !l.Loaded() {
		t.Error("Expected loader to report loaded")
	}

	again, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Expected no error on second acquire, got %v", err)
	}
	if again != h {
		t.Error("Expected the same handle on repeated acquire")
	}
}

func TestLoaderConcurrentAcquireInitializesOnce(t *testing.T) {
	src := &countingSource{inner: FileSource{Path: fakeFFmpeg(t)}, release: make(chan struct{})}
	l := newTestLoader(t, src)

	const callers = 8
	handles := make([]*FFmpeg, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], errs[i] = l.Acquire(context.Background())
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("Caller %d: expected no error, got %v", i, errs[i])
		}
		if handles[i] != handles[0] {
			t.Errorf("Caller %d got a different handle", i)
		}
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("Expected 1 initialization, got %d", n)
	}
	if n := l.initializations.Load(); n != 1 {
		t.Errorf("Expected initializations=1, got %d", n)
	}
}

func TestLoaderAllSourcesFail(t *testing.T) {
	dir := t.TempDir()
	bad := &countingSource{inner: FileSource{Path: writeScript(t, dir, "notffmpeg", notFFmpegScript)}}
	missing := FileSource{Path: dir + "/missing"}
	l := newTestLoader(t, missing, bad)

	_, err := l.Acquire(context.Background())
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("Expected ErrEngineUnavailable, got %v", err)
	}

	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("Expected *UnavailableError, got %T", err)
	}
	if ue.Message != RemediationMessage {
		t.Errorf("Expected remediation message, got %q", ue.Message)
	}
	if len(ue.Attempts) != 2 {
		t.Fatalf("Expected 2 attempts, got %d", len(ue.Attempts))
	}
	if ue.Attempts[0].Kind != FailureNotFound {
		t.Errorf("Expected first attempt not_found, got %s", ue.Attempts[0].Kind)
	}
	if ue.Attempts[1].Kind != FailureUnsupportedFormat {
		t.Errorf("Expected second attempt unsupported_format, got %s", ue.Attempts[1].Kind)
	}

	// Failures are not cached.
	_, _ = l.Acquire(context.Background())
	if n := bad.calls.Load(); n != 2 {
		t.Errorf("Expected a retry after failure, got %d calls", n)
	}
	if l.Loaded() {
		t.Error("Expected loader to stay unloaded")
	}
}

func TestLoaderFallsThroughToNextSource(t *testing.T) {
	l := newTestLoader(t, FileSource{Path: "/nonexistent/ffmpeg"}, FileSource{Path: fakeFFmpeg(t)})

	if _, err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Expected second source to succeed, got %v", err)
	}
}

func TestLoaderHostCheckFailure(t *testing.T) {
	src := &countingSource{inner: FileSource{Path: "/nonexistent"}}
	l := NewLoader(LoaderOptions{
		Sources:    []Source{src},
		ScratchDir: t.TempDir(),
		HostCheck: func() error {
			return ErrUnsupportedEnvironment
		},
	})

	_, err := l.Acquire(context.Background())
	if !errors.Is(err, ErrUnsupportedEnvironment) {
		t.Fatalf("Expected ErrUnsupportedEnvironment, got %v", err)
	}
	if errors.Is(err, ErrEngineUnavailable) {
		t.Error("Expected host failure to be distinct from engine unavailability")
	}
	if src.calls.Load() != 0 {
		t.Error("Expected no source to be consulted when the host check fails")
	}
}

func TestLoaderCallerCancellation(t *testing.T) {
	src := &countingSource{inner: FileSource{Path: fakeFFmpeg(t)}, release: make(chan struct{})}
	l := newTestLoader(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Acquire(ctx)
	if !errors.Is(err, ErrEngineUnavailable) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected unavailable error caused by cancellation, got %v", err)
	}

	// The shared initialization keeps going and is reused.
	close(src.release)
	deadline := time.Now().Add(5 * time.Second)
	for !l.Loaded() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !l.Loaded() {
		t.Fatal("Expected initialization to complete after the caller gave up")
	}
	if _, err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Expected cached handle, got %v", err)
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("Expected 1 initialization, got %d", n)
	}
}

func TestLoaderLoadTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := &countingSource{inner: FileSource{Path: "/unused"}, release: make(chan struct{})}
	l := NewLoader(LoaderOptions{
		Sources:     []Source{src},
		ScratchDir:  t.TempDir(),
		HostCheck:   passHost,
		LoadTimeout: 50 * time.Millisecond,
	})

	_, err := l.Acquire(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline exceeded, got %v", err)
	}
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Errorf("Expected ErrEngineUnavailable, got %v", err)
	}
}

func TestLoaderCleanup(t *testing.T) {
	l := newTestLoader(t, FileSource{Path: fakeFFmpeg(t)})

	h, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	workDir := h.WorkDir()

	l.Cleanup()

	if l.Loaded() {
		t.Error("Expected loader to be unloaded after cleanup")
	}
	if _, err := os.Stat(workDir); !os.IsNotExist(err) {
		t.Errorf("Expected scratch directory to be removed, got %v", err)
	}

	// Cleanup is idempotent.
	l.Cleanup()
}
