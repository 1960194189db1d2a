package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"vidcompress/internal/logging"
	"vidcompress/internal/metrics"
)

// DefaultLoadTimeout bounds a single initialization.
const DefaultLoadTimeout = 30 * time.Second

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// Sources are tried in order.
	Sources []Source
	// ScratchDir is the parent of each handle's virtual filesystem.
	ScratchDir string
	// HostCheck defaults to DefaultHostCheck(ScratchDir).
	HostCheck HostCheck
	// LoadTimeout bounds initialization independently of any caller.
	// Defaults to DefaultLoadTimeout.
	LoadTimeout time.Duration
}

// Loader lazily initializes the engine once and memoizes the handle.
type Loader struct {
	opts  LoaderOptions
	group singleflight.Group

	mu     sync.Mutex
	handle *FFmpeg

	initializations atomic.Int64
}

// NewLoader creates a Loader. Nothing is loaded until Acquire is called.
func NewLoader(opts LoaderOptions) *Loader {
	if opts.HostCheck == nil {
		opts.HostCheck = DefaultHostCheck(opts.ScratchDir)
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	return &Loader{opts: opts}
}

// CheckHost runs the host precondition check without loading anything.
func (l *Loader) CheckHost() error {
	return l.opts.HostCheck()
}

// Loaded reports whether a handle is cached.
func (l *Loader) Loaded() bool {
	return l.cached() != nil
}

func (l *Loader) cached() *FFmpeg {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle
}

// Acquire returns the engine handle, initializing it on first use. Concurrent
// callers wait on the same initialization. Cancelling ctx stops the wait but
// lets the initialization finish so later calls can reuse its result.
func (l *Loader) Acquire(ctx context.Context) (*FFmpeg, error) {
	if h := l.cached(); h != nil {
		return h, nil
	}

	if err := l.CheckHost(); err != nil {
		return nil, err
	}

	ch := l.group.DoChan("engine", func() (interface{}, error) {
		if h := l.cached(); h != nil {
			return h, nil
		}

		initCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.opts.LoadTimeout)
		defer cancel()

		h, err := l.initialize(initCtx)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		l.handle = h
		l.mu.Unlock()
		metrics.EngineLoaded.Set(1)
		return h, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*FFmpeg), nil
	case <-ctx.Done():
		return nil, &UnavailableError{Message: RemediationMessage, Cause: ctx.Err()}
	}
}

func (l *Loader) initialize(ctx context.Context) (*FFmpeg, error) {
	l.initializations.Add(1)
	start := time.Now()
	defer func() {
		metrics.EngineLoadDuration.Observe(time.Since(start).Seconds())
	}()

	var attempts []*SourceError
	for _, src := range l.opts.Sources {
		path, err := src.Resolve(ctx)
		var version string
		if err == nil {
			version, err = verifyBinary(ctx, path)
			if err != nil {
				err = &SourceError{Source: src.Name(), Kind: FailureUnsupportedFormat, Err: err}
			}
		}

		if err != nil {
			var se *SourceError
			if !errors.As(err, &se) {
				se = &SourceError{Source: src.Name(), Kind: FailureNotFound, Err: err}
			}
			logging.Warn("Engine source %s failed: %v", src.Name(), se)
			metrics.EngineLoadAttempts.WithLabelValues(src.Name(), string(se.Kind)).Inc()
			attempts = append(attempts, se)

			if ctx.Err() != nil {
				return nil, &UnavailableError{Message: RemediationMessage, Attempts: attempts, Cause: ctx.Err()}
			}
			continue
		}

		workDir, err := os.MkdirTemp(l.opts.ScratchDir, "engine-*")
		if err != nil {
			return nil, &UnavailableError{
				Message:  RemediationMessage,
				Attempts: attempts,
				Cause:    fmt.Errorf("failed to create engine scratch directory: %w", err),
			}
		}

		metrics.EngineLoadAttempts.WithLabelValues(src.Name(), "success").Inc()
		logging.Info("Encoding engine loaded from %s (%s) in %v", src.Name(), version, time.Since(start))
		return newFFmpeg(path, version, workDir), nil
	}

	if len(l.opts.Sources) == 0 {
		logging.Warn("No encoding engine sources configured")
	}
	return nil, &UnavailableError{Message: RemediationMessage, Attempts: attempts}
}

// verifyBinary runs "<path> -version" and returns its first line.
func verifyBinary(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "-version")
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run -version: %w", err)
	}

	first, _, _ := strings.Cut(stdout.String(), "\n")
	first = strings.TrimSpace(first)
	if !strings.HasPrefix(first, "ffmpeg version") {
		return "", fmt.Errorf("unexpected version banner %q", first)
	}
	return first, nil
}

// Cleanup releases the cached handle, killing any running job.
func (l *Loader) Cleanup() {
	l.mu.Lock()
	h := l.handle
	l.handle = nil
	l.mu.Unlock()

	if h != nil {
		h.Cleanup()
		metrics.EngineLoaded.Set(0)
	}
}
