package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"vidcompress/internal/logging"
)

// stderrTailLines is how much ffmpeg output is kept for error messages.
const stderrTailLines = 12

// maxLineBytes caps a single line of ffmpeg output.
const maxLineBytes = 1024 * 1024

// FFmpeg is a loaded engine handle.
type FFmpeg struct {
	path    string
	version string
	workDir string
	logSink io.Writer

	mu         sync.Mutex
	onProgress func(float64)
	processes  map[*exec.Cmd]struct{}
}

func newFFmpeg(path, version, workDir string) *FFmpeg {
	return &FFmpeg{
		path:      path,
		version:   version,
		workDir:   workDir,
		logSink:   logging.Writer(logging.LevelDebug, "ffmpeg: "),
		processes: make(map[*exec.Cmd]struct{}),
	}
}

// Path returns the binary in use.
func (f *FFmpeg) Path() string { return f.path }

// Version returns the first line of "ffmpeg -version".
func (f *FFmpeg) Version() string { return f.version }

// WorkDir returns the directory backing the virtual filesystem.
func (f *FFmpeg) WorkDir() string { return f.workDir }

func (f *FFmpeg) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid virtual file name %q", name)
	}
	return filepath.Join(f.workDir, name), nil
}

// WriteFile stores data under name in the virtual filesystem.
func (f *FFmpeg) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := f.resolve(name)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile returns the contents of name. A missing file yields an error
// satisfying errors.Is(err, os.ErrNotExist).
func (f *FFmpeg) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := f.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// DeleteFile removes name from the virtual filesystem.
func (f *FFmpeg) DeleteFile(_ context.Context, name string) error {
	path, err := f.resolve(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// OnProgress installs fn as the progress listener, replacing any previous
// one. fn receives ratios in [0, 1]. Passing nil removes the listener.
func (f *FFmpeg) OnProgress(fn func(ratio float64)) {
	f.mu.Lock()
	f.onProgress = fn
	f.mu.Unlock()
}

// Exec runs ffmpeg with args inside the virtual filesystem and waits for it
// to finish. File names in args are relative to the virtual filesystem.
func (f *FFmpeg) Exec(ctx context.Context, args []string) error {
	f.mu.Lock()
	listener := f.onProgress
	f.mu.Unlock()

	full := append([]string{"-hide_banner", "-nostdin", "-nostats", "-y", "-progress", "pipe:1"}, args...)
	cmd := exec.CommandContext(ctx, f.path, full...)
	cmd.Dir = f.workDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	logging.Debug("Running %s %s", f.path, strings.Join(full, " "))

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	f.track(cmd)
	defer f.untrack(cmd)

	tracker := newProgressTracker(listener)
	tail := newTail(stderrTailLines)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(stderr, func(line string) {
			tracker.stderrLine(line)
			tail.add(line)
			_, _ = io.WriteString(f.logSink, line+"\n")
		})
	}()
	go func() {
		defer wg.Done()
		scanLines(stdout, tracker.progressLine)
	}()

	// Pipes must be drained before Wait closes them.
	wg.Wait()
	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg interrupted: %w", ctxErr)
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail.String())
	}
	return nil
}

// scanLines feeds each line of r to fn. Lines longer than maxLineBytes
// stop the scanner; the rest of r is discarded so the writer never blocks.
func scanLines(r io.Reader, fn func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		logging.Debug("ffmpeg output no longer parsed: %v", err)
	}
	_, _ = io.Copy(io.Discard, r)
}

func (f *FFmpeg) track(cmd *exec.Cmd) {
	f.mu.Lock()
	f.processes[cmd] = struct{}{}
	f.mu.Unlock()
}

func (f *FFmpeg) untrack(cmd *exec.Cmd) {
	f.mu.Lock()
	delete(f.processes, cmd)
	f.mu.Unlock()
}

// Cleanup stops all running jobs and removes the virtual filesystem. The
// handle must not be used afterwards.
func (f *FFmpeg) Cleanup() {
	f.mu.Lock()
	for cmd := range f.processes {
		if cmd.Process != nil {
			logging.Info("Killing encoder process %d", cmd.Process.Pid)
			if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				logging.Warn("failed to kill encoder process %d: %v", cmd.Process.Pid, err)
			}
		}
	}
	f.mu.Unlock()

	if err := os.RemoveAll(f.workDir); err != nil {
		logging.Warn("failed to remove engine scratch directory %s: %v", f.workDir, err)
	}
}

// tail keeps the last n lines written to it.
type tail struct {
	mu    sync.Mutex
	lines []string
	n     int
}

func newTail(n int) *tail {
	return &tail{n: n}
}

func (t *tail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.n {
		t.lines = t.lines[len(t.lines)-t.n:]
	}
}

func (t *tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}
