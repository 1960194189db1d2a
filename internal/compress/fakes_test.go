package compress

import (
	"context"
	"errors"
	"sync"

	"vidcompress/internal/asset"
	"vidcompress/internal/probe"
)

// fakeEngine is an in-memory engine. Exec emits ratios to the current
// listener and then writes output, unless told to fail.
type fakeEngine struct {
	mu       sync.Mutex
	files    map[string][]byte
	listener func(float64)

	ratios   []float64
	output   []byte // nil means no output file
	execErr  error
	writeErr error
	block    bool

	execArgs [][]string
	running  int
	maxRun   int
}

func newFakeEngine(output []byte) *fakeEngine {
	return &fakeEngine{files: make(map[string][]byte), output: output}
}

func (e *fakeEngine) WriteFile(_ context.Context, name string, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.writeErr != nil {
		return e.writeErr
	}
	e.files[name] = data
	return nil
}

func (e *fakeEngine) ReadFile(_ context.Context, name string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	data, ok := e.files[name]
	if !ok {
		return nil, errors.New("file does not exist")
	}
	return data, nil
}

func (e *fakeEngine) DeleteFile(_ context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.files[name]; !ok {
		return errors.New("file does not exist")
	}
	delete(e.files, name)
	return nil
}

func (e *fakeEngine) OnProgress(fn func(float64)) {
	e.mu.Lock()
	e.listener = fn
	e.mu.Unlock()
}

func (e *fakeEngine) Exec(ctx context.Context, args []string) error {
	e.mu.Lock()
	e.execArgs = append(e.execArgs, args)
	e.running++
	if e.running > e.maxRun {
		e.maxRun = e.running
	}
	listener := e.listener
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running--
		e.mu.Unlock()
	}()

	for _, r := range e.ratios {
		if listener != nil {
			listener(r)
		}
	}

	if e.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if e.execErr != nil {
		return e.execErr
	}
	if e.output != nil {
		e.mu.Lock()
		e.files[outputName] = e.output
		e.mu.Unlock()
	}
	return nil
}

func (e *fakeEngine) fileCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.files)
}

func (e *fakeEngine) lastArgs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.execArgs) == 0 {
		return nil
	}
	return e.execArgs[len(e.execArgs)-1]
}

type fakeSource struct {
	mu         sync.Mutex
	eng        *fakeEngine
	hostErr    error
	acquireErr error
	hostChecks int
	acquires   int
}

func (s *fakeSource) CheckHost() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hostChecks++
	return s.hostErr
}

func (s *fakeSource) Acquire(_ context.Context) (Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquires++
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	return s.eng, nil
}

type fakeProber struct {
	md  probe.Metadata
	err error
}

func (p fakeProber) Name() string { return "fake" }

func (p fakeProber) Probe(_ context.Context, _ *asset.Asset) (probe.Metadata, error) {
	return p.md, p.err
}
