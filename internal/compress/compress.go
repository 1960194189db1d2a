package compress

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"vidcompress/internal/asset"
	"vidcompress/internal/engine"
	"vidcompress/internal/logging"
	"vidcompress/internal/metrics"
	"vidcompress/internal/plan"
	"vidcompress/internal/probe"
	"vidcompress/internal/workers"
)

const (
	// DefaultLoadTimeout bounds engine acquisition.
	DefaultLoadTimeout = 30 * time.Second
	// DefaultExecTimeout bounds a single encode.
	DefaultExecTimeout = 30 * time.Minute

	maxEncoderThreads = 16
)

// Engine is the part of an engine handle the compressor drives.
type Engine interface {
	WriteFile(ctx context.Context, name string, data []byte) error
	ReadFile(ctx context.Context, name string) ([]byte, error)
	DeleteFile(ctx context.Context, name string) error
	OnProgress(fn func(ratio float64))
	Exec(ctx context.Context, args []string) error
}

// EngineSource hands out the engine. CheckHost must be cheap and must not
// load anything.
type EngineSource interface {
	CheckHost() error
	Acquire(ctx context.Context) (Engine, error)
}

type loaderSource struct {
	loader *engine.Loader
}

// FromLoader adapts an engine.Loader to EngineSource.
func FromLoader(l *engine.Loader) EngineSource {
	return loaderSource{loader: l}
}

func (s loaderSource) CheckHost() error { return s.loader.CheckHost() }

func (s loaderSource) Acquire(ctx context.Context) (Engine, error) {
	h, err := s.loader.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Options tunes a Compressor. Zero values select the defaults.
type Options struct {
	// MinSize is the smallest input worth compressing.
	MinSize     int64
	LoadTimeout time.Duration
	ExecTimeout time.Duration
	// Threads is passed to the encoder; 0 means one per available CPU.
	Threads int
}

// Compressor runs compression jobs against a shared engine.
type Compressor struct {
	engines EngineSource
	prober  probe.Prober
	opts    Options

	// Scratch file names are fixed, so jobs run one at a time.
	jobMu sync.Mutex
}

// New creates a Compressor.
func New(engines EngineSource, prober probe.Prober, opts Options) *Compressor {
	if opts.MinSize <= 0 {
		opts.MinSize = plan.CompressThreshold
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	if opts.ExecTimeout <= 0 {
		opts.ExecTimeout = DefaultExecTimeout
	}
	if opts.Threads <= 0 {
		opts.Threads = workers.ForCPU(maxEncoderThreads)
	}
	return &Compressor{engines: engines, prober: prober, opts: opts}
}

// MinSize returns the effective compression threshold.
func (c *Compressor) MinSize() int64 { return c.opts.MinSize }

// Outcome describes one compression run.
type Outcome struct {
	// Output is always usable: the compressed asset or the original.
	Output       *asset.Asset
	OriginalSize int64
	OutputSize   int64
	Succeeded    bool
	Reason       string
	// Err is why the original was returned. Nil on success.
	Err      error
	Plan     *plan.Plan
	Metadata *probe.Metadata
	Duration time.Duration
}

// SavedBytes returns how much smaller the output is. Negative if it grew.
func (o Outcome) SavedBytes() int64 {
	return o.OriginalSize - o.OutputSize
}

// Ratio returns the size reduction in percent.
func (o Outcome) Ratio() float64 {
	if o.OriginalSize == 0 {
		return 0
	}
	return float64(o.SavedBytes()) / float64(o.OriginalSize) * 100
}

// Compress returns a compressed copy of a, or a itself if compression is not
// worthwhile or fails. onProgress may be nil and receives non-decreasing
// whole percentages.
func (c *Compressor) Compress(ctx context.Context, a *asset.Asset, onProgress func(percent int)) *asset.Asset {
	return c.Run(ctx, a, onProgress).Output
}

// Run is Compress with the outcome exposed.
func (c *Compressor) Run(ctx context.Context, a *asset.Asset, onProgress func(percent int)) Outcome {
	start := time.Now()
	metrics.CompressionsInProgress.Inc()
	defer metrics.CompressionsInProgress.Dec()

	rep := newReporter(onProgress)
	res := &result{}
	err := c.compress(ctx, a, rep, res)

	o := Outcome{
		OriginalSize: a.Size(),
		Reason:       Reason(err),
		Err:          err,
		Plan:         res.plan,
		Metadata:     res.metadata,
		Duration:     time.Since(start),
	}

	switch {
	case err == nil:
		o.Output = res.output
		o.Succeeded = true
		rep.finish()
		logging.Info("Video compression completed for %s: %s -> %s (%.1f%% smaller, %s saved) in %v",
			a.Name(), asset.FormatMiB(a.Size()), asset.FormatMiB(res.output.Size()),
			o.Ratio(), asset.FormatMiB(a.Size()-res.output.Size()), o.Duration.Round(time.Millisecond))
	case errors.Is(err, ErrBelowThreshold):
		o.Output = a
		logging.Debug("Skipping compression for %s: %v", a.Name(), err)
	default:
		o.Output = a
		rep.reset()
		logging.Warn("Video compression failed for %s, falling back to original file: %v", a.Name(), err)
	}
	o.OutputSize = o.Output.Size()

	metrics.CompressionsTotal.WithLabelValues(o.Reason).Inc()
	metrics.CompressionDuration.Observe(o.Duration.Seconds())
	metrics.CompressionInputBytes.Add(float64(o.OriginalSize))
	metrics.CompressionOutputBytes.Add(float64(o.OutputSize))

	return o
}

type result struct {
	output   *asset.Asset
	plan     *plan.Plan
	metadata *probe.Metadata
}

// compress is the fallible pipeline behind Run.
func (c *Compressor) compress(ctx context.Context, a *asset.Asset, rep *reporter, res *result) error {
	if err := c.engines.CheckHost(); err != nil {
		return err
	}

	if a.Size() < c.opts.MinSize {
		return fmt.Errorf("%w: %s < %s", ErrBelowThreshold, asset.FormatMiB(a.Size()), asset.FormatMiB(c.opts.MinSize))
	}

	loadCtx, cancel := context.WithTimeout(ctx, c.opts.LoadTimeout)
	eng, err := c.engines.Acquire(loadCtx)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logging.Error("Encoding engine did not load within %v", c.opts.LoadTimeout)
		}
		return err
	}

	md, err := c.prober.Probe(ctx, a)
	if err != nil {
		return err
	}
	res.metadata = &md

	p := plan.Compute(a.Size(), md.Width, md.Height, md.Duration)
	res.plan = &p

	logging.Info("Starting video compression for %s: %s, %dx%d, %.2fs, crf %d, preset %s, maxrate %s",
		a.Name(), asset.FormatMiB(a.Size()), md.Width, md.Height, md.Duration, p.CRF, p.Preset, p.TargetBitrate)

	data, err := c.encode(ctx, eng, a, p, md, rep)
	if err != nil {
		return err
	}

	res.output = asset.WithContentType(outputFileName(a.Name()), "video/mp4", data)
	return nil
}

func (c *Compressor) encode(ctx context.Context, eng Engine, a *asset.Asset, p plan.Plan, md probe.Metadata, rep *reporter) ([]byte, error) {
	c.jobMu.Lock()
	defer c.jobMu.Unlock()

	eng.OnProgress(rep.ratio)
	defer eng.OnProgress(nil)
	defer c.removeScratch(eng)

	if err := eng.WriteFile(ctx, inputName, a.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: writing input: %w", ErrExecution, err)
	}

	execCtx, cancel := context.WithTimeout(ctx, c.opts.ExecTimeout)
	defer cancel()

	if err := eng.Exec(execCtx, encodeArgs(p, md, c.opts.Threads)); err != nil {
		if ctx.Err() == nil && errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v: %w", ErrTimeout, c.opts.ExecTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}

	data, err := eng.ReadFile(ctx, outputName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmptyOutput, err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyOutput
	}
	return data, nil
}

// removeScratch deletes the job's files. Failures are logged only.
func (c *Compressor) removeScratch(eng Engine) {
	ctx := context.Background()
	for _, name := range []string{inputName, outputName} {
		if err := eng.DeleteFile(ctx, name); err != nil {
			logging.Debug("failed to delete scratch file %s: %v", name, err)
		}
	}
}

// outputFileName keeps the upload's base name with an .mp4 extension.
func outputFileName(name string) string {
	ext := filepath.Ext(name)
	if strings.EqualFold(ext, ".mp4") {
		return name
	}
	return strings.TrimSuffix(name, ext) + ".mp4"
}
