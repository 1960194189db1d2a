package probe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"vidcompress/internal/asset"
	"vidcompress/internal/logging"
	"vidcompress/internal/metrics"
)

// ErrMetadataRead is wrapped by every probing failure.
var ErrMetadataRead = errors.New("failed to load video metadata")

// Metadata holds the intrinsic properties of a video.
type Metadata struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Duration float64 `json:"duration"` // seconds
}

// Prober reads Metadata from an asset.
type Prober interface {
	Name() string
	Probe(ctx context.Context, a *asset.Asset) (Metadata, error)
}

// normalize validates dimensions and clamps unusable durations to zero.
func normalize(m Metadata) (Metadata, error) {
	if m.Width <= 0 || m.Height <= 0 {
		return Metadata{}, fmt.Errorf("%w: no video dimensions (%dx%d)", ErrMetadataRead, m.Width, m.Height)
	}
	if math.IsNaN(m.Duration) || math.IsInf(m.Duration, 0) || m.Duration < 0 {
		m.Duration = 0
	}
	return m, nil
}

// Chain tries each prober in order and returns the first success.
type Chain []Prober

// Name implements Prober.
func (c Chain) Name() string { return "chain" }

// Probe implements Prober.
func (c Chain) Probe(ctx context.Context, a *asset.Asset) (Metadata, error) {
	if len(c) == 0 {
		return Metadata{}, fmt.Errorf("%w: no probers configured", ErrMetadataRead)
	}

	var errs []error
	for _, p := range c {
		start := time.Now()
		m, err := p.Probe(ctx, a)
		observe(p.Name(), start, err)
		if err == nil {
			return m, nil
		}

		logging.Debug("Prober %s could not read %s: %v", p.Name(), a.Name(), err)
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}

	return Metadata{}, fmt.Errorf("%w: %w", ErrMetadataRead, errors.Join(errs...))
}

func observe(name string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ProbeDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	metrics.ProbeTotal.WithLabelValues(name, status).Inc()
}

type timeoutProber struct {
	inner   Prober
	timeout time.Duration
}

// WithTimeout bounds p. A timeout of zero or less returns p unchanged.
func WithTimeout(p Prober, timeout time.Duration) Prober {
	if timeout <= 0 {
		return p
	}
	return &timeoutProber{inner: p, timeout: timeout}
}

func (t *timeoutProber) Name() string { return t.inner.Name() }

func (t *timeoutProber) Probe(ctx context.Context, a *asset.Asset) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		m   Metadata
		err error
	}
	done := make(chan result, 1)

	go func() {
		m, err := t.inner.Probe(ctx, a)
		done <- result{m, err}
	}()

	select {
	case r := <-done:
		return r.m, r.err
	case <-ctx.Done():
		return Metadata{}, fmt.Errorf("%w: probing %s timed out after %v: %w", ErrMetadataRead, a.Name(), t.timeout, ctx.Err())
	}
}
