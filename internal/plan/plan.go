package plan

import (
	"fmt"
	"strconv"
	"strings"

	"vidcompress/internal/asset"
)

// Preset is an x264 speed/efficiency selector.
type Preset string

const (
	// PresetFast trades some size for speed.
	PresetFast Preset = "fast"
	// PresetMedium is x264's default tradeoff.
	PresetMedium Preset = "medium"
)

// Plan is a concrete encode configuration.
type Plan struct {
	TargetBitrate string `json:"targetBitrate"` // rate ceiling, e.g. "2000k"
	MaxWidth      int    `json:"maxWidth"`
	MaxHeight     int    `json:"maxHeight"`
	CRF           int    `json:"crf"`
	Preset        Preset `json:"preset"`
}

type tier struct {
	minSizeMiB float64 // exclusive; 0 disables the size condition
	minPixels  int     // exclusive; 0 disables the pixel condition
	plan       Plan
}

var tiers = []tier{
	{minSizeMiB: 100, minPixels: 1920 * 1080, plan: Plan{TargetBitrate: "2000k", MaxWidth: 1920, MaxHeight: 1080, CRF: 28, Preset: PresetMedium}},
	{minSizeMiB: 50, minPixels: 1280 * 720, plan: Plan{TargetBitrate: "1500k", MaxWidth: 1280, MaxHeight: 720, CRF: 26, Preset: PresetMedium}},
	{minSizeMiB: 25, plan: Plan{TargetBitrate: "1000k", MaxWidth: 1280, MaxHeight: 720, CRF: 24, Preset: PresetFast}},
}

// Compute returns the plan for a source of sizeBytes at width x height.
// duration is accepted for callers that already have it but does not
// influence the result.
func Compute(sizeBytes int64, width, height int, duration float64) Plan {
	sizeMiB := float64(sizeBytes) / asset.MiB
	pixels := width * height

	for _, t := range tiers {
		if sizeMiB > t.minSizeMiB || (t.minPixels > 0 && pixels > t.minPixels) {
			return t.plan
		}
	}

	return Plan{
		TargetBitrate: "800k",
		MaxWidth:      width,
		MaxHeight:     height,
		CRF:           23,
		Preset:        PresetFast,
	}
}

// BitrateKbps returns the numeric part of TargetBitrate in kbit/s.
func (p Plan) BitrateKbps() int {
	n, err := strconv.Atoi(strings.TrimSuffix(p.TargetBitrate, "k"))
	if err != nil {
		return 0
	}
	return n
}

// BufferSize returns the rate-control buffer, twice the ceiling.
func (p Plan) BufferSize() string {
	return fmt.Sprintf("%dk", p.BitrateKbps()*2)
}

// NeedsScale reports whether a width x height source exceeds the plan's box.
// Sources that already fit are never upscaled.
func (p Plan) NeedsScale(width, height int) bool {
	return width > p.MaxWidth || height > p.MaxHeight
}

// ScaleFilter returns the ffmpeg filter that fits the source into the plan's
// box while preserving aspect ratio. Both sides come out even.
func (p Plan) ScaleFilter() string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease:force_divisible_by=2", p.MaxWidth, p.MaxHeight)
}

// FitWithin returns the dimensions a width x height source ends up with after
// ScaleFilter, rounded down to even values as libx264 requires.
func (p Plan) FitWithin(width, height int) (int, int) {
	if !p.NeedsScale(width, height) {
		return width, height
	}
	sx := float64(p.MaxWidth) / float64(width)
	sy := float64(p.MaxHeight) / float64(height)
	s := sx
	if sy < s {
		s = sy
	}
	w := int(float64(width)*s) &^ 1
	h := int(float64(height)*s) &^ 1
	return w, h
}
