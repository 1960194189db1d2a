package plan

import (
	"testing"

	"vidcompress/internal/asset"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		width    int
		height   int
		expected Plan
	}{
		{
			name:     "Large file heavy tier",
			size:     150 * asset.MiB,
			width:    1280,
			height:   720,
			expected: Plan{TargetBitrate: "2000k", MaxWidth: 1920, MaxHeight: 1080, CRF: 28, Preset: PresetMedium},
		},
		{
			name:     "4K source heavy tier",
			size:     10 * asset.MiB,
			width:    3840,
			height:   2160,
			expected: Plan{TargetBitrate: "2000k", MaxWidth: 1920, MaxHeight: 1080, CRF: 28, Preset: PresetMedium},
		},
		{
			name:     "Medium file medium tier",
			size:     60 * asset.MiB,
			width:    640,
			height:   360,
			expected: Plan{TargetBitrate: "1500k", MaxWidth: 1280, MaxHeight: 720, CRF: 26, Preset: PresetMedium},
		},
		{
			name:     "1080p source medium tier",
			size:     5 * asset.MiB,
			width:    1920,
			height:   1080,
			expected: Plan{TargetBitrate: "1500k", MaxWidth: 1280, MaxHeight: 720, CRF: 26, Preset: PresetMedium},
		},
		{
			name:     "Light tier",
			size:     30 * asset.MiB,
			width:    1280,
			height:   720,
			expected: Plan{TargetBitrate: "1000k", MaxWidth: 1280, MaxHeight: 720, CRF: 24, Preset: PresetFast},
		},
		{
			name:     "Small file keeps resolution",
			size:     8 * asset.MiB,
			width:    854,
			height:   480,
			expected: Plan{TargetBitrate: "800k", MaxWidth: 854, MaxHeight: 480, CRF: 23, Preset: PresetFast},
		},
		{
			name:     "Exactly 100 MiB is not heavy",
			size:     100 * asset.MiB,
			width:    640,
			height:   480,
			expected: Plan{TargetBitrate: "1500k", MaxWidth: 1280, MaxHeight: 720, CRF: 26, Preset: PresetMedium},
		},
		{
			name:     "Exactly 25 MiB is minimal",
			size:     25 * asset.MiB,
			width:    640,
			height:   480,
			expected: Plan{TargetBitrate: "800k", MaxWidth: 640, MaxHeight: 480, CRF: 23, Preset: PresetFast},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.size, tt.width, tt.height, 10)
			if got != tt.expected {
				t.Errorf("Compute() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestComputeScenario1080pThirtyMiB(t *testing.T) {
	// 30 MiB of 1080p: the pixel count exceeds 720p, so the second tier applies
	// before the size-only tier is considered.
	p := Compute(30*asset.MiB, 1920, 1080, 12)
	if p.CRF != 26 || p.TargetBitrate != "1500k" {
		t.Fatalf("Unexpected plan %+v", p)
	}

	w, h := p.FitWithin(1920, 1080)
	if w > 1280 || h > 720 {
		t.Errorf("Output %dx%d exceeds 1280x720", w, h)
	}
}

func TestComputeScenarioThirtyMiB720p(t *testing.T) {
	p := Compute(30*asset.MiB, 1280, 720, 12)
	expected := Plan{TargetBitrate: "1000k", MaxWidth: 1280, MaxHeight: 720, CRF: 24, Preset: PresetFast}
	if p != expected {
		t.Errorf("Compute() = %+v, want %+v", p, expected)
	}
}

func TestComputeIgnoresDuration(t *testing.T) {
	a := Compute(40*asset.MiB, 1280, 720, 1)
	b := Compute(40*asset.MiB, 1280, 720, 3600)
	if a != b {
		t.Errorf("Duration changed the plan: %+v vs %+v", a, b)
	}
}

func TestComputeMonotonicInSize(t *testing.T) {
	sizes := []int64{
		1 * asset.MiB,
		25*asset.MiB - 1, 25 * asset.MiB, 25*asset.MiB + 1,
		50*asset.MiB - 1, 50 * asset.MiB, 50*asset.MiB + 1,
		100*asset.MiB - 1, 100 * asset.MiB, 100*asset.MiB + 1,
		500 * asset.MiB,
	}
	dims := [][2]int{{640, 360}, {1280, 720}, {1920, 1080}, {3840, 2160}}

	for _, d := range dims {
		prev := Compute(sizes[0], d[0], d[1], 30)
		for _, size := range sizes[1:] {
			cur := Compute(size, d[0], d[1], 30)
			if cur.CRF < prev.CRF {
				t.Errorf("%dx%d: CRF decreased from %d to %d at %d bytes", d[0], d[1], prev.CRF, cur.CRF, size)
			}
			prev = cur
		}
	}
}

func TestPlanBitrate(t *testing.T) {
	p := Plan{TargetBitrate: "2000k"}
	if p.BitrateKbps() != 2000 {
		t.Errorf("Expected 2000, got %d", p.BitrateKbps())
	}
	if p.BufferSize() != "4000k" {
		t.Errorf("Expected 4000k, got %s", p.BufferSize())
	}

	bad := Plan{TargetBitrate: "fast"}
	if bad.BitrateKbps() != 0 {
		t.Errorf("Expected 0 for malformed bitrate, got %d", bad.BitrateKbps())
	}
}

func TestNeedsScale(t *testing.T) {
	p := Plan{MaxWidth: 1280, MaxHeight: 720}

	tests := []struct {
		w, h     int
		expected bool
	}{
		{1280, 720, false},
		{640, 360, false},
		{1920, 1080, true},
		{1281, 720, true},
		{720, 1280, true},
	}

	for _, tt := range tests {
		if got := p.NeedsScale(tt.w, tt.h); got != tt.expected {
			t.Errorf("NeedsScale(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.expected)
		}
	}
}

func TestMinimalTierNeverScales(t *testing.T) {
	for _, d := range [][2]int{{320, 240}, {854, 480}, {1280, 720}} {
		p := Compute(5*asset.MiB, d[0], d[1], 10)
		if p.NeedsScale(d[0], d[1]) {
			t.Errorf("%dx%d should not be scaled by %+v", d[0], d[1], p)
		}
		if w, h := p.FitWithin(d[0], d[1]); w != d[0] || h != d[1] {
			t.Errorf("FitWithin changed %dx%d to %dx%d", d[0], d[1], w, h)
		}
	}
}

func TestFitWithin(t *testing.T) {
	p := Plan{MaxWidth: 1280, MaxHeight: 720}

	tests := []struct {
		w, h, ew, eh int
	}{
		{1920, 1080, 1280, 720},
		{3840, 2160, 1280, 720},
		{1080, 1920, 404, 720},
		{2000, 720, 1280, 460},
	}

	for _, tt := range tests {
		w, h := p.FitWithin(tt.w, tt.h)
		if w != tt.ew || h != tt.eh {
			t.Errorf("FitWithin(%d, %d) = %dx%d, want %dx%d", tt.w, tt.h, w, h, tt.ew, tt.eh)
		}
	}
}

func TestScaleFilter(t *testing.T) {
	p := Plan{MaxWidth: 1920, MaxHeight: 1080}
	expected := "scale=1920:1080:force_original_aspect_ratio=decrease:force_divisible_by=2"
	if got := p.ScaleFilter(); got != expected {
		t.Errorf("ScaleFilter() = %q, want %q", got, expected)
	}
}
