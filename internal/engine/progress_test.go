package engine

import (
	"testing"
)

func collect() (*[]float64, func(float64)) {
	var got []float64
	return &got, func(r float64) { got = append(got, r) }
}

func TestProgressTracker(t *testing.T) {
	got, emit := collect()
	p := newProgressTracker(emit)

	// No duration yet, nothing reported.
	p.progressLine("out_time_us=1000000")
	if len(*got) != 0 {
		t.Fatalf("Expected no progress before duration is known, got %v", *got)
	}

	p.stderrLine("  Duration: 00:01:40.00, start: 0.000000, bitrate: 2000 kb/s")
	p.stderrLine("  Duration: 00:00:01.00, start: 0.000000, bitrate: 2000 kb/s")

	p.progressLine("out_time_us=25000000")
	p.progressLine("out_time_ms=50000000")
	p.progressLine("frame=120")
	p.progressLine("out_time_us=N/A")
	p.progressLine("out_time_us=500000000")
	p.progressLine("progress=continue")
	p.progressLine("progress=end")

	want := []float64{0.25, 0.5, 1, 1}
	if len(*got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, *got)
	}
	for i := range want {
		if (*got)[i] != want[i] {
			t.Errorf("Expected ratio[%d]=%v, got %v", i, want[i], (*got)[i])
		}
	}
}

func TestProgressTrackerDurationParsing(t *testing.T) {
	tests := []struct {
		name string
		line string
		want int64
	}{
		{"Hours", "Duration: 01:02:03.50, start", 3723500000},
		{"Fractionless", "Duration: 00:00:07, start", 7000000},
		{"NotAvailable", "Duration: N/A, start: 0", 0},
		{"Unrelated", "Stream #0:0: Video: h264", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProgressTracker(nil)
			p.stderrLine(tt.line)
			if got := p.durationUs.Load(); got != tt.want {
				t.Errorf("Expected duration %dus, got %dus", tt.want, got)
			}
		})
	}
}

func TestProgressTrackerNilListener(t *testing.T) {
	p := newProgressTracker(nil)
	p.stderrLine("Duration: 00:00:10.00")
	p.progressLine("out_time_us=1")
	p.progressLine("progress=end")
}
