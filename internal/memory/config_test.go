package memory

import (
	"runtime/debug"
	"testing"
)

func TestConfigureFromEnv(t *testing.T) {
	tests := []struct {
		name           string
		memoryLimit    string
		memoryRatio    string
		wantConfigured bool
		wantSource     string
		wantLimit      int64
		wantRatio      float64
	}{
		{
			name:       "Nothing set",
			wantSource: sourceNone,
		},
		{
			name:        "Invalid limit",
			memoryLimit: "lots",
			wantSource:  sourceNone,
		},
		{
			name:        "Negative limit",
			memoryLimit: "-5",
			wantSource:  sourceNone,
		},
		{
			name:           "Default ratio",
			memoryLimit:    "1000000000",
			wantConfigured: true,
			wantSource:     sourceMemoryLimit,
			wantLimit:      600000000,
			wantRatio:      DefaultMemoryRatio,
		},
		{
			name:           "Custom ratio",
			memoryLimit:    "1000000000",
			memoryRatio:    "0.5",
			wantConfigured: true,
			wantSource:     sourceMemoryLimit,
			wantLimit:      500000000,
			wantRatio:      0.5,
		},
		{
			name:           "Out of range ratio",
			memoryLimit:    "1000000000",
			memoryRatio:    "1.5",
			wantConfigured: true,
			wantSource:     sourceMemoryLimit,
			wantLimit:      600000000,
			wantRatio:      DefaultMemoryRatio,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldLimit := debug.SetMemoryLimit(-1)
			t.Cleanup(func() { debug.SetMemoryLimit(oldLimit) })

			t.Setenv("GOMEMLIMIT", "")
			t.Setenv("MEMORY_LIMIT", tt.memoryLimit)
			t.Setenv("MEMORY_RATIO", tt.memoryRatio)

			result := ConfigureFromEnv()

			if result.Configured != tt.wantConfigured {
				t.Errorf("Expected Configured=%v, got %v", tt.wantConfigured, result.Configured)
			}
			if result.Source != tt.wantSource {
				t.Errorf("Expected Source=%q, got %q", tt.wantSource, result.Source)
			}
			if result.GoMemLimit != tt.wantLimit {
				t.Errorf("Expected GoMemLimit=%d, got %d", tt.wantLimit, result.GoMemLimit)
			}
			if result.Ratio != tt.wantRatio {
				t.Errorf("Expected Ratio=%v, got %v", tt.wantRatio, result.Ratio)
			}
			if tt.wantConfigured && debug.SetMemoryLimit(-1) != tt.wantLimit {
				t.Errorf("Expected runtime limit %d, got %d", tt.wantLimit, debug.SetMemoryLimit(-1))
			}
		})
	}
}

func TestConfigureFromEnvGOMEMLIMIT(t *testing.T) {
	oldLimit := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(oldLimit) })

	t.Setenv("GOMEMLIMIT", "500MiB")
	t.Setenv("MEMORY_LIMIT", "1073741824")
	// GOMEMLIMIT is only read at startup, so apply it by hand.
	debug.SetMemoryLimit(500 * 1024 * 1024)

	result := ConfigureFromEnv()

	if result.Source != sourceGOMEMLIMIT {
		t.Errorf("Expected Source=%q, got %q", sourceGOMEMLIMIT, result.Source)
	}
	if !result.Configured || result.GoMemLimit != 500*1024*1024 {
		t.Errorf("Expected configured 500MiB limit, got %+v", result)
	}
	if result.ContainerLimit != 0 {
		t.Errorf("Expected MEMORY_LIMIT to be ignored, got %d", result.ContainerLimit)
	}
}

func TestParseRatio(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", DefaultMemoryRatio},
		{"0.75", 0.75},
		{"1", 1},
		{"0", DefaultMemoryRatio},
		{"abc", DefaultMemoryRatio},
	}

	for _, tt := range tests {
		if got := parseRatio(tt.in); got != tt.want {
			t.Errorf("parseRatio(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
