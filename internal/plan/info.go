package plan

import (
	"fmt"
	"math"

	"vidcompress/internal/asset"
)

// CompressThreshold is the size above which compression is recommended and
// actually attempted.
const CompressThreshold = 50 * asset.MiB

// CompressionInfo is the advisory estimate displayed before compressing.
type CompressionInfo struct {
	ShouldCompress          bool    `json:"shouldCompress"`
	EstimatedSavingsPercent float64 `json:"estimatedSavingsPercent"`
	EstimatedTimeSeconds    float64 `json:"estimatedTimeSeconds"`
	EstimatedSavings        string  `json:"estimatedSavings"`
	EstimatedTime           string  `json:"estimatedTime"`
}

// ShouldCompress reports whether a source of sizeBytes is worth compressing.
func ShouldCompress(sizeBytes int64) bool {
	return sizeBytes > CompressThreshold
}

// Info estimates savings and processing time for a source of sizeBytes.
func Info(sizeBytes int64) CompressionInfo {
	if !ShouldCompress(sizeBytes) {
		return CompressionInfo{EstimatedSavings: "0%", EstimatedTime: "0s"}
	}

	sizeMiB := float64(sizeBytes) / asset.MiB

	// Typical savings land between 30% and 80%; larger sources save more.
	savings := math.Min(80, math.Max(30, sizeMiB*2))
	// Roughly a minute per 50 MiB, never below half a minute.
	minutes := math.Max(0.5, sizeMiB/50)

	info := CompressionInfo{
		ShouldCompress:          true,
		EstimatedSavingsPercent: savings,
		EstimatedTimeSeconds:    minutes * 60,
		EstimatedSavings:        fmt.Sprintf("%.0f%%", savings),
	}
	if minutes < 1 {
		info.EstimatedTime = fmt.Sprintf("%ds", int(math.Round(minutes*60)))
	} else {
		info.EstimatedTime = fmt.Sprintf("%.1fmin", minutes)
	}
	return info
}
