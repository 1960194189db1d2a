package metrics

// Outcome labels used by the compressor.
var Outcomes = []string{
	"success",
	"below_threshold",
	"unsupported_environment",
	"engine_unavailable",
	"timeout",
	"metadata_read",
	"execution",
	"empty_output",
	"error",
}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, outcome := range Outcomes {
		CompressionsTotal.WithLabelValues(outcome)
	}

	for _, prober := range []string{"mp4", "ffprobe"} {
		ProbeDuration.WithLabelValues(prober)
		ProbeTotal.WithLabelValues(prober, "success")
		ProbeTotal.WithLabelValues(prober, "error")
	}

	for _, bucket := range []string{"videos", "thumbnails"} {
		StorageWritesTotal.WithLabelValues(bucket, "success")
		StorageWritesTotal.WithLabelValues(bucket, "error")
	}

	for _, status := range []string{"success", "invalid", "error"} {
		UploadsTotal.WithLabelValues(status)
	}

	for _, op := range []string{"insert_video", "get_video", "list_recent", "search_videos", "increment_views", "delete_video", "stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
