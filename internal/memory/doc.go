// Package memory keeps the service inside its container memory limit.
//
// Uploads are buffered in memory and ffmpeg runs as a child process with its
// own copy of each video, so the Go heap must leave headroom. The package
// does two things:
//
//   - [ConfigureFromEnv] sets GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO
//   - [Monitor] samples heap usage and reports when new uploads should be
//     refused
//
// # Environment Variables
//
//   - GOMEMLIMIT: Standard Go environment variable. Takes precedence over
//     everything else.
//   - MEMORY_LIMIT: Container memory limit in bytes, typically from the
//     Kubernetes Downward API.
//   - MEMORY_RATIO: Share of MEMORY_LIMIT given to the Go heap, between 0.0
//     and 1.0. Default 0.6.
//
// Passing the container limit in Kubernetes:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//
// # Backpressure
//
// The monitor pauses once usage reaches CriticalWaterMark and resumes only
// after usage falls below HighWaterMark. While paused, the upload and probe
// handlers answer 503 with Retry-After. A nil *Monitor never pauses.
package memory
