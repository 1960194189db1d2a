/*
Package workers sizes CPU-bound work such as encoder thread pools in
containerized environments.

# Overview

runtime.NumCPU() reports the host's CPU count even when a container is
limited by cgroups. Since Go 1.19 GOMAXPROCS follows the container limit, so
this package derives counts from GOMAXPROCS instead:

	// Wrong: returns 64 on a 64-core node with a 2 CPU limit
	threads := runtime.NumCPU()

	// Correct: returns 2
	threads := workers.ForCPU(0)

Giving ffmpeg more threads than the container can schedule only adds context
switching and CPU throttling.

# Usage

	// One encoder thread per available CPU, at most 16
	threads := workers.ForCPU(16)

	// Custom multiplier without a cap
	threads := workers.Count(2.0, 0)

# Environment Variable Override

ENCODER_THREADS overrides the computed value. The limit still applies:

	env:
	- name: ENCODER_THREADS
	  value: "4"

# Thread Safety

All functions are safe for concurrent use.
*/
package workers
