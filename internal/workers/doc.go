/*
Package workers provides utilities for determining worker pool sizes for
conversion runs, including in containerized environments.

# Overview

When running in containers, the number of available CPUs may be limited by
cgroup constraints. While Go 1.19+ automatically sets GOMAXPROCS based on
container CPU limits, the commonly used runtime.NumCPU() function still
returns the host machine's CPU count.

This package derives worker counts from GOMAXPROCS so conversion runs
respect container resource limits:

	// Wrong: returns host CPUs, ignores container limit
	n := runtime.NumCPU()

	// Correct: respects the container limit in Go 1.19+
	n := runtime.GOMAXPROCS(0)

# Usage

	// Default for a conversion run: CPU-bound, capped at DefaultLimit
	n := workers.ForConversion()

	// For CPU-intensive stages (decode, resample, encode)
	n := workers.ForCPU(8)

	// For I/O-bound stages (directory scans)
	n := workers.ForIO(16)

	// Fine-grained control
	n := workers.Count(1.5, 12)

# Environment Variable Override

All functions respect the CONVERT_WORKERS environment variable, allowing
operators to override the automatic calculation:

	CONVERT_WORKERS=2 reformat run ./photos

# Workload Types

CPU-bound stages use one worker per available CPU; more would only add
context switching. I/O-bound stages use two per CPU, since workers can make
progress while others wait on the filesystem. Mixed stages use 1.5.

Conversion tasks hold a decoded image in memory, so ForConversion also caps
the pool at DefaultLimit regardless of CPU count. Peak memory scales with
the number of concurrently decoded images, not with throughput.
*/
package workers
