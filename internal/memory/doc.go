// Package memory configures Go's soft memory limit and provides backpressure
// for long-running conversion processes.
//
// # Overview
//
// Go auto-detects GOMAXPROCS from cgroup CPU limits, but GOMEMLIMIT must be
// configured explicitly. A converter that decodes large images inside a
// memory-limited container (a CI job, a batch pod) can be OOM-killed long
// before the garbage collector feels any pressure, because the default heap
// goal is relative to live data, not to the container limit.
//
// Call [ConfigureFromEnv] first thing in main, before decoding anything:
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ... rest of application
//	}
//
// # Environment Variables
//
//   - GOMEMLIMIT: standard Go variable, e.g. "400MiB". If set it takes
//     precedence over everything else.
//
//   - MEMORY_LIMIT: container memory limit in bytes, typically injected via
//     the Kubernetes Downward API (resourceFieldRef: limits.memory).
//
//   - MEMORY_RATIO: fraction of MEMORY_LIMIT given to the Go heap, between
//     0.0 and 1.0. Default 0.85. Lower it when the vips engine is active,
//     since libvips allocates its pixel buffers outside the Go heap.
//
// GOMEMLIMIT is a soft limit: it only makes the collector more aggressive as
// the heap approaches it, and it knows nothing about CGO allocations. The
// reserved slice (1 - ratio) is what keeps libvips buffers and goroutine
// stacks from pushing the process over the hard container limit.
//
// # Backpressure
//
// One-shot runs allocate a bounded amount of work and finish; watch mode
// runs indefinitely and converts whatever lands in the watched directories.
// A burst of large files can outpace the collector, so watch mode gates each
// conversion on a [Monitor]:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	// before each conversion:
//	if !monitor.WaitIfPaused() {
//	    return // monitor stopped, shutting down
//	}
//
// The monitor samples heap usage on an interval. Above the critical
// watermark it pauses new conversions and forces a collection; once usage
// falls back under the high watermark, blocked conversions resume. With no
// limit configured (no GOMEMLIMIT and a zero Config limit) every call
// passes through immediately.
package memory
