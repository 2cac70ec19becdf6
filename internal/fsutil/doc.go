// Package fsutil provides the filesystem primitives used by conversion
// runs: directory creation, atomic output writes, and best-effort
// operations that are logged but never fail the run.
package fsutil
