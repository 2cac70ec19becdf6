// Package export orchestrates conversion runs: it picks the output
// folder, assigns every item a collision-free output path, fans the
// batch out through the scheduler and folds the task results back into
// a per-item summary.
//
// Path assignment happens strictly before any task starts, in
// submission order, so the parallel phase begins with all names settled.
// Per-item problems fail that item only; the single fatal error is an
// output directory that cannot be created.
package export
