// Package scheduler runs independent tasks through a fixed-size worker
// pool with cooperative cancellation, fault isolation and results
// ordered by submission index.
package scheduler

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Zumgugger/reformat-sub001/internal/metrics"
)

// DefaultConcurrency bounds codec memory pressure, not throughput.
const DefaultConcurrency = 4

// ErrCanceled marks a task that observed cancellation mid-flight and
// stopped before its visible side effect. Tasks returning it (or
// wrapping it) resolve as canceled rather than failed.
var ErrCanceled = errors.New("task canceled")

// Outcome classifies how a task resolved.
type Outcome string

const (
	// OutcomeSucceeded means the task returned a value.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeFailed means the task returned an error or panicked.
	OutcomeFailed Outcome = "failed"
	// OutcomeCanceled means the task never ran, or bailed out on the
	// token before its side effect.
	OutcomeCanceled Outcome = "canceled"
)

// Task produces one value. Tasks run on pool goroutines and must not
// share mutable state with their siblings. A task may return a partial
// value alongside its error; the result keeps both.
type Task[T any] func() (T, error)

// TaskResult pairs a task's outcome with its submission index. Value is
// set for succeeded tasks and for failed tasks that returned a partial
// value with their error (diagnostics collected before the failure).
type TaskResult[T any] struct {
	Index   int
	Outcome Outcome
	Value   T
	Err     error
}

// Progress carries running totals. Succeeded+Failed+Canceled == Done,
// and Done == Total once Run returns.
type Progress struct {
	Total     int
	Done      int
	Succeeded int
	Failed    int
	Canceled  int
}

// Options configure one Run call.
type Options struct {
	// Concurrency is the worker ceiling; DefaultConcurrency when <= 0.
	Concurrency int
	// Token, when non-nil, is polled before each task start.
	Token *Token
	// OnProgress fires exactly once per task resolution, serialized
	// under the progress mutex in Done order. Keep it fast; it runs on
	// pool goroutines.
	OnProgress func(Progress)
}

// Run executes tasks with at most Options.Concurrency in flight and
// returns results indexed by submission order regardless of completion
// order. One task's failure never affects its siblings; once the token
// reads canceled, not-yet-started tasks resolve as canceled without
// being invoked while running tasks finish normally.
func Run[T any](tasks []Task[T], opts Options) []TaskResult[T] {
	results := make([]TaskResult[T], len(tasks))
	if len(tasks) == 0 {
		return results
	}

	workers := opts.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	metrics.WorkerCeiling.Set(float64(workers))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		progress = Progress{Total: len(tasks)}
	)

	resolve := func(r TaskResult[T]) {
		mu.Lock()
		defer mu.Unlock()

		results[r.Index] = r
		progress.Done++
		switch r.Outcome {
		case OutcomeSucceeded:
			progress.Succeeded++
		case OutcomeFailed:
			progress.Failed++
		case OutcomeCanceled:
			progress.Canceled++
		}
		if opts.OnProgress != nil {
			opts.OnProgress(progress)
		}
	}

	workCh := make(chan int, len(tasks))
	for i := range tasks {
		workCh <- i
	}
	close(workCh)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				if opts.Token.Canceled() {
					resolve(TaskResult[T]{Index: idx, Outcome: OutcomeCanceled})
					continue
				}

				value, err := runTask(tasks[idx])

				switch {
				case errors.Is(err, ErrCanceled):
					resolve(TaskResult[T]{Index: idx, Outcome: OutcomeCanceled})
				case err != nil:
					resolve(TaskResult[T]{Index: idx, Outcome: OutcomeFailed, Value: value, Err: err})
				default:
					resolve(TaskResult[T]{Index: idx, Outcome: OutcomeSucceeded, Value: value})
				}
			}
		}()
	}

	wg.Wait()
	return results
}

// runTask invokes one task, converting panics into errors so a bad task
// cannot take down its worker.
func runTask[T any](task Task[T]) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	if task == nil {
		return value, fmt.Errorf("nil task")
	}
	return task()
}
