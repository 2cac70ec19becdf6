package scheduler

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunOrdersResultsBySubmission(t *testing.T) {
	const n = 32

	// Inverted delays: late submissions finish first, so completion
	// order fights submission order as hard as possible.
	tasks := make([]Task[int], n)
	for i := 0; i < n; i++ {
		i := i
		delay := time.Duration(n-i)*time.Millisecond + time.Duration(rand.Intn(3))*time.Millisecond
		tasks[i] = func() (int, error) {
			time.Sleep(delay)
			return i * 10, nil
		}
	}

	results := Run(tasks, Options{Concurrency: 8})

	if len(results) != n {
		t.Fatalf("Run() returned %d results, want %d", len(results), n)
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("results[%d].Index = %d, want %d", i, r.Index, i)
		}
		if r.Outcome != OutcomeSucceeded {
			t.Errorf("results[%d].Outcome = %v, want %v", i, r.Outcome, OutcomeSucceeded)
		}
		if r.Value != i*10 {
			t.Errorf("results[%d].Value = %d, want %d", i, r.Value, i*10)
		}
	}
}

func TestRunConcurrencyCeiling(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8} {
		t.Run(fmt.Sprintf("N=%d", n), func(t *testing.T) {
			var inFlight, peak int64

			tasks := make([]Task[struct{}], 20)
			for i := range tasks {
				tasks[i] = func() (struct{}, error) {
					cur := atomic.AddInt64(&inFlight, 1)
					for {
						old := atomic.LoadInt64(&peak)
						if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
							break
						}
					}
					time.Sleep(2 * time.Millisecond)
					atomic.AddInt64(&inFlight, -1)
					return struct{}{}, nil
				}
			}

			Run(tasks, Options{Concurrency: n})

			if got := atomic.LoadInt64(&peak); got > int64(n) {
				t.Errorf("Peak in-flight = %d, want at most %d", got, n)
			}
		})
	}
}

func TestRunFaultIsolation(t *testing.T) {
	boom := errors.New("boom")

	t.Run("error at one index", func(t *testing.T) {
		tasks := make([]Task[int], 10)
		for i := range tasks {
			i := i
			tasks[i] = func() (int, error) {
				if i == 4 {
					return -4, boom
				}
				return i, nil
			}
		}

		results := Run(tasks, Options{Concurrency: 4})

		for i, r := range results {
			if i == 4 {
				if r.Outcome != OutcomeFailed {
					t.Errorf("results[4].Outcome = %v, want %v", r.Outcome, OutcomeFailed)
				}
				if !errors.Is(r.Err, boom) {
					t.Errorf("results[4].Err = %v, want the task error", r.Err)
				}
				if r.Value != -4 {
					t.Errorf("results[4].Value = %d, want the partial value -4", r.Value)
				}
				continue
			}
			if r.Outcome != OutcomeSucceeded {
				t.Errorf("results[%d].Outcome = %v, want %v", i, r.Outcome, OutcomeSucceeded)
			}
		}
	})

	t.Run("panic at one index", func(t *testing.T) {
		tasks := make([]Task[int], 6)
		for i := range tasks {
			i := i
			tasks[i] = func() (int, error) {
				if i == 2 {
					panic("deliberate test panic")
				}
				return i, nil
			}
		}

		results := Run(tasks, Options{Concurrency: 3})

		if results[2].Outcome != OutcomeFailed {
			t.Fatalf("results[2].Outcome = %v, want %v", results[2].Outcome, OutcomeFailed)
		}
		if !strings.Contains(results[2].Err.Error(), "panicked") {
			t.Errorf("results[2].Err = %v, want a panic-derived error", results[2].Err)
		}
		for _, i := range []int{0, 1, 3, 4, 5} {
			if results[i].Outcome != OutcomeSucceeded {
				t.Errorf("results[%d].Outcome = %v, want %v", i, results[i].Outcome, OutcomeSucceeded)
			}
		}
	})

	t.Run("nil task", func(t *testing.T) {
		results := Run([]Task[int]{nil}, Options{})
		if results[0].Outcome != OutcomeFailed {
			t.Errorf("Outcome = %v, want %v", results[0].Outcome, OutcomeFailed)
		}
	})
}

func TestRunCancelBeforeStart(t *testing.T) {
	token := NewToken()
	token.Cancel()

	var invoked int64
	tasks := make([]Task[int], 8)
	for i := range tasks {
		tasks[i] = func() (int, error) {
			atomic.AddInt64(&invoked, 1)
			return 0, nil
		}
	}

	results := Run(tasks, Options{Concurrency: 4, Token: token})

	if got := atomic.LoadInt64(&invoked); got != 0 {
		t.Errorf("%d tasks ran after pre-run cancellation, want 0", got)
	}
	for i, r := range results {
		if r.Outcome != OutcomeCanceled {
			t.Errorf("results[%d].Outcome = %v, want %v", i, r.Outcome, OutcomeCanceled)
		}
	}
}

func TestRunCancelMidway(t *testing.T) {
	token := NewToken()

	// Serial pool: task 1 cancels while running. It must still finish
	// normally; everything after it must resolve canceled uninvoked.
	var invoked int64
	tasks := make([]Task[int], 6)
	for i := range tasks {
		i := i
		tasks[i] = func() (int, error) {
			atomic.AddInt64(&invoked, 1)
			if i == 1 {
				token.Cancel()
			}
			return i, nil
		}
	}

	results := Run(tasks, Options{Concurrency: 1, Token: token})

	if got := atomic.LoadInt64(&invoked); got != 2 {
		t.Errorf("%d tasks ran, want 2", got)
	}
	for i, r := range results {
		want := OutcomeSucceeded
		if i >= 2 {
			want = OutcomeCanceled
		}
		if r.Outcome != want {
			t.Errorf("results[%d].Outcome = %v, want %v", i, r.Outcome, want)
		}
	}
	// The in-flight task's value is kept, not rolled back.
	if results[1].Value != 1 {
		t.Errorf("results[1].Value = %d, want 1", results[1].Value)
	}
}

func TestRunTaskReportsCanceled(t *testing.T) {
	tasks := []Task[int]{
		func() (int, error) { return 7, nil },
		func() (int, error) { return 0, ErrCanceled },
		func() (int, error) { return 0, fmt.Errorf("write skipped: %w", ErrCanceled) },
	}

	results := Run(tasks, Options{Concurrency: 1})

	if results[0].Outcome != OutcomeSucceeded {
		t.Errorf("results[0].Outcome = %v, want %v", results[0].Outcome, OutcomeSucceeded)
	}
	if results[1].Outcome != OutcomeCanceled {
		t.Errorf("results[1].Outcome = %v, want %v", results[1].Outcome, OutcomeCanceled)
	}
	if results[2].Outcome != OutcomeCanceled {
		t.Errorf("wrapped ErrCanceled: Outcome = %v, want %v", results[2].Outcome, OutcomeCanceled)
	}
}

func TestRunEmptyTaskList(t *testing.T) {
	done := make(chan []TaskResult[int], 1)
	go func() {
		done <- Run([]Task[int]{}, Options{})
	}()

	select {
	case results := <-done:
		if len(results) != 0 {
			t.Errorf("Run() returned %d results, want 0", len(results))
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not resolve immediately for an empty task list")
	}
}

func TestRunConcurrencyAboveTaskCount(t *testing.T) {
	tasks := make([]Task[int], 3)
	for i := range tasks {
		i := i
		tasks[i] = func() (int, error) { return i, nil }
	}

	results := Run(tasks, Options{Concurrency: 64})

	for i, r := range results {
		if r.Outcome != OutcomeSucceeded || r.Value != i {
			t.Errorf("results[%d] = %+v, want succeeded value %d", i, r, i)
		}
	}
}

func TestRunProgressCallback(t *testing.T) {
	const n = 12

	var mu sync.Mutex
	var snapshots []Progress

	tasks := make([]Task[int], n)
	for i := range tasks {
		i := i
		tasks[i] = func() (int, error) {
			if i%4 == 3 {
				return 0, errors.New("planned failure")
			}
			return i, nil
		}
	}

	Run(tasks, Options{
		Concurrency: 4,
		OnProgress: func(p Progress) {
			mu.Lock()
			snapshots = append(snapshots, p)
			mu.Unlock()
		},
	})

	if len(snapshots) != n {
		t.Fatalf("OnProgress fired %d times, want %d", len(snapshots), n)
	}

	for i, p := range snapshots {
		if p.Total != n {
			t.Errorf("snapshot %d Total = %d, want %d", i, p.Total, n)
		}
		if p.Done != i+1 {
			t.Errorf("snapshot %d Done = %d, want %d", i, p.Done, i+1)
		}
		if p.Succeeded+p.Failed+p.Canceled != p.Done {
			t.Errorf("snapshot %d totals inconsistent: %+v", i, p)
		}
	}

	final := snapshots[n-1]
	if final.Failed != 3 || final.Succeeded != 9 || final.Canceled != 0 {
		t.Errorf("Final progress = %+v, want 9 succeeded, 3 failed", final)
	}
}

func TestRunDefaultConcurrency(t *testing.T) {
	var inFlight, peak int64

	tasks := make([]Task[struct{}], 16)
	for i := range tasks {
		tasks[i] = func() (struct{}, error) {
			cur := atomic.AddInt64(&inFlight, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return struct{}{}, nil
		}
	}

	Run(tasks, Options{})

	if got := atomic.LoadInt64(&peak); got > DefaultConcurrency {
		t.Errorf("Peak in-flight = %d, want at most %d", got, DefaultConcurrency)
	}
}
