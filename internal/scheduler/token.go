package scheduler

import (
	"sync"

	"github.com/Zumgugger/reformat-sub001/internal/metrics"
)

// Token is a cancellation latch: tripped at most once, observed by
// non-blocking polls, with callbacks that fire on the first Cancel.
// A nil *Token reads as never canceled.
type Token struct {
	mu        sync.Mutex
	canceled  bool
	callbacks []func()
}

// NewToken returns an untripped token.
func NewToken() *Token { return &Token{} }

// Cancel trips the latch. Only the first call runs the registered
// callbacks; repeat calls are no-ops.
func (t *Token) Cancel() {
	t.mu.Lock()
	if t.canceled {
		t.mu.Unlock()
		return
	}
	t.canceled = true
	callbacks := t.callbacks
	t.callbacks = nil
	t.mu.Unlock()

	metrics.CancellationsTotal.Inc()
	for _, fn := range callbacks {
		fn()
	}
}

// Canceled polls the latch without blocking.
func (t *Token) Canceled() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canceled
}

// OnCancel registers fn to run when the token trips. On an already
// canceled token fn runs immediately on the calling goroutine.
func (t *Token) OnCancel(fn func()) {
	if t == nil || fn == nil {
		return
	}
	t.mu.Lock()
	if t.canceled {
		t.mu.Unlock()
		fn()
		return
	}
	t.callbacks = append(t.callbacks, fn)
	t.mu.Unlock()
}
