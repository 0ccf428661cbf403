package dispatcher

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// withBootstrap installs a per-worker startup hook.
func withBootstrap(fn func(index int) error) Option {
	return func(cfg *config) error { cfg.bootstrap = fn; return nil }
}

// observed returns a debug-level logger whose entries can be inspected.
func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

// recorder collects task executions in order.
type recorder struct {
	mu   sync.Mutex
	runs map[int]int
	seq  map[uint32][]int
}

func newRecorder() *recorder {
	return &recorder{runs: make(map[int]int), seq: make(map[uint32][]int)}
}

// task returns a Task recording id under color when it runs.
func (r *recorder) task(color uint32, id int) Task {
	return TaskFunc(func() {
		r.mu.Lock()
		r.runs[id]++
		r.seq[color] = append(r.seq[color], id)
		r.mu.Unlock()
	})
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.runs {
		n += c
	}
	return n
}

func (r *recorder) order(color uint32) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.seq[color]...)
}

// requireEachOnce asserts that ids 0..n-1 ran exactly once.
func (r *recorder) requireEachOnce(t *testing.T, n int) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.runs, n)
	for id, c := range r.runs {
		require.Equal(t, 1, c, "task %d ran %d times", id, c)
	}
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 2*time.Millisecond, msg)
}

// never asserts that cond stays false for d.
func never(t *testing.T, cond func() bool, d time.Duration, msg string) {
	t.Helper()
	require.Never(t, cond, d, 2*time.Millisecond, msg)
}

// goroutinesSettle waits until the goroutine count drops back to at most base.
// It samples on the calling goroutine so the check itself is not counted.
func goroutinesSettle(t *testing.T, base int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	n := runtime.NumGoroutine()
	for n > base && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
		n = runtime.NumGoroutine()
	}
	require.LessOrEqual(t, n, base, "goroutines leaked: have %d, want <= %d", n, base)
}

func newDispatcher(t *testing.T, n uint, opts ...Option) *Dispatcher {
	t.Helper()
	d, err := New(n, opts...)
	require.NoError(t, err)
	t.Cleanup(d.Destroy)
	return d
}
