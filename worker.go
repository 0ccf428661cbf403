package dispatcher

import (
	"go.uber.org/zap"

	"github.com/ygrebnov/dispatcher/internal/affinity"
	"github.com/ygrebnov/dispatcher/internal/fifo"
	"github.com/ygrebnov/dispatcher/internal/runstate"
)

// worker is one goroutine consuming tasks from a queue. In a Dispatcher every worker
// owns its queue; in a Pool all workers share one.
type worker struct {
	index  int
	tasks  *fifo.Queue[Task]
	gate   *runstate.Gate
	in     instruments
	log    *zap.Logger
	exited chan struct{}
}

func newWorker(index int, tasks *fifo.Queue[Task], gate *runstate.Gate, in instruments, log *zap.Logger) *worker {
	return &worker{
		index:  index,
		tasks:  tasks,
		gate:   gate,
		in:     in,
		log:    log,
		exited: make(chan struct{}),
	}
}

// start launches the goroutine and blocks until boot has run on it.
// If boot fails the goroutine has already returned when start does.
func (w *worker) start(boot func() error) error {
	ready := make(chan error, 1)
	go func() {
		defer close(w.exited)
		if err := boot(); err != nil {
			ready <- err
			return
		}
		ready <- nil
		w.serve()
	}()
	return <-ready
}

// serve is the worker loop: park while stopped, consume while running, return once destroying.
func (w *worker) serve() {
	for {
		switch w.gate.Load() {
		case runstate.Destroying:
			return
		case runstate.Stopped:
			w.gate.Park()
			continue
		}

		// Pop re-checks the state under the queue lock after every wake-up, so a
		// Stop or Destroy sends the worker back to the loop head.
		t, ok := w.tasks.Pop(w.gate.Running)
		if !ok {
			continue
		}
		w.in.queued.Add(-1)

		if !execute(t, w.in, w.log) {
			return
		}
	}
}

// push appends t unless admit reports false under the queue lock.
func (w *worker) push(t Task, admit func() bool) bool {
	w.in.queued.Add(1)
	if _, ok := w.tasks.PushIf(t, admit); !ok {
		w.in.queued.Add(-1)
		return false
	}
	return true
}

func (w *worker) join() { <-w.exited }

// bootstrap returns the startup hook for worker index: thread locking, CPU pinning,
// then the test hook if any.
func bootstrap(cfg *config, index int) func() error {
	return func() error {
		if cfg.LockOSThread {
			cpu := -1
			if len(cfg.CPUs) > 0 {
				cpu = cfg.CPUs[index%len(cfg.CPUs)]
			}
			if err := affinity.Bind(cpu); err != nil {
				return err
			}
		}
		if cfg.bootstrap != nil {
			return cfg.bootstrap(index)
		}
		return nil
	}
}

// discard drops everything queued in q and accounts for it.
func discard(q *fifo.Queue[Task], in instruments) int {
	n := q.Drain()
	if n > 0 {
		in.queued.Add(-int64(n))
		in.discarded.Add(int64(n))
	}
	return n
}
