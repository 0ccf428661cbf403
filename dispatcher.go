package dispatcher

import (
	"sync/atomic"

	"github.com/ygrebnov/dispatcher/internal/fifo"
)

// Dispatcher runs tasks on a fixed set of workers, each with a private FIFO queue.
//
// Push routes a task to worker color % Workers(). Tasks pushed with the same color
// run in push order and never concurrently with each other; tasks with different
// colors may run in parallel. PushRoundRobin spreads tasks evenly instead.
//
// A Dispatcher is created Stopped: tasks can be pushed but nothing runs until Start.
// Methods are safe for concurrent use.
type Dispatcher struct {
	// noCopy prevents accidental copying of the dispatcher.
	//go:nocopy
	nc noCopy

	*group

	// next is the round-robin cursor. It shares the color space with Push.
	next atomic.Uint32
}

// New creates a Dispatcher with the given number of workers and starts their goroutines.
//
// workers == 0 fails with ErrInvalidConfig. If a worker cannot start (for example
// WithCPUAffinity names a CPU the process may not use), every worker started so far is
// joined and the returned error wraps ErrConstruction.
func New(workers uint, opts ...Option) (*Dispatcher, error) {
	queues := make([]*fifo.Queue[Task], workers)
	for i := range queues {
		queues[i] = fifo.New[Task]()
	}

	g, err := newGroup("dispatcher", workers, opts, queues, func(i int) int { return i })
	if err != nil {
		return nil, err
	}
	return &Dispatcher{group: g}, nil
}

// Start lets workers consume their queues. It is a no-op when already running or destroyed.
func (d *Dispatcher) Start() { d.start() }

// Stop parks the workers. Queued tasks stay queued and run after the next Start.
// A task already taken from a queue runs to completion.
// It is a no-op when already stopped or destroyed.
func (d *Dispatcher) Stop() { d.stop() }

// Clean drops every queued task without running it. It fails with ErrRunning while
// running and with ErrDestroyed after Destroy; in both cases the queues are untouched.
func (d *Dispatcher) Clean() error { return d.clean() }

// Destroy stops every worker, waits for their goroutines to exit, and drops the tasks
// still queued. It blocks until the slowest in-flight task returns, so it must not be
// called from inside a task. Subsequent calls return immediately; Push then fails with
// ErrDestroyed.
func (d *Dispatcher) Destroy() { d.destroy() }

// Push enqueues t on worker color % Workers().
// It fails with ErrNilTask for a nil task and ErrDestroyed after Destroy.
func (d *Dispatcher) Push(t Task, color uint32) error {
	return d.enqueue(d.route(color), t)
}

// PushRoundRobin enqueues t on the next worker in turn. Successive calls cycle through
// the workers, but there is no stickiness: use Push when related tasks must be serialized.
func (d *Dispatcher) PushRoundRobin(t Task) error {
	if !validTask(t) {
		return ErrNilTask
	}
	return d.Push(t, d.next.Add(1)-1)
}

func (d *Dispatcher) route(color uint32) *worker {
	return d.workers[uint64(color)%uint64(len(d.workers))]
}

// Workers returns the number of workers.
func (d *Dispatcher) Workers() int { return len(d.workers) }

// State returns the current run-state.
func (d *Dispatcher) State() State { return d.gate.Load() }

// Name returns the name used in log lines.
func (d *Dispatcher) Name() string { return d.cfg.Name }

// Pending returns the number of queued tasks per worker.
func (d *Dispatcher) Pending() []int {
	out := make([]int, len(d.queues))
	for i, q := range d.queues {
		out[i] = q.Len()
	}
	return out
}
