package dispatcher

import (
	"github.com/ygrebnov/dispatcher/internal/fifo"
)

// Pool runs tasks on a fixed set of workers consuming one shared FIFO queue.
// Any idle worker takes the next task, so there is no per-key ordering: use a
// Dispatcher when related tasks must be serialized.
//
// Lifecycle and errors match Dispatcher: created Stopped, Start/Stop toggle execution,
// Clean only while stopped, Destroy joins every worker.
type Pool struct {
	// noCopy prevents accidental copying of the pool.
	//go:nocopy
	nc noCopy

	*group
}

// NewPool creates a Pool with the given number of workers.
func NewPool(workers uint, opts ...Option) (*Pool, error) {
	queues := []*fifo.Queue[Task]{fifo.NewShared[Task]()}

	g, err := newGroup("pool", workers, opts, queues, func(int) int { return 0 })
	if err != nil {
		return nil, err
	}
	return &Pool{group: g}, nil
}

// Start lets workers consume the queue.
func (p *Pool) Start() { p.start() }

// Stop parks the workers; queued tasks are kept.
func (p *Pool) Stop() { p.stop() }

// Clean drops every queued task. It fails with ErrRunning while running.
func (p *Pool) Clean() error { return p.clean() }

// Destroy stops and joins every worker and drops the remaining tasks.
func (p *Pool) Destroy() { p.destroy() }

// Push enqueues t.
func (p *Pool) Push(t Task) error {
	return p.enqueue(p.workers[0], t)
}

// Workers returns the number of workers.
func (p *Pool) Workers() int { return len(p.workers) }

// State returns the current run-state.
func (p *Pool) State() State { return p.gate.Load() }

// Name returns the name used in log lines.
func (p *Pool) Name() string { return p.cfg.Name }

// Pending returns the number of queued tasks.
func (p *Pool) Pending() int { return p.queues[0].Len() }
