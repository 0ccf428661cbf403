package dispatcher

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/ygrebnov/errorc"
	"go.uber.org/zap"

	"github.com/ygrebnov/dispatcher/internal/fifo"
	"github.com/ygrebnov/dispatcher/internal/runstate"
)

// State is the run-state shared by a worker group: Stopped, Running or Destroying.
type State = runstate.State

const (
	// Stopped is the initial state: tasks are queued but not run.
	Stopped = runstate.Stopped
	// Running lets workers consume their queues.
	Running = runstate.Running
	// Destroying is terminal and set by Destroy.
	Destroying = runstate.Destroying
)

// group is a fixed set of workers driven by one run-state gate. It implements the
// lifecycle common to Dispatcher and Pool; they differ only in how queues are assigned.
type group struct {
	cfg     *config
	log     *zap.Logger
	gate    *runstate.Gate
	in      instruments
	queues  []*fifo.Queue[Task]
	workers []*worker

	destroyOnce sync.Once
}

// newGroup builds the configuration, creates the queues and starts n workers.
// queueOf maps a worker index to an index in queues.
//
// If any worker fails to boot, every worker started so far is woken, joined and
// discarded, and the error wraps ErrConstruction. No goroutine outlives a failed call.
func newGroup(kind string, n uint, opts []Option, queues []*fifo.Queue[Task], queueOf func(i int) int) (*group, error) {
	if n == 0 {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("", "worker count must be > 0"))
	}

	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = uuid.NewString()
	}

	g := &group{
		cfg:     cfg,
		log:     cfg.Logger.Named(kind).With(zap.String("name", cfg.Name)),
		gate:    runstate.New(),
		in:      newInstruments(cfg.Metrics, kind),
		queues:  queues,
		workers: make([]*worker, 0, n),
	}

	for i := range int(n) {
		w := newWorker(i, queues[queueOf(i)], g.gate, g.in, g.log.With(zap.Int("worker", i)))
		if err := w.start(bootstrap(cfg, i)); err != nil {
			w.join()
			g.rollback()
			g.log.Error("worker failed to start, construction rolled back",
				zap.Int("worker", i), zap.Int("joined", len(g.workers)), zap.Error(err))
			return nil, fmt.Errorf("%w: %w",
				errorc.With(ErrConstruction, errorc.String("worker", strconv.Itoa(i))), err)
		}
		g.workers = append(g.workers, w)
	}

	g.log.Info(kind+" created", zap.Uint("workers", n))

	if cfg.StartImmediately {
		g.start()
	}
	return g, nil
}

// rollback tears down the workers started by a failed newGroup.
func (g *group) rollback() {
	g.gate.Set(runstate.Destroying)
	g.shutdown()
}

// shutdown wakes and joins every worker, then drops whatever is still queued.
// The gate must already be Destroying.
func (g *group) shutdown() int {
	for _, w := range g.workers {
		w.tasks.Wake()
		w.join()
	}
	var discarded int
	for _, q := range g.queues {
		discarded += discard(q, g.in)
	}
	return discarded
}

func (g *group) start() {
	if prev, ok := g.gate.Set(runstate.Running); ok {
		g.log.Debug("started", zap.Stringer("from", prev))
	}
}

func (g *group) stop() {
	if _, ok := g.gate.Set(runstate.Stopped); !ok {
		return
	}
	// Workers blocked on an empty queue re-check the state and park.
	for _, q := range g.queues {
		q.Wake()
	}
	g.log.Debug("stopped")
}

func (g *group) clean() error {
	return g.gate.Hold(func(s runstate.State) error {
		switch s {
		case runstate.Running:
			return ErrRunning
		case runstate.Destroying:
			return ErrDestroyed
		}

		var n int
		for _, q := range g.queues {
			n += discard(q, g.in)
		}
		g.log.Debug("queues cleaned", zap.Int("discarded", n))
		return nil
	})
}

func (g *group) destroy() {
	g.destroyOnce.Do(func() {
		g.gate.Set(runstate.Destroying)
		n := g.shutdown()
		g.log.Info("destroyed", zap.Int("discarded", n))
	})
}

// enqueue validates t and appends it to w's queue.
func (g *group) enqueue(w *worker, t Task) error {
	if !validTask(t) {
		return ErrNilTask
	}
	// The state is re-checked under the queue lock, which Destroy's drain also takes, so an
	// accepted task is always either run or counted as discarded.
	if !w.push(t, func() bool { return g.gate.Load() != runstate.Destroying }) {
		return ErrDestroyed
	}
	g.in.pushed.Add(1)
	return nil
}

// noCopy is a vet-recognized marker to discourage copying types with this field embedded.
// It works with the "-copylocks" analyzer via the presence of Lock/Unlock methods.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
